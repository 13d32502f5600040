package ocr

import (
	"strings"
	"testing"

	"github.com/Rangesa/Game-Translator/internal/errors"
)

func TestParseRecognizerJSON(t *testing.T) {
	data := []byte(`{"lines":[{"text":"Hello","x":10,"y":20,"w":80,"h":16},{"text":"World","x":10,"y":40,"w":90,"h":16}]}`)

	lines, err := parseRecognizerJSON(data)
	if err != nil {
		t.Fatalf("parseRecognizerJSON: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	want := Line{Text: "Hello", X: 10, Y: 20, Width: 80, Height: 16}
	if lines[0] != want {
		t.Errorf("lines[0] = %+v, want %+v", lines[0], want)
	}
}

func TestParseRecognizerJSONError(t *testing.T) {
	_, err := parseRecognizerJSON([]byte(`{"error":"no recognizer languages installed"}`))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.IsCode(err, errors.CodeOCRFailed) {
		t.Errorf("code = %v, want CodeOCRFailed", errors.CodeOf(err))
	}
}

func TestParseRecognizerJSONEmpty(t *testing.T) {
	if _, err := parseRecognizerJSON([]byte("  \n")); err == nil {
		t.Error("expected error for empty output")
	}

	lines, err := parseRecognizerJSON([]byte(`{"lines":[]}`))
	if err != nil || len(lines) != 0 {
		t.Errorf("empty lines = %v, %v; want none, nil", lines, err)
	}
}

func TestParseTesseractTSV(t *testing.T) {
	rows := []string{
		"level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext",
		"1\t1\t0\t0\t0\t0\t0\t0\t640\t480\t-1\t",
		"4\t1\t1\t1\t1\t0\t10\t20\t200\t18\t-1\t",
		"5\t1\t1\t1\t1\t1\t10\t20\t60\t16\t96.1\tHello",
		"5\t1\t1\t1\t1\t2\t80\t22\t70\t16\t91.5\tthere",
		"5\t1\t1\t1\t2\t1\t10\t50\t40\t16\t88.0\tBye",
	}
	data := []byte(strings.Join(rows, "\n"))

	lines := parseTesseractTSV(data)

	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	first := lines[0]
	if first.Text != "Hello there" {
		t.Errorf("text = %q, want %q", first.Text, "Hello there")
	}
	// Union of (10,20,60,16) and (80,22,70,16).
	if first.X != 10 || first.Y != 20 || first.Width != 140 || first.Height != 18 {
		t.Errorf("box = (%d,%d,%d,%d), want (10,20,140,18)", first.X, first.Y, first.Width, first.Height)
	}
	if lines[1].Text != "Bye" || lines[1].Y != 50 {
		t.Errorf("lines[1] = %+v, want Bye at y=50", lines[1])
	}
}

func TestParseTesseractTSVSkipsLowConfidence(t *testing.T) {
	rows := []string{
		"header",
		"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t-1\tnoise",
		"5\t1\t1\t1\t1\t2\t0\t0\t10\t10\t80\treal",
	}
	lines := parseTesseractTSV([]byte(strings.Join(rows, "\n")))

	if len(lines) != 1 || lines[0].Text != "real" {
		t.Errorf("lines = %+v, want only the confident word", lines)
	}
}
