package ocr

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Rangesa/Game-Translator/internal/errors"
)

type recognizerResult struct {
	Error string           `json:"error"`
	Lines []recognizerLine `json:"lines"`
}

type recognizerLine struct {
	Text string `json:"text"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	W    int    `json:"w"`
	H    int    `json:"h"`
}

// parseRecognizerJSON decodes the {"lines":[...]} document emitted by the
// PowerShell recognizer, or its {"error":"..."} failure shape.
func parseRecognizerJSON(data []byte) ([]Line, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New(errors.CodeOCRFailed, "empty recognizer output")
	}
	var res recognizerResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.Wrap(err, errors.CodeOCRFailed, "parse recognizer output")
	}
	if res.Error != "" {
		return nil, errors.Newf(errors.CodeOCRFailed, "recognizer: %s", res.Error)
	}
	lines := make([]Line, 0, len(res.Lines))
	for _, l := range res.Lines {
		lines = append(lines, Line{Text: l.Text, X: l.X, Y: l.Y, Width: l.W, Height: l.H})
	}
	return lines, nil
}

// parseTesseractTSV assembles word rows (level 5) from tesseract's TSV
// output into lines keyed by block/paragraph/line numbers, with union boxes
// and space-joined text.
func parseTesseractTSV(data []byte) []Line {
	var (
		lines   []Line
		cur     Line
		curKey  [3]string
		haveCur bool
	)
	sc := bufio.NewScanner(bytes.NewReader(data))
	header := true
	for sc.Scan() {
		if header {
			header = false
			continue
		}
		cols := strings.Split(sc.Text(), "\t")
		if len(cols) < 12 || cols[0] != "5" {
			continue
		}
		text := strings.TrimSpace(cols[11])
		if text == "" {
			continue
		}
		if conf, err := strconv.ParseFloat(cols[10], 64); err != nil || conf < 0 {
			continue
		}
		left, _ := strconv.Atoi(cols[6])
		top, _ := strconv.Atoi(cols[7])
		width, _ := strconv.Atoi(cols[8])
		height, _ := strconv.Atoi(cols[9])

		key := [3]string{cols[2], cols[3], cols[4]}
		if !haveCur || key != curKey {
			if haveCur {
				lines = append(lines, cur)
			}
			cur = Line{Text: text, X: left, Y: top, Width: width, Height: height}
			curKey = key
			haveCur = true
			continue
		}

		right := max(cur.X+cur.Width, left+width)
		bottom := max(cur.Y+cur.Height, top+height)
		cur.X = min(cur.X, left)
		cur.Y = min(cur.Y, top)
		cur.Width = right - cur.X
		cur.Height = bottom - cur.Y
		cur.Text += " " + text
	}
	if haveCur {
		lines = append(lines, cur)
	}
	return lines
}
