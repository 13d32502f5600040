package translate

import (
	"context"
	"testing"

	"github.com/Rangesa/Game-Translator/internal/config"
	"github.com/Rangesa/Game-Translator/internal/errors"
	"github.com/Rangesa/Game-Translator/internal/resilience"
)

type fakeBackend struct {
	calls     int
	lastBatch []string
	fn        func(texts []string) ([]*string, error)
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Translate(_ context.Context, texts []string) ([]*string, error) {
	f.calls++
	f.lastBatch = texts
	return f.fn(texts)
}

func newFakeService(fn func(texts []string) ([]*string, error)) (*Service, *fakeBackend) {
	b := &fakeBackend{fn: fn}
	return &Service{backend: b, breaker: resilience.New(resilience.DefaultConfig())}, b
}

func echoBracketed(texts []string) ([]*string, error) {
	out := make([]*string, len(texts))
	for i, t := range texts {
		s := "[" + t + "]"
		out[i] = &s
	}
	return out, nil
}

func TestTranslateBatchFiltersBlanks(t *testing.T) {
	svc, b := newFakeService(echoBracketed)

	got, err := svc.TranslateBatch(context.Background(), []string{"", "Hi", "  "})
	if err != nil {
		t.Fatalf("TranslateBatch: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d results, want 3", len(got))
	}
	if got[0] != nil || got[2] != nil {
		t.Error("blank inputs should map to nil results")
	}
	if got[1] == nil || *got[1] != "[Hi]" {
		t.Errorf("got %v, want [Hi]", got[1])
	}
	if len(b.lastBatch) != 1 || b.lastBatch[0] != "Hi" {
		t.Errorf("backend saw %v, want [Hi] only", b.lastBatch)
	}
}

func TestTranslateBatchAllBlank(t *testing.T) {
	svc, b := newFakeService(echoBracketed)

	got, err := svc.TranslateBatch(context.Background(), []string{"", "   ", "\t"})
	if err != nil {
		t.Fatalf("TranslateBatch: %v", err)
	}
	for i, r := range got {
		if r != nil {
			t.Errorf("result %d should be nil", i)
		}
	}
	if b.calls != 0 {
		t.Errorf("backend called %d times, want 0", b.calls)
	}
}

func TestTranslateBatchPreservesOrder(t *testing.T) {
	svc, _ := newFakeService(echoBracketed)

	got, err := svc.TranslateBatch(context.Background(), []string{"a", "", "b"})
	if err != nil {
		t.Fatalf("TranslateBatch: %v", err)
	}
	if got[0] == nil || *got[0] != "[a]" {
		t.Errorf("got[0] = %v, want [a]", got[0])
	}
	if got[1] != nil {
		t.Error("got[1] should be nil")
	}
	if got[2] == nil || *got[2] != "[b]" {
		t.Errorf("got[2] = %v, want [b]", got[2])
	}
}

func TestTranslateBatchKeepsBackendNils(t *testing.T) {
	svc, _ := newFakeService(func(texts []string) ([]*string, error) {
		out := make([]*string, len(texts))
		s := "only"
		out[0] = &s
		return out, nil
	})

	got, err := svc.TranslateBatch(context.Background(), []string{"x", "y"})
	if err != nil {
		t.Fatalf("TranslateBatch: %v", err)
	}
	if got[0] == nil || *got[0] != "only" {
		t.Errorf("got[0] = %v, want only", got[0])
	}
	if got[1] != nil {
		t.Error("a nil from the backend should stay nil")
	}
}

func TestTranslateBatchLengthMismatch(t *testing.T) {
	svc, _ := newFakeService(func(texts []string) ([]*string, error) {
		return make([]*string, len(texts)+1), nil
	})

	_, err := svc.TranslateBatch(context.Background(), []string{"x"})
	if err == nil {
		t.Fatal("expected error on result length mismatch")
	}
	if !errors.IsCode(err, errors.CodeBackend) {
		t.Errorf("got %v, want CodeBackend", err)
	}
}

func TestTranslateBatchRetriesTransientFailure(t *testing.T) {
	failures := 1
	svc, b := newFakeService(func(texts []string) ([]*string, error) {
		if failures > 0 {
			failures--
			return nil, errors.New(errors.CodeUnavailable, "backend down")
		}
		return echoBracketed(texts)
	})

	got, err := svc.TranslateBatch(context.Background(), []string{"Hi"})
	if err != nil {
		t.Fatalf("TranslateBatch: %v", err)
	}
	if got[0] == nil || *got[0] != "[Hi]" {
		t.Errorf("got %v, want [Hi]", got[0])
	}
	if b.calls != 2 {
		t.Errorf("backend called %d times, want 2", b.calls)
	}
}

func TestTranslateBatchDoesNotRetryAuthFailure(t *testing.T) {
	svc, b := newFakeService(func(texts []string) ([]*string, error) {
		return nil, errors.New(errors.CodeBackendAuth, "bad key")
	})

	_, err := svc.TranslateBatch(context.Background(), []string{"Hi"})
	if !errors.IsCode(err, errors.CodeBackendAuth) {
		t.Fatalf("got %v, want CodeBackendAuth", err)
	}
	if b.calls != 1 {
		t.Errorf("backend called %d times, want 1", b.calls)
	}
}

func TestNewUnknownEngine(t *testing.T) {
	cfg := config.Default().Translate
	cfg.Engine = "babelfish"
	_, err := New(context.Background(), cfg)
	if !errors.IsCode(err, errors.CodeConfigInvalid) {
		t.Errorf("got %v, want CodeConfigInvalid", err)
	}
}

func TestNewDeepLRequiresKey(t *testing.T) {
	cfg := config.Default().Translate
	cfg.Engine = config.EngineDeepL
	cfg.DeepLAPIKey = ""
	_, err := New(context.Background(), cfg)
	if !errors.IsCode(err, errors.CodeConfigInvalid) {
		t.Errorf("got %v, want CodeConfigInvalid", err)
	}
}
