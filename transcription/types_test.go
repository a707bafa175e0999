package transcription

import (
	"context"
	"testing"

	"github.com/kbukum/voicescribe/logger"
)

func TestParseText(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantText  string
		wantFound bool
		wantErr   bool
	}{
		{"text field", `{"text":"hello world"}`, "hello world", true, false},
		{"empty transcript is still a transcript", `{"text":""}`, "", true, false},
		{"extra fields", `{"text":"hi","language":"en","segments":[]}`, "hi", true, false},
		{"missing field", `{}`, Placeholder, false, false},
		{"non-string text", `{"text":42}`, Placeholder, false, false},
		{"null text", `{"text":null}`, Placeholder, false, false},
		{"nested text", `{"result":{"text":"deep"}}`, Placeholder, false, false},
		{"top-level array", `[{"text":"x"}]`, Placeholder, false, false},
		{"top-level string", `"hello"`, Placeholder, false, false},
		{"not json", `<html>502 Bad Gateway</html>`, "", false, true},
		{"empty body", ``, "", false, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			text, found, err := ParseText(tc.body)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if text != tc.wantText || found != tc.wantFound {
				t.Errorf("ParseText = (%q, %v), want (%q, %v)", text, found, tc.wantText, tc.wantFound)
			}
		})
	}
}

func TestNewResponse(t *testing.T) {
	if r := NewResponse("ignored", false, "{}"); r.Text != Placeholder || r.Found {
		t.Errorf("NewResponse(not found) = %+v", r)
	}
	if r := NewResponse("hi", true, ""); r.Text != "hi" {
		t.Errorf("NewResponse(found) = %+v", r)
	}
}

type stubProvider struct{ cfg any }

func (s *stubProvider) Name() string                   { return "stub" }
func (s *stubProvider) IsAvailable(context.Context) bool { return true }
func (s *stubProvider) Transcribe(context.Context, Request) (*Response, error) {
	return NewResponse("stub", true, ""), nil
}

func TestFactoryRegistry(t *testing.T) {
	RegisterFactory("stub", func(providerCfg any, _ *logger.Logger) (Provider, error) {
		return &stubProvider{cfg: providerCfg}, nil
	})
	t.Cleanup(func() { delete(factories, "stub") })

	p, err := New(Config{Provider: "stub"}, "cfg", logger.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.(*stubProvider).cfg != "cfg" {
		t.Error("provider config not passed through")
	}

	if _, err := New(Config{Provider: "missing"}, nil, logger.Nop()); err == nil {
		t.Error("expected error for unregistered provider")
	}

	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Provider != ProviderASR {
		t.Errorf("default provider = %q", cfg.Provider)
	}
}
