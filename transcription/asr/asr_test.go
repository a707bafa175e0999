package asr

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/voicescribe/errors"
	"github.com/kbukum/voicescribe/httpclient"
	"github.com/kbukum/voicescribe/logger"
	"github.com/kbukum/voicescribe/transcription"
)

func newServer(t *testing.T, status int, body string, inspect func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inspect != nil {
			inspect(r)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTranscribe_Request(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"text":"hello world"}`, func(r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		if len(r.MultipartForm.File) != 1 {
			t.Errorf("expected exactly one file field, got %d", len(r.MultipartForm.File))
		}
		headers := r.MultipartForm.File["audio_file"]
		if len(headers) != 1 {
			t.Errorf("audio_file missing: %v", r.MultipartForm.File)
			return
		}
		if cd := headers[0].Header.Get("Content-Disposition"); !strings.Contains(cd, `filename="downloads/AgAD.ogg"`) {
			t.Errorf("Content-Disposition = %q", cd)
		}
		f, _ := headers[0].Open()
		data, _ := io.ReadAll(f)
		if string(data) != "OggS" {
			t.Errorf("audio = %q", data)
		}
		if r.FormValue("task") != "transcribe" || r.FormValue("language") != "de" {
			t.Errorf("fields = %v", r.MultipartForm.Value)
		}
	})

	p, err := NewProvider(Config{
		URL:    srv.URL + "/asr",
		APIKey: "k",
		Fields: map[string]string{"task": "transcribe"},
	}, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}

	resp, err := p.Transcribe(context.Background(), transcription.Request{
		FileName: "downloads/AgAD.ogg",
		Audio:    []byte("OggS"),
		Language: "de",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if resp.Text != "hello world" || !resp.Found {
		t.Errorf("resp = %+v", resp)
	}
}

func TestTranscribe_ResponseShapes(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantText  string
		wantCode  errors.ErrorCode
		wantFound bool
	}{
		{"transcript", 200, `{"text":"hello world"}`, "hello world", "", true},
		{"empty object", 200, `{}`, transcription.Placeholder, "", false},
		{"numeric text", 200, `{"text":42}`, transcription.Placeholder, "", false},
		{"error status with json body", 500, `{"detail":"model not loaded"}`, transcription.Placeholder, "", false},
		{"html", 502, `<html>bad gateway</html>`, "", errors.ErrCodeMalformedResponse, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newServer(t, tc.status, tc.body, nil)
			p, err := NewProvider(Config{URL: srv.URL}, logger.Nop())
			if err != nil {
				t.Fatal(err)
			}
			resp, err := p.Transcribe(context.Background(), transcription.Request{FileName: "a.ogg", Audio: []byte("x")})
			if tc.wantCode != "" {
				if !errors.HasCode(err, tc.wantCode) {
					t.Fatalf("expected %s, got %v", tc.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Text != tc.wantText || resp.Found != tc.wantFound {
				t.Errorf("resp = %+v", resp)
			}
		})
	}
}

func TestTranscribe_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	p, err := NewProvider(Config{URL: srv.URL, Timeout: 30 * time.Millisecond}, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Transcribe(context.Background(), transcription.Request{FileName: "a.ogg"})
	if !httpclient.IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.FieldName != "audio_file" || cfg.Timeout != 600*time.Second {
		t.Errorf("defaults = %+v", cfg)
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "asr_url") {
		t.Errorf("expected missing asr_url, got %v", err)
	}
	cfg.URL = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Error("expected malformed URL error")
	}
	cfg.URL = "http://localhost:9000/asr"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFactory(t *testing.T) {
	p, err := transcription.New(transcription.Config{}, &Config{URL: "http://localhost:9000/asr"}, logger.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Name() != "asr" || !p.IsAvailable(context.Background()) {
		t.Errorf("unexpected provider %s", p.Name())
	}
	if _, err := transcription.New(transcription.Config{}, Config{}, logger.Nop()); err == nil {
		t.Error("expected type error for non-pointer config")
	}
}
