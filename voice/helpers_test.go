package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/kbukum/voicescribe/logger"
	"github.com/kbukum/voicescribe/storage"
	"github.com/kbukum/voicescribe/storage/local"
	"github.com/kbukum/voicescribe/transcription/asr"
)

// fakeMessenger records sent texts and can fail selected calls.
type fakeMessenger struct {
	mu        sync.Mutex
	sent      []string
	sendErrAt map[int]error // 1-based SendText call index
	pathErr   error
	pathCalls int
	calls     int
}

func (m *fakeMessenger) SendText(_ context.Context, _ int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := m.sendErrAt[m.calls]; err != nil {
		return err
	}
	m.sent = append(m.sent, text)
	return nil
}

func (m *fakeMessenger) FilePath(_ context.Context, fileID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pathCalls++
	if m.pathErr != nil {
		return "", m.pathErr
	}
	return "voice/" + fileID + ".oga", nil
}

func (m *fakeMessenger) FileURL(path string) string {
	return "https://files.example/file/botTOKEN/" + path
}

func (m *fakeMessenger) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

func (m *fakeMessenger) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls + m.pathCalls
}

// fakeDownloader returns fixed audio or an error.
type fakeDownloader struct {
	data  []byte
	err   error
	calls atomic.Int32
	urls  sync.Map
}

func (d *fakeDownloader) Download(_ context.Context, url string) ([]byte, error) {
	d.calls.Add(1)
	d.urls.Store(url, true)
	if d.err != nil {
		return nil, d.err
	}
	return d.data, nil
}

// faultyStorage wraps a Storage and fails selected operations.
type faultyStorage struct {
	storage.Storage
	downloadErr error
	deleteErr   error
	downloads   atomic.Int32
}

func (s *faultyStorage) Download(ctx context.Context, key string) ([]byte, error) {
	s.downloads.Add(1)
	if s.downloadErr != nil {
		return nil, s.downloadErr
	}
	return s.Storage.Download(ctx, key)
}

func (s *faultyStorage) Delete(ctx context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.Storage.Delete(ctx, key)
}

// asrServer is a fake ASR endpoint that records uploads.
type asrServer struct {
	*httptest.Server
	hits  atomic.Int32
	mu    sync.Mutex
	files map[string][]byte // file name -> bytes
	field string
}

func newASRServer(t *testing.T, status int, body string, delay time.Duration) *asrServer {
	t.Helper()
	s := &asrServer{files: map[string][]byte{}}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			for field, headers := range r.MultipartForm.File {
				for _, fh := range headers {
					f, err := fh.Open()
					if err != nil {
						continue
					}
					data, _ := io.ReadAll(f)
					_ = f.Close()
					s.mu.Lock()
					s.field = field
					s.files[fh.Filename] = data
					s.mu.Unlock()
				}
			}
		}
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *asrServer) upload(name string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	return data, s.field, ok
}

// syncBuffer is a goroutine-safe log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// records returns decoded JSON log lines.
func (b *syncBuffer) records(t *testing.T) []map[string]any {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(b.buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("log line is not JSON: %q", line)
		}
		out = append(out, rec)
	}
	return out
}

func (b *syncBuffer) errors(t *testing.T) []map[string]any {
	var out []map[string]any
	for _, rec := range b.records(t) {
		if rec["level"] == "error" {
			out = append(out, rec)
		}
	}
	return out
}

// harness wires a Pipeline over fakes, in-memory storage and a fake ASR server.
type harness struct {
	messenger  *fakeMessenger
	downloader *fakeDownloader
	fs         afero.Fs
	store      storage.Storage
	asr        *asrServer
	logs       *syncBuffer
	pipeline   *Pipeline
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	asrStatus  int
	asrBody    string
	asrDelay   time.Duration
	asrTimeout time.Duration
	cfg        Config
	wrapStore  func(storage.Storage) storage.Storage
	fs         afero.Fs
}

func withASR(status int, body string) harnessOption {
	return func(c *harnessConfig) { c.asrStatus, c.asrBody = status, body }
}

func withASRDelay(delay, timeout time.Duration) harnessOption {
	return func(c *harnessConfig) { c.asrDelay, c.asrTimeout = delay, timeout }
}

func withCleanupOnFailure() harnessOption {
	return func(c *harnessConfig) { c.cfg.CleanupOnFailure = true }
}

func withStore(wrap func(storage.Storage) storage.Storage) harnessOption {
	return func(c *harnessConfig) { c.wrapStore = wrap }
}

func withFs(fs afero.Fs) harnessOption {
	return func(c *harnessConfig) { c.fs = fs }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	hc := harnessConfig{asrStatus: http.StatusOK, asrBody: `{"text":"hello world"}`, asrTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&hc)
	}

	logs := &syncBuffer{}
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", logs)

	fs := hc.fs
	if fs == nil {
		fs = afero.NewMemMapFs()
	}
	ls, err := local.NewStorage(fs, storage.DefaultBasePath, log)
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	var store storage.Storage = ls
	if hc.wrapStore != nil {
		store = hc.wrapStore(store)
	}

	srv := newASRServer(t, hc.asrStatus, hc.asrBody, hc.asrDelay)
	provider, err := asr.NewProvider(asr.Config{URL: srv.URL, Timeout: hc.asrTimeout}, log)
	if err != nil {
		t.Fatalf("asr.NewProvider: %v", err)
	}

	h := &harness{
		messenger:  &fakeMessenger{},
		downloader: &fakeDownloader{data: []byte("OggS-voice-bytes")},
		fs:         fs,
		store:      store,
		asr:        srv,
		logs:       logs,
	}
	h.pipeline = NewPipeline(Deps{
		Messenger:   h.messenger,
		Downloader:  h.downloader,
		Storage:     store,
		Transcriber: provider,
	}, hc.cfg, log)
	return h
}

func (h *harness) fileExists(t *testing.T, uid string) bool {
	t.Helper()
	ok, err := afero.Exists(h.fs, storage.DefaultBasePath+"/"+storage.Key(uid))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	return ok
}

func (h *harness) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.pipeline.WaitCleanups(ctx); err != nil {
		t.Fatalf("WaitCleanups: %v", err)
	}
}

func voiceMessage(uid string) Message {
	return Message{ChatID: 42, Voice: &Attachment{FileID: "file-" + uid, UniqueID: uid}}
}
