package voice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	apperrors "github.com/kbukum/voicescribe/errors"
	"github.com/kbukum/voicescribe/httpclient"
	"github.com/kbukum/voicescribe/storage"
	"github.com/kbukum/voicescribe/transcription"
)

func TestHandle_NonVoiceMessageHasNoSideEffects(t *testing.T) {
	h := newHarness(t)

	outcome, err := h.pipeline.Handle(context.Background(), Message{ChatID: 42})
	if err != nil || outcome != OutcomeIgnored {
		t.Fatalf("Handle() = %v, %v", outcome, err)
	}
	h.drain(t)

	if n := h.messenger.totalCalls(); n != 0 {
		t.Errorf("messenger calls = %d, want 0", n)
	}
	if n := h.downloader.calls.Load(); n != 0 {
		t.Errorf("downloads = %d, want 0", n)
	}
	if n := h.asr.hits.Load(); n != 0 {
		t.Errorf("ASR requests = %d, want 0", n)
	}
	entries, err := afero.ReadDir(h.fs, storage.DefaultBasePath)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("working files = %d, want 0", len(entries))
	}
}

func TestHandle_Success(t *testing.T) {
	var counting *faultyStorage
	h := newHarness(t, withStore(func(s storage.Storage) storage.Storage {
		counting = &faultyStorage{Storage: s}
		return counting
	}))

	outcome, err := h.pipeline.Handle(context.Background(), voiceMessage("AgADuid1"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if outcome != OutcomeReplied {
		t.Errorf("outcome = %s", outcome)
	}

	sent := h.messenger.texts()
	if len(sent) != 2 || sent[0] != AckText || sent[1] != "hello world" {
		t.Errorf("sent = %q, want [ack, transcript]", sent)
	}

	if _, ok := h.downloader.urls.Load("https://files.example/file/botTOKEN/voice/file-AgADuid1.oga"); !ok {
		t.Error("download URL not built from the resolved file path")
	}

	data, field, ok := h.asr.upload("AgADuid1.ogg")
	if !ok {
		t.Fatal("ASR did not receive AgADuid1.ogg")
	}
	if field != "audio_file" {
		t.Errorf("multipart field = %q", field)
	}
	if string(data) != "OggS-voice-bytes" {
		t.Errorf("uploaded bytes = %q", data)
	}
	if n := counting.downloads.Load(); n != 1 {
		t.Errorf("working file reads = %d, want 1", n)
	}

	h.drain(t)
	if h.fileExists(t, "AgADuid1") {
		t.Error("working file still present after cleanup")
	}
	if errs := h.logs.errors(t); len(errs) != 0 {
		t.Errorf("unexpected error logs: %v", errs)
	}
}

func TestHandle_TranscriptExtraction(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"text field", http.StatusOK, `{"text": "hello world"}`, "hello world"},
		{"empty object", http.StatusOK, `{}`, transcription.Placeholder},
		{"number text", http.StatusOK, `{"text": 42}`, transcription.Placeholder},
		{"null text", http.StatusOK, `{"text": null}`, transcription.Placeholder},
		{"array document", http.StatusOK, `[{"text": "nested"}]`, transcription.Placeholder},
		{"nested text only", http.StatusOK, `{"result": {"text": "deep"}}`, transcription.Placeholder},
		{"empty string", http.StatusOK, `{"text": ""}`, ""},
		{"error status with json", http.StatusInternalServerError, `{"error": "model not loaded"}`, transcription.Placeholder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, withASR(tt.status, tt.body))

			outcome, err := h.pipeline.Handle(context.Background(), voiceMessage("AgADshape"))
			if err != nil || outcome != OutcomeReplied {
				t.Fatalf("Handle() = %v, %v", outcome, err)
			}
			sent := h.messenger.texts()
			if len(sent) != 2 {
				t.Fatalf("sent = %q", sent)
			}
			if sent[1] != tt.want {
				t.Errorf("reply = %q, want %q", sent[1], tt.want)
			}
			h.drain(t)
		})
	}
}

func TestHandle_DistinctUniqueIDsNeverCollide(t *testing.T) {
	h := newHarness(t)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := h.pipeline.Handle(context.Background(), voiceMessage(fmt.Sprintf("AgAD%03d", i))); err != nil {
				t.Errorf("Handle %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()
	h.drain(t)

	paths := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		uid := fmt.Sprintf("AgAD%03d", i)
		key := storage.Key(uid)
		if _, _, ok := h.asr.upload(key); !ok {
			t.Errorf("no upload for %s", key)
		}
		p := h.store.Path(key)
		if paths[p] {
			t.Errorf("path %s used twice", p)
		}
		paths[p] = true
	}
}

func TestHandle_DownloadFailure(t *testing.T) {
	h := newHarness(t)
	h.downloader.err = httpclient.NewConnectionError(errors.New("connection reset by peer"))

	outcome, err := h.pipeline.Handle(context.Background(), voiceMessage("AgADdl"))
	if outcome != OutcomeFailed || err == nil {
		t.Fatalf("Handle() = %v, %v", outcome, err)
	}
	h.drain(t)

	if h.fileExists(t, "AgADdl") {
		t.Error("working file created despite download failure")
	}
	if n := h.asr.hits.Load(); n != 0 {
		t.Errorf("ASR requests = %d, want 0", n)
	}
	if sent := h.messenger.texts(); len(sent) != 1 || sent[0] != AckText {
		t.Errorf("sent = %q, want only the acknowledgment", sent)
	}
}

func TestHandle_ASRFailureLeavesWorkingFile(t *testing.T) {
	tests := []struct {
		name     string
		opts     []harnessOption
		closeASR bool
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "timeout",
			opts:     []harnessOption{withASRDelay(2*time.Second, 50*time.Millisecond)},
			wantCode: apperrors.ErrCodeTimeout,
		},
		{
			name:     "connection refused",
			closeASR: true,
			wantCode: apperrors.ErrCodeExternalService,
		},
		{
			name:     "malformed body",
			opts:     []harnessOption{withASR(http.StatusOK, "<html>oops</html>")},
			wantCode: apperrors.ErrCodeMalformedResponse,
		},
	}

	for _, tt := range tests {
		for _, cleanup := range []bool{false, true} {
			t.Run(fmt.Sprintf("%s/cleanup_on_failure=%t", tt.name, cleanup), func(t *testing.T) {
				opts := tt.opts
				if cleanup {
					opts = append(append([]harnessOption(nil), opts...), withCleanupOnFailure())
				}
				h := newHarness(t, opts...)
				if tt.closeASR {
					h.asr.Close()
				}

				outcome, err := h.pipeline.Handle(context.Background(), voiceMessage("AgADasr"))
				if outcome != OutcomeFailed {
					t.Fatalf("outcome = %s", outcome)
				}
				if !apperrors.HasCode(err, tt.wantCode) {
					t.Fatalf("error = %v, want code %s", err, tt.wantCode)
				}
				h.drain(t)

				exists := h.fileExists(t, "AgADasr")
				if cleanup && exists {
					t.Error("working file left behind with cleanup_on_failure enabled")
				}
				if !cleanup && !exists {
					t.Error("working file removed although cleanup_on_failure is disabled")
				}
				if sent := h.messenger.texts(); len(sent) != 1 {
					t.Errorf("sent = %q, want only the acknowledgment", sent)
				}
			})
		}
	}
}

func TestHandle_EachFailureLoggedOnce(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		opts    []harnessOption
		setup   func(h *harness)
		step    string
		outcome Outcome
	}{
		{
			name:    "acknowledge",
			setup:   func(h *harness) { h.messenger.sendErrAt = map[int]error{1: boom} },
			step:    StepAcknowledge,
			outcome: OutcomeFailed,
		},
		{
			name:    "resolve",
			setup:   func(h *harness) { h.messenger.pathErr = boom },
			step:    StepResolve,
			outcome: OutcomeFailed,
		},
		{
			name:    "fetch",
			setup:   func(h *harness) { h.downloader.err = boom },
			step:    StepFetch,
			outcome: OutcomeFailed,
		},
		{
			name:    "persist",
			opts:    []harnessOption{withFs(readOnlyFs(t))},
			step:    StepPersist,
			outcome: OutcomeFailed,
		},
		{
			name: "load",
			opts: []harnessOption{withStore(func(s storage.Storage) storage.Storage {
				return &faultyStorage{Storage: s, downloadErr: boom}
			})},
			step:    StepLoad,
			outcome: OutcomeFailed,
		},
		{
			name:    "transcribe",
			opts:    []harnessOption{withASR(http.StatusOK, "not json")},
			step:    StepTranscribe,
			outcome: OutcomeFailed,
		},
		{
			name:    "reply",
			setup:   func(h *harness) { h.messenger.sendErrAt = map[int]error{2: boom} },
			step:    StepReply,
			outcome: OutcomeReplyFailed,
		},
		{
			name: "cleanup",
			opts: []harnessOption{withStore(func(s storage.Storage) storage.Storage {
				return &faultyStorage{Storage: s, deleteErr: boom}
			})},
			step:    StepCleanup,
			outcome: OutcomeReplied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.opts...)
			if tt.setup != nil {
				tt.setup(h)
			}

			outcome, err := h.pipeline.Handle(context.Background(), voiceMessage("AgADlog"))
			h.drain(t)

			if outcome != tt.outcome {
				t.Errorf("outcome = %s, want %s", outcome, tt.outcome)
			}
			if tt.step != StepCleanup {
				appErr, ok := apperrors.AsAppError(err)
				if !ok {
					t.Fatalf("expected AppError, got %v", err)
				}
				if appErr.Detail("step") != tt.step {
					t.Errorf("step detail = %v, want %s", appErr.Detail("step"), tt.step)
				}
			} else if err != nil {
				t.Errorf("cleanup failure must not surface: %v", err)
			}

			errs := h.logs.errors(t)
			if len(errs) != 1 {
				t.Fatalf("error records = %d, want 1: %v", len(errs), errs)
			}
			rec := errs[0]
			if rec["operation"] != tt.step {
				t.Errorf("operation = %v, want %s", rec["operation"], tt.step)
			}
			if rec["chat_id"] != float64(42) || rec["file_unique_id"] != "AgADlog" {
				t.Errorf("missing message fields: %v", rec)
			}
			if id, _ := rec["request_id"].(string); id == "" {
				t.Errorf("missing request_id: %v", rec)
			}
			if rec["error"] == nil {
				t.Errorf("missing error: %v", rec)
			}
		})
	}
}

func TestHandle_ReplyFailureStillCleansUp(t *testing.T) {
	h := newHarness(t)
	h.messenger.sendErrAt = map[int]error{2: errors.New("chat not found")}

	if _, err := h.pipeline.Handle(context.Background(), voiceMessage("AgADreply")); err == nil {
		t.Fatal("expected reply error")
	}
	h.drain(t)
	if h.fileExists(t, "AgADreply") {
		t.Error("working file not removed after failed reply")
	}
}

func TestHandle_CleanupIsNotAwaited(t *testing.T) {
	release := make(chan struct{})
	blocking := &blockingDelete{release: release}
	h := newHarness(t, withStore(func(s storage.Storage) storage.Storage {
		blocking.Storage = s
		return blocking
	}))

	done := make(chan struct{})
	go func() {
		_, _ = h.pipeline.Handle(context.Background(), voiceMessage("AgADslow"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		close(release)
		t.Fatal("Handle waited for the working file deletion")
	}
	if !h.fileExists(t, "AgADslow") {
		t.Error("file deleted before cleanup was released")
	}
	close(release)
	h.drain(t)
	if h.fileExists(t, "AgADslow") {
		t.Error("file not deleted after cleanup finished")
	}
}

func TestHandle_UsesDistinctRequestIDs(t *testing.T) {
	h := newHarness(t)
	h.messenger.pathErr = errors.New("boom")

	for i := 0; i < 2; i++ {
		_, _ = h.pipeline.Handle(context.Background(), voiceMessage("AgADreq"))
	}
	errs := h.logs.errors(t)
	if len(errs) != 2 {
		t.Fatalf("error records = %d", len(errs))
	}
	if errs[0]["request_id"] == errs[1]["request_id"] {
		t.Error("request IDs repeat across invocations")
	}
}

type blockingDelete struct {
	storage.Storage
	release chan struct{}
}

func (b *blockingDelete) Delete(ctx context.Context, key string) error {
	<-b.release
	return b.Storage.Delete(ctx, key)
}

func readOnlyFs(t *testing.T) afero.Fs {
	t.Helper()
	base := afero.NewMemMapFs()
	if err := base.MkdirAll(storage.DefaultBasePath, 0o755); err != nil {
		t.Fatal(err)
	}
	return afero.NewReadOnlyFs(base)
}
