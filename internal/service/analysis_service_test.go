package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"go-skin-analyzer/internal/analyzer"
	"go-skin-analyzer/internal/client"
	apperrors "go-skin-analyzer/internal/errors"
	"go-skin-analyzer/internal/gate"
	"go-skin-analyzer/internal/interpreter"
	"go-skin-analyzer/internal/logger"
	"go-skin-analyzer/internal/normalizer"
	"go-skin-analyzer/pkg/validation"
)

type fakeSubmitter struct {
	mu      sync.Mutex
	calls   []client.SubmissionRequest
	result  *client.RawAnalysisResult
	err     error
	started chan struct{}
	unblock chan struct{}
}

func (f *fakeSubmitter) Submit(ctx context.Context, rel client.Releaser, req client.SubmissionRequest) (*client.RawAnalysisResult, error) {
	defer rel.Release()
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if f.unblock != nil {
		<-f.unblock
	}
	return f.result, f.err
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeStore struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (f *fakeStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return f.err
}

func pngPhoto(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := uint8(((x*7 + y*13) % 9) * 6)
			img.Set(x, y, color.RGBA{200 - d, 150 - d, 125 - d, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func okResult(t *testing.T) *client.RawAnalysisResult {
	t.Helper()
	return &client.RawAnalysisResult{
		Success: true,
		Message: "Votre peau est mixte avec des pores visibles. Nous recommandons la gamme Sebocylique.",
		Products: []json.RawMessage{
			json.RawMessage(`{"title":"Sérum Vitalight","price":32}`),
			json.RawMessage(`{"title":"Gel Sebocylique","handle":"gel-sebocylique","price":"24,90 €"}`),
		},
	}
}

type harness struct {
	svc       AnalysisService
	gate      *gate.Gate
	submitter *fakeSubmitter
	store     *fakeStore
}

func newHarness(t *testing.T, interval time.Duration, archive bool) *harness {
	t.Helper()
	inspector := analyzer.NewPhotoInspector(analyzer.FastOptions().WithWorkers(2), nil)
	t.Cleanup(func() { inspector.Close() })

	h := &harness{
		gate:      gate.New(interval),
		submitter: &fakeSubmitter{result: okResult(t)},
		store:     &fakeStore{},
	}
	h.svc = NewAnalysisService(Deps{
		Uploads:    validation.NewUploadValidator(validation.DefaultMaxUploadSize, validation.DefaultAcceptedMIMETypes),
		Normalizer: normalizer.New(normalizer.DefaultOptions()),
		Inspector:  inspector,
		Gate:       h.gate,
		Submitter:  h.submitter,
		Store:      h.store,
		Log:        logger.Discard(),
	}, Options{Shop: "demo.myshopify.com", DefaultLocale: "fr-FR", Archive: archive})
	return h
}

func TestAnalyze_Success(t *testing.T) {
	h := newHarness(t, 3*time.Second, true)

	resp, err := h.svc.Analyze(context.Background(), AnalyzeInput{
		FileName:     "selfie.png",
		Data:         pngPhoto(t, 1600, 800),
		DeclaredMIME: "image/png",
		UserAgent:    "test-agent",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if resp.SkinType != "Peau mixte" || resp.RecommendedRange != interpreter.RangeSebocylique {
		t.Errorf("Unexpected profile %q / %q", resp.SkinType, resp.RecommendedRange)
	}
	if resp.Image.Width != 1200 || resp.Image.Height != 600 || resp.Image.MIMEType != "image/jpeg" {
		t.Errorf("Unexpected image info %+v", resp.Image)
	}
	if len(resp.Routine.Evening) != 5 {
		t.Errorf("Expected the Sebocylique evening step, got %d steps", len(resp.Routine.Evening))
	}
	if len(resp.Products) != 2 || resp.Products[0].Title != "Gel Sebocylique" {
		t.Errorf("Expected range products first, got %+v", resp.Products)
	}
	if resp.Products[0].URL != "/products/gel-sebocylique" {
		t.Errorf("Unexpected product URL %q", resp.Products[0].URL)
	}
	if resp.Message != SuccessMessage {
		t.Errorf("Unexpected message %q", resp.Message)
	}

	req := h.submitter.calls[0]
	if req.Shop != "demo.myshopify.com" || req.Locale != "fr-FR" || req.MIMEType != "image/jpeg" {
		t.Errorf("Unexpected submission %+v", req)
	}
	if req.SessionID != resp.SessionID || req.SessionID == "" {
		t.Errorf("Session id mismatch: %q vs %q", req.SessionID, resp.SessionID)
	}

	snap := h.gate.Snapshot()
	if snap.InFlight || snap.CompletedCount != 1 {
		t.Errorf("Expected the gate released once, got %+v", snap)
	}
	if len(h.store.keys) != 1 || h.store.keys[0] != resp.SessionID+".jpg" {
		t.Errorf("Expected one archived snapshot, got %v", h.store.keys)
	}

	stats := h.svc.Stats()
	if stats.Submissions.Started != 1 || stats.Submissions.Completed != 1 {
		t.Errorf("Unexpected counters %+v", stats.Submissions)
	}
}

func TestAnalyze_LocaleOverride(t *testing.T) {
	h := newHarness(t, 0, false)

	_, err := h.svc.Analyze(context.Background(), AnalyzeInput{
		Data:         pngPhoto(t, 64, 64),
		DeclaredMIME: "image/png",
		Locale:       "en-GB",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := h.submitter.calls[0].Locale; got != "en-GB" {
		t.Errorf("Expected en-GB, got %q", got)
	}
	if len(h.store.keys) != 0 {
		t.Error("Archive must stay off when disabled")
	}
}

func TestAnalyze_LocalFailuresDoNotConsumeTheInterval(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		mime     string
		wantType apperrors.ErrorType
	}{
		{"unsupported format", []byte("GIF89a...."), "image/gif", apperrors.ErrorTypeValidation},
		{"empty file", nil, "image/png", apperrors.ErrorTypeValidation},
		{"corrupt image", []byte("\x89PNG\r\n\x1a\nbroken"), "image/png", apperrors.ErrorTypeDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, time.Hour, true)

			_, err := h.svc.Analyze(context.Background(), AnalyzeInput{Data: tt.data, DeclaredMIME: tt.mime})
			if !apperrors.IsType(err, tt.wantType) {
				t.Fatalf("Expected %s, got %v", tt.wantType, err)
			}
			if h.gate.Snapshot().HasRequested {
				t.Error("A local failure must not be admitted")
			}
			if h.submitter.callCount() != 0 {
				t.Error("Submitter must not be called")
			}
		})
	}
}

func TestAnalyze_TooSoon(t *testing.T) {
	h := newHarness(t, time.Minute, false)
	in := AnalyzeInput{Data: pngPhoto(t, 64, 64), DeclaredMIME: "image/png"}

	if _, err := h.svc.Analyze(context.Background(), in); err != nil {
		t.Fatalf("First analysis failed: %v", err)
	}
	_, err := h.svc.Analyze(context.Background(), in)

	appErr, ok := apperrors.As(err)
	if !ok || appErr.Type != apperrors.ErrorTypeRateLimited {
		t.Fatalf("Expected rate limited error, got %v", err)
	}
	if appErr.RetryAfter <= 0 || appErr.RetryAfter > time.Minute {
		t.Errorf("Unexpected retry after %v", appErr.RetryAfter)
	}
	if h.submitter.callCount() != 1 {
		t.Errorf("Expected a single submission, got %d", h.submitter.callCount())
	}
	if h.svc.Stats().Submissions.Rejected != 1 {
		t.Error("Expected the rejection to be counted")
	}
}

func TestAnalyze_AlreadyInFlight(t *testing.T) {
	h := newHarness(t, 0, false)
	h.submitter.started = make(chan struct{})
	h.submitter.unblock = make(chan struct{})
	in := AnalyzeInput{Data: pngPhoto(t, 64, 64), DeclaredMIME: "image/png"}

	done := make(chan error, 1)
	go func() {
		_, err := h.svc.Analyze(context.Background(), in)
		done <- err
	}()
	<-h.submitter.started

	_, err := h.svc.Analyze(context.Background(), in)
	if !apperrors.IsType(err, apperrors.ErrorTypeAlreadyInFlight) {
		t.Errorf("Expected already in flight, got %v", err)
	}

	close(h.submitter.unblock)
	if err := <-done; err != nil {
		t.Errorf("First analysis failed: %v", err)
	}
	if h.gate.Snapshot().InFlight {
		t.Error("Gate must be idle after completion")
	}
}

func TestAnalyze_SubmitFailure(t *testing.T) {
	h := newHarness(t, 0, true)
	h.submitter.result = nil
	h.submitter.err = apperrors.NewTimeoutError("analysis exceeded 60s", context.DeadlineExceeded)

	resp, err := h.svc.Analyze(context.Background(), AnalyzeInput{Data: pngPhoto(t, 64, 64), DeclaredMIME: "image/png"})
	if resp != nil {
		t.Error("No partial response may be produced")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeTimeout) {
		t.Errorf("Expected timeout error, got %v", err)
	}
	if len(h.store.keys) != 0 {
		t.Error("Failed analyses must not be archived")
	}
	if h.svc.Stats().Submissions.Failed != 1 {
		t.Error("Expected the failure to be counted")
	}
}

func TestAnalyze_UnclassifiedSubmitErrorBecomesInternal(t *testing.T) {
	h := newHarness(t, 0, false)
	h.submitter.result = nil
	h.submitter.err = errors.New("boom")

	_, err := h.svc.Analyze(context.Background(), AnalyzeInput{Data: pngPhoto(t, 64, 64), DeclaredMIME: "image/png"})
	if !apperrors.IsType(err, apperrors.ErrorTypeInternal) {
		t.Errorf("Expected internal error, got %v", err)
	}
}

func TestAnalyze_ArchiveFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, 0, true)
	h.store.err = errors.New("storage down")

	resp, err := h.svc.Analyze(context.Background(), AnalyzeInput{Data: pngPhoto(t, 64, 64), DeclaredMIME: "image/png"})
	if err != nil || resp == nil {
		t.Fatalf("Expected success despite archive failure, got %v", err)
	}
}

func TestAbort_WithoutSubmission(t *testing.T) {
	h := newHarness(t, 0, false)
	if h.svc.Abort() {
		t.Error("Abort must report false when nothing is in flight")
	}
}
