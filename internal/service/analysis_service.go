package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-skin-analyzer/internal/analyzer"
	"go-skin-analyzer/internal/catalog"
	"go-skin-analyzer/internal/client"
	apperrors "go-skin-analyzer/internal/errors"
	"go-skin-analyzer/internal/gate"
	"go-skin-analyzer/internal/interpreter"
	"go-skin-analyzer/internal/normalizer"
	"go-skin-analyzer/internal/observer"
	"go-skin-analyzer/internal/routine"
	"go-skin-analyzer/internal/storage"
	"go-skin-analyzer/pkg/models"
	"go-skin-analyzer/pkg/validation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SuccessMessage accompanies every successful analysis.
const SuccessMessage = "Analyse terminée ! Découvre tes résultats ci-dessous."

const archiveTimeout = 15 * time.Second

// Submitter sends one normalized photo to the analysis service and releases
// rel before returning.
type Submitter interface {
	Submit(ctx context.Context, rel client.Releaser, req client.SubmissionRequest) (*client.RawAnalysisResult, error)
}

// AnalyzeInput is one uploaded photo and its request context.
type AnalyzeInput struct {
	FileName     string
	Data         []byte
	DeclaredMIME string
	Locale       string
	UserAgent    string
}

// Stats is the operational state reported by GET /stats.
type Stats struct {
	Gate        gate.Snapshot      `json:"gate"`
	Submissions observer.Counters  `json:"submissions"`
	Workers     analyzer.PoolStats `json:"workers"`
}

// AnalysisService runs the whole photo pipeline for one controller.
type AnalysisService interface {
	Analyze(ctx context.Context, in AnalyzeInput) (*models.AnalysisResponse, error)
	Stats() Stats
	// Abort cancels the submission in flight, if any.
	Abort() bool
}

// Options carries the settings the pipeline needs from configuration.
type Options struct {
	Shop          string
	DefaultLocale string
	Archive       bool
}

type analysisService struct {
	uploads    *validation.UploadValidator
	normalizer *normalizer.Normalizer
	inspector  analyzer.PhotoInspector
	gate       *gate.Gate
	submitter  Submitter
	store      storage.SnapshotStore
	events     *observer.EventPublisher
	counters   *observer.CountingObserver
	opts       Options
	log        *logrus.Logger
	now        func() time.Time
}

// Deps groups the collaborators of NewAnalysisService.
type Deps struct {
	Uploads    *validation.UploadValidator
	Normalizer *normalizer.Normalizer
	Inspector  analyzer.PhotoInspector
	Gate       *gate.Gate
	Submitter  Submitter
	Store      storage.SnapshotStore
	Events     *observer.EventPublisher
	Counters   *observer.CountingObserver
	Log        *logrus.Logger
}

func NewAnalysisService(d Deps, opts Options) AnalysisService {
	if d.Store == nil {
		d.Store = storage.NewNoopSnapshotStore()
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if d.Events == nil {
		d.Events = observer.NewEventPublisher(d.Log)
	}
	if d.Counters == nil {
		d.Counters = observer.NewCountingObserver()
		d.Events.Subscribe(d.Counters)
	}
	return &analysisService{
		uploads:    d.Uploads,
		normalizer: d.Normalizer,
		inspector:  d.Inspector,
		gate:       d.Gate,
		submitter:  d.Submitter,
		store:      d.Store,
		events:     d.Events,
		counters:   d.Counters,
		opts:       opts,
		log:        d.Log,
		now:        time.Now,
	}
}

// Analyze validates and normalizes the photo before asking the gate for
// admission, so a rejected upload never consumes the interval. No partial
// response is produced: every failure is an *AppError.
func (s *analysisService) Analyze(ctx context.Context, in AnalyzeInput) (*models.AnalysisResponse, error) {
	start := s.now()

	mimeType, err := s.uploads.Validate(validation.Upload{
		Data:         in.Data,
		DeclaredMIME: in.DeclaredMIME,
		Size:         int64(len(in.Data)),
	})
	if err != nil {
		return nil, err
	}

	asset := normalizer.NewImageAsset(in.FileName, in.Data, mimeType)
	img, err := s.normalizer.Normalize(ctx, asset)
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, apperrors.NewInternalError("image processing interrupted", err)
	}

	report := s.inspector.Inspect(img.Pixels)
	if report.Critical {
		s.log.WithFields(logrus.Fields{
			"file_name": in.FileName,
			"issues":    len(report.Issues),
		}).Warn("Submitting a photo with critical quality issues")
	}

	ticket, err := s.gate.TryAdmit(s.now())
	if err != nil {
		appErr := rejectionError(err)
		s.events.Notify(ctx, observer.SubmissionEvent{
			EventType: observer.SubmissionRejected,
			ErrorType: string(appErr.Type),
			Message:   appErr.Message,
		})
		return nil, appErr
	}

	sessionID := uuid.NewString()
	req := client.SubmissionRequest{
		Shop:      s.opts.Shop,
		SessionID: sessionID,
		Image:     img.Encoded,
		MIMEType:  img.MIMEType,
		FileName:  in.FileName,
		Locale:    s.locale(in.Locale),
		UserAgent: in.UserAgent,
		Timestamp: s.now(),
	}

	s.events.Notify(ctx, observer.SubmissionEvent{EventType: observer.SubmissionStarted, SessionID: sessionID})
	raw, err := s.submitter.Submit(ctx, ticket, req)
	elapsed := s.now().Sub(start)
	if err != nil {
		ev := observer.SubmissionEvent{
			EventType: observer.SubmissionFailed,
			SessionID: sessionID,
			Elapsed:   elapsed,
			Message:   err.Error(),
		}
		if appErr, ok := apperrors.As(err); ok {
			ev.ErrorType = string(appErr.Type)
		} else {
			err = apperrors.NewInternalError("analysis failed", err)
		}
		s.events.Notify(ctx, ev)
		return nil, err
	}
	s.events.Notify(ctx, observer.SubmissionEvent{
		EventType: observer.SubmissionCompleted,
		SessionID: sessionID,
		Elapsed:   elapsed,
	})

	profile := interpreter.Interpret(raw.Message)
	plan := routine.Synthesize(profile)
	products := catalog.ForRange(catalog.Parse(raw.Products), profile.RecommendedRange)

	if s.opts.Archive {
		s.archive(ctx, sessionID, img)
	}

	return &models.AnalysisResponse{
		SessionID:        sessionID,
		SkinType:         profile.SkinType,
		RecommendedRange: profile.RecommendedRange,
		GlobalAppearance: profile.GlobalAppearance,
		Observations:     profile.Observations,
		Priorities:       profile.Priorities,
		Routine:          toRoutine(plan),
		Products:         toProducts(products),
		PhotoQuality:     toPhotoQuality(report),
		Image: models.ImageInfo{
			Width:    img.Width,
			Height:   img.Height,
			Bytes:    len(img.Data),
			MIMEType: img.MIMEType,
		},
		Timestamp:        start.UTC().Format(time.RFC3339),
		ProcessingTimeMs: s.now().Sub(start).Milliseconds(),
		Message:          SuccessMessage,
	}, nil
}

func (s *analysisService) Stats() Stats {
	return Stats{
		Gate:        s.gate.Snapshot(),
		Submissions: s.counters.Counters(),
		Workers:     s.inspector.Stats(),
	}
}

func (s *analysisService) Abort() bool {
	return s.gate.Abort()
}

func (s *analysisService) locale(requested string) string {
	if requested != "" {
		return requested
	}
	return s.opts.DefaultLocale
}

// archive stores the normalized photo. It outlives a cancelled request and
// only logs failures.
func (s *analysisService) archive(ctx context.Context, sessionID string, img *normalizer.NormalizedImage) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	key := sessionID + ".jpg"
	if err := s.store.Put(ctx, key, img.Data, img.MIMEType); err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Warn("Failed to archive snapshot")
		return
	}
	s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"key":        key,
		"bytes":      len(img.Data),
	}).Debug("Snapshot archived")
}

func rejectionError(err error) *apperrors.AppError {
	var rej *gate.RejectedError
	if !errors.As(err, &rej) {
		return apperrors.NewInternalError("admission failed", err)
	}
	if rej.Reason == gate.ReasonTooSoon {
		return apperrors.NewRateLimitedError(
			fmt.Sprintf("please wait %s before the next analysis", rej.Remaining.Round(time.Millisecond)),
			rej.Remaining,
		)
	}
	return apperrors.NewAlreadyInFlightError("an analysis is already in progress")
}

func toRoutine(r routine.Routine) models.Routine {
	conv := func(steps []routine.Step) []models.RoutineStep {
		out := make([]models.RoutineStep, len(steps))
		for i, st := range steps {
			out[i] = models.RoutineStep{Role: st.Role, Benefit: st.Benefit, Tip: st.Tip}
		}
		return out
	}
	return models.Routine{Morning: conv(r.Morning), Evening: conv(r.Evening)}
}

func toProducts(products []catalog.Product) []models.Product {
	out := make([]models.Product, len(products))
	for i, p := range products {
		out[i] = models.Product{
			Title:   p.Title,
			Type:    p.Type,
			Benefit: p.Benefit,
			Price:   string(p.Price),
			Handle:  p.Handle,
			Range:   p.Range,
			URL:     p.URL,
		}
	}
	return out
}

func toPhotoQuality(r analyzer.Report) models.PhotoQuality {
	warnings := make([]models.QualityWarning, len(r.Issues))
	for i, issue := range r.Issues {
		warnings[i] = models.QualityWarning{Type: issue.Type, Message: issue.Message, Severity: issue.Severity}
	}
	return models.PhotoQuality{Critical: r.Critical, Warnings: warnings}
}
