// Package service orchestrates a capture request from the gate check through
// acquisition, normalization, scaling and either persistence (image captures)
// or recognition (text captures).
//
// Each request is a single linear attempt. Nothing is retried, merged with
// other in-flight requests or serialized behind a lock.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"jordanella.com/overlay-capture/internal/capture"
	"jordanella.com/overlay-capture/internal/database"
	"jordanella.com/overlay-capture/internal/errs"
	"jordanella.com/overlay-capture/internal/events"
	"jordanella.com/overlay-capture/internal/imaging"
	"jordanella.com/overlay-capture/internal/logging"
	"jordanella.com/overlay-capture/internal/ocr"
	"jordanella.com/overlay-capture/internal/store"
	"jordanella.com/overlay-capture/internal/telemetry"
)

// Kind is the request type, as recorded in events and the journal.
type Kind string

const (
	KindImage Kind = "image"
	KindText  Kind = "text"
)

// Gate decides whether capture is currently allowed.
type Gate interface {
	Enabled() bool
}

// ArtifactStore persists encoded captures.
type ArtifactStore interface {
	Save(data []byte) (store.Saved, error)
}

// Journal records request outcomes. Journal failures never fail a capture.
type Journal interface {
	StartCapture(requestID, kind string) (int64, error)
	CompleteCapture(id int64, outcome database.CaptureOutcome) error
	FailCapture(id int64, errorKind, errorMessage string) error
	MarkEvicted(paths []string) (int64, error)
}

// Deps are the collaborators a Service drives. Gate, Provider and Store are
// required; Recognizer is required for text capture.
type Deps struct {
	Gate       Gate
	Provider   capture.Provider
	Recognizer ocr.Recognizer
	Store      ArtifactStore
	Journal    Journal
	Bus        events.EventBus
	Logger     *logging.Logger
}

// Service runs capture requests.
type Service struct {
	gate       Gate
	provider   capture.Provider
	recognizer ocr.Recognizer
	store      ArtifactStore
	journal    Journal
	bus        events.EventBus
	logger     *logging.Logger

	tracer trace.Tracer
	maxDim int
	newID  func() string
}

func New(deps Deps, opts ...Option) (*Service, error) {
	if deps.Gate == nil {
		return nil, errors.New("service: gate is required")
	}
	if deps.Provider == nil {
		return nil, errors.New("service: capture provider is required")
	}
	if deps.Store == nil {
		return nil, errors.New("service: artifact store is required")
	}
	recognizer := deps.Recognizer
	if recognizer == nil {
		recognizer = ocr.Unsupported{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Service{
		gate:       deps.Gate,
		provider:   deps.Provider,
		recognizer: recognizer,
		store:      deps.Store,
		journal:    deps.Journal,
		bus:        deps.Bus,
		logger:     logger.Named("service"),
		tracer:     o.tracer,
		maxDim:     o.maxDimension,
		newID:      o.newID,
	}, nil
}

type options struct {
	maxDimension int
	tracer       trace.Tracer
	newID        func() string
}

func defaultOptions() options {
	return options{
		maxDimension: imaging.MaxImageDimension,
		tracer:       telemetry.Tracer(),
		newID:        uuid.NewString,
	}
}

// Option configures a Service.
type Option func(*options)

// WithMaxDimension bounds the longer edge of persisted images.
func WithMaxDimension(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDimension = n
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithIDGenerator replaces the request ID source.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// request tracks one capture through its stages.
type request struct {
	id        string
	kind      Kind
	stage     Stage
	journalID int64
	logger    *logging.ContextLogger
}

func (s *Service) begin(kind Kind) *request {
	req := &request{id: s.newID(), kind: kind, stage: StageIdle}
	req.logger = s.logger.WithContext(map[string]interface{}{
		"request_id": req.id,
		"kind":       string(kind),
	})

	s.publish(events.NewCaptureRequestedEvent(req.id, string(kind)))
	if s.journal != nil {
		id, err := s.journal.StartCapture(req.id, string(kind))
		if err != nil {
			req.logger.Warn("journal start failed: " + err.Error())
		}
		req.journalID = id
	}
	req.logger.Debug("capture requested")
	return req
}

// fail moves req to the failed state and records why.
func (s *Service) fail(req *request, span trace.Span, err error) {
	failedAt := req.stage
	req.stage = StageFailed
	kind := errs.KindOf(err)

	span.RecordError(err)
	span.SetStatus(codes.Error, kind.String())
	span.SetAttributes(
		attribute.String("capture.failed_stage", string(failedAt)),
		attribute.String("capture.error_kind", kind.String()),
	)

	req.logger.Warn("capture failed after " + string(failedAt) + ": " + errs.Message(err))
	s.publish(events.NewCaptureFailedEvent(req.id, string(req.kind), kind.String(), err))
	if s.journal != nil && req.journalID != 0 {
		if jerr := s.journal.FailCapture(req.journalID, kind.String(), errs.Message(err)); jerr != nil {
			req.logger.Warn("journal update failed: " + jerr.Error())
		}
	}
}

func (s *Service) complete(req *request, outcome database.CaptureOutcome) {
	s.publish(events.NewCaptureCompletedEvent(req.id, string(req.kind), outcome.Source, outcome.Width, outcome.Height, outcome.ScaleFactor))
	if s.journal != nil && req.journalID != 0 {
		if err := s.journal.CompleteCapture(req.journalID, outcome); err != nil {
			req.logger.Warn("journal update failed: " + err.Error())
		}
	}
	req.logger.Info("capture completed")
}

func (s *Service) publish(e events.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

// stage runs fn inside a child span named after the stage.
func (s *Service) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "capture."+name)
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errs.KindOf(err).String())
		return err
	}
	return nil
}

// acquire captures the active window when the provider supports it and the
// full screen otherwise.
func (s *Service) acquire(ctx context.Context) (*capture.Frame, error) {
	caps := s.provider.Capabilities()

	var (
		frame *capture.Frame
		err   error
	)
	switch {
	case caps.Window:
		frame, err = s.provider.CaptureWindow(ctx)
	case caps.Screen:
		frame, err = s.provider.CaptureScreen(ctx)
	default:
		return nil, errs.ErrUnsupportedPlatform
	}
	if err != nil {
		return nil, err
	}
	if frame == nil {
		return nil, errs.New(errs.KindPlatformResource, "Capture provider returned no frame.")
	}
	if err := frame.Check(); err != nil {
		return nil, err
	}
	return frame, nil
}

func appName(frame *capture.Frame) *string {
	if frame.Title == "" {
		return nil
	}
	title := frame.Title
	return &title
}
