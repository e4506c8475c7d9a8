package service

import (
	"context"
	"image"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"jordanella.com/overlay-capture/internal/capture"
	"jordanella.com/overlay-capture/internal/database"
	"jordanella.com/overlay-capture/internal/errs"
	"jordanella.com/overlay-capture/internal/imaging"
)

// CaptureText captures the active window (or screen) and runs text
// recognition over it at full resolution. Nothing is written to disk.
func (s *Service) CaptureText(ctx context.Context) (*TextResult, error) {
	req := s.begin(KindText)
	ctx, span := s.tracer.Start(ctx, "CaptureService.CaptureText", trace.WithAttributes(
		attribute.String("capture.request_id", req.id),
	))
	defer span.End()

	result, err := s.captureText(ctx, req)
	if err != nil {
		s.fail(req, span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("capture.source", string(result.Source)),
		attribute.Int("capture.text_length", len(result.Text)),
	)
	return result, nil
}

func (s *Service) captureText(ctx context.Context, req *request) (*TextResult, error) {
	if !s.gate.Enabled() {
		return nil, errs.ErrToolDisabled
	}
	req.stage = StageGateChecked

	var frame *capture.Frame
	err := s.stage(ctx, "acquire", func(ctx context.Context) (err error) {
		frame, err = s.acquire(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	req.stage = StageCaptured

	var img *image.NRGBA
	err = s.stage(ctx, "normalize", func(context.Context) (err error) {
		img, err = imaging.ToCanonical(frame.Pixels, frame.Region.Width, frame.Region.Height, frame.Order)
		return err
	})
	if err != nil {
		return nil, err
	}
	req.stage = StageNormalized

	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	var text string
	err = s.stage(ctx, "recognize", func(ctx context.Context) (err error) {
		text, err = s.recognizer.Recognize(ctx, img.Pix, width, height)
		return err
	})
	if err != nil {
		return nil, err
	}
	req.stage = StageRecognized

	result := &TextResult{
		Text:    text,
		Source:  frame.Source,
		AppName: appName(frame),
		Resolution: Resolution{
			Width:       width,
			Height:      height,
			ScaleFactor: 1.0,
		},
		RequestID: req.id,
	}
	s.complete(req, database.CaptureOutcome{
		Source:      string(result.Source),
		AppName:     result.AppName,
		Width:       width,
		Height:      height,
		ScaleFactor: 1.0,
		TextLength:  len(text),
	})
	req.stage = StageReturned
	return result, nil
}
