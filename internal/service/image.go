package service

import (
	"context"
	"image"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"jordanella.com/overlay-capture/internal/capture"
	"jordanella.com/overlay-capture/internal/database"
	"jordanella.com/overlay-capture/internal/errs"
	"jordanella.com/overlay-capture/internal/events"
	"jordanella.com/overlay-capture/internal/imaging"
	"jordanella.com/overlay-capture/internal/store"
)

// CaptureImage captures the active window (or screen), bounds it to the
// maximum dimension, encodes it as PNG and persists it.
func (s *Service) CaptureImage(ctx context.Context) (*ImageResult, error) {
	req := s.begin(KindImage)
	ctx, span := s.tracer.Start(ctx, "CaptureService.CaptureImage", trace.WithAttributes(
		attribute.String("capture.request_id", req.id),
	))
	defer span.End()

	result, err := s.captureImage(ctx, req)
	if err != nil {
		s.fail(req, span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("capture.source", string(result.Source)),
		attribute.Int("capture.width", result.Resolution.Width),
		attribute.Int("capture.height", result.Resolution.Height),
		attribute.Float64("capture.scale_factor", result.Resolution.ScaleFactor),
	)
	return result, nil
}

func (s *Service) captureImage(ctx context.Context, req *request) (*ImageResult, error) {
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

	scaled, scale := imaging.Downscale(img, s.maxDim)
	req.stage = StageScaled

	var data []byte
	err = s.stage(ctx, "encode", func(context.Context) (err error) {
		data, err = imaging.Encode(scaled)
		return err
	})
	if err != nil {
		return nil, err
	}
	req.stage = StageEncoded

	artifact := imaging.Artifact{
		Data:        data,
		MIMEType:    imaging.MIMETypePNG,
		Width:       scaled.Bounds().Dx(),
		Height:      scaled.Bounds().Dy(),
		ScaleFactor: scale,
	}

	var saved store.Saved
	err = s.stage(ctx, "persist", func(context.Context) (err error) {
		saved, err = s.store.Save(artifact.Data)
		return err
	})
	if err != nil {
		return nil, err
	}
	req.stage = StagePersisted

	s.publish(events.NewArtifactPersistedEvent(req.id, saved.Path, saved.Size))
	if len(saved.Evicted) > 0 {
		s.evicted(req, saved.Evicted)
	}

	result := &ImageResult{
		MIMEType: artifact.MIMEType,
		FilePath: saved.Path,
		Source:   frame.Source,
		AppName:  appName(frame),
		Resolution: Resolution{
			Width:       artifact.Width,
			Height:      artifact.Height,
			ScaleFactor: artifact.ScaleFactor,
		},
		RequestID: req.id,
	}
	s.complete(req, database.CaptureOutcome{
		Source:      string(result.Source),
		AppName:     result.AppName,
		Width:       result.Resolution.Width,
		Height:      result.Resolution.Height,
		ScaleFactor: result.Resolution.ScaleFactor,
		FilePath:    result.FilePath,
		FileBytes:   int64(saved.Size),
	})
	req.stage = StageReturned
	return result, nil
}

func (s *Service) evicted(req *request, paths []string) {
	// Nothing waits on eviction notices.
	if s.bus != nil {
		s.bus.PublishAsync(events.NewArtifactsEvictedEvent(paths))
	}
	if s.journal == nil {
		return
	}
	if _, err := s.journal.MarkEvicted(paths); err != nil {
		req.logger.Warn("journal eviction update failed: " + err.Error())
	}
}
