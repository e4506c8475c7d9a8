package service

import "context"

// Outcome is the single value delivered by an async capture.
type Outcome[T any] struct {
	Result *T
	Err    error
}

// CaptureImageAsync runs CaptureImage on its own goroutine. The returned
// channel is buffered and receives exactly one value, so an abandoned request
// never blocks the worker.
func (s *Service) CaptureImageAsync(ctx context.Context) <-chan Outcome[ImageResult] {
	out := make(chan Outcome[ImageResult], 1)
	go func() {
		defer close(out)
		res, err := s.CaptureImage(context.WithoutCancel(ctx))
		out <- Outcome[ImageResult]{Result: res, Err: err}
	}()
	return out
}

// CaptureTextAsync is CaptureImageAsync for text capture.
func (s *Service) CaptureTextAsync(ctx context.Context) <-chan Outcome[TextResult] {
	out := make(chan Outcome[TextResult], 1)
	go func() {
		defer close(out)
		res, err := s.CaptureText(context.WithoutCancel(ctx))
		out <- Outcome[TextResult]{Result: res, Err: err}
	}()
	return out
}
