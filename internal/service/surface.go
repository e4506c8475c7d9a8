package service

import (
	"context"

	"jordanella.com/overlay-capture/internal/errs"
)

// Response is what the UI receives: a result or a human-readable error.
type Response[T any] struct {
	Result *T     `json:"result,omitempty" yaml:"result,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether the response carries a result.
func (r Response[T]) OK() bool {
	return r.Error == "" && r.Result != nil
}

// Surface is the UI-facing request handler. Each call dispatches the capture
// to a worker goroutine and waits for its outcome; if ctx ends first the
// caller gets an error and the in-flight capture finishes unobserved.
type Surface struct {
	svc *Service
}

func NewSurface(svc *Service) *Surface {
	return &Surface{svc: svc}
}

// CaptureScreenImage handles the capture_screen_image request.
func (s *Surface) CaptureScreenImage(ctx context.Context) Response[ImageResult] {
	return await(ctx, s.svc.CaptureImageAsync(ctx))
}

// CaptureScreenText handles the capture_screen_text request.
func (s *Surface) CaptureScreenText(ctx context.Context) Response[TextResult] {
	return await(ctx, s.svc.CaptureTextAsync(ctx))
}

func await[T any](ctx context.Context, ch <-chan Outcome[T]) Response[T] {
	select {
	case o := <-ch:
		if o.Err != nil {
			return Response[T]{Error: errs.Message(o.Err)}
		}
		return Response[T]{Result: o.Result}
	case <-ctx.Done():
		return Response[T]{Error: "Capture request abandoned: " + ctx.Err().Error()}
	}
}
