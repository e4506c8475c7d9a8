// Package errs defines the capture error taxonomy shared by every stage of the
// pipeline and renders it as the human-readable strings returned to the UI.
//
// Every failure is terminal for the request that produced it; nothing here is
// retried. Callers compare with errors.Is against the sentinel values:
//
//	if errors.Is(err, errs.ErrToolDisabled) { ... }
//
// or classify with KindOf.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the category of a capture failure.
type Kind int

const (
	// KindUnknown is reported for errors that did not originate in this module.
	KindUnknown Kind = iota
	KindToolDisabled
	KindNoActiveWindow
	KindEmptyRegion
	KindPlatformResource
	KindRegionTooLarge
	KindEngineUnavailable
	KindEncodeFailure
	KindStorageUnavailable
	KindClockError
	KindUnsupportedPlatform
)

// String returns the stable identifier used in logs and the journal.
func (k Kind) String() string {
	switch k {
	case KindToolDisabled:
		return "tool_disabled"
	case KindNoActiveWindow:
		return "no_active_window"
	case KindEmptyRegion:
		return "empty_region"
	case KindPlatformResource:
		return "platform_resource_failure"
	case KindRegionTooLarge:
		return "region_too_large"
	case KindEngineUnavailable:
		return "engine_unavailable"
	case KindEncodeFailure:
		return "encode_failure"
	case KindStorageUnavailable:
		return "storage_unavailable"
	case KindClockError:
		return "clock_error"
	case KindUnsupportedPlatform:
		return "unsupported_platform"
	default:
		return "unknown"
	}
}

// summary is the message shown when an error carries no detail.
func (k Kind) summary() string {
	switch k {
	case KindToolDisabled:
		return "Screen capture tool disabled in settings."
	case KindNoActiveWindow:
		return "No active window found."
	case KindEmptyRegion:
		return "Capture region is empty."
	case KindPlatformResource:
		return "Screen capture failed."
	case KindRegionTooLarge:
		return "Capture region is too large for text recognition."
	case KindEngineUnavailable:
		return "Text recognition engine is unavailable."
	case KindEncodeFailure:
		return "PNG encode failed."
	case KindStorageUnavailable:
		return "Failed to write capture."
	case KindClockError:
		return "Failed to generate timestamp."
	case KindUnsupportedPlatform:
		return "Screen capture is not implemented for this OS yet."
	default:
		return "Capture failed."
	}
}

// Error is a classified capture failure.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

// Sentinels for errors.Is comparisons. Matching is by Kind only.
var (
	ErrToolDisabled        = &Error{Kind: KindToolDisabled}
	ErrNoActiveWindow      = &Error{Kind: KindNoActiveWindow}
	ErrEmptyRegion         = &Error{Kind: KindEmptyRegion}
	ErrPlatformResource    = &Error{Kind: KindPlatformResource}
	ErrRegionTooLarge      = &Error{Kind: KindRegionTooLarge}
	ErrEngineUnavailable   = &Error{Kind: KindEngineUnavailable}
	ErrEncodeFailure       = &Error{Kind: KindEncodeFailure}
	ErrStorageUnavailable  = &Error{Kind: KindStorageUnavailable}
	ErrClockError          = &Error{Kind: KindClockError}
	ErrUnsupportedPlatform = &Error{Kind: KindUnsupportedPlatform}
)

// New returns an error of the given kind with a detail message.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Newf is New with formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind. A nil err yields a plain New.
func Wrap(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

func (e *Error) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Kind.summary()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", strings.TrimSuffix(msg, "."), e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// Message renders err for the UI-facing surface. Classified errors keep
// their detail; anything else falls back to its own text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Error()
	}
	return err.Error()
}
