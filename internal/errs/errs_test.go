package errs

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestIsMatchesByKind(t *testing.T) {
	err := Newf(KindPlatformResource, "BitBlt failed: %s", "access denied")
	if !errors.Is(err, ErrPlatformResource) {
		t.Fatalf("expected platform resource sentinel to match")
	}
	if errors.Is(err, ErrEncodeFailure) {
		t.Fatalf("unexpected match against a different kind")
	}

	wrapped := fmt.Errorf("capture image: %w", err)
	if !errors.Is(wrapped, ErrPlatformResource) {
		t.Fatalf("expected match through fmt wrapping")
	}
	if KindOf(wrapped) != KindPlatformResource {
		t.Errorf("KindOf = %v, want %v", KindOf(wrapped), KindPlatformResource)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(KindStorageUnavailable, "Failed to create capture dir", fs.ErrPermission)
	if !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("expected cause to be reachable")
	}
	want := "Failed to create capture dir: permission denied"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapDropsDetailPeriod(t *testing.T) {
	err := Wrap(KindStorageUnavailable, "Failed to create capture dir.", fs.ErrPermission)
	want := "Failed to create capture dir: permission denied"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if got := New(KindStorageUnavailable, "Failed to create capture dir.").Error(); got != "Failed to create capture dir." {
		t.Errorf("unwrapped detail changed: %q", got)
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"sentinel summary", ErrToolDisabled, "Screen capture tool disabled in settings."},
		{"empty region", New(KindEmptyRegion, ""), "Capture region is empty."},
		{"detail wins", New(KindNoActiveWindow, "no foreground window"), "no foreground window"},
		{"foreign error", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Message(tt.err); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindOfForeignError(t *testing.T) {
	if KindOf(errors.New("x")) != KindUnknown {
		t.Errorf("expected unknown kind for foreign error")
	}
	if KindUnsupportedPlatform.String() != "unsupported_platform" {
		t.Errorf("unexpected kind identifier %q", KindUnsupportedPlatform.String())
	}
}
