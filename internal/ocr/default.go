//go:build windows || darwin || linux

package ocr

// Default returns the recognizer for the running OS.
func Default(opts Options) Recognizer {
	return NewTesseract(opts)
}
