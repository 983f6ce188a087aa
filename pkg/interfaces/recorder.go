package interfaces

import (
	"context"
	"errors"
)

var (
	// ErrCapturePermissionDenied reports that the host denied microphone access.
	ErrCapturePermissionDenied = errors.New("capture: microphone permission denied")
	// ErrCaptureDeviceUnavailable reports that no usable capture device exists.
	ErrCaptureDeviceUnavailable = errors.New("capture: device unavailable")
)

// AudioSource abstracts the host's microphone capture API.
type AudioSource interface {
	// Open acquires the capture device and starts streaming. Implementations
	// must wrap permission failures with ErrCapturePermissionDenied so callers
	// can surface a recoverable message.
	Open(ctx context.Context) (AudioStream, error)
}

// AudioStream delivers captured audio until stopped.
type AudioStream interface {
	// Chunks yields encoded audio chunks. The channel is closed when the
	// stream stops or fails.
	Chunks() <-chan []byte
	// MimeType reports the encoding of the emitted chunks.
	MimeType() string
	// Stop halts capture and releases every underlying track. Safe to call
	// more than once.
	Stop() error
}
