// Package media owns access to the presenter's capture devices. Streams are
// acquired and released only through a Gateway; callers never touch the
// underlying hardware handles.
package media

import (
	"context"
	"fmt"

	"github.com/viva-ai/viva/internal/model/interview"
)

// StreamKind identifies which device a stream captures.
type StreamKind string

const (
	KindScreen     StreamKind = "screen"
	KindMicrophone StreamKind = "microphone"
)

// Stream is an opaque handle to a live device capture.
type Stream interface {
	Kind() StreamKind
}

// AudioStream delivers buffered microphone data chunk by chunk.
// ReadChunk returns io.EOF once the stream has been released.
type AudioStream interface {
	Stream
	ReadChunk(ctx context.Context) ([]byte, error)
}

// Gateway acquires device streams, renders frames and encodes audio.
type Gateway interface {
	AcquireScreenStream(ctx context.Context) (Stream, error)
	CaptureFrame(ctx context.Context, s Stream) (interview.Frame, error)
	AcquireMicrophoneStream(ctx context.Context) (AudioStream, error)
	EncodeAudio(chunks [][]byte) (interview.Clip, error)
	// ReleaseStream stops the underlying capture. Safe to call more than
	// once and with streams that were never fully acquired.
	ReleaseStream(s Stream)
}

// DeviceError reports a device that could not be acquired or read, for
// example because permission was denied or no such device exists.
type DeviceError struct {
	Device StreamKind
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s device: %v", e.Device, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }
