package media

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
)

func TestFrameGrabArgsPerPlatform(t *testing.T) {
	linux := frameGrabArgs("linux", ":0.0")
	if !containsPair(linux, "-f", "x11grab") {
		t.Fatalf("linux grab must use x11grab: %v", linux)
	}
	if !containsPair(linux, "-i", ":0.0") {
		t.Fatalf("linux grab missing display input: %v", linux)
	}

	darwin := frameGrabArgs("darwin", "1")
	if !containsPair(darwin, "-f", "avfoundation") {
		t.Fatalf("darwin grab must use avfoundation: %v", darwin)
	}
}

func TestMicCaptureArgsPerPlatform(t *testing.T) {
	linux := micCaptureArgs("linux", "default")
	if !containsPair(linux, "-f", "pulse") {
		t.Fatalf("linux capture must use pulse: %v", linux)
	}
	if !containsPair(linux, "-i", "default") {
		t.Fatalf("linux capture missing input: %v", linux)
	}

	// avfoundation has no "default" device name; index 0 stands in for it.
	darwin := micCaptureArgs("darwin", "default")
	if !containsPair(darwin, "-i", ":0") {
		t.Fatalf("darwin capture must map default to :0: %v", darwin)
	}
}

func TestEncodeAudioConcatenatesChunks(t *testing.T) {
	g := &FFmpegGateway{}
	clip, err := g.EncodeAudio([][]byte{[]byte("RIFF"), []byte("data")})
	if err != nil {
		t.Fatalf("EncodeAudio err: %v", err)
	}
	if clip.Format != "wav" {
		t.Fatalf("format = %q, want wav", clip.Format)
	}
	raw, err := base64.StdEncoding.DecodeString(clip.Base64)
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}
	if got := string(raw); got != "RIFFdata" {
		t.Fatalf("payload = %q, want RIFFdata", got)
	}
}

func TestCaptureFrameOnReleasedStream(t *testing.T) {
	g := &FFmpegGateway{Display: ":0.0"}
	stream := &screenStream{display: ":0.0"}

	g.ReleaseStream(stream)
	g.ReleaseStream(stream) // release is idempotent

	_, err := g.CaptureFrame(context.Background(), stream)
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("err = %v, want a DeviceError", err)
	}
	if devErr.Device != KindScreen {
		t.Fatalf("device = %s, want screen", devErr.Device)
	}
}

func TestCaptureFrameRejectsWrongStreamKind(t *testing.T) {
	g := &FFmpegGateway{Display: ":0.0"}
	_, err := g.CaptureFrame(context.Background(), &micStream{})
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("err = %v, want a DeviceError", err)
	}
}

func containsPair(args []string, flag, value string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}
