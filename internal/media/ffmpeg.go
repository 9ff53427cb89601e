package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/viva-ai/viva/internal/model/interview"
)

const (
	micSampleRateHz = 16000
	micChunkSize    = 4096
)

// FFmpegGateway captures the screen and microphone through ffmpeg
// subprocesses. Frames are grabbed one-shot per capture; microphone audio is
// streamed from a long-running process until release.
type FFmpegGateway struct {
	// Display names the screen input, e.g. ":0.0" for x11grab.
	Display string
	// AudioInput names the microphone input, e.g. "default" for pulse.
	AudioInput string
}

// NewFFmpegGateway verifies ffmpeg is installed and returns a gateway bound
// to the given display and audio input. Empty values select defaults.
func NewFFmpegGateway(display, audioInput string) (*FFmpegGateway, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg is required for media capture: %w", err)
	}
	if display == "" {
		display = ":0.0"
	}
	if audioInput == "" {
		audioInput = "default"
	}
	return &FFmpegGateway{Display: display, AudioInput: audioInput}, nil
}

type screenStream struct {
	display  string
	mu       sync.Mutex
	released bool
}

func (s *screenStream) Kind() StreamKind { return KindScreen }

type micStream struct {
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	release sync.Once
	done    chan struct{}
}

func (s *micStream) Kind() StreamKind { return KindMicrophone }

// ReadChunk reads the next slab of raw audio from the capture process.
func (s *micStream) ReadChunk(ctx context.Context) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	buf := make([]byte, micChunkSize)
	n, err := s.stdout.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err != nil {
		select {
		case <-s.done:
			return nil, io.EOF
		default:
		}
		return nil, err
	}
	return nil, io.EOF
}

// AcquireScreenStream claims the configured display for frame capture.
func (g *FFmpegGateway) AcquireScreenStream(_ context.Context) (Stream, error) {
	if g.Display == "" {
		return nil, &DeviceError{Device: KindScreen, Err: fmt.Errorf("no display configured")}
	}
	return &screenStream{display: g.Display}, nil
}

// CaptureFrame grabs a single PNG frame from the screen stream.
func (g *FFmpegGateway) CaptureFrame(ctx context.Context, s Stream) (interview.Frame, error) {
	scr, ok := s.(*screenStream)
	if !ok {
		return interview.Frame{}, &DeviceError{Device: KindScreen, Err: fmt.Errorf("not a screen stream")}
	}
	scr.mu.Lock()
	released := scr.released
	scr.mu.Unlock()
	if released {
		return interview.Frame{}, &DeviceError{Device: KindScreen, Err: fmt.Errorf("stream released")}
	}

	capturedAt := time.Now().UTC()
	cmd := exec.CommandContext(ctx, "ffmpeg", frameGrabArgs(runtime.GOOS, scr.display)...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		return interview.Frame{}, &DeviceError{Device: KindScreen, Err: fmt.Errorf("frame grab: %w", err)}
	}

	return interview.Frame{
		Base64:     base64.StdEncoding.EncodeToString(out.Bytes()),
		CapturedAt: capturedAt,
	}, nil
}

// AcquireMicrophoneStream starts a streaming capture of the microphone.
func (g *FFmpegGateway) AcquireMicrophoneStream(_ context.Context) (AudioStream, error) {
	cmd := exec.Command("ffmpeg", micCaptureArgs(runtime.GOOS, g.AudioInput)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &DeviceError{Device: KindMicrophone, Err: fmt.Errorf("open ffmpeg stdout: %w", err)}
	}
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return nil, &DeviceError{Device: KindMicrophone, Err: fmt.Errorf("start capture: %w", err)}
	}
	return &micStream{cmd: cmd, stdout: stdout, done: make(chan struct{})}, nil
}

// EncodeAudio concatenates raw chunks into a transferable payload.
func (g *FFmpegGateway) EncodeAudio(chunks [][]byte) (interview.Clip, error) {
	var buf bytes.Buffer
	for _, c := range chunks {
		buf.Write(c)
	}
	return interview.Clip{
		Base64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		Format: "wav",
	}, nil
}

// ReleaseStream stops the underlying capture process. Idempotent.
func (g *FFmpegGateway) ReleaseStream(s Stream) {
	switch st := s.(type) {
	case *screenStream:
		st.mu.Lock()
		st.released = true
		st.mu.Unlock()
	case *micStream:
		st.release.Do(func() {
			close(st.done)
			_ = st.stdout.Close()
			if st.cmd.Process != nil {
				_ = st.cmd.Process.Kill()
			}
			_ = st.cmd.Wait()
		})
	}
}

func frameGrabArgs(goos, display string) []string {
	switch goos {
	case "darwin":
		return []string{
			"-hide_banner", "-loglevel", "error",
			"-f", "avfoundation", "-i", display,
			"-frames:v", "1", "-f", "image2", "-vcodec", "png", "pipe:1",
		}
	default:
		return []string{
			"-hide_banner", "-loglevel", "error",
			"-f", "x11grab", "-i", display,
			"-frames:v", "1", "-f", "image2", "-vcodec", "png", "pipe:1",
		}
	}
}

func micCaptureArgs(goos, input string) []string {
	switch goos {
	case "darwin":
		if input == "default" {
			input = "0"
		}
		return []string{
			"-hide_banner", "-loglevel", "error",
			"-f", "avfoundation", "-i", ":" + input,
			"-ac", "1", "-ar", fmt.Sprintf("%d", micSampleRateHz),
			"-f", "wav", "pipe:1",
		}
	default:
		return []string{
			"-hide_banner", "-loglevel", "error",
			"-f", "pulse", "-i", input,
			"-ac", "1", "-ar", fmt.Sprintf("%d", micSampleRateHz),
			"-f", "wav", "pipe:1",
		}
	}
}
