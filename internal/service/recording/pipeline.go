// Package recording provides the start/stop voice capture lifecycle around
// the media gateway. At most one recording is live at a time.
package recording

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/viva-ai/viva/internal/media"
	"github.com/viva-ai/viva/internal/model/interview"
)

var (
	// ErrAlreadyRecording rejects a second Start while a recording is live.
	ErrAlreadyRecording = errors.New("recording already in progress")
	// ErrNotRecording rejects Stop when nothing is being recorded.
	ErrNotRecording = errors.New("no active recording")
)

// Pipeline buffers microphone chunks between Start and Stop and hands back
// an encoded clip on Stop.
type Pipeline struct {
	gateway media.Gateway

	mu     sync.Mutex
	active bool
	stream media.AudioStream
	chunks [][]byte
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPipeline wraps the gateway's microphone into a recording lifecycle.
func NewPipeline(gateway media.Gateway) *Pipeline {
	return &Pipeline{gateway: gateway}
}

// Start acquires the microphone and begins buffering audio. A Start while a
// recording is live fails with ErrAlreadyRecording and leaves the existing
// recording untouched.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active {
		return ErrAlreadyRecording
	}

	stream, err := p.gateway.AcquireMicrophoneStream(ctx)
	if err != nil {
		return err
	}

	readCtx, cancel := context.WithCancel(context.Background())
	p.active = true
	p.stream = stream
	p.chunks = nil
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.readLoop(readCtx, stream, p.done)
	return nil
}

// readLoop drains the stream until it is released or the context ends.
func (p *Pipeline) readLoop(ctx context.Context, stream media.AudioStream, done chan struct{}) {
	defer close(done)
	for {
		chunk, err := stream.ReadChunk(ctx)
		if len(chunk) > 0 {
			p.mu.Lock()
			p.chunks = append(p.chunks, chunk)
			p.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// Stop finalizes buffering, releases the microphone and returns the encoded
// recording. Fails with ErrNotRecording if no recording is active.
func (p *Pipeline) Stop(_ context.Context) (interview.Clip, error) {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return interview.Clip{}, ErrNotRecording
	}
	p.active = false
	stream := p.stream
	cancel := p.cancel
	done := p.done
	p.stream = nil
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	p.gateway.ReleaseStream(stream)
	<-done

	p.mu.Lock()
	chunks := p.chunks
	p.chunks = nil
	p.mu.Unlock()

	return p.gateway.EncodeAudio(chunks)
}

// Active reports whether a recording is currently buffering.
func (p *Pipeline) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Abort discards any live recording and releases the microphone. Safe to
// call when nothing is recording.
func (p *Pipeline) Abort() {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	p.active = false
	stream := p.stream
	cancel := p.cancel
	done := p.done
	p.stream = nil
	p.cancel = nil
	p.chunks = nil
	p.mu.Unlock()

	cancel()
	p.gateway.ReleaseStream(stream)
	<-done
	log.Printf("[recording] aborted active recording")
}
