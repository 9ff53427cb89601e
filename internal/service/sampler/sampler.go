// Package sampler runs the fixed-interval screen sampling loop. Each tick
// captures one frame and analyzes it in the background; the most recently
// completed analysis wins the single snapshot slot.
package sampler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/viva-ai/viva/internal/media"
	"github.com/viva-ai/viva/internal/model/api"
	"github.com/viva-ai/viva/internal/model/interview"
)

// DefaultInterval is the sampling period when none is configured.
const DefaultInterval = 5 * time.Second

// ScreenAnalyzer is the slice of the dialogue client the sampler needs.
type ScreenAnalyzer interface {
	AnalyzeScreen(ctx context.Context, req api.AnalyzeScreenRequest) (api.AnalyzeScreenResponse, error)
}

// Sampler owns the screen stream and the snapshot cell. Capture or analysis
// failures are logged and dropped; they never reach the session flow.
type Sampler struct {
	gateway  media.Gateway
	analyzer ScreenAnalyzer
	interval time.Duration

	mu        sync.RWMutex
	snap      interview.Snapshot
	sessionID string

	ctx    context.Context
	cancel context.CancelFunc
	stream media.Stream
	once   sync.Once
}

// New builds a sampler; a non-positive interval selects DefaultInterval.
func New(gateway media.Gateway, analyzer ScreenAnalyzer, interval time.Duration) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sampler{gateway: gateway, analyzer: analyzer, interval: interval}
}

// Start acquires the screen stream and launches the sampling loop for the
// given session. It returns a DeviceError if the screen is unavailable.
func (s *Sampler) Start(ctx context.Context, sessionID string) error {
	stream, err := s.gateway.AcquireScreenStream(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sessionID = sessionID
	s.stream = stream
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	go s.loop()
	return nil
}

func (s *Sampler) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick captures one frame and hands it off for analysis without waiting, so
// the next tick may start before this analysis resolves.
func (s *Sampler) tick() {
	s.mu.RLock()
	stream := s.stream
	sessionID := s.sessionID
	s.mu.RUnlock()
	if stream == nil {
		return
	}

	frame, err := s.gateway.CaptureFrame(s.ctx, stream)
	if err != nil {
		log.Printf("[sampler] frame capture failed: %v", err)
		return
	}

	go s.analyze(sessionID, frame)
}

func (s *Sampler) analyze(sessionID string, frame interview.Frame) {
	resp, err := s.analyzer.AnalyzeScreen(s.ctx, api.AnalyzeScreenRequest{
		SessionID:   sessionID,
		ImageBase64: frame.Base64,
		Timestamp:   frame.CapturedAt.UnixMilli(),
	})
	if err != nil {
		log.Printf("[sampler] screen analysis failed: %v", err)
		return
	}

	// A result that lands after teardown is discarded, not written. Stop
	// cancels under the same lock, so the check and the write are atomic
	// with respect to teardown.
	s.mu.Lock()
	if s.ctx.Err() == nil {
		s.snap = interview.Snapshot{Text: resp.Text, CapturedAt: frame.CapturedAt}
	}
	s.mu.Unlock()
}

// Snapshot returns the current cell value without waiting on any in-flight
// analysis.
func (s *Sampler) Snapshot() interview.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Stop cancels the loop and releases the screen stream. Idempotent; an
// analysis already in flight finishes but its result is discarded.
func (s *Sampler) Stop() {
	s.once.Do(func() {
		s.mu.Lock()
		if s.cancel != nil {
			s.cancel()
		}
		stream := s.stream
		s.stream = nil
		s.mu.Unlock()
		if stream != nil {
			s.gateway.ReleaseStream(stream)
		}
	})
}
