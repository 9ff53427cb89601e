package sampler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/viva-ai/viva/internal/media"
	"github.com/viva-ai/viva/internal/model/api"
	"github.com/viva-ai/viva/internal/model/interview"
	"github.com/viva-ai/viva/internal/service/sampler"
)

type fakeScreenStream struct{}

func (fakeScreenStream) Kind() media.StreamKind { return media.KindScreen }

type fakeGateway struct {
	mu        sync.Mutex
	screenErr error
	frameErr  error
	frames    int
	releases  int
}

func (g *fakeGateway) AcquireScreenStream(context.Context) (media.Stream, error) {
	if g.screenErr != nil {
		return nil, g.screenErr
	}
	return fakeScreenStream{}, nil
}

func (g *fakeGateway) CaptureFrame(context.Context, media.Stream) (interview.Frame, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.frameErr != nil {
		return interview.Frame{}, g.frameErr
	}
	g.frames++
	return interview.Frame{Base64: "ZnJhbWU=", CapturedAt: time.Now().UTC()}, nil
}

func (g *fakeGateway) AcquireMicrophoneStream(context.Context) (media.AudioStream, error) {
	return nil, errors.New("not implemented")
}

func (g *fakeGateway) EncodeAudio([][]byte) (interview.Clip, error) {
	return interview.Clip{}, errors.New("not implemented")
}

func (g *fakeGateway) ReleaseStream(media.Stream) {
	g.mu.Lock()
	g.releases++
	g.mu.Unlock()
}

func (g *fakeGateway) frameCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.frames
}

type fakeAnalyzer struct {
	mu       sync.Mutex
	texts    []string
	calls    int
	err      error
	gate     chan struct{}         // when set, every analysis blocks until the gate closes
	gates    map[int]chan struct{} // per-call gates, keyed by call index
	failFrom int                   // calls at or beyond this index fail; 0 disables
}

func (a *fakeAnalyzer) AnalyzeScreen(_ context.Context, req api.AnalyzeScreenRequest) (api.AnalyzeScreenResponse, error) {
	a.mu.Lock()
	call := a.calls
	a.calls++
	gate := a.gate
	if g, ok := a.gates[call]; ok {
		gate = g
	}
	err := a.err
	failFrom := a.failFrom
	a.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return api.AnalyzeScreenResponse{}, err
	}
	if failFrom > 0 && call >= failFrom {
		return api.AnalyzeScreenResponse{}, errors.New("analysis cut off")
	}

	text := "screen text"
	if len(a.texts) > 0 {
		idx := call
		if idx >= len(a.texts) {
			idx = len(a.texts) - 1
		}
		text = a.texts[idx]
	}
	return api.AnalyzeScreenResponse{Success: true, SessionID: req.SessionID, Text: text}, nil
}

func (a *fakeAnalyzer) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestSnapshotFollowsAnalysis(t *testing.T) {
	gw := &fakeGateway{}
	analyzer := &fakeAnalyzer{texts: []string{"slide one"}}
	s := sampler.New(gw, analyzer, 10*time.Millisecond)

	if err := s.Start(context.Background(), "sess-1"); err != nil {
		t.Fatalf("Start err: %v", err)
	}
	defer s.Stop()

	waitFor(t, func() bool { return s.Snapshot().Text == "slide one" })
	snap := s.Snapshot()
	if snap.CapturedAt.IsZero() {
		t.Fatal("snapshot missing capture timestamp")
	}
}

func TestScreenUnavailableFailsStart(t *testing.T) {
	deviceErr := &media.DeviceError{Device: media.KindScreen, Err: errors.New("permission denied")}
	s := sampler.New(&fakeGateway{screenErr: deviceErr}, &fakeAnalyzer{}, time.Millisecond)

	err := s.Start(context.Background(), "sess-1")
	var devErr *media.DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("Start err = %v, want a DeviceError", err)
	}
}

func TestAnalysisFailureKeepsLastSnapshot(t *testing.T) {
	gw := &fakeGateway{}
	analyzer := &fakeAnalyzer{texts: []string{"good value"}}
	s := sampler.New(gw, analyzer, 10*time.Millisecond)

	if err := s.Start(context.Background(), "sess-1"); err != nil {
		t.Fatalf("Start err: %v", err)
	}
	defer s.Stop()

	waitFor(t, func() bool { return s.Snapshot().Text == "good value" })

	analyzer.mu.Lock()
	analyzer.err = errors.New("analysis backend down")
	before := analyzer.calls
	analyzer.mu.Unlock()

	waitFor(t, func() bool { return analyzer.callCount() >= before+2 })
	if got := s.Snapshot().Text; got != "good value" {
		t.Fatalf("failed analyses must not clear the snapshot, got %q", got)
	}
}

func TestCaptureFailureSkipsAnalysis(t *testing.T) {
	gw := &fakeGateway{frameErr: errors.New("capture failed")}
	analyzer := &fakeAnalyzer{}
	s := sampler.New(gw, analyzer, 5*time.Millisecond)

	if err := s.Start(context.Background(), "sess-1"); err != nil {
		t.Fatalf("Start err: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	if got := analyzer.callCount(); got != 0 {
		t.Fatalf("analyzer called %d times despite capture failures, want 0", got)
	}
	if got := s.Snapshot().Text; got != "" {
		t.Fatalf("snapshot = %q, want empty", got)
	}
}

func TestStopReleasesStreamOnce(t *testing.T) {
	gw := &fakeGateway{}
	s := sampler.New(gw, &fakeAnalyzer{}, 10*time.Millisecond)

	if err := s.Start(context.Background(), "sess-1"); err != nil {
		t.Fatalf("Start err: %v", err)
	}
	s.Stop()
	s.Stop()

	if gw.releases != 1 {
		t.Fatalf("screen stream released %d times, want 1", gw.releases)
	}

	captured := gw.frameCount()
	time.Sleep(50 * time.Millisecond)
	if got := gw.frameCount(); got != captured {
		t.Fatalf("sampling continued after Stop: %d -> %d frames", captured, got)
	}
}

func TestSlowerAnalysisOverwritesNewerResult(t *testing.T) {
	gw := &fakeGateway{}
	firstGate := make(chan struct{})
	secondGate := make(chan struct{})
	analyzer := &fakeAnalyzer{
		texts:    []string{"older frame", "newer frame"},
		gates:    map[int]chan struct{}{0: firstGate, 1: secondGate},
		failFrom: 2,
	}
	s := sampler.New(gw, analyzer, 10*time.Millisecond)

	if err := s.Start(context.Background(), "sess-1"); err != nil {
		t.Fatalf("Start err: %v", err)
	}
	defer s.Stop()

	waitFor(t, func() bool { return analyzer.callCount() >= 2 })

	// The second tick's analysis completes first and takes the cell.
	close(secondGate)
	waitFor(t, func() bool { return s.Snapshot().Text == "newer frame" })

	// The first tick's analysis resolves later and wins: the cell holds the
	// most recently completed result, not the most recently captured frame.
	close(firstGate)
	waitFor(t, func() bool { return s.Snapshot().Text == "older frame" })
}

func TestLateAnalysisAfterStopIsDiscarded(t *testing.T) {
	gw := &fakeGateway{}
	gate := make(chan struct{})
	analyzer := &fakeAnalyzer{texts: []string{"late result"}, gate: gate}
	s := sampler.New(gw, analyzer, 10*time.Millisecond)

	if err := s.Start(context.Background(), "sess-1"); err != nil {
		t.Fatalf("Start err: %v", err)
	}

	// Let at least one analysis start, then tear down while it is blocked.
	waitFor(t, func() bool { return analyzer.callCount() >= 1 })
	s.Stop()
	close(gate)

	time.Sleep(50 * time.Millisecond)
	if got := s.Snapshot().Text; got != "" {
		t.Fatalf("analysis finishing after Stop wrote the snapshot: %q", got)
	}
}
