// Package facecapture drives a face verification attempt: load a detector,
// sample camera frames until a face shows up, freeze one frame on request
// and ask the auth service whether it matches the claimed account.
package facecapture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/stockdesk/pkg/authsdk"
)

const (
	DefaultSampleInterval = 300 * time.Millisecond
	DefaultStartupDelay   = 500 * time.Millisecond
	DefaultRetryDelay     = 1 * time.Second
)

type Config struct {
	Loader     ModelLoader
	OpenCamera CameraOpener
	Verifier   Verifier

	// Overlay and Notifier are optional.
	Overlay  Overlay
	Notifier Notifier
	Logger   *slog.Logger

	// SampleInterval defaults to DefaultSampleInterval.
	SampleInterval time.Duration

	// StartupDelay is the wait between opening the camera and arming.
	// RetryDelay is the wait between Retry and the next sample. Zero means
	// no wait.
	StartupDelay time.Duration
	RetryDelay   time.Duration
}

// Flow is one face capture attempt. All methods are safe for concurrent
// use; results of network calls that arrive after Cancel are discarded.
type Flow struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	outcome  Outcome
	gen      uint64
	detector Detector
	camera   Camera
	last     Frame
	faces    []Box
	still    Frame
	lastErr  error
	closed   bool
	sampler  *sampler
	subs     map[int]func(Session)
	nextSub  int
}

func NewFlow(cfg Config) *Flow {
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = DefaultSampleInterval
	}
	if cfg.Overlay == nil {
		cfg.Overlay = nopOverlay{}
	}
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{
		cfg:    cfg,
		logger: logger,
		subs:   make(map[int]func(Session)),
	}
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Session returns a copy of the current attempt.
func (f *Flow) Session() Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessionLocked()
}

func (f *Flow) sessionLocked() Session {
	s := Session{
		State:    f.state,
		Armed:    f.state.sampling(),
		Detected: f.state == StateFaceDetected,
		Still:    f.still,
		Outcome:  f.outcome,
	}
	if len(f.faces) > 0 && s.Armed {
		s.Faces = append([]Box(nil), f.faces...)
	}
	return s
}

// LastError returns the error that last moved the flow to StateError.
func (f *Flow) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Subscribe registers fn to receive the session after every transition.
func (f *Flow) Subscribe(fn func(Session)) func() {
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *Flow) publish(sessions ...Session) {
	f.mu.Lock()
	fns := make([]func(Session), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, s := range sessions {
		for _, fn := range fns {
			fn(s)
		}
	}
}

// Start loads the detector and opens the camera, then arms the sampler
// after StartupDelay. It may be called from StateIdle or StateError and
// does nothing in any other state.
func (f *Flow) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.state != StateIdle && f.state != StateError {
		f.mu.Unlock()
		return nil
	}
	f.gen++
	gen := f.gen
	f.state = StateModelLoading
	f.outcome = OutcomeUnverified
	f.lastErr = nil
	snap := f.sessionLocked()
	f.mu.Unlock()
	f.publish(snap)

	det, err := f.cfg.Loader.Load(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrModelLoad, err)
		f.fail(gen, err, MsgModelUnavailable)
		return err
	}

	cam, err := f.cfg.OpenCamera(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrCameraDenied, err)
		f.fail(gen, err, MsgCameraDenied)
		return err
	}

	f.mu.Lock()
	if f.gen != gen {
		f.mu.Unlock()
		_ = cam.Close()
		return ErrCancelled
	}
	f.detector = det
	f.camera = cam
	f.startSamplerLocked(f.cfg.StartupDelay)
	f.mu.Unlock()

	f.logger.Debug("face capture started", "startup_delay", f.cfg.StartupDelay)
	return nil
}

func (f *Flow) fail(gen uint64, err error, msg string) {
	f.mu.Lock()
	if f.gen != gen {
		f.mu.Unlock()
		return
	}
	f.state = StateError
	f.lastErr = err
	snap := f.sessionLocked()
	f.mu.Unlock()

	f.logger.Warn("face capture failed", "error", err)
	f.cfg.Notifier.Error(msg)
	f.publish(snap)
}

// Tick takes one sample: grab a frame, run detection and move between
// StateArmedScanning and StateFaceDetected. Outside those states it does
// nothing. Errors wrap ErrDetectionSample and leave the state unchanged.
func (f *Flow) Tick(ctx context.Context) error {
	f.mu.Lock()
	if !f.state.sampling() {
		f.mu.Unlock()
		return nil
	}
	gen := f.gen
	cam, det := f.camera, f.detector
	f.mu.Unlock()

	frame, err := cam.Frame(ctx)
	if err != nil {
		return fmt.Errorf("%w: read frame: %v", ErrDetectionSample, err)
	}
	faces, err := det.Detect(ctx, frame)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDetectionSample, err)
	}

	f.mu.Lock()
	if f.gen != gen || !f.state.sampling() {
		f.mu.Unlock()
		return nil
	}
	prev := f.state
	f.last = frame
	f.faces = faces
	if len(faces) > 0 {
		f.state = StateFaceDetected
		f.cfg.Overlay.Draw(faces)
	} else {
		f.state = StateArmedScanning
		f.cfg.Overlay.Clear()
	}
	snap := f.sessionLocked()
	f.mu.Unlock()

	if snap.State != prev {
		f.publish(snap)
	}
	return nil
}

// Capture freezes the most recently sampled frame and stops sampling. It
// only acts in StateFaceDetected and reports whether it did.
func (f *Flow) Capture() bool {
	f.mu.Lock()
	if f.state != StateFaceDetected || f.last.Empty() {
		f.mu.Unlock()
		return false
	}
	f.gen++
	f.still = f.last
	f.state = StateCaptured
	s := f.detachSamplerLocked()
	snap := f.sessionLocked()
	f.mu.Unlock()

	s.stop()
	f.publish(snap)
	return true
}

// Verify submits the captured frame as email's face. It returns nil once
// the flow reaches StateVerified. On a non-match or a verifier failure the
// frame is discarded and sampling resumes.
func (f *Flow) Verify(ctx context.Context, email string) error {
	f.mu.Lock()
	if f.state != StateCaptured || f.still.Empty() {
		f.mu.Unlock()
		return ErrNotCaptured
	}
	gen := f.gen
	still := f.still
	f.state = StateVerifying
	snap := f.sessionLocked()
	f.mu.Unlock()
	f.publish(snap)

	resp, err := f.cfg.Verifier.VerifyFace(ctx, email, authsdk.EncodeDataURL(still.MIME, still.Data))

	f.mu.Lock()
	if f.gen != gen || f.state != StateVerifying {
		f.mu.Unlock()
		f.logger.Debug("discarding face verification result for a cancelled capture")
		return ErrCancelled
	}

	switch {
	case err != nil:
		err = fmt.Errorf("%w: %v", ErrVerificationTransport, err)
		f.state = StateError
		f.outcome = OutcomeFailed
		f.lastErr = err
		failed := f.sessionLocked()
		f.rearmLocked(0)
		armed := f.sessionLocked()
		f.mu.Unlock()

		f.logger.Warn("face verification failed", "email", email, "error", err)
		f.cfg.Notifier.Error(MsgVerificationUnavailable)
		f.publish(failed, armed)
		return err

	case !resp.Verified:
		f.state = StateMismatched
		f.outcome = OutcomeMismatched
		mismatched := f.sessionLocked()
		f.rearmLocked(0)
		armed := f.sessionLocked()
		f.mu.Unlock()

		f.logger.Info("face did not match", "email", email, "reason", resp.Error)
		f.cfg.Notifier.Warn(MsgFaceMismatch)
		f.publish(mismatched, armed)
		return ErrVerificationMismatch

	default:
		f.state = StateVerified
		f.outcome = OutcomeMatched
		verified := f.sessionLocked()
		f.mu.Unlock()

		f.logger.Info("face verified", "email", email)
		f.publish(verified)
		return nil
	}
}

// Retry discards the captured frame and resumes sampling after RetryDelay.
// It only acts in StateCaptured and reports whether it did.
func (f *Flow) Retry() bool {
	f.mu.Lock()
	if f.state != StateCaptured {
		f.mu.Unlock()
		return false
	}
	f.gen++
	f.rearmLocked(f.cfg.RetryDelay)
	snap := f.sessionLocked()
	f.mu.Unlock()

	f.publish(snap)
	return true
}

// rearmLocked drops the still frame and restarts the sampler.
func (f *Flow) rearmLocked(delay time.Duration) {
	f.still = Frame{}
	f.last = Frame{}
	f.faces = nil
	f.outcome = OutcomeUnverified
	f.state = StateArmedScanning
	f.cfg.Overlay.Clear()
	f.startSamplerLocked(delay)
}

// Cancel returns the flow to StateIdle from any state. It stops the
// sampler, releases the camera and discards in-flight results.
func (f *Flow) Cancel() {
	f.mu.Lock()
	f.gen++
	prev := f.state
	f.state = StateIdle
	f.outcome = OutcomeUnverified
	f.still = Frame{}
	f.last = Frame{}
	f.faces = nil
	f.detector = nil
	cam := f.camera
	f.camera = nil
	s := f.detachSamplerLocked()
	f.cfg.Overlay.Clear()
	snap := f.sessionLocked()
	f.mu.Unlock()

	s.stop()
	if cam != nil {
		if err := cam.Close(); err != nil {
			f.logger.Warn("failed to release camera", "error", err)
		}
	}
	if prev != StateIdle {
		f.publish(snap)
	}
}

// Close cancels the flow for good. Start fails afterwards.
func (f *Flow) Close() {
	f.Cancel()
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

type sampler struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// stop cancels the sampler and waits for it to exit. f.mu must not be held.
func (s *sampler) stop() {
	if s == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (f *Flow) detachSamplerLocked() *sampler {
	s := f.sampler
	f.sampler = nil
	return s
}

// startSamplerLocked must only be called after any previous sampler was
// detached.
func (f *Flow) startSamplerLocked(delay time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &sampler{cancel: cancel, done: make(chan struct{})}
	f.sampler = s
	go f.sample(ctx, f.gen, delay, s.done)
}

func (f *Flow) sample(ctx context.Context, gen uint64, delay time.Duration, done chan<- struct{}) {
	defer close(done)

	if delay > 0 {
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}

	if !f.arm(gen) {
		return
	}

	ticker := time.NewTicker(f.cfg.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := f.Tick(ctx); err != nil {
				f.logger.Debug("face sample skipped", "error", err)
			}
		}
	}
}

// arm moves a freshly started flow to StateArmedScanning. It reports false
// when the flow has moved on since the sampler was started.
func (f *Flow) arm(gen uint64) bool {
	f.mu.Lock()
	if f.gen != gen {
		f.mu.Unlock()
		return false
	}
	if f.state != StateModelLoading {
		f.mu.Unlock()
		return true
	}
	f.state = StateArmedScanning
	snap := f.sessionLocked()
	f.mu.Unlock()

	f.publish(snap)
	return true
}
