package facecapture_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/stockdesk/internal/console/facecapture"
	"github.com/aussiebroadwan/stockdesk/pkg/authsdk"
	"github.com/aussiebroadwan/stockdesk/pkg/slogx"
	"github.com/stretchr/testify/require"
)

// fakeCamera hands out numbered frames.
type fakeCamera struct {
	mu     sync.Mutex
	n      int
	closed bool
}

func (c *fakeCamera) Frame(context.Context) (facecapture.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return facecapture.Frame{Data: []byte(fmt.Sprintf("frame-%d", c.n)), MIME: "image/png"}, nil
}

func (c *fakeCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeCamera) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fakeDetector reports the next scripted face count on each call. Once the
// script is exhausted it repeats fallback.
type fakeDetector struct {
	mu       sync.Mutex
	script   []int
	fallback int
	err      error
	calls    int
}

func (d *fakeDetector) Detect(context.Context, facecapture.Frame) ([]facecapture.Box, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	n := d.fallback
	if len(d.script) > 0 {
		n, d.script = d.script[0], d.script[1:]
	}
	boxes := make([]facecapture.Box, n)
	for i := range boxes {
		boxes[i] = facecapture.Box{X: 10 * i, Y: 10, Width: 40, Height: 40, Score: 0.9}
	}
	return boxes, nil
}

func (d *fakeDetector) push(counts ...int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.script = append(d.script, counts...)
}

func (d *fakeDetector) setErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

func (d *fakeDetector) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type fakeLoader struct {
	det *fakeDetector
	err error
}

func (l *fakeLoader) Load(context.Context) (facecapture.Detector, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.det, nil
}

type verifyCall struct {
	email   string
	dataURL string
}

// fakeVerifier answers with resp or err. When gate is set it blocks until
// the gate is closed.
type fakeVerifier struct {
	mu    sync.Mutex
	resp  *authsdk.VerifyFaceResponse
	err   error
	gate  chan struct{}
	calls []verifyCall
}

func (v *fakeVerifier) VerifyFace(_ context.Context, email, dataURL string) (*authsdk.VerifyFaceResponse, error) {
	v.mu.Lock()
	v.calls = append(v.calls, verifyCall{email: email, dataURL: dataURL})
	gate, resp, err := v.gate, v.resp, v.err
	v.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return resp, err
}

func (v *fakeVerifier) set(resp *authsdk.VerifyFaceResponse, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resp, v.err = resp, err
}

type recordingOverlay struct {
	mu    sync.Mutex
	draws int
	last  []facecapture.Box
}

func (o *recordingOverlay) Draw(faces []facecapture.Box) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.draws++
	o.last = faces
}

func (o *recordingOverlay) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.last = nil
}

func (o *recordingOverlay) showing() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.last)
}

type notice struct {
	kind string
	text string
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (n *recordingNotifier) Warn(text string)  { n.add("warn", text) }
func (n *recordingNotifier) Error(text string) { n.add("error", text) }

func (n *recordingNotifier) add(kind, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{kind, text})
}

func (n *recordingNotifier) all() []notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notice(nil), n.notices...)
}

type harness struct {
	flow     *facecapture.Flow
	camera   *fakeCamera
	detector *fakeDetector
	loader   *fakeLoader
	verifier *fakeVerifier
	overlay  *recordingOverlay
	notifier *recordingNotifier

	cameraErr error
}

// newHarness builds a flow whose sampler never fires on its own, so tests
// drive sampling with Tick.
func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		camera:   &fakeCamera{},
		detector: &fakeDetector{},
		verifier: &fakeVerifier{resp: &authsdk.VerifyFaceResponse{Verified: true}},
		overlay:  &recordingOverlay{},
		notifier: &recordingNotifier{},
	}
	h.loader = &fakeLoader{det: h.detector}
	h.flow = facecapture.NewFlow(facecapture.Config{
		Loader: h.loader,
		OpenCamera: func(context.Context) (facecapture.Camera, error) {
			if h.cameraErr != nil {
				return nil, h.cameraErr
			}
			return h.camera, nil
		},
		Verifier:       h.verifier,
		Overlay:        h.overlay,
		Notifier:       h.notifier,
		Logger:         slogx.Discard(),
		SampleInterval: time.Hour,
	})
	t.Cleanup(h.flow.Close)
	return h
}

// armed starts the flow and waits for the sampler to arm.
func (h *harness) armed(t *testing.T) {
	t.Helper()
	require.NoError(t, h.flow.Start(context.Background()))
	require.Eventually(t, func() bool {
		return h.flow.State() == facecapture.StateArmedScanning
	}, 2*time.Second, time.Millisecond)
}

// tick runs one sample that reports faces faces.
func (h *harness) tick(t *testing.T, faces int) {
	t.Helper()
	h.detector.push(faces)
	require.NoError(t, h.flow.Tick(context.Background()))
}

// captured drives the flow to StateCaptured.
func (h *harness) captured(t *testing.T) {
	t.Helper()
	h.armed(t)
	h.tick(t, 1)
	require.True(t, h.flow.Capture())
	require.Equal(t, facecapture.StateCaptured, h.flow.State())
}

var errNetwork = errors.New("dial tcp 10.0.0.1:443: i/o timeout")
