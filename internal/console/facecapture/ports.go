package facecapture

import (
	"context"

	"github.com/aussiebroadwan/stockdesk/pkg/authsdk"
)

// Frame is one encoded image from the camera.
type Frame struct {
	Data []byte
	MIME string
}

// Empty reports whether f holds no image.
func (f Frame) Empty() bool {
	return len(f.Data) == 0
}

// Box is a detected face in image pixels.
type Box struct {
	X, Y, Width, Height int
	Score               float64
}

type Camera interface {
	Frame(ctx context.Context) (Frame, error)
	Close() error
}

// CameraOpener acquires the camera. A refusal should wrap ErrCameraDenied.
type CameraOpener func(ctx context.Context) (Camera, error)

type Detector interface {
	Detect(ctx context.Context, frame Frame) ([]Box, error)
}

// ModelLoader prepares a Detector. It is called once per Start.
type ModelLoader interface {
	Load(ctx context.Context) (Detector, error)
}

// Verifier is satisfied by *authsdk.SDKClient.
type Verifier interface {
	VerifyFace(ctx context.Context, email, imageDataURL string) (*authsdk.VerifyFaceResponse, error)
}

// Overlay draws detection markers. Its methods run with the flow locked
// and must not call back into the Flow.
type Overlay interface {
	Draw(faces []Box)
	Clear()
}

// Notifier surfaces user-facing failures. *notify.Center satisfies it.
type Notifier interface {
	Warn(text string)
	Error(text string)
}

type nopOverlay struct{}

func (nopOverlay) Draw([]Box) {}
func (nopOverlay) Clear()     {}

type nopNotifier struct{}

func (nopNotifier) Warn(string)  {}
func (nopNotifier) Error(string) {}
