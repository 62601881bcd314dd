package facecapture

import "errors"

var (
	ErrModelLoad             = errors.New("facecapture: face detection model failed to load")
	ErrCameraDenied          = errors.New("facecapture: camera unavailable")
	ErrDetectionSample       = errors.New("facecapture: face detection failed for this frame")
	ErrVerificationMismatch  = errors.New("facecapture: face does not match")
	ErrVerificationTransport = errors.New("facecapture: face verification unavailable")

	// ErrNotCaptured is returned by Verify when no still frame is held.
	ErrNotCaptured = errors.New("facecapture: no captured frame")

	// ErrCancelled is returned by Start and Verify when the flow was
	// cancelled before their result arrived. The result is discarded.
	ErrCancelled = errors.New("facecapture: cancelled")

	ErrClosed = errors.New("facecapture: flow closed")
)

// Texts posted to the Notifier. Mismatch and verifier failure differ so the
// user can tell a wrong face from a broken connection.
const (
	MsgModelUnavailable        = "Face recognition is unavailable. Staff accounts cannot log in right now."
	MsgCameraDenied            = "The camera could not be opened. Check camera access and try again."
	MsgFaceMismatch            = "Face does not match this account. Please try again."
	MsgVerificationUnavailable = "Could not reach face verification. Please try again in a moment."
)
