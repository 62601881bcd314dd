package facecapture

import "fmt"

// State is the position of a Flow in the capture and verification cycle.
type State int

const (
	StateIdle State = iota
	StateModelLoading
	StateArmedScanning
	StateFaceDetected
	StateCaptured
	StateVerifying
	StateVerified
	StateMismatched
	StateError
)

var stateNames = [...]string{
	StateIdle:          "IDLE",
	StateModelLoading:  "MODEL_LOADING",
	StateArmedScanning: "ARMED_SCANNING",
	StateFaceDetected:  "FACE_DETECTED",
	StateCaptured:      "CAPTURED",
	StateVerifying:     "VERIFYING",
	StateVerified:      "VERIFIED",
	StateMismatched:    "MISMATCHED",
	StateError:         "ERROR",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// sampling reports whether the sampler runs in s.
func (s State) sampling() bool {
	return s == StateArmedScanning || s == StateFaceDetected
}

// Outcome is the verifier's verdict on the captured frame.
type Outcome int

const (
	OutcomeUnverified Outcome = iota
	OutcomeMatched
	OutcomeMismatched
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnverified:
		return "UNVERIFIED"
	case OutcomeMatched:
		return "MATCHED"
	case OutcomeMismatched:
		return "MISMATCHED"
	case OutcomeFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Session is a copy of one capture attempt as seen from outside the Flow.
// Still is only set while the flow is not armed, and Outcome only leaves
// OutcomeUnverified once Still is set.
type Session struct {
	State State

	// Armed is true while frames are being sampled.
	Armed bool

	// Detected is true when the most recent sample found a face.
	Detected bool
	Faces    []Box

	Still   Frame
	Outcome Outcome
}
