// Package facecloud is a client for a hosted face detection service.
package facecloud

// LoginRequest authenticates against the detection service.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse contains the access token for subsequent detect calls.
type LoginResponse struct {
	Data       LoginData `json:"data"`
	StatusCode int       `json:"status_code"`
}

type LoginData struct {
	AccessToken string `json:"access_token"`
}

// DetectResponse holds every face found in one image.
type DetectResponse struct {
	Data       []Face `json:"data"`
	Rotation   int    `json:"rotation"`
	StatusCode int    `json:"status_code"`
}

// Face is one detected face.
type Face struct {
	Bbox     Bbox    `json:"bbox"`
	Liveness int     `json:"liveness"`
	Quality  Quality `json:"quality"`
	Score    float64 `json:"score"`
}

// Bbox is the face bounding box in image pixels.
type Bbox struct {
	Height int `json:"height"`
	Width  int `json:"width"`
	X      int `json:"x"`
	Y      int `json:"y"`
}

// Quality reports image quality metrics for the face region.
type Quality struct {
	Blurriness    int `json:"blurriness"`
	Overexposure  int `json:"overexposure"`
	Underexposure int `json:"underexposure"`
}
