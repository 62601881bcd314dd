package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/stockdesk/internal/console/facecapture"
	"github.com/aussiebroadwan/stockdesk/pkg/facecloud"
)

var errDetectionDisabled = errors.New("face detection service is not configured")

// cloudLoader "loads the model" by logging in to the detection service.
// A nil client means no service was configured.
type cloudLoader struct {
	client *facecloud.Client
}

func (l cloudLoader) Load(ctx context.Context) (facecapture.Detector, error) {
	if l.client == nil {
		return nil, errDetectionDisabled
	}
	if err := l.client.Login(ctx); err != nil {
		return nil, fmt.Errorf("log in to detection service: %w", err)
	}
	return cloudDetector{client: l.client}, nil
}

type cloudDetector struct {
	client *facecloud.Client
}

func (d cloudDetector) Detect(ctx context.Context, frame facecapture.Frame) ([]facecapture.Box, error) {
	faces, err := d.client.Detect(ctx, frame.Data, frame.MIME)
	if err != nil {
		return nil, err
	}

	boxes := make([]facecapture.Box, 0, len(faces))
	for _, f := range faces {
		boxes = append(boxes, facecapture.Box{
			X:      f.Bbox.X,
			Y:      f.Bbox.Y,
			Width:  f.Bbox.Width,
			Height: f.Bbox.Height,
			Score:  f.Score,
		})
	}
	return boxes, nil
}
