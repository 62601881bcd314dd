package facecapture

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var frameTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// DirCamera serves the image files of a directory as camera frames, one
// per call, in name order and wrapping around. It stands in for a webcam on
// machines without one.
type DirCamera struct {
	mu     sync.Mutex
	paths  []string
	next   int
	closed bool
}

// OpenDirCamera lists the images in dir. A missing or unreadable directory
// wraps ErrCameraDenied.
func OpenDirCamera(dir string) (*DirCamera, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", ErrCameraDenied, err)
		}
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := frameTypes[strings.ToLower(filepath.Ext(e.Name()))]; ok {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no images in %s", ErrCameraDenied, dir)
	}
	sort.Strings(paths)

	return &DirCamera{paths: paths}, nil
}

// DirCameraOpener returns a CameraOpener for dir.
func DirCameraOpener(dir string) CameraOpener {
	return func(context.Context) (Camera, error) {
		cam, err := OpenDirCamera(dir)
		if err != nil {
			return nil, err
		}
		return cam, nil
	}
}

func (c *DirCamera) Frame(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Frame{}, errors.New("camera closed")
	}
	path := c.paths[c.next]
	c.next = (c.next + 1) % len(c.paths)
	c.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return Frame{}, fmt.Errorf("read frame %s: %w", filepath.Base(path), err)
	}
	return Frame{Data: data, MIME: frameTypes[strings.ToLower(filepath.Ext(path))]}, nil
}

func (c *DirCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
