// Package facematch compares an enrolled face image with a submitted still
// frame using a 64-bit average hash.
//
// The comparison is coarse: it tells a re-submitted or closely matching
// photo apart from an unrelated one, which is what the console's capture
// flow needs from the backend. It is not biometric identification.
package facematch

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math/bits"
	"strconv"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultThreshold is the largest Hamming distance still treated as a match.
const DefaultThreshold = 10

// MaxPixels bounds the decoded size of an image. Compressed uploads are small
// but decode to width*height pixels, so the header is checked first.
const MaxPixels = 4096 * 4096

const side = 8

var (
	ErrUndecodable = errors.New("facematch: image cannot be decoded")
	ErrInvalidHash = errors.New("facematch: invalid hash")
)

// Hash is an average hash: one bit per cell of an 8x8 grayscale thumbnail,
// set when the cell is brighter than the thumbnail mean.
type Hash uint64

// String renders the hash as 16 hex digits, the form stored with a user.
func (h Hash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

func ParseHash(s string) (Hash, error) {
	if len(s) != 16 {
		return 0, ErrInvalidHash
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	return Hash(v), nil
}

// Compute decodes a JPEG, PNG, GIF or WebP image of at most MaxPixels and
// hashes it.
func Compute(data []byte) (Hash, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return 0, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUndecodable, cfg.Width, cfg.Height, MaxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if src.Bounds().Empty() {
		return 0, ErrUndecodable
	}

	thumb := image.NewGray(image.Rect(0, 0, side, side))
	draw.BiLinear.Scale(thumb, thumb.Bounds(), src, src.Bounds(), draw.Src, nil)

	var sum int
	for _, p := range thumb.Pix {
		sum += int(p)
	}
	mean := sum / len(thumb.Pix)

	var h Hash
	for i, p := range thumb.Pix {
		if int(p) > mean {
			h |= 1 << uint(i)
		}
	}
	return h, nil
}

// Distance is the number of differing bits between a and b.
func Distance(a, b Hash) int {
	return bits.OnesCount64(uint64(a ^ b))
}

// Result is the outcome of one comparison.
type Result struct {
	Distance int
	Matched  bool
}

// Matcher compares probes against an enrolled hash.
type Matcher struct {
	// Threshold is the inclusive distance limit. Zero means DefaultThreshold;
	// use a negative value to reject everything.
	Threshold int
}

func (m Matcher) threshold() int {
	if m.Threshold == 0 {
		return DefaultThreshold
	}
	return m.Threshold
}

// Match measures an already hashed probe against enrolled.
func (m Matcher) Match(enrolled, probe Hash) Result {
	d := Distance(enrolled, probe)
	return Result{Distance: d, Matched: d <= m.threshold()}
}

// Compare hashes probe and measures it against enrolled.
func (m Matcher) Compare(enrolled Hash, probe []byte) (Result, error) {
	h, err := Compute(probe)
	if err != nil {
		return Result{}, err
	}
	return m.Match(enrolled, h), nil
}
