package model

import (
	"errors"
	"math"
)

// ImageSize is the square input resolution the classifier was trained on.
const ImageSize = 128

var (
	// ErrInvalidImage is returned when an upload cannot be read or decoded.
	ErrInvalidImage = errors.New("invalid image")

	// ErrShapeMismatch is returned when the model output does not line up
	// with the label catalog.
	ErrShapeMismatch = errors.New("model output does not match label catalog")

	// ErrInvalidOutput is returned when the model produces NaN or infinite scores.
	ErrInvalidOutput = errors.New("model produced non-finite scores")
)

// Layout is the memory order of the input tensor.
type Layout int

const (
	NHWC Layout = iota
	NCHW
)

func (l Layout) String() string {
	if l == NCHW {
		return "NCHW"
	}
	return "NHWC"
}

// Info describes the loaded model's tensors.
type Info struct {
	InputName   string
	OutputName  string
	InputShape  []int64
	OutputShape []int64
	Layout      Layout
	ImageSize   int
}

type Prediction struct {
	Label      string
	Index      int
	Confidence float32
}

// Percent returns the confidence scaled to [0, 100] and rounded to two
// decimal places.
func (p Prediction) Percent() float64 {
	v := math.Round(float64(p.Confidence)*100*100) / 100
	return math.Min(math.Max(v, 0), 100)
}
