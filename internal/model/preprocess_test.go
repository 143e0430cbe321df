package model

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// halves returns a w×h image, red on the left half and blue on the right.
func halves(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: 255, A: 255}
			if x >= w/2 {
				c = color.RGBA{B: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestPreprocessNHWC(t *testing.T) {
	data := Preprocess(halves(256, 256), ImageSize, NHWC)
	require.Len(t, data, ImageSize*ImageSize*3)

	first := data[0:3]
	last := data[3*(ImageSize-1) : 3*ImageSize]
	assert.Equal(t, []float32{255, 0, 0}, first)
	assert.Equal(t, []float32{0, 0, 255}, last)
}

func TestPreprocessNCHW(t *testing.T) {
	data := Preprocess(halves(256, 256), ImageSize, NCHW)
	require.Len(t, data, ImageSize*ImageSize*3)

	plane := ImageSize * ImageSize
	// pixel (0,0) is red
	assert.Equal(t, float32(255), data[0])
	assert.Equal(t, float32(0), data[plane])
	assert.Equal(t, float32(0), data[2*plane])
	// pixel (127,0) is blue
	assert.Equal(t, float32(0), data[ImageSize-1])
	assert.Equal(t, float32(255), data[2*plane+ImageSize-1])
}

func TestPreprocessOffsetBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			src.Set(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	sub := src.SubImage(image.Rect(16, 16, 48, 48))

	data := Preprocess(sub, ImageSize, NHWC)
	for i := 0; i < len(data); i += 3 {
		if !assert.Equal(t, []float32{10, 20, 30}, data[i:i+3]) {
			break
		}
	}
}

func TestPreprocessDropsAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 0})
	src.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 128})

	data := Preprocess(src, ImageSize, NHWC)
	assert.Equal(t, []float32{255, 255, 255}, data[0:3])
	right := 3 * (ImageSize - 1)
	assert.Equal(t, []float32{200, 100, 50}, data[right:right+3])
}

func TestArgmax(t *testing.T) {
	labels := []string{"a", "b", "c", "d"}

	p, err := Argmax([]float32{0.1, 0.6, 0.2, 0.1}, labels)
	require.NoError(t, err)
	assert.Equal(t, Prediction{Label: "b", Index: 1, Confidence: 0.6}, p)

	p, err = Argmax([]float32{0.1, 0.4, 0.1, 0.4}, labels)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Index, "first maximum wins")

	_, err = Argmax([]float32{0.5, 0.5}, labels)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = Argmax(nil, nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	nan := float32(math.NaN())
	_, err = Argmax([]float32{nan, 0.9, 0.05, 0.05}, labels)
	assert.ErrorIs(t, err, ErrInvalidOutput)

	_, err = Argmax([]float32{0.1, float32(math.Inf(1)), 0.1, 0.1}, labels)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestPredictionPercent(t *testing.T) {
	cases := []struct {
		conf float32
		want float64
	}{
		{0.97, 97},
		{1, 100},
		{0, 0},
		{0.123456, 12.35},
		{0.5, 50},
		{1.0000001, 100},
	}
	for _, tc := range cases {
		got := Prediction{Confidence: tc.conf}.Percent()
		assert.InDelta(t, tc.want, got, 1e-9, "conf %v", tc.conf)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 100.0)
	}
}
