package model

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// decodeImage decodes any registered format (jpeg, png, gif, webp, bmp).
func decodeImage(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, format, nil
}

// Preprocess resizes img to size×size and returns its RGB values in the
// 0-255 range, laid out as a single-item batch in the given order.
//
// Nearest-neighbour sampling and unscaled pixel values match how the
// training images were loaded. Alpha is dropped, not composited.
func Preprocess(img image.Image, size int, layout Layout) []float32 {
	resized := resize.Resize(uint(size), uint(size), dropAlpha(img), resize.NearestNeighbor)

	bounds := resized.Bounds()
	plane := size * size
	data := make([]float32, 3*plane)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			rv, gv, bv := float32(r)/257, float32(g)/257, float32(b)/257

			pixel := y*size + x
			switch layout {
			case NCHW:
				data[pixel] = rv
				data[plane+pixel] = gv
				data[2*plane+pixel] = bv
			default:
				data[3*pixel] = rv
				data[3*pixel+1] = gv
				data[3*pixel+2] = bv
			}
		}
	}

	return data
}

// dropAlpha returns an opaque copy of img holding its straight
// (non-premultiplied) RGB values.
func dropAlpha(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}

	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, image.Opaque, image.Point{}, draw.Src)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			i := out.PixOffset(x, y)
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = px.R, px.G, px.B
		}
	}
	return out
}

// Argmax picks the highest probability; the first index wins on ties.
// A non-finite winning score is an inference error.
func Argmax(probs []float32, labels []string) (Prediction, error) {
	if len(probs) != len(labels) {
		return Prediction{}, fmt.Errorf("%w: got %d scores for %d labels", ErrShapeMismatch, len(probs), len(labels))
	}
	if len(probs) == 0 {
		return Prediction{}, fmt.Errorf("%w: empty output", ErrShapeMismatch)
	}

	maxIdx := 0
	maxVal := probs[0]
	for i, val := range probs {
		if val > maxVal {
			maxVal = val
			maxIdx = i
		}
	}

	for _, val := range probs {
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return Prediction{}, fmt.Errorf("%w: non-finite score %v", ErrInvalidOutput, val)
		}
	}

	return Prediction{
		Label:      labels[maxIdx],
		Index:      maxIdx,
		Confidence: maxVal,
	}, nil
}
