package model

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// DecodeImage reads a JPEG or PNG image from r.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("model: failed to decode image: %w", err)
	}
	return img, nil
}

// PreprocessImage resizes an image to size x size with nearest-neighbor
// sampling and converts it to a [1, 3, size, size] tensor normalized to
// roughly [-1, 1] with (v - 127.5) / 127.5.
func PreprocessImage[B tensor.Backend](img image.Image, size int, backend B) (*tensor.Tensor[float32, B], error) {
	if size <= 0 {
		return nil, fmt.Errorf("model: invalid image size %d", size)
	}

	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return nil, fmt.Errorf("model: empty image")
	}

	data := make([]float32, 3*size*size)
	plane := size * size
	for y := 0; y < size; y++ {
		srcY := bounds.Min.Y + y*srcH/size
		for x := 0; x < size; x++ {
			srcX := bounds.Min.X + x*srcW/size
			r, g, b, _ := img.At(srcX, srcY).RGBA()
			idx := y*size + x
			data[idx] = (float32(r>>8) - 127.5) / 127.5
			data[plane+idx] = (float32(g>>8) - 127.5) / 127.5
			data[2*plane+idx] = (float32(b>>8) - 127.5) / 127.5
		}
	}

	return tensor.FromSlice(data, tensor.Shape{1, 3, size, size}, backend)
}
