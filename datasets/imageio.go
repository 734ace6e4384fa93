package datasets

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	stddraw "image/draw"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// areaKernel is a box filter. x/image/draw widens kernels by the scale factor
// when shrinking, so a box of half-width 0.5 averages exactly the source area
// covered by each destination pixel.
var areaKernel = &draw.Kernel{Support: 0.5, At: func(float64) float64 { return 1 }}

var errEmptyImage = errors.New("image has no pixels")

// decodeImage reads and decodes an image file. The file is closed before
// returning.
func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decode %s: %w", path, errEmptyImage)
	}
	return img, nil
}

func imageResolution(img image.Image) Resolution {
	b := img.Bounds()
	return Resolution{Width: b.Dx(), Height: b.Dy()}
}

// opaque drops the alpha channel of non-premultiplied images so transparent
// pixels keep their stored colour instead of reading as black. Other images
// are returned as is.
func opaque(img image.Image) image.Image {
	switch m := img.(type) {
	case *image.NRGBA:
		out := &image.NRGBA{Pix: append([]uint8(nil), m.Pix...), Stride: m.Stride, Rect: m.Rect}
		for i := 3; i < len(out.Pix); i += 4 {
			out.Pix[i] = 0xff
		}
		return out
	case *image.NRGBA64:
		out := &image.NRGBA64{Pix: append([]uint8(nil), m.Pix...), Stride: m.Stride, Rect: m.Rect}
		for i := 6; i < len(out.Pix); i += 8 {
			out.Pix[i], out.Pix[i+1] = 0xff, 0xff
		}
		return out
	case *image.Paletted:
		palette := make(color.Palette, len(m.Palette))
		for i, c := range m.Palette {
			if n, ok := c.(color.NRGBA); ok {
				n.A = 0xff
				c = n
			}
			palette[i] = c
		}
		return &image.Paletted{Pix: m.Pix, Stride: m.Stride, Rect: m.Rect, Palette: palette}
	}
	return img
}

// resizeRGB area-averages img to target and returns interleaved RGB bytes.
// Alpha is dropped.
func resizeRGB(img image.Image, target Resolution) []uint8 {
	img = opaque(img)
	dst := image.NewRGBA(image.Rect(0, 0, target.Width, target.Height))
	areaKernel.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	out := make([]uint8, target.Pixels()*3)
	for i, j := 0, 0; i < len(dst.Pix); i, j = i+4, j+3 {
		out[j] = dst.Pix[i]
		out[j+1] = dst.Pix[i+1]
		out[j+2] = dst.Pix[i+2]
	}
	return out
}

// loadMask decodes a label image as grayscale, resizes it bilinearly to target
// and thresholds it at zero.
func loadMask(path string, target Resolution) ([]bool, error) {
	img, err := decodeImage(path)
	if err != nil {
		return nil, err
	}
	img = opaque(img)

	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	stddraw.Draw(gray, gray.Bounds(), img, b.Min, stddraw.Src)

	small := image.NewGray(image.Rect(0, 0, target.Width, target.Height))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), gray, gray.Bounds(), draw.Src, nil)

	mask := make([]bool, target.Pixels())
	for r := 0; r < target.Height; r++ {
		row := small.Pix[r*small.Stride : r*small.Stride+target.Width]
		for c, v := range row {
			mask[r*target.Width+c] = v > 0
		}
	}
	return mask, nil
}
