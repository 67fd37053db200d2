package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Gray converts an image to grayscale using the ITU-R BT.601 luma formula.
func Gray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			gray.SetGray(x, y, toGrayColor(luma))
		}
	}

	return gray
}

func toGrayColor(luma float64) color.Gray {
	if luma < 0 {
		luma = 0
	}
	if luma > 255 {
		luma = 255
	}
	return color.Gray{Y: uint8(luma)}
}

// Resize scales an image to the specified dimensions.
func Resize(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// CropPadded extracts a rectangle expanded by padding pixels on every side,
// clamped to the image bounds. Returns nil when the clamped region is empty.
func CropPadded(img image.Image, rect image.Rectangle, padding int) *image.RGBA {
	bounds := img.Bounds()

	x0 := max(bounds.Min.X, rect.Min.X-padding)
	y0 := max(bounds.Min.Y, rect.Min.Y-padding)
	x1 := min(bounds.Max.X, rect.Max.X+padding)
	y1 := min(bounds.Max.Y, rect.Max.Y+padding)

	if x1 <= x0 || y1 <= y0 {
		return nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, x1-x0, y1-y0))
	draw.Draw(dst, dst.Bounds(), img, image.Point{X: x0, Y: y0}, draw.Src)
	return dst
}

// EncodeJPEG encodes an image as JPEG bytes.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode decodes JPEG/PNG/GIF/BMP image bytes.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
