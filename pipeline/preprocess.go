package pipeline

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/dogscan-go/model"
)

const channels = 3

// DecodeImage decodes jpeg, png, gif, bmp or webp bytes.
func DecodeImage(data []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, xerrors.Errorf("decode %d bytes: %v: %w", len(data), err, model.ErrImageDecode)
	}

	if img.Bounds().Empty() {
		return nil, xerrors.Errorf("decoded %s image has no pixels: %w", format, model.ErrImageDecode)
	}

	return img, nil
}

// DecodeBase64Image accepts raw base64 or a data URL ("data:image/png;base64,....").
func DecodeBase64Image(payload string) ([]byte, error) {
	if i := strings.Index(payload, ","); i >= 0 {
		payload = payload[i+1:]
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, xerrors.Errorf("decode base64 image: %v: %w", err, model.ErrImageDecode)
	}
	return data, nil
}

// Letterbox converts img to opaque RGB, shrinks it (never enlarges) to fit
// width x height with its aspect ratio kept, and centres it on a white canvas.
func Letterbox(img image.Image, width, height int) *image.RGBA {
	thumb := resize.Thumbnail(uint(width), uint(height), opaque(img), resize.Lanczos3)

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	b := thumb.Bounds()
	left := (width - b.Dx()) / 2
	top := (height - b.Dy()) / 2
	draw.Draw(canvas, image.Rect(left, top, left+b.Dx(), top+b.Dy()), thumb, b.Min, draw.Src)

	return canvas
}

// Preprocess letterboxes img and scales channel values into [0, 1].
func Preprocess(img image.Image, width, height int) model.Tensor {
	canvas := Letterbox(img, width, height)

	t := model.NewTensor(height, width, channels)
	for y := 0; y < height; y++ {
		row := canvas.Pix[y*canvas.Stride:]
		for x := 0; x < width; x++ {
			px := row[x*4:]
			base := (y*width + x) * channels
			t.Data[base] = float32(px[0]) / 255.0
			t.Data[base+1] = float32(px[1]) / 255.0
			t.Data[base+2] = float32(px[2]) / 255.0
		}
	}

	return t
}

// opaque drops the alpha channel without compositing, keeping the
// straight (non-premultiplied) colour.
func opaque(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
	return out
}
