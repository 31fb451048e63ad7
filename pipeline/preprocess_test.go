package pipeline

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/dogscan-go/model"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 64, A: 255})
		}
	}
	return img
}

func assertInRange(t *testing.T, tensor model.Tensor) {
	t.Helper()
	for _, v := range tensor.Data {
		if v < 0 || v > 1 {
			t.Fatalf("value %f out of [0, 1]", v)
		}
	}
}

func TestPreprocess_LargerInput(t *testing.T) {
	tensor := Preprocess(gradientImage(640, 480), 224, 224)

	assert.Equal(t, [3]int{224, 224, 3}, tensor.Shape())
	assert.Len(t, tensor.Data, 224*224*3)
	assertInRange(t, tensor)

	// 640x480 shrinks to 224x168: 28 rows of white padding above and below
	assert.Equal(t, float32(1), tensor.At(0, 112, 0))
	assert.Equal(t, float32(1), tensor.At(223, 112, 2))
	assert.Less(t, tensor.At(112, 112, 2), float32(0.5))
}

func TestPreprocess_SmallerInputIsNotEnlarged(t *testing.T) {
	tensor := Preprocess(solidImage(10, 6, color.RGBA{R: 255, A: 255}), 32, 32)

	assert.Equal(t, [3]int{32, 32, 3}, tensor.Shape())
	assertInRange(t, tensor)

	// Centred at floor((32-10)/2)=11, floor((32-6)/2)=13
	assert.Equal(t, float32(1), tensor.At(13, 11, 0))
	assert.Equal(t, float32(0), tensor.At(13, 11, 1))
	assert.Equal(t, float32(0), tensor.At(18, 20, 2))

	// Outside the pasted area stays white
	assert.Equal(t, float32(1), tensor.At(12, 11, 1))
	assert.Equal(t, float32(1), tensor.At(13, 10, 1))
	assert.Equal(t, float32(1), tensor.At(19, 11, 1))
	assert.Equal(t, float32(1), tensor.At(13, 21, 1))
}

func TestLetterbox_TransparentPixelsDropAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 0, G: 0, B: 200, A: 0})
		}
	}

	canvas := Letterbox(img, 4, 4)
	assert.Equal(t, color.RGBA{R: 0, G: 0, B: 200, A: 255}, canvas.RGBAAt(1, 1))
}

func TestDecodeImage(t *testing.T) {
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, gradientImage(8, 8)))
	img, err := DecodeImage(pngBuf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())

	var jpegBuf bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpegBuf, gradientImage(8, 4), nil))
	img, err = DecodeImage(jpegBuf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dy())

	_, err = DecodeImage([]byte("definitely not an image"))
	assert.ErrorIs(t, err, model.ErrImageDecode)

	_, err = DecodeImage(nil)
	assert.ErrorIs(t, err, model.ErrImageDecode)
}

func TestDecodeBase64Image(t *testing.T) {
	raw := []byte{1, 2, 3, 250}
	encoded := base64.StdEncoding.EncodeToString(raw)

	out, err := DecodeBase64Image(encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, out)

	out, err = DecodeBase64Image("data:image/png;base64," + encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, out)

	_, err = DecodeBase64Image("***")
	assert.ErrorIs(t, err, model.ErrImageDecode)
}
