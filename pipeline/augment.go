package pipeline

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/dogscan-go/model"
)

// Augmenter expands one image into rotated (and optionally mirrored) views
// for test-time augmentation. The output order is deterministic: for each
// angle the rotated view, then its mirror.
type Augmenter struct {
	Rotations []float64
	Mirror    bool
}

func NewAugmenter(settings model.InferenceSettings) *Augmenter {
	rotations := make([]float64, len(settings.Rotations))
	copy(rotations, settings.Rotations)

	return &Augmenter{
		Rotations: rotations,
		Mirror:    settings.Mirror,
	}
}

func (a *Augmenter) Count() int {
	if a.Mirror {
		return 2 * len(a.Rotations)
	}
	return len(a.Rotations)
}

// Generate rotates the un-preprocessed image about its centre with bilinear
// interpolation, keeping the original frame, and preprocesses every view to
// width x height. Alpha is dropped first, keeping straight colour.
func (a *Augmenter) Generate(img image.Image, width, height int) ([]model.Tensor, error) {
	src, err := gocv.ImageToMatRGB(opaque(img))
	if err != nil {
		return nil, xerrors.Errorf("convert image to mat: %w", err)
	}
	defer src.Close()

	if src.Empty() {
		return nil, xerrors.Errorf("empty source image: %w", model.ErrImageDecode)
	}

	variants := make([]model.Tensor, 0, a.Count())
	for _, angle := range a.Rotations {
		rotated, mirrored, err := a.views(src, angle)
		if err != nil {
			return nil, err
		}

		variants = append(variants, Preprocess(rotated, width, height))
		if mirrored != nil {
			variants = append(variants, Preprocess(mirrored, width, height))
		}
	}

	return variants, nil
}

func (a *Augmenter) views(src gocv.Mat, angle float64) (image.Image, image.Image, error) {
	rot := gocv.GetRotationMatrix2D(image.Pt(src.Cols()/2, src.Rows()/2), angle, 1.0)
	defer rot.Close()

	rotated := gocv.NewMat()
	defer rotated.Close()

	// Corners uncovered by the rotation are filled with black.
	gocv.WarpAffineWithParams(src, &rotated, rot, image.Pt(src.Cols(), src.Rows()),
		gocv.InterpolationLinear, gocv.BorderConstant, color.RGBA{0, 0, 0, 0})
	if rotated.Empty() {
		return nil, nil, xerrors.Errorf("rotate by %.1f degrees produced an empty image", angle)
	}

	rotatedImg, err := rotated.ToImage()
	if err != nil {
		return nil, nil, xerrors.Errorf("convert rotated mat: %w", err)
	}

	if !a.Mirror {
		return rotatedImg, nil, nil
	}

	flipped := gocv.NewMat()
	defer flipped.Close()

	gocv.Flip(rotated, &flipped, 1)
	if flipped.Empty() {
		return nil, nil, xerrors.Errorf("mirror after %.1f degrees produced an empty image", angle)
	}

	flippedImg, err := flipped.ToImage()
	if err != nil {
		return nil, nil, xerrors.Errorf("convert mirrored mat: %w", err)
	}

	return rotatedImg, flippedImg, nil
}
