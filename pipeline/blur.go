package pipeline

import (
	"image"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"
)

// Sharpness is the variance of the Laplacian of the grayscale image. Low
// values mean few edges, i.e. a blurry photo.
func Sharpness(img image.Image) (float64, error) {
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return 0, xerrors.Errorf("convert image to mat: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	lap := gocv.NewMat()
	defer lap.Close()
	gocv.Laplacian(gray, &lap, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)

	mean := gocv.NewMat()
	defer mean.Close()
	stdDev := gocv.NewMat()
	defer stdDev.Close()
	gocv.MeanStdDev(lap, &mean, &stdDev)

	if stdDev.Empty() {
		return 0, xerrors.New("laplacian deviation is empty")
	}

	sd := stdDev.GetDoubleAt(0, 0)
	return sd * sd, nil
}

// IsBlurry reports whether the sharpness of img is below threshold.
// A non-positive threshold disables the check.
func IsBlurry(img image.Image, threshold float64) (bool, error) {
	if threshold <= 0 {
		return false, nil
	}

	v, err := Sharpness(img)
	if err != nil {
		return false, err
	}
	return v < threshold, nil
}
