package pipeline

import (
	"context"
	"image"

	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/dogscan-go/model"
	"github.com/khaledhikmat/dogscan-go/service/inference"
)

// Predictor runs images through a classifier, either once or over every
// augmented view with the results averaged.
type Predictor struct {
	augmenter     *Augmenter
	batchSize     int
	maxConcurrent int
}

func NewPredictor(settings model.InferenceSettings) *Predictor {
	batchSize := settings.BatchSize
	if batchSize <= 0 {
		batchSize = 8
	}

	maxConcurrent := settings.MaxConcurrentBatches
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	return &Predictor{
		augmenter:     NewAugmenter(settings),
		batchSize:     batchSize,
		maxConcurrent: maxConcurrent,
	}
}

// Predict generates the augmented views of img and returns the mean
// probability vector over all of them.
func (p *Predictor) Predict(ctx context.Context, img image.Image, clf inference.IService) ([]float64, error) {
	width, height, err := targetSize(clf)
	if err != nil {
		return nil, err
	}

	variants, err := p.augmenter.Generate(img, width, height)
	if err != nil {
		return nil, xerrors.Errorf("augment image for %s: %w", clf.Name(), err)
	}

	return p.PredictVariants(ctx, variants, clf)
}

// PredictSingle preprocesses img once and returns the classifier's vector.
func (p *Predictor) PredictSingle(ctx context.Context, img image.Image, clf inference.IService) ([]float64, error) {
	width, height, err := targetSize(clf)
	if err != nil {
		return nil, err
	}

	out, err := p.classify(ctx, clf, []model.Tensor{Preprocess(img, width, height)})
	if err != nil {
		return nil, err
	}

	return mean(clf.Name(), out)
}

// PredictVariants splits variants into batches, classifies every batch and
// returns the arithmetic mean over all variants. Batches may run concurrently;
// the sum is taken in variant order so the result does not depend on the
// batch size.
func (p *Predictor) PredictVariants(ctx context.Context, variants []model.Tensor, clf inference.IService) ([]float64, error) {
	if len(variants) == 0 {
		return nil, xerrors.Errorf("no variants to classify with %s", clf.Name())
	}

	results := make([][]float32, len(variants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrent)

	for start := 0; start < len(variants); start += p.batchSize {
		end := min(start+p.batchSize, len(variants))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			out, err := p.classify(gctx, clf, variants[start:end])
			if err != nil {
				return err
			}

			copy(results[start:end], out)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return mean(clf.Name(), results)
}

func (p *Predictor) classify(ctx context.Context, clf inference.IService, batch []model.Tensor) ([][]float32, error) {
	out, err := clf.Predict(ctx, batch)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, model.NewClassifierError(clf.Name(), err, "predict batch of %d", len(batch))
	}

	if len(out) != len(batch) {
		return nil, model.NewClassifierError(clf.Name(), nil, "returned %d vectors for a batch of %d", len(out), len(batch))
	}

	return out, nil
}

func mean(name string, vectors [][]float32) ([]float64, error) {
	classes := len(vectors[0])
	if classes == 0 {
		return nil, model.NewClassifierError(name, nil, "returned an empty probability vector")
	}

	sum := make([]float64, classes)
	for i, v := range vectors {
		if len(v) != classes {
			return nil, model.NewClassifierError(name, nil, "vector %d has %d classes, want %d", i, len(v), classes)
		}
		for j, x := range v {
			sum[j] += float64(x)
		}
	}

	n := float64(len(vectors))
	for j := range sum {
		sum[j] /= n
	}
	return sum, nil
}

func targetSize(clf inference.IService) (int, int, error) {
	shape := clf.InputShape()
	if shape.Width <= 0 || shape.Height <= 0 {
		return 0, 0, model.NewClassifierError(clf.Name(), nil, "input shape %+v has no spatial size", shape)
	}
	return int(shape.Width), int(shape.Height), nil
}
