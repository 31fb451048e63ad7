package inference

import (
	"context"
	"sync/atomic"

	"github.com/khaledhikmat/dogscan-go/model"
)

// ScoreFunc produces the probability vector of one tensor.
type ScoreFunc func(t model.Tensor) []float32

type fakeService struct {
	name  string
	shape Shape
	score ScoreFunc
	calls atomic.Int64
}

// NewFake returns a classifier backed by score. A nil score always answers
// the same uniform distribution over classes.
func NewFake(name string, shape Shape, classes int, score ScoreFunc) IService {
	if score == nil {
		uniform := make([]float32, classes)
		for i := range uniform {
			uniform[i] = 1.0 / float32(classes)
		}
		score = func(_ model.Tensor) []float32 {
			out := make([]float32, len(uniform))
			copy(out, uniform)
			return out
		}
	}

	return &fakeService{
		name:  name,
		shape: shape,
		score: score,
	}
}

// Fixed returns a ScoreFunc that ignores its input.
func Fixed(probs ...float32) ScoreFunc {
	return func(_ model.Tensor) []float32 {
		out := make([]float32, len(probs))
		copy(out, probs)
		return out
	}
}

func (svc *fakeService) Name() string {
	return svc.name
}

func (svc *fakeService) InputShape() Shape {
	return svc.shape
}

func (svc *fakeService) Predict(ctx context.Context, batch []model.Tensor) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	svc.calls.Add(1)
	out := make([][]float32, len(batch))
	for i, t := range batch {
		out[i] = svc.score(t)
	}
	return out, nil
}

func (svc *fakeService) Close() error {
	return nil
}

// Calls reports how many Predict calls a fake classifier has served.
func Calls(svc IService) int64 {
	if f, ok := svc.(*fakeService); ok {
		return f.calls.Load()
	}
	return -1
}
