package inference

import (
	"context"

	"github.com/khaledhikmat/dogscan-go/model"
)

// Shape is the classifier's expected input shape (batch, height, width,
// channels). Batch is -1 when the model accepts any batch size.
type Shape struct {
	Batch    int64 `json:"batch"`
	Height   int64 `json:"height"`
	Width    int64 `json:"width"`
	Channels int64 `json:"channels"`
}

// IService maps a batch of image tensors to one probability vector each.
// Implementations must be deterministic for identical input and weights.
type IService interface {
	Name() string
	InputShape() Shape
	Predict(ctx context.Context, batch []model.Tensor) ([][]float32, error)
	Close() error
}
