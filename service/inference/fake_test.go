package inference

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/dogscan-go/model"
)

func TestFake_Uniform(t *testing.T) {
	svc := NewFake("age", Shape{Batch: -1, Height: 4, Width: 4, Channels: 3}, 4, nil)

	out, err := svc.Predict(context.Background(), make([]model.Tensor, 2))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []float32{0.25, 0.25, 0.25, 0.25}, out[0])

	// Rows must not share storage
	out[0][0] = 1
	assert.Equal(t, float32(0.25), out[1][0])

	assert.Equal(t, "age", svc.Name())
	assert.Equal(t, int64(4), svc.InputShape().Width)
	assert.Equal(t, int64(1), Calls(svc))
	assert.NoError(t, svc.Close())
}

func TestFake_Fixed(t *testing.T) {
	svc := NewFake("breed", Shape{}, 0, Fixed(0.9, 0.1))

	out, err := svc.Predict(context.Background(), make([]model.Tensor, 1))
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.9, 0.1}}, out)
}

func TestFake_Cancelled(t *testing.T) {
	svc := NewFake("breed", Shape{}, 2, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Predict(ctx, make([]model.Tensor, 1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), Calls(svc))
}

func TestCalls_NotAFake(t *testing.T) {
	assert.Equal(t, int64(-1), Calls(nil))
}
