package model

// Tensor is a height x width x channels image with values in [0, 1],
// stored row-major in HWC order.
type Tensor struct {
	Height   int
	Width    int
	Channels int
	Data     []float32
}

func NewTensor(height, width, channels int) Tensor {
	return Tensor{
		Height:   height,
		Width:    width,
		Channels: channels,
		Data:     make([]float32, height*width*channels),
	}
}

func (t Tensor) At(y, x, c int) float32 {
	return t.Data[(y*t.Width+x)*t.Channels+c]
}

// Shape returns (height, width, channels).
func (t Tensor) Shape() [3]int {
	return [3]int{t.Height, t.Width, t.Channels}
}
