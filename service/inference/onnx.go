package inference

import (
	"context"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/dogscan-go/model"
)

var (
	envOnce sync.Once
	envErr  error
)

func initEnvironment(libraryPath string) error {
	envOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			envErr = xerrors.Errorf("failed to initialize ONNX environment: %w", err)
		}
	})
	return envErr
}

// Shutdown releases the ONNX runtime environment. Call once, after every
// onnx service has been closed.
func Shutdown() {
	if ort.IsInitialized() {
		ort.DestroyEnvironment()
	}
}

type onnxService struct {
	name       string
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	shape      Shape
	classes    int64
}

// NewOnnx loads a channels-last (NHWC) float32 classifier with a single
// input and a (batch, classes) softmax output.
func NewOnnx(name, modelPath, libraryPath string) (IService, error) {
	if err := initEnvironment(libraryPath); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, xerrors.Errorf("failed to read %s model info: %w", name, err)
	}

	if len(inputs) != 1 || len(outputs) < 1 {
		return nil, xerrors.Errorf("%s model has %d inputs and %d outputs, want 1 and at least 1", name, len(inputs), len(outputs))
	}

	in := inputs[0].Dimensions
	if len(in) != 4 || in[1] <= 0 || in[2] <= 0 || in[3] != 3 {
		return nil, xerrors.Errorf("%s model input shape %v is not (batch, height, width, 3)", name, in)
	}

	out := outputs[0].Dimensions
	if len(out) != 2 || out[1] <= 0 {
		return nil, xerrors.Errorf("%s model output shape %v is not (batch, classes)", name, out)
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, nil)
	if err != nil {
		return nil, xerrors.Errorf("failed to create %s ONNX session: %w", name, err)
	}

	return &onnxService{
		name:       name,
		session:    session,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
		shape: Shape{
			Batch:    in[0],
			Height:   in[1],
			Width:    in[2],
			Channels: in[3],
		},
		classes: out[1],
	}, nil
}

func (svc *onnxService) Name() string {
	return svc.name
}

func (svc *onnxService) InputShape() Shape {
	return svc.shape
}

// Predict runs the batch through the session. Models exported with a fixed
// batch dimension are fed in chunks of that size, padding the last chunk with
// its final tensor and discarding the padded rows.
func (svc *onnxService) Predict(ctx context.Context, batch []model.Tensor) ([][]float32, error) {
	size := svc.shape.Height * svc.shape.Width * svc.shape.Channels
	for i, t := range batch {
		if int64(len(t.Data)) != size {
			return nil, xerrors.Errorf("tensor %d has %d values, model %s wants %d", i, len(t.Data), svc.name, size)
		}
	}

	chunk := len(batch)
	if svc.shape.Batch > 0 {
		chunk = int(svc.shape.Batch)
	}

	result := make([][]float32, 0, len(batch))
	for start := 0; start < len(batch); start += chunk {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+chunk, len(batch))
		part := batch[start:end]
		for len(part) < chunk {
			part = append(part[:len(part):len(part)], part[len(part)-1])
		}

		rows, err := svc.run(part)
		if err != nil {
			return nil, err
		}
		result = append(result, rows[:end-start]...)
	}

	return result, nil
}

func (svc *onnxService) run(batch []model.Tensor) ([][]float32, error) {
	n := int64(len(batch))
	data := make([]float32, 0, n*svc.shape.Height*svc.shape.Width*svc.shape.Channels)
	for _, t := range batch {
		data = append(data, t.Data...)
	}

	input, err := ort.NewTensor(ort.NewShape(n, svc.shape.Height, svc.shape.Width, svc.shape.Channels), data)
	if err != nil {
		return nil, xerrors.Errorf("failed to create input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(n, svc.classes))
	if err != nil {
		return nil, xerrors.Errorf("failed to create output tensor: %w", err)
	}
	defer output.Destroy()

	if err := svc.session.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return nil, xerrors.Errorf("%s inference failed: %w", svc.name, err)
	}

	flat := output.GetData()
	rows := make([][]float32, n)
	for i := int64(0); i < n; i++ {
		row := make([]float32, svc.classes)
		copy(row, flat[i*svc.classes:(i+1)*svc.classes])
		rows[i] = row
	}
	return rows, nil
}

func (svc *onnxService) Close() error {
	if svc.session != nil {
		return svc.session.Destroy()
	}
	return nil
}
