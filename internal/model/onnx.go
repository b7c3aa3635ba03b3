package model

import (
	"context"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXConfig locates the runtime library and names the graph's tensors.
// The names default to the ones skl2onnx emits for classifiers exported
// with zipmap disabled.
type ONNXConfig struct {
	LibraryPath string
	ModelPath   string
	InputName   string
	LabelOutput string
	ProbaOutput string
	Classes     int
}

// ONNXClassifier runs an exported classifier through ONNX Runtime. Every
// call allocates its own tensors, so Run may be called concurrently.
type ONNXClassifier struct {
	session *ort.DynamicAdvancedSession
	cfg     ONNXConfig
}

// NewONNXClassifier initializes the runtime environment and opens a session.
func NewONNXClassifier(cfg ONNXConfig) (*ONNXClassifier, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("onnx model path is required")
	}
	if cfg.InputName == "" {
		cfg.InputName = "float_input"
	}
	if cfg.LabelOutput == "" {
		cfg.LabelOutput = "label"
	}
	if cfg.ProbaOutput == "" {
		cfg.ProbaOutput = "probabilities"
	}
	if cfg.Classes == 0 {
		cfg.Classes = 3
	}

	if !ort.IsInitialized() {
		if cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName},
		[]string{cfg.LabelOutput, cfg.ProbaOutput},
		nil)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("open onnx session %s: %w", cfg.ModelPath, err)
	}

	return &ONNXClassifier{session: session, cfg: cfg}, nil
}

func (c *ONNXClassifier) run(features []float64) (int, []float64, error) {
	data := make([]float32, len(features))
	for i, v := range features {
		data[i] = float32(v)
	}

	input, err := ort.NewTensor(ort.NewShape(1, int64(len(data))), data)
	if err != nil {
		return 0, nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()

	label, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		return 0, nil, fmt.Errorf("create label tensor: %w", err)
	}
	defer label.Destroy()

	proba, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(c.cfg.Classes)))
	if err != nil {
		return 0, nil, fmt.Errorf("create probability tensor: %w", err)
	}
	defer proba.Destroy()

	if err := c.session.Run([]ort.Value{input}, []ort.Value{label, proba}); err != nil {
		return 0, nil, fmt.Errorf("run onnx session: %w", err)
	}

	probs := make([]float64, c.cfg.Classes)
	for i, v := range proba.GetData() {
		probs[i] = float64(v)
	}
	return int(label.GetData()[0]), probs, nil
}

func (c *ONNXClassifier) Predict(ctx context.Context, features []float64) (int, error) {
	class, _, err := c.run(features)
	return class, err
}

func (c *ONNXClassifier) PredictProba(ctx context.Context, features []float64) ([]float64, error) {
	_, probs, err := c.run(features)
	return probs, err
}

// Close destroys the session and the runtime environment.
func (c *ONNXClassifier) Close() error {
	if c == nil || c.session == nil {
		return nil
	}
	err := c.session.Destroy()
	c.session = nil
	if envErr := ort.DestroyEnvironment(); err == nil {
		err = envErr
	}
	return err
}
