package model

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Skufu/hearttriage/internal/triage"
)

const (
	BackendLinear = "linear"
	BackendONNX   = "onnx"
	BackendRemote = "remote"
)

// Config selects and locates the classifier backend.
type Config struct {
	Backend          string
	PreprocessorPath string
	ModelPath        string
	ONNX             ONNXConfig
	URL              string
	Timeout          time.Duration
}

// Bundle is a loaded preprocessor and classifier pair.
type Bundle struct {
	Preprocessor *Preprocessor
	Classifier   triage.Classifier
	closer       io.Closer
}

// Close releases the classifier backend.
func (b *Bundle) Close() error {
	if b == nil || b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// Load reads the preprocessor artifact and builds the configured classifier.
func Load(cfg Config) (*Bundle, error) {
	pre, err := LoadPreprocessor(cfg.PreprocessorPath)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.Backend) {
	case "", BackendLinear:
		lin, err := LoadLinear(cfg.ModelPath)
		if err != nil {
			return nil, err
		}
		if lin.InputWidth() != pre.Width() {
			return nil, fmt.Errorf("model expects %d features but preprocessor produces %d",
				lin.InputWidth(), pre.Width())
		}
		return &Bundle{Preprocessor: pre, Classifier: lin}, nil

	case BackendONNX:
		onnxCfg := cfg.ONNX
		if onnxCfg.ModelPath == "" {
			onnxCfg.ModelPath = cfg.ModelPath
		}
		clf, err := NewONNXClassifier(onnxCfg)
		if err != nil {
			return nil, err
		}
		return &Bundle{Preprocessor: pre, Classifier: clf, closer: clf}, nil

	case BackendRemote:
		if cfg.URL == "" {
			return nil, fmt.Errorf("remote model backend requires a URL")
		}
		clf := NewRemoteClassifier(cfg.URL, cfg.Timeout)
		return &Bundle{Preprocessor: pre, Classifier: clf, closer: clf}, nil
	}

	return nil, fmt.Errorf("unknown model backend %q", cfg.Backend)
}
