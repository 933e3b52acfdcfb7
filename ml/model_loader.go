package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

var ErrUnsupportedModel = errors.New("unsupported model type")

// Artifact is the on-disk envelope of a fitted model.
type Artifact struct {
	Type         string          `json:"type"`
	TrainedUntil string          `json:"trained_until,omitempty"`
	Params       json.RawMessage `json:"params"`
}

// Loaded is a deserialized model together with its artifact metadata.
type Loaded struct {
	Forecaster
	Type         string
	TrainedUntil time.Time
}

// LoadModel reads the artifact at path and builds the model it describes.
// A missing file yields an error wrapping os.ErrNotExist.
func LoadModel(path string) (*Loaded, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var artifact Artifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	var model Forecaster
	switch artifact.Type {
	case "arima":
		arima := &ARIMA{}
		if err := json.Unmarshal(artifact.Params, arima); err != nil {
			return nil, fmt.Errorf("decode arima params: %w", err)
		}
		if err := arima.Validate(); err != nil {
			return nil, err
		}
		model = arima
	case "drift":
		drift := &Drift{}
		if err := json.Unmarshal(artifact.Params, drift); err != nil {
			return nil, fmt.Errorf("decode drift params: %w", err)
		}
		model = drift
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, artifact.Type)
	}

	loaded := &Loaded{Forecaster: model, Type: artifact.Type}
	if artifact.TrainedUntil != "" {
		t, err := time.Parse("2006-01-02", artifact.TrainedUntil)
		if err != nil {
			return nil, fmt.Errorf("invalid trained_until %q: %w", artifact.TrainedUntil, err)
		}
		loaded.TrainedUntil = t
	}
	return loaded, nil
}

// SaveModel writes model as an artifact. Used by tests and tooling that produce artifacts.
func SaveModel(path, modelType string, trainedUntil time.Time, params interface{}) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	artifact := Artifact{Type: modelType, Params: raw}
	if !trainedUntil.IsZero() {
		artifact.TrainedUntil = trainedUntil.Format("2006-01-02")
	}
	payload, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (l *Loaded) Describe() string {
	return Describe(l.Forecaster)
}
