package handler

import (
	"fmt"

	apperrors "github.com/Meesho/BharatMLStack/model-serving/internal/errors"
)

// Predictor runs single predictions against the currently active model. It is
// stateless apart from reading the shared model state.
type Predictor struct {
	state   *ModelState
	backend InferenceBackend
}

func NewPredictor(state *ModelState, backend InferenceBackend) *Predictor {
	return &Predictor{
		state:   state,
		backend: backend,
	}
}

// Predict computes one prediction. It refuses with InferenceError whenever
// the model is not ready, so callers fail fast during updates and after a
// failed update.
func (p *Predictor) Predict(input *ModelInput) (*ModelOutput, error) {
	if input == nil || input.Data == nil {
		return nil, &apperrors.ValidationError{ErrorMsg: "input data is required"}
	}

	snapshot := p.state.Snapshot()
	if snapshot.Status != StatusReady {
		return nil, &apperrors.InferenceError{
			ErrorMsg: fmt.Sprintf("model %s is not ready for predictions, current status: %s",
				snapshot.ModelName, snapshot.Status),
		}
	}

	output, err := p.backend.Infer(input)
	if err != nil {
		return nil, &apperrors.InferenceError{ErrorMsg: "prediction failed: " + err.Error()}
	}

	if output.Confidence != nil {
		clamped := clamp01(*output.Confidence)
		output.Confidence = &clamped
	}
	if output.Metadata == nil {
		output.Metadata = map[string]interface{}{}
	}
	output.Metadata["model_version"] = snapshot.Version

	return output, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
