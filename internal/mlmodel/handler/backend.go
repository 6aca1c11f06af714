package handler

import (
	"math/rand"
)

// InferenceBackend computes a prediction for one input. The serving layer
// treats it as a black box; swapping in a real model runtime does not touch
// the predictor or the batch pipeline.
type InferenceBackend interface {
	Infer(input *ModelInput) (*ModelOutput, error)
}

// MockBackend is a stand-in model that produces random predictions. It keeps
// the serving path exercisable without a real model artifact.
type MockBackend struct{}

func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

func (b *MockBackend) Infer(input *ModelInput) (*ModelOutput, error) {
	prediction := rand.Float64()
	confidence := rand.Float64()
	return &ModelOutput{
		Prediction: prediction,
		Confidence: &confidence,
	}, nil
}
