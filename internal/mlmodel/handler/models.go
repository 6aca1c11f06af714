package handler

// ModelInput carries the feature payload for one prediction. Immutable once
// constructed.
type ModelInput struct {
	Data       map[string]interface{} `json:"data"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// ModelOutput is the result of one prediction.
type ModelOutput struct {
	Prediction interface{}            `json:"prediction"`
	Confidence *float64               `json:"confidence,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// ModelStatusResponse is the serialized form of the model state returned by
// the status endpoint.
type ModelStatusResponse struct {
	ModelName   string             `json:"model_name"`
	Version     string             `json:"version"`
	Status      string             `json:"status"`
	LastUpdated string             `json:"last_updated"`
	Metrics     map[string]float64 `json:"metrics"`
}

// BatchPredictionRequest asks for predictions over an ordered input sequence.
// BatchSize, when set, is the chunk size used for processing and persistence;
// when absent the whole sequence is one chunk.
type BatchPredictionRequest struct {
	Inputs    []ModelInput `json:"inputs"`
	BatchSize *int         `json:"batch_size,omitempty"`
}

// BatchPredictionResponse carries one output per input, in input order.
type BatchPredictionResponse struct {
	Predictions    []ModelOutput `json:"predictions"`
	ProcessingTime float64       `json:"processing_time"`
}
