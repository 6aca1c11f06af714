package handler

import (
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/Meesho/BharatMLStack/model-serving/internal/errors"
	"github.com/Meesho/BharatMLStack/model-serving/internal/repositories/sql/prediction"
	"github.com/Meesho/BharatMLStack/model-serving/pkg/metric"
	"github.com/rs/zerolog/log"
)

// BatchPredictor runs batch predictions chunk by chunk. Chunks are the unit
// of atomicity: each chunk's records are persisted in one transaction, and a
// failure aborts the batch at the failing chunk while earlier chunks stay
// committed.
type BatchPredictor struct {
	predictor *Predictor
	state     *ModelState
	repo      prediction.Repository
}

func NewBatchPredictor(predictor *Predictor, state *ModelState, repo prediction.Repository) *BatchPredictor {
	return &BatchPredictor{
		predictor: predictor,
		state:     state,
		repo:      repo,
	}
}

// BatchPredict predicts every input in order and persists one record per
// prediction. The response preserves input order and reports total wall-clock
// processing time in seconds.
func (b *BatchPredictor) BatchPredict(request *BatchPredictionRequest) (*BatchPredictionResponse, error) {
	if err := validateBatchRequest(request); err != nil {
		return nil, err
	}

	startTime := time.Now()
	chunkSize := len(request.Inputs)
	if request.BatchSize != nil {
		chunkSize = *request.BatchSize
	}

	predictions := make([]ModelOutput, 0, len(request.Inputs))
	for start := 0; start < len(request.Inputs); start += chunkSize {
		end := start + chunkSize
		if end > len(request.Inputs) {
			end = len(request.Inputs)
		}
		chunk := request.Inputs[start:end]

		outputs, itemTimes, err := b.predictChunk(chunk)
		if err != nil {
			return nil, err
		}
		if err := b.persistChunk(chunk, outputs, itemTimes); err != nil {
			return nil, err
		}

		metric.Incr(metric.BatchChunkCount, nil)
		predictions = append(predictions, outputs...)
	}

	elapsed := time.Since(startTime)
	if len(predictions) > 0 {
		b.state.RecordLatency(elapsed.Seconds() / float64(len(predictions)))
	}

	return &BatchPredictionResponse{
		Predictions:    predictions,
		ProcessingTime: elapsed.Seconds(),
	}, nil
}

// predictChunk runs the predictor over one chunk, keeping input order. Any
// prediction failure aborts the chunk before persistence.
func (b *BatchPredictor) predictChunk(chunk []ModelInput) ([]ModelOutput, []float64, error) {
	outputs := make([]ModelOutput, len(chunk))
	itemTimes := make([]float64, len(chunk))
	for i := range chunk {
		itemStart := time.Now()
		output, err := b.predictor.Predict(&chunk[i])
		if err != nil {
			return nil, nil, err
		}
		outputs[i] = *output
		itemTimes[i] = time.Since(itemStart).Seconds()
	}
	return outputs, itemTimes, nil
}

// persistChunk writes one record per (input, output) pair in a single
// transaction. On any failure the transaction is rolled back in full.
func (b *BatchPredictor) persistChunk(chunk []ModelInput, outputs []ModelOutput, itemTimes []float64) error {
	tx, err := b.repo.BeginChunk()
	if err != nil {
		return &apperrors.PersistenceError{ErrorMsg: "failed to open chunk transaction: " + err.Error()}
	}
	for i := range chunk {
		record, err := newRecord(&chunk[i], &outputs[i], itemTimes[i])
		if err != nil {
			rollbackChunk(tx)
			return &apperrors.PersistenceError{ErrorMsg: "failed to encode prediction record: " + err.Error()}
		}
		if err := tx.Save(record); err != nil {
			rollbackChunk(tx)
			return &apperrors.PersistenceError{ErrorMsg: "failed to save prediction record: " + err.Error()}
		}
	}
	if err := tx.Commit(); err != nil {
		return &apperrors.PersistenceError{ErrorMsg: "failed to commit chunk: " + err.Error()}
	}
	return nil
}

func rollbackChunk(tx prediction.ChunkTx) {
	if err := tx.Rollback(); err != nil {
		log.Error().Err(err).Msg("Failed to rollback chunk transaction")
	}
}

func newRecord(input *ModelInput, output *ModelOutput, processingTime float64) (*prediction.PredictionRecord, error) {
	inputData, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	outputData, err := json.Marshal(output)
	if err != nil {
		return nil, err
	}
	// The record's version must agree with the model_version stamped into the
	// output at prediction time, even if an update lands mid-batch.
	version, _ := output.Metadata["model_version"].(string)
	return &prediction.PredictionRecord{
		InputData:      string(inputData),
		OutputData:     string(outputData),
		ModelVersion:   version,
		ProcessingTime: processingTime,
	}, nil
}

func validateBatchRequest(request *BatchPredictionRequest) error {
	if request == nil || len(request.Inputs) == 0 {
		return &apperrors.ValidationError{ErrorMsg: "batch request must contain at least one input"}
	}
	if request.BatchSize != nil && *request.BatchSize <= 0 {
		return &apperrors.ValidationError{
			ErrorMsg: fmt.Sprintf("batch_size must be positive, got %d", *request.BatchSize),
		}
	}
	return nil
}
