package handler

import (
	"encoding/json"
	"errors"
	"testing"

	apperrors "github.com/Meesho/BharatMLStack/model-serving/internal/errors"
	"github.com/Meesho/BharatMLStack/model-serving/internal/repositories/sql/prediction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo records chunk transactions in memory. Failure points are
// configurable per chunk index so tests can break any stage of persistence.
type fakeRepo struct {
	chunks      []*fakeChunkTx
	beginErrAt  int // chunk index at which BeginChunk fails, -1 for never
	saveErrAt   int // chunk index at which Save fails, -1 for never
	commitErrAt int // chunk index at which Commit fails, -1 for never
	beginCalls  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{beginErrAt: -1, saveErrAt: -1, commitErrAt: -1}
}

func (r *fakeRepo) BeginChunk() (prediction.ChunkTx, error) {
	idx := r.beginCalls
	r.beginCalls++
	if idx == r.beginErrAt {
		return nil, errors.New("connection refused")
	}
	tx := &fakeChunkTx{
		failSave:   idx == r.saveErrAt,
		failCommit: idx == r.commitErrAt,
	}
	r.chunks = append(r.chunks, tx)
	return tx, nil
}

func (r *fakeRepo) GetByModelVersion(version string) ([]prediction.PredictionRecord, error) {
	return nil, nil
}

func (r *fakeRepo) CountByModelVersion(version string) (int64, error) {
	return 0, nil
}

func (r *fakeRepo) committedRecords() []prediction.PredictionRecord {
	var records []prediction.PredictionRecord
	for _, tx := range r.chunks {
		if tx.committed {
			records = append(records, tx.records...)
		}
	}
	return records
}

type fakeChunkTx struct {
	records    []prediction.PredictionRecord
	committed  bool
	rolledBack bool
	failSave   bool
	failCommit bool
}

func (t *fakeChunkTx) Save(record *prediction.PredictionRecord) error {
	if t.failSave {
		return errors.New("duplicate entry")
	}
	t.records = append(t.records, *record)
	return nil
}

func (t *fakeChunkTx) Commit() error {
	if t.failCommit {
		return errors.New("deadlock found")
	}
	t.committed = true
	return nil
}

func (t *fakeChunkTx) Rollback() error {
	t.rolledBack = true
	return nil
}

func newBatchPredictor(repo prediction.Repository) (*BatchPredictor, *ModelState) {
	state := NewModelState("", "")
	predictor := NewPredictor(state, NewMockBackend())
	return NewBatchPredictor(predictor, state, repo), state
}

func batchInputs(n int) []ModelInput {
	inputs := make([]ModelInput, n)
	for i := range inputs {
		inputs[i] = ModelInput{Data: map[string]interface{}{"feature_1": float64(i)}}
	}
	return inputs
}

func intPtr(v int) *int {
	return &v
}

// echoBackend reflects the input back as the prediction so tests can match
// outputs to the inputs that produced them.
type echoBackend struct{}

func (echoBackend) Infer(input *ModelInput) (*ModelOutput, error) {
	return &ModelOutput{Prediction: input.Data["feature_1"]}, nil
}

// versionBumpingBackend completes a model update during the first inference,
// simulating an update landing while a batch is in flight.
type versionBumpingBackend struct {
	state *ModelState
	calls int
}

func (b *versionBumpingBackend) Infer(input *ModelInput) (*ModelOutput, error) {
	b.calls++
	if b.calls == 1 {
		if err := b.state.BeginUpdate(); err != nil {
			return nil, err
		}
		if _, err := b.state.CompleteUpdate(); err != nil {
			return nil, err
		}
	}
	return &ModelOutput{Prediction: 1.0}, nil
}

func TestBatchPredictChunksByBatchSize(t *testing.T) {
	repo := newFakeRepo()
	batch, _ := newBatchPredictor(repo)

	response, err := batch.BatchPredict(&BatchPredictionRequest{
		Inputs:    batchInputs(5),
		BatchSize: intPtr(2),
	})
	require.NoError(t, err)
	assert.Len(t, response.Predictions, 5)
	assert.Greater(t, response.ProcessingTime, 0.0)

	// 5 inputs at chunk size 2 means three transactions of sizes 2, 2, 1.
	require.Len(t, repo.chunks, 3)
	assert.Len(t, repo.chunks[0].records, 2)
	assert.Len(t, repo.chunks[1].records, 2)
	assert.Len(t, repo.chunks[2].records, 1)
	for _, tx := range repo.chunks {
		assert.True(t, tx.committed)
		assert.False(t, tx.rolledBack)
	}
}

func TestBatchPredictWithoutBatchSizeUsesSingleChunk(t *testing.T) {
	repo := newFakeRepo()
	batch, _ := newBatchPredictor(repo)

	response, err := batch.BatchPredict(&BatchPredictionRequest{Inputs: batchInputs(4)})
	require.NoError(t, err)
	assert.Len(t, response.Predictions, 4)
	require.Len(t, repo.chunks, 1)
	assert.Len(t, repo.chunks[0].records, 4)
}

func TestBatchPredictTwoTransactionsForThreeInputs(t *testing.T) {
	repo := newFakeRepo()
	batch, _ := newBatchPredictor(repo)

	_, err := batch.BatchPredict(&BatchPredictionRequest{
		Inputs:    batchInputs(3),
		BatchSize: intPtr(2),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.beginCalls)
	assert.Len(t, repo.committedRecords(), 3)
}

func TestBatchPredictPreservesInputOrder(t *testing.T) {
	repo := newFakeRepo()
	state := NewModelState("", "")
	predictor := NewPredictor(state, echoBackend{})
	batch := NewBatchPredictor(predictor, state, repo)

	response, err := batch.BatchPredict(&BatchPredictionRequest{
		Inputs:    batchInputs(7),
		BatchSize: intPtr(3),
	})
	require.NoError(t, err)
	require.Len(t, response.Predictions, 7)
	for i, output := range response.Predictions {
		assert.Equal(t, float64(i), output.Prediction, "prediction %d must come from input %d", i, i)
	}
}

func TestBatchPredictRecordVersionMatchesOutputMetadata(t *testing.T) {
	repo := newFakeRepo()
	state := NewModelState("", "")
	predictor := NewPredictor(state, &versionBumpingBackend{state: state})
	batch := NewBatchPredictor(predictor, state, repo)

	_, err := batch.BatchPredict(&BatchPredictionRequest{Inputs: batchInputs(2)})
	require.NoError(t, err)

	// The first output is stamped with the pre-update version and the second
	// with the post-update one; each record must agree with its own output.
	records := repo.committedRecords()
	require.Len(t, records, 2)
	versions := make([]string, 0, len(records))
	for _, record := range records {
		var output ModelOutput
		require.NoError(t, json.Unmarshal([]byte(record.OutputData), &output))
		assert.Equal(t, output.Metadata["model_version"], record.ModelVersion)
		versions = append(versions, record.ModelVersion)
	}
	assert.Equal(t, []string{"1.0.0", "1.1.0"}, versions)
}

func TestBatchPredictRecordsCarryModelVersion(t *testing.T) {
	repo := newFakeRepo()
	batch, _ := newBatchPredictor(repo)

	_, err := batch.BatchPredict(&BatchPredictionRequest{Inputs: batchInputs(2)})
	require.NoError(t, err)
	for _, record := range repo.committedRecords() {
		assert.Equal(t, "1.0.0", record.ModelVersion)
		assert.NotEmpty(t, record.InputData)
		assert.NotEmpty(t, record.OutputData)
	}
}

func TestBatchPredictValidation(t *testing.T) {
	tests := []struct {
		name    string
		request *BatchPredictionRequest
	}{
		{name: "nil request", request: nil},
		{name: "empty inputs", request: &BatchPredictionRequest{}},
		{name: "zero batch size", request: &BatchPredictionRequest{Inputs: batchInputs(1), BatchSize: intPtr(0)}},
		{name: "negative batch size", request: &BatchPredictionRequest{Inputs: batchInputs(1), BatchSize: intPtr(-3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			batch, _ := newBatchPredictor(repo)

			_, err := batch.BatchPredict(tt.request)
			require.Error(t, err)
			var validationErr *apperrors.ValidationError
			assert.ErrorAs(t, err, &validationErr)
			assert.Zero(t, repo.beginCalls, "nothing should be persisted for a rejected request")
		})
	}
}

func TestBatchPredictEarlierChunksStayCommittedOnFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.saveErrAt = 1
	batch, _ := newBatchPredictor(repo)

	_, err := batch.BatchPredict(&BatchPredictionRequest{
		Inputs:    batchInputs(6),
		BatchSize: intPtr(2),
	})
	require.Error(t, err)
	var persistenceErr *apperrors.PersistenceError
	require.ErrorAs(t, err, &persistenceErr)

	// The batch stops at the failing chunk: the first chunk commits, the
	// second rolls back and the third is never started.
	assert.Equal(t, 2, repo.beginCalls)
	require.Len(t, repo.chunks, 2)
	assert.True(t, repo.chunks[0].committed)
	assert.True(t, repo.chunks[1].rolledBack)
	assert.False(t, repo.chunks[1].committed)
	assert.Len(t, repo.committedRecords(), 2)
}

func TestBatchPredictCommitFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.commitErrAt = 0
	batch, _ := newBatchPredictor(repo)

	_, err := batch.BatchPredict(&BatchPredictionRequest{Inputs: batchInputs(2)})
	require.Error(t, err)
	var persistenceErr *apperrors.PersistenceError
	assert.ErrorAs(t, err, &persistenceErr)
	assert.Empty(t, repo.committedRecords())
}

func TestBatchPredictBeginFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.beginErrAt = 0
	batch, _ := newBatchPredictor(repo)

	_, err := batch.BatchPredict(&BatchPredictionRequest{Inputs: batchInputs(1)})
	require.Error(t, err)
	var persistenceErr *apperrors.PersistenceError
	assert.ErrorAs(t, err, &persistenceErr)
}

func TestBatchPredictAbortsBeforePersistenceOnInferenceFailure(t *testing.T) {
	repo := newFakeRepo()
	state := NewModelState("", "")
	predictor := NewPredictor(state, &stubBackend{err: errors.New("backend down")})
	batch := NewBatchPredictor(predictor, state, repo)

	_, err := batch.BatchPredict(&BatchPredictionRequest{Inputs: batchInputs(3)})
	require.Error(t, err)
	var inferenceErr *apperrors.InferenceError
	assert.ErrorAs(t, err, &inferenceErr)
	assert.Zero(t, repo.beginCalls)
}

func TestBatchPredictRejectedWhileUpdating(t *testing.T) {
	repo := newFakeRepo()
	batch, state := newBatchPredictor(repo)
	require.NoError(t, state.BeginUpdate())

	_, err := batch.BatchPredict(&BatchPredictionRequest{Inputs: batchInputs(2)})
	require.Error(t, err)
	var inferenceErr *apperrors.InferenceError
	assert.ErrorAs(t, err, &inferenceErr)
	assert.Zero(t, repo.beginCalls)
}
