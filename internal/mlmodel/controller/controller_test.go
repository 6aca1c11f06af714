package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Meesho/BharatMLStack/model-serving/internal/mlmodel/handler"
	"github.com/Meesho/BharatMLStack/model-serving/internal/repositories/sql/prediction"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	records []prediction.PredictionRecord
	failTx  bool
}

func (r *memoryRepo) BeginChunk() (prediction.ChunkTx, error) {
	if r.failTx {
		return nil, errors.New("connection refused")
	}
	return &memoryChunkTx{repo: r}, nil
}

func (r *memoryRepo) GetByModelVersion(version string) ([]prediction.PredictionRecord, error) {
	return r.records, nil
}

func (r *memoryRepo) CountByModelVersion(version string) (int64, error) {
	return int64(len(r.records)), nil
}

type memoryChunkTx struct {
	repo    *memoryRepo
	pending []prediction.PredictionRecord
}

func (t *memoryChunkTx) Save(record *prediction.PredictionRecord) error {
	t.pending = append(t.pending, *record)
	return nil
}

func (t *memoryChunkTx) Commit() error {
	t.repo.records = append(t.repo.records, t.pending...)
	return nil
}

func (t *memoryChunkTx) Rollback() error {
	t.pending = nil
	return nil
}

func modelInputs(n int) []handler.ModelInput {
	inputs := make([]handler.ModelInput, n)
	for i := range inputs {
		inputs[i] = handler.ModelInput{Data: map[string]interface{}{"feature_1": float64(i)}}
	}
	return inputs
}

type testServer struct {
	engine *gin.Engine
	state  *handler.ModelState
	repo   *memoryRepo
}

func newTestServer(t *testing.T, role string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	state := handler.NewModelState("", "")
	predictor := handler.NewPredictor(state, handler.NewMockBackend())
	repo := &memoryRepo{}
	batch := handler.NewBatchPredictor(predictor, state, repo)
	updater := handler.NewModelUpdater(state, &handler.FileValidator{})
	ctrl := NewController(state, predictor, batch, updater, t.TempDir())

	engine := gin.New()
	if role != "" {
		engine.Use(func(c *gin.Context) {
			c.Set("role", role)
		})
	}
	api := engine.Group("/api/v1/model")
	api.POST("/predict", ctrl.Predict)
	api.POST("/batch-predict", ctrl.BatchPredict)
	api.GET("/status", ctrl.Status)
	api.POST("/update", ctrl.Update)

	return &testServer{engine: engine, state: state, repo: repo}
}

func (s *testServer) doJSON(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	s.engine.ServeHTTP(recorder, req)
	return recorder
}

func TestStatusEndpoint(t *testing.T) {
	server := newTestServer(t, "")

	recorder := server.doJSON(t, http.MethodGet, "/api/v1/model/status", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response handler.ModelStatusResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "mock_model", response.ModelName)
	assert.Equal(t, "1.0.0", response.Version)
	assert.Equal(t, "ready", response.Status)
	assert.NotEmpty(t, response.LastUpdated)
	assert.Equal(t, 0.95, response.Metrics["accuracy"])

	// Querying again without an intervening update must return the same view.
	second := server.doJSON(t, http.MethodGet, "/api/v1/model/status", nil)
	require.Equal(t, http.StatusOK, second.Code)
	var repeat handler.ModelStatusResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &repeat))
	assert.Equal(t, response, repeat)
}

func TestPredictEndpoint(t *testing.T) {
	server := newTestServer(t, "")

	recorder := server.doJSON(t, http.MethodPost, "/api/v1/model/predict", handler.ModelInput{
		Data: map[string]interface{}{"feature_1": 0.5},
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var output handler.ModelOutput
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &output))
	assert.Equal(t, "1.0.0", output.Metadata["model_version"])
	require.NotNil(t, output.Confidence)
	assert.GreaterOrEqual(t, *output.Confidence, 0.0)
	assert.LessOrEqual(t, *output.Confidence, 1.0)
}

func TestPredictEndpointMissingData(t *testing.T) {
	server := newTestServer(t, "")

	recorder := server.doJSON(t, http.MethodPost, "/api/v1/model/predict", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestPredictEndpointWhileUpdating(t *testing.T) {
	server := newTestServer(t, "")
	require.NoError(t, server.state.BeginUpdate())

	recorder := server.doJSON(t, http.MethodPost, "/api/v1/model/predict", handler.ModelInput{
		Data: map[string]interface{}{"feature_1": 0.5},
	})
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func TestBatchPredictEndpoint(t *testing.T) {
	server := newTestServer(t, "")
	batchSize := 2

	recorder := server.doJSON(t, http.MethodPost, "/api/v1/model/batch-predict", handler.BatchPredictionRequest{
		Inputs:    modelInputs(5),
		BatchSize: &batchSize,
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var response handler.BatchPredictionResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Len(t, response.Predictions, 5)
	assert.Greater(t, response.ProcessingTime, 0.0)
	assert.Len(t, server.repo.records, 5)
}

func TestBatchPredictEndpointValidation(t *testing.T) {
	server := newTestServer(t, "")
	badSize := 0

	recorder := server.doJSON(t, http.MethodPost, "/api/v1/model/batch-predict", handler.BatchPredictionRequest{
		Inputs:    modelInputs(1),
		BatchSize: &badSize,
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestBatchPredictEndpointPersistenceFailure(t *testing.T) {
	server := newTestServer(t, "")
	server.repo.failTx = true

	recorder := server.doJSON(t, http.MethodPost, "/api/v1/model/batch-predict", handler.BatchPredictionRequest{
		Inputs: modelInputs(2),
	})
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}

func TestUpdateEndpointRequiresAdmin(t *testing.T) {
	server := newTestServer(t, "user")

	recorder := server.doJSON(t, http.MethodPost, "/api/v1/model/update", nil)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestUpdateEndpoint(t *testing.T) {
	server := newTestServer(t, "admin")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("model_file", "model.onnx")
	require.NoError(t, err)
	_, err = part.Write([]byte("weights"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/model/update", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	recorder := httptest.NewRecorder()
	server.engine.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "1.1.0", server.state.Version())

	status := server.doJSON(t, http.MethodGet, "/api/v1/model/status", nil)
	var response handler.ModelStatusResponse
	require.NoError(t, json.Unmarshal(status.Body.Bytes(), &response))
	assert.Equal(t, "1.1.0", response.Version)
	assert.Equal(t, "ready", response.Status)
}

func TestUpdateEndpointConcurrentSameFilename(t *testing.T) {
	server := newTestServer(t, "admin")
	const updates = 4

	var wg sync.WaitGroup
	codes := make([]int, updates)
	for i := 0; i < updates; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			body := &bytes.Buffer{}
			writer := multipart.NewWriter(body)
			part, err := writer.CreateFormFile("model_file", "model.onnx")
			if err != nil {
				return
			}
			if _, err := part.Write([]byte("weights")); err != nil {
				return
			}
			if err := writer.Close(); err != nil {
				return
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/model/update", body)
			req.Header.Set("Content-Type", writer.FormDataContentType())
			recorder := httptest.NewRecorder()
			server.engine.ServeHTTP(recorder, req)
			codes[i] = recorder.Code
		}(i)
	}
	wg.Wait()

	// Uploads sharing a filename must not disturb each other's staged
	// artifact: every update succeeds and each one bumps the version once.
	for i, code := range codes {
		assert.Equal(t, http.StatusOK, code, "update %d failed", i)
	}
	assert.Equal(t, "1.4.0", server.state.Version())
	assert.Equal(t, "ready", string(server.state.Snapshot().Status))
}

func TestUpdateEndpointBadArtifact(t *testing.T) {
	server := newTestServer(t, "admin")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("model_file", "model.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("not a model"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/model/update", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	recorder := httptest.NewRecorder()
	server.engine.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, "error", string(server.state.Snapshot().Status))

	predict := server.doJSON(t, http.MethodPost, "/api/v1/model/predict", handler.ModelInput{
		Data: map[string]interface{}{"feature_1": 0.5},
	})
	assert.Equal(t, http.StatusServiceUnavailable, predict.Code)
}

func TestUpdateEndpointMissingFile(t *testing.T) {
	server := newTestServer(t, "admin")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/model/update", bytes.NewReader(nil))
	recorder := httptest.NewRecorder()
	server.engine.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
