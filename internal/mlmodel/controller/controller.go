package controller

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/Meesho/BharatMLStack/model-serving/internal/errors"
	"github.com/Meesho/BharatMLStack/model-serving/internal/mlmodel/handler"
	"github.com/Meesho/BharatMLStack/model-serving/pkg/api"
	"github.com/Meesho/BharatMLStack/model-serving/pkg/metric"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const roleAdmin = "admin"

type MlModel interface {
	Predict(ctx *gin.Context)
	BatchPredict(ctx *gin.Context)
	Status(ctx *gin.Context)
	Update(ctx *gin.Context)
}

type MlModelController struct {
	state       *handler.ModelState
	predictor   *handler.Predictor
	batch       *handler.BatchPredictor
	updater     *handler.ModelUpdater
	artifactDir string
}

func NewController(state *handler.ModelState, predictor *handler.Predictor,
	batch *handler.BatchPredictor, updater *handler.ModelUpdater, artifactDir string) MlModel {
	if artifactDir == "" {
		artifactDir = os.TempDir()
	}
	return &MlModelController{
		state:       state,
		predictor:   predictor,
		batch:       batch,
		updater:     updater,
		artifactDir: artifactDir,
	}
}

func (m *MlModelController) Predict(ctx *gin.Context) {
	startTime := time.Now()
	var input handler.ModelInput
	if err := ctx.BindJSON(&input); err != nil {
		log.Error().Err(err).Msg("Error in binding request body")
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	output, err := m.predictor.Predict(&input)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	metric.Incr(metric.PredictCount, nil)
	metric.Timing(metric.PredictLatency, time.Since(startTime), nil)
	ctx.JSON(http.StatusOK, output)
}

func (m *MlModelController) BatchPredict(ctx *gin.Context) {
	startTime := time.Now()
	var request handler.BatchPredictionRequest
	if err := ctx.BindJSON(&request); err != nil {
		log.Error().Err(err).Msg("Error in binding request body")
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	response, err := m.batch.BatchPredict(&request)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	metric.Incr(metric.BatchPredictCount, nil)
	metric.Timing(metric.PredictLatency, time.Since(startTime), nil)
	ctx.JSON(http.StatusOK, response)
}

func (m *MlModelController) Status(ctx *gin.Context) {
	snapshot := m.state.Snapshot()
	ctx.JSON(http.StatusOK, handler.ModelStatusResponse{
		ModelName:   snapshot.ModelName,
		Version:     snapshot.Version,
		Status:      string(snapshot.Status),
		LastUpdated: snapshot.LastUpdated.UTC().Format(time.RFC3339),
		Metrics:     snapshot.Metrics,
	})
}

// Update accepts a model artifact as a multipart upload, stages it on disk
// and hands it to the updater. Only admins may update the model.
func (m *MlModelController) Update(ctx *gin.Context) {
	startTime := time.Now()
	if ctx.GetString("role") != roleAdmin {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "not authorized to update the model"})
		return
	}
	file, err := ctx.FormFile("model_file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "model_file is required"})
		return
	}
	// Stage to a unique path so concurrent uploads with the same filename
	// never overwrite or remove each other's blob.
	staged, err := os.CreateTemp(m.artifactDir, "upload-*"+filepath.Ext(file.Filename))
	if err != nil {
		log.Error().Err(err).Str("dir", m.artifactDir).Msg("Failed to create staging file")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stage model artifact"})
		return
	}
	artifactPath := staged.Name()
	staged.Close()
	if err := ctx.SaveUploadedFile(file, artifactPath); err != nil {
		log.Error().Err(err).Str("artifact", artifactPath).Msg("Failed to stage model artifact")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stage model artifact"})
		return
	}
	defer func() {
		if err := os.Remove(artifactPath); err != nil {
			log.Warn().Err(err).Str("artifact", artifactPath).Msg("Failed to remove staged artifact")
		}
	}()

	if err := m.updater.UpdateModel(artifactPath); err != nil {
		respondWithError(ctx, err)
		return
	}
	metric.Incr(metric.ModelUpdateCount, nil)
	metric.Timing(metric.ModelUpdateLatency, time.Since(startTime), nil)
	ctx.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Model updated successfully",
		"version": m.state.Version(),
	})
}

// respondWithError maps the typed errors onto HTTP status codes. Validation
// problems are the caller's fault, a not-ready model is a temporary outage,
// everything else is a server-side failure.
func respondWithError(ctx *gin.Context, err error) {
	var validationErr *apperrors.ValidationError
	var inferenceErr *apperrors.InferenceError
	var persistenceErr *apperrors.PersistenceError
	var updateErr *apperrors.ModelUpdateError

	switch {
	case errors.As(err, &validationErr):
		ctx.Error(api.NewBadRequestError(err.Error()))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &inferenceErr):
		ctx.Error(api.NewServiceUnavailable(err.Error()))
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.As(err, &persistenceErr), errors.As(err, &updateErr):
		log.Error().Err(err).Msg("Request failed")
		ctx.Error(api.NewInternalServerError(err.Error()))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Msg("Request failed")
		ctx.Error(api.NewInternalServerError(err.Error()))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
