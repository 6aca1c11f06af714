package handler

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/Meesho/BharatMLStack/model-serving/internal/errors"
	"github.com/rs/zerolog/log"
)

// ArtifactValidator checks a model artifact on disk before it is accepted.
type ArtifactValidator interface {
	Validate(path string) error
}

// FileValidator accepts artifacts that exist, are non-empty and carry a known
// model file extension.
type FileValidator struct{}

var allowedArtifactExtensions = map[string]bool{
	".onnx": true,
	".pb":   true,
	".pt":   true,
	".bin":  true,
	".pkl":  true,
}

func (v *FileValidator) Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("artifact not accessible: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("artifact %s is a directory", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("artifact %s is empty", path)
	}
	ext := filepath.Ext(path)
	if !allowedArtifactExtensions[ext] {
		return fmt.Errorf("unsupported artifact extension %q", ext)
	}
	return nil
}

// ModelUpdater serializes model updates. Only one update runs at a time;
// a second caller gets a ModelUpdateError instead of queueing behind the
// first.
type ModelUpdater struct {
	state     *ModelState
	validator ArtifactValidator
	mu        sync.Mutex
}

func NewModelUpdater(state *ModelState, validator ArtifactValidator) *ModelUpdater {
	return &ModelUpdater{
		state:     state,
		validator: validator,
	}
}

// UpdateModel validates the artifact and swaps the model in. On validation
// failure the model is left in error status; a later successful update
// recovers it.
func (u *ModelUpdater) UpdateModel(artifactPath string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.state.BeginUpdate(); err != nil {
		return err
	}
	if err := u.validator.Validate(artifactPath); err != nil {
		u.state.FailUpdate()
		log.Error().Err(err).Str("artifact", artifactPath).Msg("Model artifact validation failed")
		return &apperrors.ModelUpdateError{ErrorMsg: "artifact validation failed: " + err.Error()}
	}
	version, err := u.state.CompleteUpdate()
	if err != nil {
		log.Error().Err(err).Msg("Failed to finalize model update")
		return &apperrors.ModelUpdateError{ErrorMsg: "failed to finalize update: " + err.Error()}
	}
	log.Info().Str("version", version).Msg("Model updated")
	return nil
}
