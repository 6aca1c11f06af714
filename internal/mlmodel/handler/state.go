package handler

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "github.com/Meesho/BharatMLStack/model-serving/internal/errors"
)

// Status is the lifecycle state of the served model.
type Status string

const (
	StatusReady    Status = "ready"
	StatusUpdating Status = "updating"
	StatusError    Status = "error"
)

const (
	defaultModelName    = "mock_model"
	defaultModelVersion = "1.0.0"
)

// ModelState is the process-wide record of which model version is active, its
// health and metrics. There is exactly one instance per process, owned by the
// wiring in main and shared by reference with the predictor, the batch
// predictor and the updater. All access goes through the mutex so readers
// always observe a fully old or fully new state, never a torn one.
type ModelState struct {
	mu          sync.RWMutex
	modelName   string
	version     string
	status      Status
	lastUpdated time.Time
	metrics     map[string]float64
}

// ModelSnapshot is a consistent point-in-time copy of the model state.
type ModelSnapshot struct {
	ModelName   string
	Version     string
	Status      Status
	LastUpdated time.Time
	Metrics     map[string]float64
}

func NewModelState(modelName, version string) *ModelState {
	if modelName == "" {
		modelName = defaultModelName
	}
	if version == "" {
		version = defaultModelVersion
	}
	return &ModelState{
		modelName:   modelName,
		version:     version,
		status:      StatusReady,
		lastUpdated: time.Now(),
		metrics: map[string]float64{
			"accuracy": 0.95,
			"latency":  0.1,
		},
	}
}

// Snapshot returns a copy of the current state. The metrics map is copied so
// callers can not mutate shared state through it.
func (s *ModelState) Snapshot() ModelSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metrics := make(map[string]float64, len(s.metrics))
	for k, v := range s.metrics {
		metrics[k] = v
	}
	return ModelSnapshot{
		ModelName:   s.modelName,
		Version:     s.version,
		Status:      s.status,
		LastUpdated: s.lastUpdated,
		Metrics:     metrics,
	}
}

// Version returns the currently active model version.
func (s *ModelState) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// BeginUpdate transitions the state to updating. Entering from ready or from
// error (the retry path) is allowed; a second concurrent update is rejected.
func (s *ModelState) BeginUpdate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusUpdating {
		return &apperrors.ModelUpdateError{ErrorMsg: "model update already in progress"}
	}
	s.status = StatusUpdating
	return nil
}

// CompleteUpdate installs the new version: bumps the minor version by one,
// stamps last_updated and moves back to ready.
func (s *ModelState) CompleteUpdate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := bumpVersion(s.version)
	if err != nil {
		s.status = StatusError
		return "", err
	}
	s.version = next
	s.lastUpdated = time.Now()
	s.status = StatusReady
	return next, nil
}

// FailUpdate marks the model unusable after a failed update attempt. It stays
// in error until a later update succeeds.
func (s *ModelState) FailUpdate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusError
}

// ClearError resets an errored model back to ready without installing a new
// artifact. Exposed for operational recovery; the normal path out of error is
// a successful update.
func (s *ModelState) ClearError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusError {
		return fmt.Errorf("model status is %s, nothing to clear", s.status)
	}
	s.status = StatusReady
	return nil
}

// RecordLatency folds an observed per-prediction latency (seconds) into the
// reported metrics.
func (s *ModelState) RecordLatency(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics["latency"] = seconds
}

// bumpVersion increments the minor component of a MAJOR.MINOR.PATCH version
// and resets patch, e.g. 1.0.0 -> 1.1.0. The increment is fixed so versions
// are strictly monotonic across updates.
func bumpVersion(version string) (string, error) {
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid model version %q", version)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", fmt.Errorf("invalid model version %q", version)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", fmt.Errorf("invalid model version %q", version)
	}
	if _, err := strconv.Atoi(parts[2]); err != nil {
		return "", fmt.Errorf("invalid model version %q", version)
	}
	return fmt.Sprintf("%d.%d.0", major, minor+1), nil
}
