package prediction

import (
	"errors"
	"fmt"

	"github.com/Meesho/BharatMLStack/model-serving/pkg/infra"
	"gorm.io/gorm"
)

// Repository defines the persistence interface for prediction records.
// Writes happen one chunk at a time: every chunk of a batch is saved inside
// its own transaction, so a chunk either commits in full or not at all.
type Repository interface {
	BeginChunk() (ChunkTx, error)
	GetByModelVersion(version string) ([]PredictionRecord, error)
	CountByModelVersion(version string) (int64, error)
}

// ChunkTx is a single open chunk transaction.
type ChunkTx interface {
	Save(record *PredictionRecord) error
	Commit() error
	Rollback() error
}

type predictionRepo struct {
	db *gorm.DB
}

type chunkTx struct {
	tx *gorm.DB
}

// NewRepository creates a new prediction record repository
func NewRepository(connection *infra.SQLConnection) (Repository, error) {
	if connection == nil {
		return nil, errors.New("connection cannot be nil")
	}

	session, err := connection.GetConn()
	if err != nil {
		return nil, err
	}

	return &predictionRepo{
		db: session.(*gorm.DB),
	}, nil
}

func (r *predictionRepo) BeginChunk() (ChunkTx, error) {
	tx := r.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", tx.Error)
	}
	return &chunkTx{tx: tx}, nil
}

func (r *predictionRepo) GetByModelVersion(version string) ([]PredictionRecord, error) {
	var records []PredictionRecord
	err := r.db.
		Where("model_version = ?", version).
		Find(&records).Error
	return records, err
}

func (r *predictionRepo) CountByModelVersion(version string) (int64, error) {
	var count int64
	err := r.db.Model(&PredictionRecord{}).
		Where("model_version = ?", version).
		Count(&count).Error
	return count, err
}

func (c *chunkTx) Save(record *PredictionRecord) error {
	return c.tx.Create(record).Error
}

func (c *chunkTx) Commit() error {
	return c.tx.Commit().Error
}

func (c *chunkTx) Rollback() error {
	return c.tx.Rollback().Error
}
