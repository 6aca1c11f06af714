package prediction

import (
	"time"

	"gorm.io/gorm"
)

const predictionTableName = "predictions"

// PredictionRecord pairs an input with its produced output and the model
// version used. Records are append-only; this service never updates or
// deletes them.
type PredictionRecord struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	InputData      string `gorm:"type:json;not null"`
	OutputData     string `gorm:"type:json;not null"`
	ModelVersion   string `gorm:"not null"`
	ProcessingTime float64
	CreatedAt      time.Time
}

func (PredictionRecord) TableName() string {
	return predictionTableName
}

func (PredictionRecord) BeforeCreate(tx *gorm.DB) (err error) {
	tx.Statement.SetColumn("CreatedAt", time.Now())
	return
}
