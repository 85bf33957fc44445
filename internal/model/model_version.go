package model

import "time"

// ModelVersion identifies one deployed inference model. Rows are created once
// by the seed tooling and are read-only afterward; Jobs reference a
// ModelVersion for the lifetime of their processing.
type ModelVersion struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"column:name;not null;size:255;uniqueIndex:idx_model_versions_name"`
	WeightsRef string   `json:"weightsRef" gorm:"column:weights_ref;not null;size:512"`
	CreatedAt time.Time `json:"createdAt" gorm:"column:created_at;not null;autoCreateTime"`
}

// TableName specifies the database table name for the ModelVersion model.
func (ModelVersion) TableName() string {
	return "model_versions"
}
