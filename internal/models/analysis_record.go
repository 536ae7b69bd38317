package models

import (
	"encoding/json"
	"time"
)

// AnalysisRecord is a persisted analysis outcome
type AnalysisRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RequestID   string    `gorm:"not null;size:100;index;default:''" json:"request_id"`
	Task        string    `gorm:"not null;size:50;index;default:''" json:"task"`
	Description string    `gorm:"not null;type:text;default:''" json:"description"`
	Kind        string    `gorm:"not null;size:20;default:''" json:"kind"`
	Models      string    `gorm:"not null;type:text;default:''" json:"-"`
	Message     string    `gorm:"not null;type:text;default:''" json:"message,omitzero"`
	CacheSource string    `gorm:"not null;size:50;default:''" json:"cache_source,omitzero"`
	DurationMs  int64     `gorm:"not null;default:0" json:"duration_ms"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (AnalysisRecord) TableName() string {
	return "analyses"
}

// NewAnalysisRecord flattens an analysis into its persisted form
func NewAnalysisRecord(analysis *Analysis) (*AnalysisRecord, error) {
	record := &AnalysisRecord{
		RequestID:   analysis.RequestID,
		Task:        string(analysis.Task),
		Description: analysis.Description,
		CacheSource: analysis.CacheSource,
		DurationMs:  analysis.Duration.Milliseconds(),
	}
	if analysis.Result != nil {
		record.Kind = string(analysis.Result.Kind)
		record.Message = analysis.Result.Message
		if len(analysis.Result.Recommendations) > 0 {
			data, err := json.Marshal(analysis.Result.Recommendations)
			if err != nil {
				return nil, err
			}
			record.Models = string(data)
		}
	}
	return record, nil
}

// Recommendations decodes the stored ranked models
func (r *AnalysisRecord) Recommendations() []ModelRecommendation {
	if r.Models == "" {
		return nil
	}
	var items []ModelRecommendation
	if err := json.Unmarshal([]byte(r.Models), &items); err != nil {
		return nil
	}
	return items
}

// MarshalJSON exposes the stored models as a JSON array
func (r AnalysisRecord) MarshalJSON() ([]byte, error) {
	type alias AnalysisRecord
	return json.Marshal(struct {
		alias
		Recommendations []ModelRecommendation `json:"recommendations,omitempty"`
	}{
		alias:           alias(r),
		Recommendations: r.Recommendations(),
	})
}
