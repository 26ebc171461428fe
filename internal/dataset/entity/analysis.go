package entity

import (
	"encoding/json"
	"time"
)

type Analysis struct {
	ID          string
	DatasetID   string
	Kind        AnalysisKind
	Status      AnalysisStatus
	Params      json.RawMessage
	Results     json.RawMessage
	Err         string
	PerformedAt time.Time
	CompletedAt time.Time
}
