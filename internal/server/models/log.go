package models

import "time"

// Log is an append-only audit event. TypeID references the subject by id
// only, so rows outlive the entities they describe.
type Log struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Type       string    `json:"type"`
	TypeID     *int64    `json:"typeId"`
	Action     string    `json:"action"`
	StatusCode string    `json:"statusCode"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Log subject types.
const (
	LogTypeBaby        = "BABY"
	LogTypeMeasurement = "MEASUREMENT"
	LogTypeRecord      = "RECORD"
	LogTypeGrowthGuide = "GROWTH_GUIDE"
	LogTypeAuth        = "AUTH"
	LogTypeAdmin       = "ADMIN"
)
