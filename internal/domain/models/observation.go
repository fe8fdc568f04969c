package models

import "time"

// DateLayout is the calendar-day format used for Observation.Date.
const DateLayout = "2006-01-02"

// ChecklistItem is one entry of the global symptom catalog.
type ChecklistItem struct {
	ID                      string `bson:"_id" json:"id"`
	Name                    string `bson:"name" json:"name" binding:"required"`
	RiskWeight              int    `bson:"risk_weight" json:"risk_weight" binding:"required,min=1,max=5"`
	TreatmentRecommendation string `bson:"treatment_recommendation" json:"treatment_recommendation"`
}

// SymptomCheck is a checklist item marked present during one session, with
// the catalog data already joined in.
type SymptomCheck struct {
	ChecklistItemID         string `bson:"checklist_item_id" json:"checklist_item_id"`
	Name                    string `bson:"name" json:"name"`
	RiskWeight              int    `bson:"risk_weight" json:"risk_weight"`
	TreatmentRecommendation string `bson:"treatment_recommendation" json:"treatment_recommendation"`
}

// Observation is one monitoring session for one pig.
type Observation struct {
	ID          string         `bson:"_id" json:"id"`
	PigID       string         `bson:"pig_id" json:"pig_id"`
	Date        string         `bson:"date" json:"date"`
	RecordedAt  time.Time      `bson:"recorded_at" json:"recorded_at"`
	Temperature float64        `bson:"temperature" json:"temperature"`
	Notes       string         `bson:"notes,omitempty" json:"notes,omitempty"`
	Symptoms    []SymptomCheck `bson:"symptoms" json:"symptoms"`
}

// ObservationInput is the payload accepted when recording a new session.
type ObservationInput struct {
	Temperature float64  `json:"temperature" binding:"required"`
	Notes       string   `json:"notes"`
	SymptomIDs  []string `json:"symptom_ids"`
}
