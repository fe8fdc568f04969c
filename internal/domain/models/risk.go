package models

import "time"

// RiskLevel is the three-tier classification of a total score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// LevelForScore classifies a total score: [0,30] Low, [31,70] Moderate, [71,100] High.
func LevelForScore(total int) RiskLevel {
	switch {
	case total >= 71:
		return RiskHigh
	case total >= 31:
		return RiskModerate
	default:
		return RiskLow
	}
}

// RiskAnalysis is the derived disease-risk score of one pig.
type RiskAnalysis struct {
	TemperatureScore int       `json:"temperature_score"`
	SymptomScore     int       `json:"symptom_score"`
	ProgressionScore int       `json:"progression_score"`
	TotalScore       int       `json:"total_score"`
	RiskLevel        RiskLevel `json:"risk_level"`
}

// RiskReport wraps an analysis with the context shown to farmers.
type RiskReport struct {
	PigID           string       `json:"pig_id"`
	PigName         string       `json:"pig_name"`
	Analysis        RiskAnalysis `json:"analysis"`
	Recommendations []string     `json:"recommendations"`
	Observations    int          `json:"observations"`
	BreedMissing    bool         `json:"breed_missing,omitempty"`
	Unavailable     bool         `json:"unavailable,omitempty"`
	EvaluatedAt     time.Time    `json:"evaluated_at"`
}
