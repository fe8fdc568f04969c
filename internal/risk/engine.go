// Package risk converts a pig's observation history into a bounded 0-100
// disease-risk score with a Low/Moderate/High classification.
package risk

import (
	"math"
	"sort"

	"github.com/mamadbah2/swinewatch/internal/domain/models"
)

const (
	maxTemperatureScore = 25
	maxSymptomScore     = 50
	maxProgressionScore = 25
	maxTotalScore       = 100

	symptomWeightFactor = 10

	newSymptomPoints        = 5
	newSymptomCap           = 15
	persistentSymptomPoints = 3
	persistentSymptomCap    = 10
	improvedSymptomPoints   = 2
	improvedSymptomCap      = 10

	feverDeviation       = 1.0
	sustainedFeverBonus  = 10
	prolongedFeverBonus  = 5
	deviationStep        = 0.5
	deviationStepPoints  = 5
	deviationTrendCap    = 10
	deviationPrecision   = 1000
	deviationStepEpsilon = 1e-9
)

// Engine scores observation histories. It holds no state and is safe for
// concurrent use; the zero value is ready to use.
type Engine struct{}

// NewEngine returns a risk engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Analyze scores the observations of one pig against its breed band.
//
// The input is re-sorted newest-first by date, then recorded-at instant, so
// the result does not depend on caller order. An empty history yields an
// all-zero Low analysis.
func (e *Engine) Analyze(observations []models.Observation, breed models.BreedProfile, category models.Category) models.RiskAnalysis {
	if len(observations) == 0 {
		return models.RiskAnalysis{RiskLevel: models.RiskLow}
	}

	sessions := NewestFirst(observations)
	days := latestPerDay(sessions)
	low, high := breed.Band(category)

	analysis := models.RiskAnalysis{
		TemperatureScore: temperatureScore(deviation(sessions[0].Temperature, low, high)),
		SymptomScore:     symptomScore(sessions[0]),
		ProgressionScore: progressionScore(days, low, high),
	}

	analysis.TotalScore = analysis.TemperatureScore + analysis.SymptomScore + analysis.ProgressionScore
	if analysis.TotalScore > maxTotalScore {
		analysis.TotalScore = maxTotalScore
	}
	analysis.RiskLevel = models.LevelForScore(analysis.TotalScore)

	return analysis
}

// Recommendations returns the treatment advice attached to the symptoms of
// the newest session, heaviest symptom first, without duplicates.
func (e *Engine) Recommendations(observations []models.Observation) []string {
	if len(observations) == 0 {
		return nil
	}

	latest := NewestFirst(observations)[0]
	symptoms := append([]models.SymptomCheck(nil), latest.Symptoms...)
	sort.SliceStable(symptoms, func(i, j int) bool {
		if symptoms[i].RiskWeight != symptoms[j].RiskWeight {
			return symptoms[i].RiskWeight > symptoms[j].RiskWeight
		}
		return symptoms[i].Name < symptoms[j].Name
	})

	seen := make(map[string]struct{}, len(symptoms))
	out := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		if s.TreatmentRecommendation == "" {
			continue
		}
		if _, ok := seen[s.TreatmentRecommendation]; ok {
			continue
		}
		seen[s.TreatmentRecommendation] = struct{}{}
		out = append(out, s.TreatmentRecommendation)
	}
	return out
}

// NewestFirst returns a copy of observations ordered by date, recorded-at
// instant and id, all descending.
func NewestFirst(observations []models.Observation) []models.Observation {
	sorted := append([]models.Observation(nil), observations...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		if !a.RecordedAt.Equal(b.RecordedAt) {
			return a.RecordedAt.After(b.RecordedAt)
		}
		return a.ID > b.ID
	})
	return sorted
}

// latestPerDay keeps the newest session of every calendar day. Input must be newest-first.
func latestPerDay(sessions []models.Observation) []models.Observation {
	days := make([]models.Observation, 0, len(sessions))
	for _, s := range sessions {
		if len(days) > 0 && days[len(days)-1].Date == s.Date {
			continue
		}
		days = append(days, s)
	}
	return days
}

// deviation is the distance of t outside [low, high], rounded to 0.001 °C.
func deviation(t, low, high float64) float64 {
	d := math.Max(math.Max(t-high, low-t), 0)
	return math.Round(d*deviationPrecision) / deviationPrecision
}

func temperatureScore(d float64) int {
	switch {
	case d >= 1.5:
		return maxTemperatureScore
	case d >= 1.0:
		return 20
	case d >= 0.5:
		return 15
	default:
		return 0
	}
}

func symptomScore(session models.Observation) int {
	score := 0
	for _, weight := range symptomWeights(session) {
		score += weight * symptomWeightFactor
	}
	return clamp(score, 0, maxSymptomScore)
}

func symptomWeights(session models.Observation) map[string]int {
	weights := make(map[string]int, len(session.Symptoms))
	for _, s := range session.Symptoms {
		weights[s.ChecklistItemID] = s.RiskWeight
	}
	return weights
}

// progressionScore walks adjacent days (newer, older) once, accumulating a
// signed total that is clamped only at the end.
func progressionScore(days []models.Observation, low, high float64) int {
	var newCount, persistentCount, improvedCount, feverDays int
	total := 0

	deviations := make([]float64, len(days))
	for i, day := range days {
		deviations[i] = deviation(day.Temperature, low, high)
		if deviations[i] >= feverDeviation {
			feverDays++
		}
	}

	for i := 0; i+1 < len(days); i++ {
		current := symptomWeights(days[i])
		previous := symptomWeights(days[i+1])

		for id := range current {
			if _, ok := previous[id]; ok {
				persistentCount++
			} else {
				newCount++
			}
		}
		for id := range previous {
			if _, ok := current[id]; !ok {
				improvedCount++
			}
		}

		change := deviations[i] - deviations[i+1]
		switch {
		case change > 0:
			total += trendPoints(change)
		case change < 0:
			total -= trendPoints(-change)
		}
	}

	total += min(newSymptomCap, newSymptomPoints*newCount)
	total += min(persistentSymptomCap, persistentSymptomPoints*persistentCount)
	total -= min(improvedSymptomCap, improvedSymptomPoints*improvedCount)

	if feverDays >= 2 {
		total += sustainedFeverBonus
	}
	if feverDays >= 3 {
		total += prolongedFeverBonus
	}

	return clamp(total, 0, maxProgressionScore)
}

func trendPoints(change float64) int {
	steps := int(math.Floor(change/deviationStep + deviationStepEpsilon))
	return min(deviationTrendCap, steps*deviationStepPoints)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
