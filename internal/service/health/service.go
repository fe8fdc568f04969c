// Package health records pig observations and serves risk and monitoring
// status on top of the risk engine and the monitoring window.
package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/swinewatch/internal/domain/models"
	"github.com/mamadbah2/swinewatch/internal/metrics"
	"github.com/mamadbah2/swinewatch/internal/monitoring"
	"github.com/mamadbah2/swinewatch/internal/repository"
	"github.com/mamadbah2/swinewatch/internal/risk"
)

const (
	minPlausibleTemp = 30.0
	maxPlausibleTemp = 45.0
)

// Repository is the storage the service depends on.
type Repository interface {
	SavePig(ctx context.Context, pig models.Pig) error
	GetPig(ctx context.Context, id string) (models.Pig, error)
	ListPigs(ctx context.Context) ([]models.Pig, error)
	SaveBreed(ctx context.Context, breed models.BreedProfile) error
	GetBreed(ctx context.Context, id string) (models.BreedProfile, error)
	SaveChecklistItem(ctx context.Context, item models.ChecklistItem) error
	ListChecklistItems(ctx context.Context) ([]models.ChecklistItem, error)
	SaveObservation(ctx context.Context, obs models.Observation) error
	ListObservations(ctx context.Context, pigID string) ([]models.Observation, error)
	GetStartTime(ctx context.Context) (string, error)
	SetStartTime(ctx context.Context, startTime string) error
}

// RiskCache stores computed reports between requests.
type RiskCache interface {
	Get(ctx context.Context, pigID string) (models.RiskReport, error)
	Set(ctx context.Context, report models.RiskReport) error
	Invalidate(ctx context.Context, pigID string) error
}

// ObservationExporter mirrors stored observations elsewhere.
type ObservationExporter interface {
	ExportObservation(ctx context.Context, pig models.Pig, obs models.Observation) error
}

// Notifier is told about every freshly computed report after an observation.
type Notifier interface {
	NotifyHighRisk(ctx context.Context, pig models.Pig, report models.RiskReport, latest models.Observation) error
}

// Options holds the optional collaborators of the service; nil fields are skipped.
type Options struct {
	Cache    RiskCache
	Exporter ObservationExporter
	Notifier Notifier
}

// Service orchestrates storage, scoring and monitoring windows.
type Service struct {
	repo     Repository
	engine   *risk.Engine
	window   monitoring.Window
	cache    RiskCache
	exporter ObservationExporter
	notifier Notifier
	locks    *pigLocks
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// NewService wires a health service. window provides the pinned zone and the
// default start time used until one is stored.
func NewService(repo Repository, engine *risk.Engine, window monitoring.Window, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = risk.NewEngine()
	}
	if window.Location == nil {
		window.Location = time.UTC
	}
	return &Service{
		repo:     repo,
		engine:   engine,
		window:   window,
		cache:    opts.Cache,
		exporter: opts.Exporter,
		notifier: opts.Notifier,
		locks:    newPigLocks(),
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Window returns the monitoring window with the currently stored start time.
func (s *Service) Window(ctx context.Context) (monitoring.Window, error) {
	stored, err := s.repo.GetStartTime(ctx)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && stored == "") {
		return s.window, nil
	}
	if err != nil {
		return monitoring.Window{}, fmt.Errorf("load start time: %w", err)
	}

	start, err := monitoring.ParseClock(stored)
	if err != nil {
		return monitoring.Window{}, fmt.Errorf("stored start time: %w", err)
	}
	return s.window.WithStart(start), nil
}

// SetStartTime validates and stores the daily start time ("HH:mm").
func (s *Service) SetStartTime(ctx context.Context, value string) (monitoring.ClockTime, error) {
	start, err := monitoring.ParseClock(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.repo.SetStartTime(ctx, start.String()); err != nil {
		return 0, err
	}
	s.logger.Info("monitoring start time updated", zap.String("start_time", start.String()))
	return start, nil
}

// RecordObservation validates and stores a new session for pigID, provided
// the monitoring window allows it, then returns the refreshed risk report.
func (s *Service) RecordObservation(ctx context.Context, pigID string, input models.ObservationInput) (models.Observation, models.RiskReport, error) {
	if input.Temperature < minPlausibleTemp || input.Temperature > maxPlausibleTemp {
		return models.Observation{}, models.RiskReport{}, fmt.Errorf("%w: %.1f", ErrInvalidTemperature, input.Temperature)
	}

	pig, err := s.getPig(ctx, pigID)
	if err != nil {
		return models.Observation{}, models.RiskReport{}, err
	}

	symptoms, err := s.resolveSymptoms(ctx, input.SymptomIDs)
	if err != nil {
		return models.Observation{}, models.RiskReport{}, err
	}

	obs, history, timing, err := s.admit(ctx, pig, input, symptoms)
	if err != nil {
		return models.Observation{}, models.RiskReport{}, err
	}

	metrics.ObservationsRecorded.Inc()
	s.logger.Info("observation recorded",
		zap.String("pig_id", pig.ID),
		zap.String("observation_id", obs.ID),
		zap.Float64("temperature", obs.Temperature),
		zap.Int("symptoms", len(symptoms)),
		zap.String("window_state", string(timing.State)))

	s.invalidate(ctx, pig.ID)
	if s.exporter != nil {
		if err := s.exporter.ExportObservation(ctx, pig, obs); err != nil {
			s.logger.Warn("observation export failed", zap.String("observation_id", obs.ID), zap.Error(err))
		}
	}

	report, err := s.buildReport(ctx, pig, append([]models.Observation{obs}, history...))
	if err != nil {
		return obs, models.RiskReport{}, err
	}
	s.storeReport(ctx, report)

	if s.notifier != nil {
		if err := s.notifier.NotifyHighRisk(ctx, pig, report, obs); err != nil {
			s.logger.Error("risk notification failed", zap.String("pig_id", pig.ID), zap.Error(err))
		}
	}

	return obs, report, nil
}

// admit evaluates the window and stores the observation while holding the
// pig's lock, so concurrent submissions cannot both claim the same slot.
func (s *Service) admit(ctx context.Context, pig models.Pig, input models.ObservationInput, symptoms []models.SymptomCheck) (models.Observation, []models.Observation, models.MonitoringTiming, error) {
	unlock := s.locks.lock(pig.ID)
	defer unlock()

	window, err := s.Window(ctx)
	if err != nil {
		return models.Observation{}, nil, models.MonitoringTiming{}, err
	}

	history, err := s.repo.ListObservations(ctx, pig.ID)
	if err != nil {
		return models.Observation{}, nil, models.MonitoringTiming{}, fmt.Errorf("load history of %s: %w", pig.ID, err)
	}

	now := s.now().In(window.Location)
	timing := window.Evaluate(now, window.LastCheckToday(now, recordedTimes(history)))
	if !timing.CanMonitor {
		metrics.MonitoringRejected.WithLabelValues(string(timing.State)).Inc()
		return models.Observation{}, nil, timing, &MonitoringClosedError{Timing: timing}
	}

	// Date is the monitoring day, which starts at the configured start time.
	obs := models.Observation{
		ID:          s.newID(),
		PigID:       pig.ID,
		Date:        window.DayStart(now).Format(models.DateLayout),
		RecordedAt:  now.UTC(),
		Temperature: input.Temperature,
		Notes:       input.Notes,
		Symptoms:    symptoms,
	}
	if err := s.repo.SaveObservation(ctx, obs); err != nil {
		return models.Observation{}, nil, timing, err
	}
	return obs, history, timing, nil
}

// AnalyzeRisk returns the current risk report of pigID, from cache when fresh.
func (s *Service) AnalyzeRisk(ctx context.Context, pigID string) (models.RiskReport, error) {
	if s.cache != nil {
		report, err := s.cache.Get(ctx, pigID)
		if err == nil {
			metrics.RiskCacheHits.Inc()
			return report, nil
		}
		s.logger.Debug("risk cache lookup missed", zap.String("pig_id", pigID), zap.Error(err))
	}

	pig, err := s.getPig(ctx, pigID)
	if err != nil {
		return models.RiskReport{}, err
	}

	history, err := s.repo.ListObservations(ctx, pig.ID)
	if err != nil {
		return models.RiskReport{}, fmt.Errorf("load history of %s: %w", pig.ID, err)
	}

	report, err := s.buildReport(ctx, pig, history)
	if err != nil {
		return models.RiskReport{}, err
	}
	s.storeReport(ctx, report)
	return report, nil
}

// HerdRisk returns the risk report of every registered pig. A pig whose
// analysis fails is reported as unavailable instead of failing the herd.
func (s *Service) HerdRisk(ctx context.Context) ([]models.RiskReport, error) {
	pigs, err := s.repo.ListPigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pigs: %w", err)
	}

	reports := make([]models.RiskReport, 0, len(pigs))
	for _, pig := range pigs {
		report, err := s.AnalyzeRisk(ctx, pig.ID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.logger.Error("risk analysis failed, pig left unscored", zap.String("pig_id", pig.ID), zap.Error(err))
			report = models.RiskReport{
				PigID:       pig.ID,
				PigName:     pig.Name,
				Analysis:    models.RiskAnalysis{RiskLevel: models.RiskLow},
				Unavailable: true,
				EvaluatedAt: s.now().UTC(),
			}
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// MonitoringStatus tells whether pigID may be checked now.
func (s *Service) MonitoringStatus(ctx context.Context, pigID string) (models.MonitoringTiming, error) {
	pig, err := s.getPig(ctx, pigID)
	if err != nil {
		return models.MonitoringTiming{}, err
	}

	window, err := s.Window(ctx)
	if err != nil {
		return models.MonitoringTiming{}, err
	}

	history, err := s.repo.ListObservations(ctx, pig.ID)
	if err != nil {
		return models.MonitoringTiming{}, fmt.Errorf("load history of %s: %w", pig.ID, err)
	}

	now := s.now().In(window.Location)
	return window.Evaluate(now, window.LastCheckToday(now, recordedTimes(history))), nil
}

// buildReport runs the engine. A pig whose breed is missing gets a neutral
// Low report instead, since the engine needs a temperature band.
func (s *Service) buildReport(ctx context.Context, pig models.Pig, history []models.Observation) (models.RiskReport, error) {
	report := models.RiskReport{
		PigID:        pig.ID,
		PigName:      pig.Name,
		Observations: len(history),
		EvaluatedAt:  s.now().UTC(),
	}

	breed, err := s.repo.GetBreed(ctx, pig.BreedID)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("breed missing, risk not scored", zap.String("pig_id", pig.ID), zap.String("breed_id", pig.BreedID))
		report.Analysis = models.RiskAnalysis{RiskLevel: models.RiskLow}
		report.BreedMissing = true
		return report, nil
	}
	if err != nil {
		return models.RiskReport{}, fmt.Errorf("load breed %s: %w", pig.BreedID, err)
	}

	report.Analysis = s.engine.Analyze(history, breed, pig.Category)
	report.Recommendations = s.engine.Recommendations(history)
	metrics.RiskAnalyses.WithLabelValues(string(report.Analysis.RiskLevel)).Inc()
	return report, nil
}

func (s *Service) invalidate(ctx context.Context, pigID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, pigID); err != nil {
		s.logger.Warn("risk cache invalidation failed", zap.String("pig_id", pigID), zap.Error(err))
	}
}

func (s *Service) storeReport(ctx context.Context, report models.RiskReport) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, report); err != nil {
		s.logger.Warn("risk cache write failed", zap.String("pig_id", report.PigID), zap.Error(err))
	}
}

func (s *Service) getPig(ctx context.Context, pigID string) (models.Pig, error) {
	pig, err := s.repo.GetPig(ctx, pigID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Pig{}, fmt.Errorf("%w: %s", ErrPigNotFound, pigID)
	}
	if err != nil {
		return models.Pig{}, fmt.Errorf("load pig %s: %w", pigID, err)
	}
	return pig, nil
}

func (s *Service) resolveSymptoms(ctx context.Context, ids []string) ([]models.SymptomCheck, error) {
	if len(ids) == 0 {
		return []models.SymptomCheck{}, nil
	}

	items, err := s.repo.ListChecklistItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load checklist: %w", err)
	}
	catalog := make(map[string]models.ChecklistItem, len(items))
	for _, item := range items {
		catalog[item.ID] = item
	}

	seen := make(map[string]struct{}, len(ids))
	checks := make([]models.SymptomCheck, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		item, ok := catalog[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSymptom, id)
		}
		checks = append(checks, models.SymptomCheck{
			ChecklistItemID:         item.ID,
			Name:                    item.Name,
			RiskWeight:              item.RiskWeight,
			TreatmentRecommendation: item.TreatmentRecommendation,
		})
	}
	return checks, nil
}

func recordedTimes(history []models.Observation) []time.Time {
	times := make([]time.Time, 0, len(history))
	for _, obs := range history {
		times = append(times, obs.RecordedAt)
	}
	return times
}
