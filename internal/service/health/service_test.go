package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/swinewatch/internal/domain/models"
	"github.com/mamadbah2/swinewatch/internal/monitoring"
	"github.com/mamadbah2/swinewatch/internal/risk"
)

type fixture struct {
	svc      *Service
	repo     *memoryRepo
	cache    *memoryCache
	exporter *recordingExporter
	notifier *recordingNotifier
	loc      *time.Location
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	window, err := monitoring.NewWindow(monitoring.DefaultStartTime, monitoring.DefaultTimezone)
	require.NoError(t, err)

	f := &fixture{
		repo:     newMemoryRepo(),
		cache:    newMemoryCache(),
		exporter: &recordingExporter{},
		notifier: &recordingNotifier{},
		loc:      window.Location,
	}
	f.svc = NewService(f.repo, risk.NewEngine(), window, Options{
		Cache:    f.cache,
		Exporter: f.exporter,
		Notifier: f.notifier,
	}, nil)
	f.svc.now = func() time.Time { return f.clock }
	ids := 0
	f.svc.newID = func() string {
		ids++
		return fmt.Sprintf("id-%d", ids)
	}

	ctx := context.Background()
	require.NoError(t, f.repo.SaveBreed(ctx, models.BreedProfile{
		ID: "large-white", Name: "Large White",
		MinTempAdult: 38.0, MaxTempAdult: 39.5, MinTempYoung: 38.5, MaxTempYoung: 40.0,
	}))
	require.NoError(t, f.repo.SavePig(ctx, models.Pig{ID: "pig-1", Name: "Babe", Category: models.CategoryAdult, BreedID: "large-white"}))
	for _, item := range []models.ChecklistItem{
		{ID: "fever", Name: "Fever", RiskWeight: 5, TreatmentRecommendation: "Isolate the animal"},
		{ID: "skin", Name: "Red skin", RiskWeight: 4, TreatmentRecommendation: "Call the veterinarian"},
		{ID: "cough", Name: "Cough", RiskWeight: 2},
	} {
		require.NoError(t, f.repo.SaveChecklistItem(ctx, item))
	}
	return f
}

func (f *fixture) at(t *testing.T, date, clock string) {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, f.loc)
	require.NoError(t, err)
	f.clock = parsed
}

func TestRecordObservation_FirstCheckOfTheDay(t *testing.T) {
	f := newFixture(t)
	f.at(t, "2026-05-04", "09:00")

	obs, report, err := f.svc.RecordObservation(context.Background(), "pig-1", models.ObservationInput{
		Temperature: 41.0,
		Notes:       "lethargic",
		SymptomIDs:  []string{"fever", "skin", "fever"},
	})

	require.NoError(t, err)
	assert.Equal(t, "id-1", obs.ID)
	assert.Equal(t, "2026-05-04", obs.Date)
	assert.Equal(t, f.clock.UTC(), obs.RecordedAt)
	require.Len(t, obs.Symptoms, 2)
	assert.Equal(t, 5, obs.Symptoms[0].RiskWeight)

	assert.Equal(t, 25, report.Analysis.TemperatureScore)
	assert.Equal(t, 50, report.Analysis.SymptomScore)
	assert.Equal(t, 75, report.Analysis.TotalScore)
	assert.Equal(t, models.RiskHigh, report.Analysis.RiskLevel)
	assert.Equal(t, []string{"Isolate the animal", "Call the veterinarian"}, report.Recommendations)

	assert.Len(t, f.repo.observations, 1)
	assert.Equal(t, []string{"pig-1"}, f.cache.invalidated)
	assert.Contains(t, f.cache.reports, "pig-1")
	assert.Len(t, f.exporter.exported, 1)
	require.Len(t, f.notifier.reports, 1)
	assert.Equal(t, models.RiskHigh, f.notifier.reports[0].Analysis.RiskLevel)
}

func TestRecordObservation_SecondCheckWaitsForWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.at(t, "2026-05-04", "08:30")
	_, _, err := f.svc.RecordObservation(ctx, "pig-1", models.ObservationInput{Temperature: 39.0})
	require.NoError(t, err)

	f.at(t, "2026-05-04", "14:00")
	_, _, err = f.svc.RecordObservation(ctx, "pig-1", models.ObservationInput{Temperature: 39.0})

	require.ErrorIs(t, err, ErrMonitoringClosed)
	var closed *MonitoringClosedError
	require.True(t, errors.As(err, &closed))
	assert.Equal(t, models.StateAwaitingSecondWindow, closed.Timing.State)
	assert.Equal(t, "15:00", closed.Timing.NextMonitoringTime)

	f.at(t, "2026-05-04", "15:00")
	_, _, err = f.svc.RecordObservation(ctx, "pig-1", models.ObservationInput{Temperature: 39.0})
	require.NoError(t, err)

	f.at(t, "2026-05-04", "17:00")
	_, _, err = f.svc.RecordObservation(ctx, "pig-1", models.ObservationInput{Temperature: 39.0})
	require.ErrorIs(t, err, ErrMonitoringClosed)
	assert.Len(t, f.repo.observations, 2)
}

func TestRecordObservation_BeforeWindow(t *testing.T) {
	f := newFixture(t)
	f.at(t, "2026-05-04", "07:00")

	_, _, err := f.svc.RecordObservation(context.Background(), "pig-1", models.ObservationInput{Temperature: 39.0})

	var closed *MonitoringClosedError
	require.True(t, errors.As(err, &closed))
	assert.Equal(t, models.StateBeforeWindow, closed.Timing.State)
	assert.Equal(t, "08:00", closed.Timing.NextMonitoringTime)
	assert.Empty(t, f.repo.observations)
}

func TestRecordObservation_ValidationErrors(t *testing.T) {
	f := newFixture(t)
	f.at(t, "2026-05-04", "09:00")
	ctx := context.Background()

	_, _, err := f.svc.RecordObservation(ctx, "pig-1", models.ObservationInput{Temperature: 51})
	assert.ErrorIs(t, err, ErrInvalidTemperature)

	_, _, err = f.svc.RecordObservation(ctx, "pig-404", models.ObservationInput{Temperature: 39})
	assert.ErrorIs(t, err, ErrPigNotFound)

	_, _, err = f.svc.RecordObservation(ctx, "pig-1", models.ObservationInput{Temperature: 39, SymptomIDs: []string{"sneeze"}})
	assert.ErrorIs(t, err, ErrUnknownSymptom)

	assert.Empty(t, f.repo.observations)
}

func TestRecordObservation_UsesStoredStartTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	start, err := f.svc.SetStartTime(ctx, "06:00")
	require.NoError(t, err)
	assert.Equal(t, "06:00", start.String())

	f.at(t, "2026-05-04", "07:00")
	_, _, err = f.svc.RecordObservation(ctx, "pig-1", models.ObservationInput{Temperature: 39.0})
	require.NoError(t, err)

	_, err = f.svc.SetStartTime(ctx, "six")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRecordObservation_LowRiskStillReportedToNotifier(t *testing.T) {
	f := newFixture(t)
	f.at(t, "2026-05-04", "09:00")

	_, report, err := f.svc.RecordObservation(context.Background(), "pig-1", models.ObservationInput{Temperature: 39.0})

	require.NoError(t, err)
	assert.Equal(t, models.RiskLow, report.Analysis.RiskLevel)
	require.Len(t, f.notifier.reports, 1)
}

func TestAnalyzeRisk_ProgressionAcrossDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.at(t, "2026-05-03", "09:00")
	_, _, err := f.svc.RecordObservation(ctx, "pig-1", models.ObservationInput{Temperature: 40.5})
	require.NoError(t, err)
	f.at(t, "2026-05-04", "09:00")
	_, _, err = f.svc.RecordObservation(ctx, "pig-1", models.ObservationInput{Temperature: 40.5})
	require.NoError(t, err)

	report, err := f.svc.AnalyzeRisk(ctx, "pig-1")

	require.NoError(t, err)
	assert.Equal(t, 2, report.Observations)
	assert.Equal(t, 20, report.Analysis.TemperatureScore)
	assert.Equal(t, 10, report.Analysis.ProgressionScore)
	assert.Equal(t, 30, report.Analysis.TotalScore)
}

func TestAnalyzeRisk_MissingBreedIsNeutral(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.SavePig(ctx, models.Pig{ID: "pig-2", Name: "Wilbur", Category: models.CategoryYoung, BreedID: "gone"}))

	report, err := f.svc.AnalyzeRisk(ctx, "pig-2")

	require.NoError(t, err)
	assert.True(t, report.BreedMissing)
	assert.Equal(t, models.RiskAnalysis{RiskLevel: models.RiskLow}, report.Analysis)
}

func TestAnalyzeRisk_ServesFromCache(t *testing.T) {
	f := newFixture(t)
	cached := models.RiskReport{PigID: "pig-9", Analysis: models.RiskAnalysis{TotalScore: 42, RiskLevel: models.RiskModerate}}
	f.cache.reports["pig-9"] = cached

	report, err := f.svc.AnalyzeRisk(context.Background(), "pig-9")

	require.NoError(t, err)
	assert.Equal(t, cached, report)
}

func TestAnalyzeRisk_UnknownPig(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AnalyzeRisk(context.Background(), "pig-404")

	assert.ErrorIs(t, err, ErrPigNotFound)
}

func TestMonitoringStatus_QuotaExhausted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.at(t, "2026-05-04", "08:30")
	_, _, err := f.svc.RecordObservation(ctx, "pig-1", models.ObservationInput{Temperature: 39.0})
	require.NoError(t, err)
	f.at(t, "2026-05-04", "15:30")
	_, _, err = f.svc.RecordObservation(ctx, "pig-1", models.ObservationInput{Temperature: 39.0})
	require.NoError(t, err)

	f.at(t, "2026-05-04", "16:00")
	timing, err := f.svc.MonitoringStatus(ctx, "pig-1")

	require.NoError(t, err)
	assert.False(t, timing.CanMonitor)
	assert.Equal(t, models.StateAfterDayEnd, timing.State)
	assert.Equal(t, "08:00", timing.NextMonitoringTime)
	require.NotNil(t, timing.TimeRemaining)
	assert.Equal(t, 16*time.Hour, *timing.TimeRemaining)
}

func TestHerdRisk(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.SavePig(ctx, models.Pig{ID: "pig-2", Name: "Wilbur", Category: models.CategoryYoung, BreedID: "large-white"}))

	reports, err := f.svc.HerdRisk(ctx)

	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "Babe", reports[0].PigName)
	assert.Equal(t, "Wilbur", reports[1].PigName)
}

func TestRegisterCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.at(t, "2026-05-04", "09:00")

	pig, err := f.svc.RegisterPig(ctx, models.Pig{Name: "Napoleon", Category: models.CategoryAdult, BreedID: "large-white"})
	require.NoError(t, err)
	assert.NotEmpty(t, pig.ID)
	assert.Equal(t, f.clock.UTC(), pig.CreatedAt)

	_, err = f.svc.RegisterPig(ctx, models.Pig{Category: "Elder", BreedID: "large-white"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.RegisterPig(ctx, models.Pig{Category: models.CategoryYoung, BreedID: "duroc"})
	assert.ErrorIs(t, err, ErrBreedNotFound)

	_, err = f.svc.RegisterBreed(ctx, models.BreedProfile{Name: "Duroc", MinTempAdult: 39.5, MaxTempAdult: 38.0, MinTempYoung: 38.5, MaxTempYoung: 40.0})
	assert.ErrorIs(t, err, ErrInvalidInput)

	breed, err := f.svc.RegisterBreed(ctx, models.BreedProfile{Name: "Duroc", MinTempAdult: 38.0, MaxTempAdult: 39.5, MinTempYoung: 38.5, MaxTempYoung: 40.0})
	require.NoError(t, err)
	assert.NotEmpty(t, breed.ID)

	_, err = f.svc.RegisterChecklistItem(ctx, models.ChecklistItem{Name: "Vomiting", RiskWeight: 6})
	assert.ErrorIs(t, err, ErrInvalidInput)

	item, err := f.svc.RegisterChecklistItem(ctx, models.ChecklistItem{Name: "Vomiting", RiskWeight: 3})
	require.NoError(t, err)
	items, err := f.svc.ListChecklistItems(ctx)
	require.NoError(t, err)
	assert.Contains(t, items, item)
}

func TestRecordObservation_ConcurrentSubmitsTakeOneSlot(t *testing.T) {
	f := newFixture(t)
	f.repo.listDelay = 20 * time.Millisecond
	f.at(t, "2026-05-04", "09:00")

	const submits = 5
	var wg sync.WaitGroup
	errs := make([]error, submits)
	for i := 0; i < submits; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = f.svc.RecordObservation(context.Background(), "pig-1", models.ObservationInput{Temperature: 39.0})
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
			continue
		}
		assert.ErrorIs(t, err, ErrMonitoringClosed)
	}
	assert.Equal(t, 1, accepted)
	assert.Len(t, f.repo.observations, 1)
}

func TestRecordObservation_DateIsMonitoringDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.SetStartTime(ctx, "20:00")
	require.NoError(t, err)

	f.at(t, "2026-05-04", "21:00")
	first, _, err := f.svc.RecordObservation(ctx, "pig-1", models.ObservationInput{Temperature: 40.5})
	require.NoError(t, err)

	f.at(t, "2026-05-05", "03:30")
	second, report, err := f.svc.RecordObservation(ctx, "pig-1", models.ObservationInput{Temperature: 40.5})
	require.NoError(t, err)

	assert.Equal(t, "2026-05-04", first.Date)
	assert.Equal(t, "2026-05-04", second.Date)
	assert.Equal(t, 20, report.Analysis.TemperatureScore)
	assert.Equal(t, 0, report.Analysis.ProgressionScore)
}

func TestRegisterBreed_DropsCachedReportsOfItsPigs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.SavePig(ctx, models.Pig{ID: "pig-2", Name: "Wilbur", Category: models.CategoryAdult, BreedID: "duroc"}))
	f.cache.reports["pig-2"] = models.RiskReport{PigID: "pig-2"}

	f.at(t, "2026-05-04", "09:00")
	_, _, err := f.svc.RecordObservation(ctx, "pig-1", models.ObservationInput{Temperature: 41.0})
	require.NoError(t, err)

	report, err := f.svc.AnalyzeRisk(ctx, "pig-1")
	require.NoError(t, err)
	require.Equal(t, 25, report.Analysis.TemperatureScore)

	_, err = f.svc.RegisterBreed(ctx, models.BreedProfile{
		ID: "large-white", Name: "Large White",
		MinTempAdult: 39.0, MaxTempAdult: 41.5, MinTempYoung: 39.5, MaxTempYoung: 42.0,
	})
	require.NoError(t, err)

	assert.NotContains(t, f.cache.reports, "pig-1")
	assert.Contains(t, f.cache.reports, "pig-2")

	report, err = f.svc.AnalyzeRisk(ctx, "pig-1")
	require.NoError(t, err)
	assert.Equal(t, 0, report.Analysis.TemperatureScore)
}

func TestRegisterPig_DropsItsCachedReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cache.reports["pig-1"] = models.RiskReport{PigID: "pig-1", Analysis: models.RiskAnalysis{TotalScore: 80, RiskLevel: models.RiskHigh}}

	_, err := f.svc.RegisterPig(ctx, models.Pig{ID: "pig-1", Name: "Babe", Category: models.CategoryYoung, BreedID: "large-white"})
	require.NoError(t, err)

	assert.NotContains(t, f.cache.reports, "pig-1")
	report, err := f.svc.AnalyzeRisk(ctx, "pig-1")
	require.NoError(t, err)
	assert.Equal(t, models.RiskLow, report.Analysis.RiskLevel)
}

func TestHerdRisk_FailedPigIsUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.SavePig(ctx, models.Pig{ID: "pig-2", Name: "Wilbur", Category: models.CategoryYoung, BreedID: "berkshire"}))
	f.repo.brokenBreeds = map[string]bool{"berkshire": true}

	reports, err := f.svc.HerdRisk(ctx)

	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.False(t, reports[0].Unavailable)
	assert.Equal(t, "Wilbur", reports[1].PigName)
	assert.True(t, reports[1].Unavailable)
}
