package health

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/mamadbah2/swinewatch/internal/domain/models"
	"github.com/mamadbah2/swinewatch/internal/repository"
)

type memoryRepo struct {
	mu           sync.Mutex
	pigs         map[string]models.Pig
	breeds       map[string]models.BreedProfile
	checklist    map[string]models.ChecklistItem
	observations []models.Observation
	startTime    string
	listDelay    time.Duration
	brokenBreeds map[string]bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		pigs:      map[string]models.Pig{},
		breeds:    map[string]models.BreedProfile{},
		checklist: map[string]models.ChecklistItem{},
	}
}

func (r *memoryRepo) SavePig(_ context.Context, pig models.Pig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pigs[pig.ID] = pig
	return nil
}

func (r *memoryRepo) GetPig(_ context.Context, id string) (models.Pig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pig, ok := r.pigs[id]
	if !ok {
		return models.Pig{}, repository.ErrNotFound
	}
	return pig, nil
}

func (r *memoryRepo) ListPigs(context.Context) ([]models.Pig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pigs := make([]models.Pig, 0, len(r.pigs))
	for _, p := range r.pigs {
		pigs = append(pigs, p)
	}
	sort.Slice(pigs, func(i, j int) bool { return pigs[i].Name < pigs[j].Name })
	return pigs, nil
}

func (r *memoryRepo) SaveBreed(_ context.Context, breed models.BreedProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breeds[breed.ID] = breed
	return nil
}

func (r *memoryRepo) GetBreed(_ context.Context, id string) (models.BreedProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.brokenBreeds[id] {
		return models.BreedProfile{}, errors.New("breed store unavailable")
	}
	breed, ok := r.breeds[id]
	if !ok {
		return models.BreedProfile{}, repository.ErrNotFound
	}
	return breed, nil
}

func (r *memoryRepo) SaveChecklistItem(_ context.Context, item models.ChecklistItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checklist[item.ID] = item
	return nil
}

func (r *memoryRepo) ListChecklistItems(context.Context) ([]models.ChecklistItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]models.ChecklistItem, 0, len(r.checklist))
	for _, item := range r.checklist {
		items = append(items, item)
	}
	return items, nil
}

func (r *memoryRepo) SaveObservation(_ context.Context, obs models.Observation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observations = append(r.observations, obs)
	return nil
}

func (r *memoryRepo) ListObservations(_ context.Context, pigID string) ([]models.Observation, error) {
	if r.listDelay > 0 {
		time.Sleep(r.listDelay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Observation
	for i := len(r.observations) - 1; i >= 0; i-- {
		if r.observations[i].PigID == pigID {
			out = append(out, r.observations[i])
		}
	}
	return out, nil
}

func (r *memoryRepo) GetStartTime(context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startTime == "" {
		return "", repository.ErrNotFound
	}
	return r.startTime, nil
}

func (r *memoryRepo) SetStartTime(_ context.Context, startTime string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startTime = startTime
	return nil
}

type memoryCache struct {
	mu          sync.Mutex
	reports     map[string]models.RiskReport
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{reports: map[string]models.RiskReport{}}
}

func (c *memoryCache) Get(_ context.Context, pigID string) (models.RiskReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	report, ok := c.reports[pigID]
	if !ok {
		return models.RiskReport{}, repository.ErrNotFound
	}
	return report, nil
}

func (c *memoryCache) Set(_ context.Context, report models.RiskReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[report.PigID] = report
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, pigID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, pigID)
	delete(c.reports, pigID)
	return nil
}

type recordingExporter struct {
	mu       sync.Mutex
	exported []models.Observation
}

func (e *recordingExporter) ExportObservation(_ context.Context, _ models.Pig, obs models.Observation) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.exported = append(e.exported, obs)
	return nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	reports []models.RiskReport
}

func (n *recordingNotifier) NotifyHighRisk(_ context.Context, _ models.Pig, report models.RiskReport, _ models.Observation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = append(n.reports, report)
	return nil
}
