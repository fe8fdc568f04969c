package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/swinewatch/internal/domain/models"
)

const dateLayout = "2006-01-02"

// RiskSource provides the current risk report of every pig.
type RiskSource interface {
	HerdRisk(ctx context.Context) ([]models.RiskReport, error)
}

// Store persists generated herd reports.
type Store interface {
	SaveHerdReport(ctx context.Context, report models.HerdReport) error
}

// Exporter mirrors herd reports to the spreadsheet.
type Exporter interface {
	ExportHerdReport(ctx context.Context, report models.HerdReport) error
}

// Service builds the weekly herd risk summary.
type Service struct {
	risk     RiskSource
	store    Store
	exporter Exporter
	loc      *time.Location
	logger   *zap.Logger
}

// NewService wires a new reporting service instance. store and exporter may be nil.
func NewService(risk RiskSource, store Store, exporter Exporter, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{risk: risk, store: store, exporter: exporter, loc: loc, logger: logger}
}

// Summarize counts pigs per risk level. Pigs without a breed, without any
// observation or whose analysis failed are reported as unscored.
func Summarize(reports []models.RiskReport, now time.Time) models.HerdReport {
	summary := models.HerdReport{
		Day:       now.Format(models.DateLayout),
		Date:      now,
		Pigs:      len(reports),
		HighPigs:  []string{},
		CreatedAt: now.UTC(),
	}

	for _, r := range reports {
		if r.BreedMissing || r.Unavailable || r.Observations == 0 {
			summary.Unscored++
			continue
		}
		switch r.Analysis.RiskLevel {
		case models.RiskHigh:
			summary.High++
			summary.HighPigs = append(summary.HighPigs, label(r))
		case models.RiskModerate:
			summary.Moderate++
		default:
			summary.Low++
		}
	}
	return summary
}

// GenerateHerdReport computes, stores and exports the herd summary and
// returns it formatted for WhatsApp.
func (s *Service) GenerateHerdReport(ctx context.Context, now time.Time) (string, error) {
	reports, err := s.risk.HerdRisk(ctx)
	if err != nil {
		return "", fmt.Errorf("load herd risk: %w", err)
	}

	summary := Summarize(reports, now.In(s.loc))

	if s.store != nil {
		if err := s.store.SaveHerdReport(ctx, summary); err != nil {
			return "", fmt.Errorf("save herd report: %w", err)
		}
	}
	if s.exporter != nil {
		if err := s.exporter.ExportHerdReport(ctx, summary); err != nil {
			s.logger.Warn("herd report export failed", zap.Error(err))
		}
	}

	s.logger.Info("herd report generated",
		zap.Int("pigs", summary.Pigs),
		zap.Int("high", summary.High),
		zap.Int("moderate", summary.Moderate))

	return Format(summary), nil
}

// Format renders a herd report as a short text message.
func Format(r models.HerdReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Herd risk report (%s)\n", r.Date.Format(dateLayout))
	if r.Pigs == 0 {
		sb.WriteString("No pigs registered yet.")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Pigs: %d | High: %d | Moderate: %d | Low: %d", r.Pigs, r.High, r.Moderate, r.Low)
	if r.Unscored > 0 {
		fmt.Fprintf(&sb, " | No data: %d", r.Unscored)
	}
	if len(r.HighPigs) > 0 {
		fmt.Fprintf(&sb, "\nHigh risk: %s", strings.Join(r.HighPigs, ", "))
	}
	return sb.String()
}

func label(r models.RiskReport) string {
	if r.PigName != "" {
		return fmt.Sprintf("%s (%d)", r.PigName, r.Analysis.TotalScore)
	}
	return fmt.Sprintf("%s (%d)", r.PigID, r.Analysis.TotalScore)
}
