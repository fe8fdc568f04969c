package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mamadbah2/swinewatch/internal/domain/models"
)

const (
	observationsWriteRange = "Observations!A:F"
	herdReportsWriteRange  = "HerdReports!A:G"
)

// Exporter mirrors observations and herd reports into the farm spreadsheet.
type Exporter struct {
	repo Repository
	loc  *time.Location
}

// NewExporter wraps a sheet repository. Timestamps are written in loc.
func NewExporter(repo Repository, loc *time.Location) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	return &Exporter{repo: repo, loc: loc}
}

// ExportObservation appends one observation row.
func (e *Exporter) ExportObservation(ctx context.Context, pig models.Pig, obs models.Observation) error {
	names := make([]string, 0, len(obs.Symptoms))
	for _, s := range obs.Symptoms {
		names = append(names, s.Name)
	}

	values := []interface{}{
		obs.Date,
		obs.RecordedAt.In(e.loc).Format("15:04"),
		pig.Name,
		obs.Temperature,
		strings.Join(names, ", "),
		obs.Notes,
	}
	return e.repo.WriteRow(ctx, observationsWriteRange, values)
}

// ExportHerdReport appends one weekly summary row unless a row for the same
// date is already present, so a re-run job does not duplicate it.
func (e *Exporter) ExportHerdReport(ctx context.Context, report models.HerdReport) error {
	date := report.Day
	if date == "" {
		date = report.Date.In(e.loc).Format(models.DateLayout)
	}

	rows, err := e.repo.ReadRange(ctx, herdReportsWriteRange)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if len(row) > 0 && fmt.Sprint(row[0]) == date {
			return nil
		}
	}

	values := []interface{}{
		date,
		report.Pigs,
		report.Low,
		report.Moderate,
		report.High,
		report.Unscored,
		strings.Join(report.HighPigs, ", "),
	}
	return e.repo.WriteRow(ctx, herdReportsWriteRange, values)
}
