package whatsapp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/swinewatch/internal/config"
	"github.com/mamadbah2/swinewatch/internal/domain/models"
	"github.com/mamadbah2/swinewatch/internal/metrics"
	"github.com/mamadbah2/swinewatch/pkg/clients/anthropic"
	client "github.com/mamadbah2/swinewatch/pkg/clients/whatsapp"
)

const sendTimeout = 10 * time.Second

// MessagingService describes the outbound messages the rest of the app sends.
type MessagingService interface {
	NotifyHighRisk(ctx context.Context, pig models.Pig, report models.RiskReport, latest models.Observation) error
	Broadcast(ctx context.Context, message string) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg     config.WhatsAppConfig
	client  client.Client
	advisor anthropic.Client
	alerts  *AlertTracker
	logger  *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance. advisor may be nil, in
// which case alerts use the built-in template.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, advisor anthropic.Client, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:     cfg,
		client:  client,
		advisor: advisor,
		alerts:  NewAlertTracker(),
		logger:  logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// NotifyHighRisk alerts the farm contact when a pig scores High. Other levels
// only reset the per-day alert memory.
func (s *MetaWhatsAppService) NotifyHighRisk(ctx context.Context, pig models.Pig, report models.RiskReport, latest models.Observation) error {
	if report.Analysis.RiskLevel != models.RiskHigh {
		s.alerts.Clear(pig.ID)
		return nil
	}
	if !s.alerts.TryMark(pig.ID, latest.Date) {
		s.logger.Debug("high risk already alerted today", zap.String("pig_id", pig.ID), zap.String("date", latest.Date))
		return nil
	}

	message := s.draftAlert(ctx, pig, report, latest)
	if err := s.send(ctx, s.cfg.AlertRecipient, message, false); err != nil {
		s.alerts.Release(pig.ID, latest.Date)
		return fmt.Errorf("send high risk alert for %s: %w", pig.ID, err)
	}

	metrics.AlertsSent.WithLabelValues("high_risk").Inc()
	s.logger.Info("high risk alert sent",
		zap.String("pig_id", pig.ID),
		zap.Int("total_score", report.Analysis.TotalScore))
	return nil
}

// Broadcast sends message to the configured farm contact.
func (s *MetaWhatsAppService) Broadcast(ctx context.Context, message string) error {
	if err := s.send(ctx, s.cfg.AlertRecipient, message, false); err != nil {
		return err
	}
	metrics.AlertsSent.WithLabelValues("broadcast").Inc()
	return nil
}

// SendOutbound lets operators push a manual message via HTTP.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	if err := s.send(ctx, req.To, req.Message, req.PreviewURL); err != nil {
		return err
	}
	metrics.AlertsSent.WithLabelValues("manual").Inc()
	return nil
}

func (s *MetaWhatsAppService) send(ctx context.Context, to, body string, previewURL bool) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         to,
		Body:       body,
		PreviewURL: previewURL,
	})
	return err
}

func (s *MetaWhatsAppService) draftAlert(ctx context.Context, pig models.Pig, report models.RiskReport, latest models.Observation) string {
	if s.advisor == nil {
		return AlertTemplate(pig, report, latest)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	text, err := s.advisor.DraftAlert(ctxWithTimeout, anthropic.AlertBrief{
		PigName:         displayName(pig),
		Category:        string(pig.Category),
		Temperature:     latest.Temperature,
		TotalScore:      report.Analysis.TotalScore,
		RiskLevel:       string(report.Analysis.RiskLevel),
		Symptoms:        symptomNames(latest),
		Recommendations: report.Recommendations,
	})
	if err != nil {
		s.logger.Warn("ai alert draft failed, using template", zap.Error(err))
		return AlertTemplate(pig, report, latest)
	}
	return text
}

// AlertTemplate renders the default high-risk alert.
func AlertTemplate(pig models.Pig, report models.RiskReport, latest models.Observation) string {
	a := report.Analysis
	var sb strings.Builder
	fmt.Fprintf(&sb, "ASF risk alert: %s (%s)\n", displayName(pig), pig.Category)
	fmt.Fprintf(&sb, "Risk %s, score %d/100 (temperature %d, symptoms %d, progression %d)\n",
		a.RiskLevel, a.TotalScore, a.TemperatureScore, a.SymptomScore, a.ProgressionScore)
	fmt.Fprintf(&sb, "Latest check %s: %.1f C\n", latest.Date, latest.Temperature)
	if names := symptomNames(latest); len(names) > 0 {
		fmt.Fprintf(&sb, "Symptoms: %s\n", strings.Join(names, ", "))
	}
	if len(report.Recommendations) > 0 {
		sb.WriteString("Actions:\n")
		for _, r := range report.Recommendations {
			fmt.Fprintf(&sb, "- %s\n", r)
		}
	}
	sb.WriteString("Isolate the animal and contact your veterinarian.")
	return sb.String()
}

func displayName(pig models.Pig) string {
	if pig.Name != "" {
		return pig.Name
	}
	return pig.ID
}

func symptomNames(obs models.Observation) []string {
	names := make([]string, 0, len(obs.Symptoms))
	for _, s := range obs.Symptoms {
		names = append(names, s.Name)
	}
	return names
}

// NopMessagingService is used when WhatsApp credentials are not configured.
type NopMessagingService struct {
	Logger *zap.Logger
}

func (n NopMessagingService) log(what string) {
	if n.Logger != nil {
		n.Logger.Debug("whatsapp disabled, message dropped", zap.String("kind", what))
	}
}

func (n NopMessagingService) NotifyHighRisk(context.Context, models.Pig, models.RiskReport, models.Observation) error {
	n.log("high_risk")
	return nil
}

func (n NopMessagingService) Broadcast(context.Context, string) error {
	n.log("broadcast")
	return nil
}

func (n NopMessagingService) SendOutbound(context.Context, models.OutboundMessageRequest) error {
	return ErrDisabled
}
