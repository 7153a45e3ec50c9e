package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"vigilo/config"
	"vigilo/internal/domain"
	"vigilo/internal/models"
	"vigilo/internal/repository"
	"vigilo/internal/ws"
)

// Narrow store interfaces so the fan-out path can be exercised without a
// database.
type reportStore interface {
	Create(report *models.TheftReport) error
	GetByIdempotencyKey(key string) (*models.TheftReport, error)
}

type rangeFinder interface {
	UsersWithinRadius(lat, lng float64, radiusM int, excludeUserID uint, verifiedOnly bool) ([]repository.NearbyUser, error)
}

type alertStore interface {
	BatchCreate(alerts []models.NotificationAlert) (int64, error)
	SetDeliveryStatus(reportID, recipientID uint, status string) error
}

type pusher interface {
	SendToUser(ctx context.Context, fcmToken, alertType, title, body string, data map[string]interface{}) error
}

type broadcaster interface {
	Publish(topic string, ev ws.Event)
}

// ReportService owns report submission and the alert fan-out that follows it.
type ReportService struct {
	cfg       *config.AlertConfig
	reports   reportStore
	locations rangeFinder
	alerts    alertStore
	fcm       pusher
	hub       broadcaster
	now       func() time.Time
}

func NewReportService(cfg *config.AlertConfig, reports reportStore, locations rangeFinder, alerts alertStore, fcm pusher, hub broadcaster) *ReportService {
	return &ReportService{
		cfg:       cfg,
		reports:   reports,
		locations: locations,
		alerts:    alerts,
		fcm:       fcm,
		hub:       hub,
		now:       time.Now,
	}
}

// CreateReportInput carries everything the write API accepts. There is no
// geometry field on purpose: the stored point is always derived from Lat/Lng
// server-side, and expiry from ExpiryHours. Client-computed geometry is never
// trusted.
type CreateReportInput struct {
	UserID         uint
	Category       string
	VehicleNumber  string
	Description    string
	PhotoURL       string
	Lat            float64
	Lng            float64
	RadiusM        int
	ExpiryHours    int // 0 = category default
	AlertMessage   string
	IdempotencyKey string
}

func (in *CreateReportInput) validate() error {
	if !domain.ValidCategory(in.Category) {
		return fmt.Errorf("%w: unknown category %q", domain.ErrValidation, in.Category)
	}
	if strings.TrimSpace(in.VehicleNumber) == "" {
		return fmt.Errorf("%w: vehicle_number is required", domain.ErrValidation)
	}
	if in.Lat < -90 || in.Lat > 90 || in.Lng < -180 || in.Lng > 180 {
		return fmt.Errorf("%w: coordinates out of range", domain.ErrValidation)
	}
	if in.RadiusM < domain.MinRadiusM || in.RadiusM > domain.MaxRadiusM {
		return fmt.Errorf("%w: radius_m must be between %d and %d", domain.ErrValidation, domain.MinRadiusM, domain.MaxRadiusM)
	}
	if in.ExpiryHours != 0 {
		if in.ExpiryHours < domain.MinExpiryHours || in.ExpiryHours > domain.MaxExpiryForCategory(in.Category) {
			return fmt.Errorf("%w: expiry_hours must be between %d and %d for %s",
				domain.ErrValidation, domain.MinExpiryHours, domain.MaxExpiryForCategory(in.Category), in.Category)
		}
	}
	return nil
}

// Submit validates and persists a report, then fans out alerts to every
// eligible user inside the report radius. The report write is the
// transaction boundary: once it commits, fan-out trouble is reported through
// the alert count, never by failing the submission. A repeated idempotency
// key short-circuits to the already-created report with no second fan-out.
func (s *ReportService) Submit(in CreateReportInput) (*models.TheftReport, int, error) {
	if err := in.validate(); err != nil {
		return nil, 0, err
	}
	if in.IdempotencyKey != "" {
		existing, err := s.reports.GetByIdempotencyKey(in.IdempotencyKey)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: idempotency lookup: %v", domain.ErrStoreUnavailable, err)
		}
		if existing != nil {
			return existing, 0, nil
		}
	}

	expiry := time.Duration(in.ExpiryHours) * time.Hour
	if expiry == 0 {
		expiry = s.cfg.DefaultExpiry
	}
	report := &models.TheftReport{
		UserID:        in.UserID,
		Category:      in.Category,
		VehicleNumber: strings.ToUpper(strings.TrimSpace(in.VehicleNumber)),
		Description:   in.Description,
		PhotoURL:      in.PhotoURL,
		Latitude:      in.Lat,
		Longitude:     in.Lng,
		RadiusM:       in.RadiusM,
		AlertMessage:  strings.TrimSpace(in.AlertMessage),
		Status:        domain.ReportStatusActive,
		ExpiresAt:     s.now().Add(expiry),
	}
	if in.IdempotencyKey != "" {
		key := in.IdempotencyKey
		report.IdempotencyKey = &key
	}
	if err := s.reports.Create(report); err != nil {
		return nil, 0, fmt.Errorf("%w: create report: %v", domain.ErrStoreUnavailable, err)
	}

	sent := s.FanOut(report)
	return report, sent, nil
}

// FanOut runs the range query centered on the report and writes one alert per
// recipient as a single batch, then pushes each row over WebSocket and FCM.
// Every failure here is non-fatal: the report is already committed, so the
// worst case is fewer alerts than eligible users. Returns the number of
// alerts actually inserted; zero is a legitimate outcome.
func (s *ReportService) FanOut(report *models.TheftReport) int {
	recipients, err := s.locations.UsersWithinRadius(
		report.Latitude, report.Longitude, report.RadiusM, report.UserID, s.cfg.VerifiedOnly)
	if err != nil {
		log.Printf("[fanout] range query failed for report %d: %v", report.ID, err)
		return 0
	}
	if s.cfg.MaxRecipients > 0 && len(recipients) > s.cfg.MaxRecipients {
		recipients = recipients[:s.cfg.MaxRecipients]
	}
	if len(recipients) == 0 {
		return 0
	}

	message := report.AlertMessage
	if message == "" {
		message = report.DefaultAlertMessage()
	}
	alerts := make([]models.NotificationAlert, 0, len(recipients))
	for _, rec := range recipients {
		alerts = append(alerts, models.NotificationAlert{
			ReportID:    report.ID,
			RecipientID: rec.UserID,
			SenderID:    report.UserID,
			Type:        domain.AlertTypeTheft,
			Message:     message,
			DistanceM:   rec.DistanceM,
			Status:      domain.AlertStatusPending,
		})
	}
	inserted, err := s.alerts.BatchCreate(alerts)
	if err != nil {
		log.Printf("[fanout] batch insert failed for report %d: %v", report.ID, err)
		return 0
	}

	if s.hub != nil {
		s.hub.Publish(ws.ReportTopic(report.Category), ws.Event{Event: "report.created", Data: report})
	}
	for i, rec := range recipients {
		s.deliver(report, &alerts[i], rec.FCMToken)
	}
	return int(inserted)
}

// deliver pushes one committed alert to its recipient and records the
// outcome. WebSocket delivery is best-effort by construction; only an FCM
// error marks the row FAILED.
func (s *ReportService) deliver(report *models.TheftReport, alert *models.NotificationAlert, fcmToken string) {
	if s.hub != nil {
		s.hub.Publish(ws.AlertTopic(alert.RecipientID), ws.Event{Event: "alert.created", Data: alert})
	}
	status := domain.AlertStatusSent
	if s.fcm != nil {
		err := s.fcm.SendToUser(context.Background(), fcmToken, alert.Type, "Theft alert near you", alert.Message, map[string]interface{}{
			"report_id":  report.ID,
			"alert_id":   alert.ID,
			"distance_m": alert.DistanceM,
		})
		if err != nil {
			status = domain.AlertStatusFailed
		}
	}
	if err := s.alerts.SetDeliveryStatus(alert.ReportID, alert.RecipientID, status); err != nil {
		log.Printf("[fanout] delivery status update failed for report %d recipient %d: %v",
			alert.ReportID, alert.RecipientID, err)
	}
}

// PublishStatusChange pushes a status update event to category subscribers.
// Called by the handler after a successful owner status change.
func (s *ReportService) PublishStatusChange(report *models.TheftReport) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(ws.ReportTopic(report.Category), ws.Event{Event: "report.updated", Data: report})
}
