package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"vigilo/config"
	"vigilo/internal/domain"
	"vigilo/internal/models"
	"vigilo/internal/repository"
	"vigilo/internal/ws"
	"vigilo/pkg/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReportStore struct {
	byKey   map[string]*models.TheftReport
	created []*models.TheftReport
	nextID  uint
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{byKey: make(map[string]*models.TheftReport), nextID: 1}
}

func (f *fakeReportStore) Create(report *models.TheftReport) error {
	report.ID = f.nextID
	f.nextID++
	f.created = append(f.created, report)
	if report.IdempotencyKey != nil {
		f.byKey[*report.IdempotencyKey] = report
	}
	return nil
}

func (f *fakeReportStore) GetByIdempotencyKey(key string) (*models.TheftReport, error) {
	return f.byKey[key], nil
}

// fakeRangeFinder models the store-side range semantics over an in-memory
// user set: no location means no match, sharing-disabled is excluded, and
// the distance filter is the same Haversine the SQL computes.
type locatedUser struct {
	id       uint
	lat, lng float64
	hasLoc   bool
	sharing  bool
	verified bool
	token    string
}

type fakeRangeFinder struct {
	users       []locatedUser
	err         error
	gotExclude  uint
	gotVerified bool
}

func (f *fakeRangeFinder) UsersWithinRadius(lat, lng float64, radiusM int, excludeUserID uint, verifiedOnly bool) ([]repository.NearbyUser, error) {
	f.gotExclude = excludeUserID
	f.gotVerified = verifiedOnly
	if f.err != nil {
		return nil, f.err
	}
	var out []repository.NearbyUser
	for _, u := range f.users {
		if !u.hasLoc || !u.sharing || u.id == excludeUserID {
			continue
		}
		if verifiedOnly && !u.verified {
			continue
		}
		d := geo.DistanceM(lat, lng, u.lat, u.lng)
		if d > radiusM {
			continue
		}
		out = append(out, repository.NearbyUser{UserID: u.id, DistanceM: d, FCMToken: u.token})
	}
	return out, nil
}

type fakeAlertStore struct {
	inserted  []models.NotificationAlert
	statuses  map[string]string
	createErr error
}

func newFakeAlertStore() *fakeAlertStore {
	return &fakeAlertStore{statuses: make(map[string]string)}
}

func (f *fakeAlertStore) BatchCreate(alerts []models.NotificationAlert) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	for i := range alerts {
		alerts[i].ID = uint(len(f.inserted) + 1)
		f.inserted = append(f.inserted, alerts[i])
	}
	return int64(len(alerts)), nil
}

func (f *fakeAlertStore) SetDeliveryStatus(reportID, recipientID uint, status string) error {
	f.statuses[fmt.Sprintf("%d:%d", reportID, recipientID)] = status
	return nil
}

type fakePusher struct {
	sent    []string // tokens pushed to
	failFor map[string]bool
}

func (f *fakePusher) SendToUser(ctx context.Context, fcmToken, alertType, title, body string, data map[string]interface{}) error {
	f.sent = append(f.sent, fcmToken)
	if f.failFor[fcmToken] {
		return errors.New("push rejected")
	}
	return nil
}

func testConfig() *config.AlertConfig {
	return &config.AlertConfig{DefaultExpiry: 2 * time.Hour}
}

func newTestService(reports *fakeReportStore, finder *fakeRangeFinder, alerts *fakeAlertStore, push *fakePusher, hub *ws.Hub) *ReportService {
	var p pusher
	if push != nil {
		p = push
	}
	var b broadcaster
	if hub != nil {
		b = hub
	}
	return NewReportService(testConfig(), reports, finder, alerts, p, b)
}

func validInput() CreateReportInput {
	return CreateReportInput{
		UserID:        1,
		Category:      domain.CategoryTheft,
		VehicleNumber: "ka01ab1234",
		Lat:           12.90,
		Lng:           77.60,
		RadiusM:       2000,
	}
}

func TestSubmit_ValidationErrors(t *testing.T) {
	svc := newTestService(newFakeReportStore(), &fakeRangeFinder{}, newFakeAlertStore(), nil, nil)

	cases := []struct {
		name   string
		mutate func(*CreateReportInput)
	}{
		{"unknown category", func(in *CreateReportInput) { in.Category = "LOITERING" }},
		{"missing vehicle number", func(in *CreateReportInput) { in.VehicleNumber = "  " }},
		{"radius below bound", func(in *CreateReportInput) { in.RadiusM = 100 }},
		{"radius above bound", func(in *CreateReportInput) { in.RadiusM = 10000 }},
		{"latitude out of range", func(in *CreateReportInput) { in.Lat = 95 }},
		{"longitude out of range", func(in *CreateReportInput) { in.Lng = -200 }},
		{"expiry above theft cap", func(in *CreateReportInput) { in.ExpiryHours = 48 }},
		{"expiry below floor", func(in *CreateReportInput) { in.ExpiryHours = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, _, err := svc.Submit(in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestSubmit_StolenVehicleAllowsWeekExpiry(t *testing.T) {
	reports := newFakeReportStore()
	svc := newTestService(reports, &fakeRangeFinder{}, newFakeAlertStore(), nil, nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	in := validInput()
	in.Category = domain.CategoryStolenVehicle
	in.ExpiryHours = 168
	report, _, err := svc.Submit(in)
	require.NoError(t, err)
	assert.Equal(t, now.Add(168*time.Hour), report.ExpiresAt)
}

func TestSubmit_DefaultsAndDerivedFields(t *testing.T) {
	reports := newFakeReportStore()
	svc := newTestService(reports, &fakeRangeFinder{}, newFakeAlertStore(), nil, nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	report, sent, err := svc.Submit(validInput())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, domain.ReportStatusActive, report.Status)
	assert.Equal(t, "KA01AB1234", report.VehicleNumber)
	assert.Equal(t, now.Add(2*time.Hour), report.ExpiresAt)
	assert.Equal(t, 12.90, report.Latitude)
	assert.Equal(t, 77.60, report.Longitude)
	require.Len(t, reports.created, 1)
}

func TestSubmit_IdempotencyKeyShortCircuits(t *testing.T) {
	reports := newFakeReportStore()
	finder := &fakeRangeFinder{users: []locatedUser{
		{id: 2, lat: 12.905, lng: 77.60, hasLoc: true, sharing: true},
	}}
	alerts := newFakeAlertStore()
	svc := newTestService(reports, finder, alerts, nil, nil)

	in := validInput()
	in.IdempotencyKey = "req-abc-123"
	first, sentFirst, err := svc.Submit(in)
	require.NoError(t, err)
	assert.Equal(t, 1, sentFirst)

	second, sentSecond, err := svc.Submit(in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 0, sentSecond, "duplicate submission must not fan out again")
	assert.Len(t, reports.created, 1, "duplicate submission must not create a second report")
	assert.Len(t, alerts.inserted, 1)
}

func TestFanOut_ExcludesOwnerAndRecordsDistance(t *testing.T) {
	// User A reports at (12.90, 77.60) with radius 2000. B is ~1112 m
	// north with a stored location; C has none. Only B gets an alert.
	reports := newFakeReportStore()
	finder := &fakeRangeFinder{users: []locatedUser{
		{id: 1, lat: 12.90, lng: 77.60, hasLoc: true, sharing: true, verified: true}, // A, the owner
		{id: 2, lat: 12.91, lng: 77.60, hasLoc: true, sharing: true, verified: true, token: "tok-b"}, // B
		{id: 3, hasLoc: false, sharing: true, verified: true}, // C, no location
	}}
	alerts := newFakeAlertStore()
	push := &fakePusher{}
	svc := newTestService(reports, finder, alerts, push, nil)

	report, sent, err := svc.Submit(validInput())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, report.UserID, finder.gotExclude)

	require.Len(t, alerts.inserted, 1)
	alert := alerts.inserted[0]
	assert.Equal(t, uint(2), alert.RecipientID)
	assert.Equal(t, uint(1), alert.SenderID)
	assert.Equal(t, report.ID, alert.ReportID)
	assert.InDelta(t, 1112, alert.DistanceM, 3)
	assert.Contains(t, alert.Message, "KA01AB1234")
	assert.Equal(t, []string{"tok-b"}, push.sent)
	assert.Equal(t, domain.AlertStatusSent, alerts.statuses["1:2"])
}

func TestFanOut_CustomMessageWins(t *testing.T) {
	finder := &fakeRangeFinder{users: []locatedUser{
		{id: 2, lat: 12.905, lng: 77.60, hasLoc: true, sharing: true},
	}}
	alerts := newFakeAlertStore()
	svc := newTestService(newFakeReportStore(), finder, alerts, nil, nil)

	in := validInput()
	in.AlertMessage = "Black scooter taken from the market gate"
	_, sent, err := svc.Submit(in)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, "Black scooter taken from the market gate", alerts.inserted[0].Message)
}

func TestFanOut_NobodyInRangeIsNotAnError(t *testing.T) {
	finder := &fakeRangeFinder{users: []locatedUser{
		{id: 2, lat: 13.50, lng: 77.60, hasLoc: true, sharing: true}, // ~66 km away
	}}
	svc := newTestService(newFakeReportStore(), finder, newFakeAlertStore(), nil, nil)

	report, sent, err := svc.Submit(validInput())
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 0, sent)
}

func TestFanOut_RangeQueryFailureDoesNotFailSubmission(t *testing.T) {
	finder := &fakeRangeFinder{err: errors.New("store timeout")}
	reports := newFakeReportStore()
	svc := newTestService(reports, finder, newFakeAlertStore(), nil, nil)

	report, sent, err := svc.Submit(validInput())
	require.NoError(t, err, "fan-out failure must not roll back the report")
	require.NotNil(t, report)
	assert.Equal(t, 0, sent)
	assert.Len(t, reports.created, 1)
}

func TestFanOut_BatchInsertFailureDoesNotFailSubmission(t *testing.T) {
	finder := &fakeRangeFinder{users: []locatedUser{
		{id: 2, lat: 12.905, lng: 77.60, hasLoc: true, sharing: true},
	}}
	alerts := newFakeAlertStore()
	alerts.createErr = errors.New("deadlock")
	svc := newTestService(newFakeReportStore(), finder, alerts, nil, nil)

	report, sent, err := svc.Submit(validInput())
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 0, sent)
}

func TestFanOut_PushFailureMarksAlertFailed(t *testing.T) {
	finder := &fakeRangeFinder{users: []locatedUser{
		{id: 2, lat: 12.905, lng: 77.60, hasLoc: true, sharing: true, token: "tok-bad"},
		{id: 3, lat: 12.906, lng: 77.60, hasLoc: true, sharing: true, token: "tok-ok"},
	}}
	alerts := newFakeAlertStore()
	push := &fakePusher{failFor: map[string]bool{"tok-bad": true}}
	svc := newTestService(newFakeReportStore(), finder, alerts, push, nil)

	_, sent, err := svc.Submit(validInput())
	require.NoError(t, err)
	assert.Equal(t, 2, sent, "a failed push still counts as a written alert")
	assert.Equal(t, domain.AlertStatusFailed, alerts.statuses["1:2"])
	assert.Equal(t, domain.AlertStatusSent, alerts.statuses["1:3"])
}

func TestFanOut_MaxRecipientsCap(t *testing.T) {
	finder := &fakeRangeFinder{users: []locatedUser{
		{id: 2, lat: 12.905, lng: 77.60, hasLoc: true, sharing: true},
		{id: 3, lat: 12.906, lng: 77.60, hasLoc: true, sharing: true},
		{id: 4, lat: 12.907, lng: 77.60, hasLoc: true, sharing: true},
	}}
	alerts := newFakeAlertStore()
	svc := newTestService(newFakeReportStore(), finder, alerts, nil, nil)
	svc.cfg = &config.AlertConfig{DefaultExpiry: 2 * time.Hour, MaxRecipients: 2}

	_, sent, err := svc.Submit(validInput())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
}

func TestFanOut_PublishesToHubTopics(t *testing.T) {
	hub := ws.NewHub()
	recipient := &ws.Client{UserID: 2, Send: make(chan []byte, 4)}
	hub.Register(recipient)
	watcher := &ws.Client{UserID: 9, Send: make(chan []byte, 4)}
	hub.Register(watcher)
	hub.Subscribe(watcher, ws.ReportTopic(domain.CategoryTheft))

	finder := &fakeRangeFinder{users: []locatedUser{
		{id: 2, lat: 12.905, lng: 77.60, hasLoc: true, sharing: true},
	}}
	svc := newTestService(newFakeReportStore(), finder, newFakeAlertStore(), nil, hub)

	_, sent, err := svc.Submit(validInput())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Len(t, recipient.Send, 1, "recipient should receive the alert event")
	assert.Len(t, watcher.Send, 1, "category subscriber should receive the report event")
}

func TestSubmit_VerifiedOnlyFlagReachesRangeQuery(t *testing.T) {
	finder := &fakeRangeFinder{users: []locatedUser{
		{id: 2, lat: 12.905, lng: 77.60, hasLoc: true, sharing: true, verified: false},
	}}
	alerts := newFakeAlertStore()
	svc := newTestService(newFakeReportStore(), finder, alerts, nil, nil)
	svc.cfg = &config.AlertConfig{DefaultExpiry: 2 * time.Hour, VerifiedOnly: true}

	_, sent, err := svc.Submit(validInput())
	require.NoError(t, err)
	assert.True(t, finder.gotVerified)
	assert.Equal(t, 0, sent, "unverified users are excluded when the policy demands it")
}
