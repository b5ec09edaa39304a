package reminder

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afyacheck/screening-server/internal/domain"
	"github.com/afyacheck/screening-server/internal/followup"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeStore is an in-memory followup.Store for scheduler tests.
type fakeStore struct {
	mu      sync.Mutex
	items   []*followup.FollowUp
	listErr error
}

func (s *fakeStore) Save(ctx context.Context, fu *followup.FollowUp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fu.ID = int64(len(s.items) + 1)
	s.items = append(s.items, fu)
	return nil
}

func (s *fakeStore) Get(ctx context.Context, patientID string, dueDate time.Time) (*followup.FollowUp, error) {
	return nil, nil
}

func (s *fakeStore) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*followup.FollowUp, error) {
	return nil, nil
}

func (s *fakeStore) ListDue(ctx context.Context, asOf time.Time) ([]*followup.FollowUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var due []*followup.FollowUp
	for _, fu := range s.items {
		if !fu.Sent && !fu.DueDate.After(asOf) {
			due = append(due, fu)
		}
	}
	return due, nil
}

func (s *fakeStore) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, fu := range s.items {
		if fu.ID == id {
			fu.Sent = true
			fu.SentAt = sentAt
		}
	}
	return nil
}

func (s *fakeStore) Count(ctx context.Context) (int64, error) { return int64(len(s.items)), nil }
func (s *fakeStore) Delete(ctx context.Context, id int64) error { return nil }
func (s *fakeStore) ExportJSON(ctx context.Context, w io.Writer) error { return nil }
func (s *fakeStore) ImportJSON(ctx context.Context, r io.Reader) (int, int, error) {
	return 0, 0, nil
}
func (s *fakeStore) Close() error { return nil }

// fakeSender records sends and can fail specific phone numbers.
type fakeSender struct {
	mu     sync.Mutex
	sent   []string
	failOn map[string]bool
}

func (f *fakeSender) Send(ctx context.Context, phone, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn[phone] {
		return errors.New("gateway rejected message")
	}
	f.sent = append(f.sent, phone)
	return nil
}

var _ domain.SMSSender = (*fakeSender)(nil)

func testConfig() domain.ReminderConfig {
	return domain.ReminderConfig{
		Enabled:   true,
		DailyHour: 9,
		Message:   "Your screening follow-up is due.",
	}
}

func TestSweepSendsDueReminders(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &followup.FollowUp{
		PatientID: "p-1", Phone: "+254700000001", DueDate: now.AddDate(0, 0, -1),
	}))
	require.NoError(t, store.Save(ctx, &followup.FollowUp{
		PatientID: "p-2", Phone: "+254700000002", DueDate: now.AddDate(0, 1, 0),
	}))

	sender := &fakeSender{}
	s := NewScheduler(testLogger(), store, sender, testConfig())
	s.now = func() time.Time { return now }

	s.Sweep(ctx)

	assert.Equal(t, []string{"+254700000001"}, sender.sent)
	assert.True(t, store.items[0].Sent)
	assert.False(t, store.items[1].Sent)
}

func TestSweepLeavesFailedSendsUnsent(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &followup.FollowUp{
		PatientID: "p-1", Phone: "+254700000001", DueDate: now.AddDate(0, 0, -1),
	}))
	require.NoError(t, store.Save(ctx, &followup.FollowUp{
		PatientID: "p-2", Phone: "+254700000002", DueDate: now.AddDate(0, 0, -1),
	}))

	sender := &fakeSender{failOn: map[string]bool{"+254700000001": true}}
	s := NewScheduler(testLogger(), store, sender, testConfig())
	s.now = func() time.Time { return now }

	s.Sweep(ctx)

	// The failed reminder stays unsent for the next sweep.
	assert.False(t, store.items[0].Sent)
	assert.True(t, store.items[1].Sent)

	// Retry succeeds once the gateway recovers.
	sender.failOn = nil
	s.Sweep(ctx)
	assert.True(t, store.items[0].Sent)
}

func TestSweepUsesDefaultMessage(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &followup.FollowUp{
		PatientID: "p-1", Phone: "+254700000001", DueDate: now, Message: "",
	}))

	var gotMessage string
	sender := &captureSender{capture: &gotMessage}
	s := NewScheduler(testLogger(), store, sender, testConfig())
	s.now = func() time.Time { return now }

	s.Sweep(ctx)

	assert.Equal(t, "Your screening follow-up is due.", gotMessage)
}

type captureSender struct {
	capture *string
}

func (c *captureSender) Send(ctx context.Context, phone, message string) error {
	*c.capture = message
	return nil
}

func TestNextRunRollsToTomorrow(t *testing.T) {
	s := NewScheduler(testLogger(), &fakeStore{}, &fakeSender{}, testConfig())

	// After today's hour has passed, the next run is tomorrow.
	s.now = func() time.Time { return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC) }
	assert.Equal(t, time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC), s.nextRun())

	// Before today's hour, the next run is today.
	s.now = func() time.Time { return time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC) }
	assert.Equal(t, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), s.nextRun())
}

func TestRunDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	s := NewScheduler(testLogger(), &fakeStore{}, &fakeSender{}, cfg)

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled scheduler should return immediately")
	}
}
