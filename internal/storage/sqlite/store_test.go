package sqlite

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitcoach/internal/constants"
	"github.com/julianstephens/habitcoach/internal/models"
	"github.com/julianstephens/habitcoach/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := s.Init(); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedUser(t *testing.T, s *Store) models.User {
	t.Helper()
	u := models.User{
		ID:           uuid.NewString(),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "hash",
		Timezone:     "UTC",
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.AddUser(u); err != nil {
		t.Fatalf("AddUser() error: %v", err)
	}
	return u
}

func seedHabit(t *testing.T, s *Store, userID string) models.Habit {
	t.Helper()
	h := models.Habit{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       "Meditate",
		Type:       constants.HabitTypeBinary,
		Difficulty: constants.DifficultyMedium,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.AddHabit(h); err != nil {
		t.Fatalf("AddHabit() error: %v", err)
	}
	return h
}

func TestUserRoundTrip(t *testing.T) {
	s := newTestStore(t)
	u := seedUser(t, s)

	got, err := s.GetUser(u.ID)
	if err != nil {
		t.Fatalf("GetUser() error: %v", err)
	}
	if got.Email != u.Email || !got.Active {
		t.Errorf("GetUser() = %+v, want %+v", got, u)
	}

	byEmail, err := s.GetUserByEmail(u.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail() error: %v", err)
	}
	if byEmail.ID != u.ID {
		t.Errorf("GetUserByEmail() id = %s, want %s", byEmail.ID, u.ID)
	}

	now := time.Now().UTC().Truncate(time.Second)
	got.LastLogin = &now
	got.RefreshTokenHash = "refresh-hash"
	if err := s.UpdateUser(got); err != nil {
		t.Fatalf("UpdateUser() error: %v", err)
	}
	updated, err := s.GetUser(u.ID)
	if err != nil {
		t.Fatalf("GetUser() after update error: %v", err)
	}
	if updated.LastLogin == nil || !updated.LastLogin.Equal(now) {
		t.Errorf("LastLogin = %v, want %v", updated.LastLogin, now)
	}
	if updated.RefreshTokenHash != "refresh-hash" {
		t.Errorf("RefreshTokenHash = %q, want refresh-hash", updated.RefreshTokenHash)
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetUser("nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetUser() error = %v, want ErrNotFound", err)
	}
}

func TestUpsertEntryKeepsOneRowPerDay(t *testing.T) {
	s := newTestStore(t)
	u := seedUser(t, s)
	h := seedHabit(t, s, u.ID)

	now := time.Now().UTC()
	entry := models.Entry{
		ID: uuid.NewString(), HabitID: h.ID, UserID: u.ID,
		Day: "2025-06-05", Completed: true, CreatedAt: now, UpdatedAt: now,
	}
	updated, err := s.UpsertEntry(entry)
	if err != nil {
		t.Fatalf("UpsertEntry() error: %v", err)
	}
	if updated {
		t.Error("first upsert reported an update")
	}

	// Same day with a different payload replaces in place.
	second := entry
	second.ID = uuid.NewString()
	second.Completed = false
	second.Note = "skipped"
	updated, err = s.UpsertEntry(second)
	if err != nil {
		t.Fatalf("second UpsertEntry() error: %v", err)
	}
	if !updated {
		t.Error("second upsert not reported as an update")
	}

	entries, err := s.GetAllEntries(h.ID)
	if err != nil {
		t.Fatalf("GetAllEntries() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	got := entries[0]
	if got.ID != entry.ID {
		t.Errorf("upsert replaced the row id: %s, want original %s", got.ID, entry.ID)
	}
	if got.Completed || got.Note != "skipped" {
		t.Errorf("upsert did not apply new values: %+v", got)
	}
}

func TestGetEntriesRange(t *testing.T) {
	s := newTestStore(t)
	u := seedUser(t, s)
	h := seedHabit(t, s, u.ID)

	now := time.Now().UTC()
	for _, day := range []string{"2025-06-01", "2025-06-03", "2025-06-10"} {
		if _, err := s.UpsertEntry(models.Entry{
			ID: uuid.NewString(), HabitID: h.ID, UserID: u.ID,
			Day: day, Completed: true, CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			t.Fatalf("UpsertEntry(%s) error: %v", day, err)
		}
	}

	entries, err := s.GetEntries(h.ID, "2025-06-01", "2025-06-05")
	if err != nil {
		t.Fatalf("GetEntries() error: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries in range, want 2", len(entries))
	}
}

func TestHabitOwnershipScoping(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s)
	other := seedUser(t, s)
	h := seedHabit(t, s, owner.ID)

	if _, err := s.GetHabit(h.ID, owner.ID); err != nil {
		t.Errorf("owner GetHabit() error: %v", err)
	}
	if _, err := s.GetHabit(h.ID, other.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("non-owner GetHabit() error = %v, want ErrNotFound", err)
	}
}

func TestDeactivateHabitCancelsScheduledNotifications(t *testing.T) {
	s := newTestStore(t)
	u := seedUser(t, s)
	h := seedHabit(t, s, u.ID)

	now := time.Now().UTC()
	scheduled := models.Notification{
		ID: uuid.NewString(), UserID: u.ID, HabitID: h.ID,
		Type: constants.NotificationReminder, ScheduledAt: now.Add(time.Hour),
		Status: models.StatusScheduled, CreatedAt: now,
	}
	sentAt := now.Add(-time.Hour)
	sent := models.Notification{
		ID: uuid.NewString(), UserID: u.ID, HabitID: h.ID,
		Type: constants.NotificationReminder, ScheduledAt: now.Add(-2 * time.Hour),
		SentAt: &sentAt, Status: models.StatusSent, CreatedAt: now,
	}
	for _, n := range []models.Notification{scheduled, sent} {
		if err := s.AddNotification(n); err != nil {
			t.Fatalf("AddNotification() error: %v", err)
		}
	}

	if err := s.DeactivateHabit(h.ID, u.ID); err != nil {
		t.Fatalf("DeactivateHabit() error: %v", err)
	}

	habit, err := s.GetHabit(h.ID, u.ID)
	if err != nil {
		t.Fatalf("GetHabit() after deactivate error: %v", err)
	}
	if habit.Active {
		t.Error("habit still active after deactivate")
	}

	gotScheduled, err := s.GetNotification(scheduled.ID, u.ID)
	if err != nil {
		t.Fatalf("GetNotification() error: %v", err)
	}
	if gotScheduled.Status != models.StatusCancelled {
		t.Errorf("scheduled notification status = %s, want cancelled", gotScheduled.Status)
	}

	gotSent, err := s.GetNotification(sent.ID, u.ID)
	if err != nil {
		t.Fatalf("GetNotification() error: %v", err)
	}
	if gotSent.Status != models.StatusSent {
		t.Errorf("sent notification status = %s, want sent untouched", gotSent.Status)
	}
}

func TestSetNotificationStatusIsGuarded(t *testing.T) {
	s := newTestStore(t)
	u := seedUser(t, s)

	now := time.Now().UTC()
	n := models.Notification{
		ID: uuid.NewString(), UserID: u.ID,
		Type: constants.NotificationReminder, ScheduledAt: now.Add(-time.Minute),
		Status: models.StatusScheduled, CreatedAt: now,
	}
	if err := s.AddNotification(n); err != nil {
		t.Fatalf("AddNotification() error: %v", err)
	}

	sentAt := now
	if err := s.SetNotificationStatus(n.ID, models.StatusScheduled, models.StatusSent, &sentAt); err != nil {
		t.Fatalf("SetNotificationStatus() error: %v", err)
	}

	// A second dispatcher loses the guarded update.
	err := s.SetNotificationStatus(n.ID, models.StatusScheduled, models.StatusSent, &sentAt)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second transition error = %v, want ErrNotFound", err)
	}

	got, err := s.GetNotification(n.ID, u.ID)
	if err != nil {
		t.Fatalf("GetNotification() error: %v", err)
	}
	if got.SentAt == nil {
		t.Error("SentAt not persisted")
	}
}

func TestReleasingClaimClearsSentAt(t *testing.T) {
	s := newTestStore(t)
	u := seedUser(t, s)

	now := time.Now().UTC()
	n := models.Notification{
		ID: uuid.NewString(), UserID: u.ID,
		Type: constants.NotificationReminder, ScheduledAt: now.Add(-time.Minute),
		Status: models.StatusScheduled, CreatedAt: now,
	}
	if err := s.AddNotification(n); err != nil {
		t.Fatalf("AddNotification() error: %v", err)
	}

	sentAt := now
	if err := s.SetNotificationStatus(n.ID, models.StatusScheduled, models.StatusSent, &sentAt); err != nil {
		t.Fatalf("claim error: %v", err)
	}
	// A failed delivery hands the row back for the next run.
	if err := s.SetNotificationStatus(n.ID, models.StatusSent, models.StatusScheduled, nil); err != nil {
		t.Fatalf("release error: %v", err)
	}

	got, err := s.GetNotification(n.ID, u.ID)
	if err != nil {
		t.Fatalf("GetNotification() error: %v", err)
	}
	if got.Status != models.StatusScheduled {
		t.Errorf("status = %s, want scheduled", got.Status)
	}
	if got.SentAt != nil {
		t.Errorf("SentAt = %v, want cleared on release", got.SentAt)
	}
}

func TestGetDueNotificationsHonorsLimitAndStatus(t *testing.T) {
	s := newTestStore(t)
	u := seedUser(t, s)

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		n := models.Notification{
			ID: uuid.NewString(), UserID: u.ID,
			Type: constants.NotificationReminder, ScheduledAt: now.Add(-time.Duration(i+1) * time.Minute),
			Status: models.StatusScheduled, CreatedAt: now,
		}
		if err := s.AddNotification(n); err != nil {
			t.Fatalf("AddNotification() error: %v", err)
		}
	}

	due, err := s.GetDueNotifications(now, 2)
	if err != nil {
		t.Fatalf("GetDueNotifications() error: %v", err)
	}
	if len(due) != 2 {
		t.Errorf("got %d due notifications, want 2 (limit)", len(due))
	}
}

func TestPredictionsAreAppendOnly(t *testing.T) {
	s := newTestStore(t)
	u := seedUser(t, s)
	h := seedHabit(t, s, u.ID)

	older := models.Prediction{
		ID: uuid.NewString(), HabitID: h.ID, UserID: u.ID, Day: "2025-06-05",
		HorizonDays: 7, Probability: 0.4, Source: "fallback",
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
	newer := older
	newer.ID = uuid.NewString()
	newer.Probability = 0.8
	newer.Source = "model"
	newer.CreatedAt = time.Now().UTC()

	for _, p := range []models.Prediction{older, newer} {
		if err := s.AddPrediction(p); err != nil {
			t.Fatalf("AddPrediction() error: %v", err)
		}
	}

	got, err := s.GetPrediction(h.ID, "2025-06-05", 7)
	if err != nil {
		t.Fatalf("GetPrediction() error: %v", err)
	}
	if got.ID != newer.ID {
		t.Errorf("GetPrediction() returned %s, want the newest %s", got.ID, newer.ID)
	}

	all, err := s.GetPredictions(u.ID, "2025-06-05", 7)
	if err != nil {
		t.Fatalf("GetPredictions() error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d predictions, want both rows kept", len(all))
	}
}
