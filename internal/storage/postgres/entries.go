package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/habitcoach/internal/models"
	"github.com/julianstephens/habitcoach/internal/storage"
)

// UpsertEntry inserts the entry or, when the (habit, day) row already
// exists, replaces its value, completion flag, and note. The original
// row's id and created_at survive a replace.
func (s *Store) UpsertEntry(e models.Entry) (bool, error) {
	var existing string
	err := s.db.QueryRow("SELECT id FROM entries WHERE habit_id = $1 AND day = $2", e.HabitID, e.Day).Scan(&existing)
	updated := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to look up entry: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO entries (id, habit_id, user_id, day, completed, value, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (habit_id, day) DO UPDATE SET
			completed = EXCLUDED.completed,
			value = EXCLUDED.value,
			note = EXCLUDED.note,
			updated_at = EXCLUDED.updated_at`,
		e.ID, e.HabitID, e.UserID, e.Day, e.Completed, e.Value, nullString(e.Note),
		e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to upsert entry: %w", err)
	}
	return updated, nil
}

func (s *Store) GetEntry(habitID, day string) (models.Entry, error) {
	row := s.db.QueryRow(`
		SELECT id, habit_id, user_id, day, completed, value, note, created_at, updated_at
		FROM entries WHERE habit_id = $1 AND day = $2`, habitID, day)

	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Entry{}, storage.ErrNotFound
		}
		return models.Entry{}, err
	}
	return e, nil
}

func (s *Store) GetEntries(habitID, fromDay, toDay string) ([]models.Entry, error) {
	return s.queryEntries(`
		SELECT id, habit_id, user_id, day, completed, value, note, created_at, updated_at
		FROM entries WHERE habit_id = $1 AND day >= $2 AND day <= $3 ORDER BY day`,
		habitID, fromDay, toDay)
}

func (s *Store) GetAllEntries(habitID string) ([]models.Entry, error) {
	return s.queryEntries(`
		SELECT id, habit_id, user_id, day, completed, value, note, created_at, updated_at
		FROM entries WHERE habit_id = $1 ORDER BY day`, habitID)
}

func (s *Store) SaveStatSnapshot(snap models.StatSnapshot) error {
	_, err := s.db.Exec(`
		INSERT INTO stat_snapshots (id, habit_id, day, current_streak, best_streak, rate_7d, rate_30d, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (habit_id, day) DO UPDATE SET
			current_streak = EXCLUDED.current_streak,
			best_streak = EXCLUDED.best_streak,
			rate_7d = EXCLUDED.rate_7d,
			rate_30d = EXCLUDED.rate_30d`,
		snap.ID, snap.HabitID, snap.Day, snap.CurrentStreak, snap.BestStreak,
		snap.Rate7d, snap.Rate30d, snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save stat snapshot: %w", err)
	}
	return nil
}

func (s *Store) GetStatSnapshots(habitID, fromDay, toDay string) ([]models.StatSnapshot, error) {
	rows, err := s.db.Query(`
		SELECT id, habit_id, day, current_streak, best_streak, rate_7d, rate_30d, created_at
		FROM stat_snapshots WHERE habit_id = $1 AND day >= $2 AND day <= $3 ORDER BY day`,
		habitID, fromDay, toDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []models.StatSnapshot
	for rows.Next() {
		var snap models.StatSnapshot
		if err := rows.Scan(&snap.ID, &snap.HabitID, &snap.Day, &snap.CurrentStreak,
			&snap.BestStreak, &snap.Rate7d, &snap.Rate30d, &snap.CreatedAt); err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

func (s *Store) queryEntries(query string, args ...any) ([]models.Entry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(row rowScanner) (models.Entry, error) {
	var e models.Entry
	var note sql.NullString
	var value sql.NullFloat64

	if err := row.Scan(&e.ID, &e.HabitID, &e.UserID, &e.Day, &e.Completed, &value, &note, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return models.Entry{}, err
	}
	e.Value = value.Float64
	e.Note = note.String
	return e, nil
}
