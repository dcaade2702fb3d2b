package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitcoach/internal/models"
	"github.com/julianstephens/habitcoach/internal/storage"
)

func (s *Store) AddPrediction(p models.Prediction) error {
	_, err := s.db.Exec(`
		INSERT INTO predictions (id, habit_id, user_id, day, horizon_days, probability, explanation, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.HabitID, p.UserID, p.Day, p.HorizonDays, p.Probability,
		nullString(p.Explanation), p.Source, p.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to add prediction: %w", err)
	}
	return nil
}

// GetPrediction returns the most recent prediction for (habit, day,
// horizon). Predictions are append-only, so newest wins.
func (s *Store) GetPrediction(habitID, day string, horizonDays int) (models.Prediction, error) {
	row := s.db.QueryRow(`
		SELECT id, habit_id, user_id, day, horizon_days, probability, explanation, source, created_at
		FROM predictions WHERE habit_id = ? AND day = ? AND horizon_days = ?
		ORDER BY created_at DESC LIMIT 1`, habitID, day, horizonDays)

	p, err := scanPrediction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Prediction{}, storage.ErrNotFound
		}
		return models.Prediction{}, err
	}
	return p, nil
}

func (s *Store) GetPredictions(userID, day string, horizonDays int) ([]models.Prediction, error) {
	query := `
		SELECT id, habit_id, user_id, day, horizon_days, probability, explanation, source, created_at
		FROM predictions WHERE user_id = ?`
	args := []any{userID}
	if day != "" {
		query += " AND day = ?"
		args = append(args, day)
	}
	if horizonDays > 0 {
		query += " AND horizon_days = ?"
		args = append(args, horizonDays)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var preds []models.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, rows.Err()
}

func scanPrediction(row rowScanner) (models.Prediction, error) {
	var p models.Prediction
	var createdAt string
	var explanation sql.NullString

	if err := row.Scan(&p.ID, &p.HabitID, &p.UserID, &p.Day, &p.HorizonDays,
		&p.Probability, &explanation, &p.Source, &createdAt); err != nil {
		return models.Prediction{}, err
	}
	p.Explanation = explanation.String

	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Prediction{}, err
	}
	return p, nil
}
