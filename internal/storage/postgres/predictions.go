package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/habitcoach/internal/models"
	"github.com/julianstephens/habitcoach/internal/storage"
)

func (s *Store) AddPrediction(p models.Prediction) error {
	_, err := s.db.Exec(`
		INSERT INTO predictions (id, habit_id, user_id, day, horizon_days, probability, explanation, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.HabitID, p.UserID, p.Day, p.HorizonDays, p.Probability,
		nullString(p.Explanation), p.Source, p.CreatedAt)
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
		FROM predictions WHERE habit_id = $1 AND day = $2 AND horizon_days = $3
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
		FROM predictions WHERE user_id = $1`
	args := []any{userID}
	if day != "" {
		args = append(args, day)
		query += fmt.Sprintf(" AND day = $%d", len(args))
	}
	if horizonDays > 0 {
		args = append(args, horizonDays)
		query += fmt.Sprintf(" AND horizon_days = $%d", len(args))
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
	var explanation sql.NullString

	if err := row.Scan(&p.ID, &p.HabitID, &p.UserID, &p.Day, &p.HorizonDays,
		&p.Probability, &explanation, &p.Source, &p.CreatedAt); err != nil {
		return models.Prediction{}, err
	}
	p.Explanation = explanation.String
	return p, nil
}
