package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitcoach/internal/models"
	"github.com/julianstephens/habitcoach/internal/storage"
)

func (s *Store) AddUser(u models.User) error {
	_, err := s.db.Exec(`
		INSERT INTO users (id, email, password_hash, name, timezone, active, last_login, refresh_token_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Timezone, u.Active,
		nullTimePtr(u.LastLogin), nullString(u.RefreshTokenHash), u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(id string) (models.User, error) {
	return s.getUser("id = $1", id)
}

func (s *Store) GetUserByEmail(email string) (models.User, error) {
	return s.getUser("email = $1", email)
}

func (s *Store) getUser(where string, arg any) (models.User, error) {
	row := s.db.QueryRow(`
		SELECT id, email, password_hash, name, timezone, active, last_login, refresh_token_hash, created_at
		FROM users WHERE `+where, arg)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) UpdateUser(u models.User) error {
	res, err := s.db.Exec(`
		UPDATE users SET email = $1, password_hash = $2, name = $3, timezone = $4, active = $5, last_login = $6, refresh_token_hash = $7
		WHERE id = $8`,
		u.Email, u.PasswordHash, u.Name, u.Timezone, u.Active,
		nullTimePtr(u.LastLogin), nullString(u.RefreshTokenHash), u.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireRow(res)
}

func (s *Store) GetActiveUsers() ([]models.User, error) {
	rows, err := s.db.Query(`
		SELECT id, email, password_hash, name, timezone, active, last_login, refresh_token_hash, created_at
		FROM users WHERE active ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) AddAuditLog(a models.AuditLog) error {
	_, err := s.db.Exec(`
		INSERT INTO audit_logs (id, event_type, user_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.EventType, nullString(a.UserID), nullString(a.Payload), a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add audit log: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	var lastLogin sql.NullTime
	var refreshHash sql.NullString

	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Timezone, &u.Active, &lastLogin, &refreshHash, &u.CreatedAt); err != nil {
		return models.User{}, err
	}
	u.RefreshTokenHash = refreshHash.String
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
