package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/itiky/collaborate-canvas/model"
)

// CreateUser stores a new mentionable user (id is generated if empty).
func (s *Store) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	if u.Name == "" {
		return model.User{}, fmt.Errorf("%s: empty", "name")
	}
	if u.Id == "" {
		u.Id = uuid.New().String()
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, avatar) VALUES (?, ?, ?, ?)`,
		u.Id, u.Name, u.Email, u.Avatar,
	); err != nil {
		return model.User{}, fmt.Errorf("insert: %w", err)
	}

	return u, nil
}

// SearchUsers returns users whose name or email contains the query (case-insensitive).
func (s *Store) SearchUsers(ctx context.Context, query string, limit int) ([]model.User, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%s: must be GT 0", "limit")
	}

	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, avatar FROM users WHERE lower(name) LIKE ? OR lower(email) LIKE ? ORDER BY name LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.Id, &u.Name, &u.Email, &u.Avatar); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return users, nil
}

// GetUser returns a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	return getUser(ctx, s.db, id)
}

func getUser(ctx context.Context, q queryer, id string) (model.User, error) {
	var u model.User
	err := q.QueryRowContext(ctx, `SELECT id, name, email, avatar FROM users WHERE id = ?`, id).
		Scan(&u.Id, &u.Name, &u.Email, &u.Avatar)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("user %s: scan: %w", id, err)
	}

	return u, nil
}
