package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/itiky/collaborate-canvas/model"
)

const designColumns = `id, name, description, width, height, canvas_background, elements, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// ListDesigns returns all designs, the most recently updated first.
func (s *Store) ListDesigns(ctx context.Context) ([]model.Design, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+designColumns+` FROM designs ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	designs := make([]model.Design, 0)
	for rows.Next() {
		d, err := scanDesign(rows)
		if err != nil {
			return nil, err
		}
		designs = append(designs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return designs, nil
}

// GetDesign returns a design by id.
func (s *Store) GetDesign(ctx context.Context, id string) (model.Design, error) {
	return getDesign(ctx, s.db, id)
}

// CreateDesign stores a new design, missing canvas attributes get the defaults.
func (s *Store) CreateDesign(ctx context.Context, req model.DesignCreate) (model.Design, error) {
	if err := req.Validate(); err != nil {
		return model.Design{}, fmt.Errorf("request: %w", err)
	}

	now := time.Now().UTC()
	d := model.Design{
		Id:               uuid.New().String(),
		Name:             req.Name,
		Description:      req.Description,
		Width:            req.Width,
		Height:           req.Height,
		CanvasBackground: req.CanvasBackground,
		Elements:         model.CloneElements(req.Elements),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if d.Width == 0 {
		d.Width = model.DefaultCanvasWidth
	}
	if d.Height == 0 {
		d.Height = model.DefaultCanvasHeight
	}
	if d.CanvasBackground == "" {
		d.CanvasBackground = model.DefaultCanvasBackground
	}

	elementsRaw, err := json.Marshal(d.Elements)
	if err != nil {
		return model.Design{}, fmt.Errorf("elements marshal: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO designs (`+designColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Id, d.Name, d.Description, d.Width, d.Height, d.CanvasBackground, string(elementsRaw),
		d.CreatedAt.UnixMilli(), d.UpdatedAt.UnixMilli(),
	); err != nil {
		return model.Design{}, fmt.Errorf("insert: %w", err)
	}

	return s.GetDesign(ctx, d.Id)
}

// UpdateDesign applies a partial update and bumps the update time.
func (s *Store) UpdateDesign(ctx context.Context, id string, upd model.DesignUpdate) (model.Design, error) {
	if err := upd.Validate(); err != nil {
		return model.Design{}, fmt.Errorf("request: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Design{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	d, err := getDesign(ctx, tx, id)
	if err != nil {
		return model.Design{}, err
	}

	if upd.Name != nil {
		d.Name = *upd.Name
	}
	if upd.Description != nil {
		d.Description = *upd.Description
	}
	if upd.Width != nil {
		d.Width = *upd.Width
	}
	if upd.Height != nil {
		d.Height = *upd.Height
	}
	if upd.CanvasBackground != nil {
		d.CanvasBackground = *upd.CanvasBackground
	}
	if upd.Elements != nil {
		d.Elements = model.CloneElements(upd.Elements)
	}
	d.UpdatedAt = time.Now().UTC()

	elementsRaw, err := json.Marshal(d.Elements)
	if err != nil {
		return model.Design{}, fmt.Errorf("elements marshal: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE designs SET name = ?, description = ?, width = ?, height = ?, canvas_background = ?, elements = ?, updated_at = ? WHERE id = ?`,
		d.Name, d.Description, d.Width, d.Height, d.CanvasBackground, string(elementsRaw), d.UpdatedAt.UnixMilli(), id,
	); err != nil {
		return model.Design{}, fmt.Errorf("update: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Design{}, fmt.Errorf("commit: %w", err)
	}

	return s.GetDesign(ctx, id)
}

// DeleteDesign removes a design with its comments and returns the removed record.
func (s *Store) DeleteDesign(ctx context.Context, id string) (model.Design, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Design{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	d, err := getDesign(ctx, tx, id)
	if err != nil {
		return model.Design{}, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE design_id = ?`, id); err != nil {
		return model.Design{}, fmt.Errorf("delete comments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM designs WHERE id = ?`, id); err != nil {
		return model.Design{}, fmt.Errorf("delete: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Design{}, fmt.Errorf("commit: %w", err)
	}

	return d, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func getDesign(ctx context.Context, q queryer, id string) (model.Design, error) {
	row := q.QueryRowContext(ctx, `SELECT `+designColumns+` FROM designs WHERE id = ?`, id)

	d, err := scanDesign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Design{}, fmt.Errorf("design %s: %w", id, ErrNotFound)
	}

	return d, err
}

func scanDesign(row rowScanner) (model.Design, error) {
	var (
		d                    model.Design
		elementsRaw          string
		createdAt, updatedAt int64
	)

	if err := row.Scan(&d.Id, &d.Name, &d.Description, &d.Width, &d.Height, &d.CanvasBackground, &elementsRaw, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Design{}, err
		}
		return model.Design{}, fmt.Errorf("scan: %w", err)
	}

	d.Elements = make([]model.Element, 0)
	if err := json.Unmarshal([]byte(elementsRaw), &d.Elements); err != nil {
		return model.Design{}, fmt.Errorf("design %s: elements unmarshal: %w", d.Id, err)
	}
	d.CreatedAt = time.UnixMilli(createdAt).UTC()
	d.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	return d, nil
}
