package model

import (
	"fmt"
	"time"
)

type (
	// Design is a persisted design record.
	Design struct {
		Id               string    `json:"_id"`
		Name             string    `json:"name"`
		Description      string    `json:"description,omitempty"`
		Width            int       `json:"width"`
		Height           int       `json:"height"`
		CanvasBackground string    `json:"canvasBackground"`
		Elements         []Element `json:"elements"`
		CreatedAt        time.Time `json:"createdAt"`
		UpdatedAt        time.Time `json:"updatedAt"`
	}

	// DesignCreate is the design creation request body.
	DesignCreate struct {
		Name             string    `json:"name"`
		Description      string    `json:"description,omitempty"`
		Width            int       `json:"width,omitempty"`
		Height           int       `json:"height,omitempty"`
		CanvasBackground string    `json:"canvasBackground,omitempty"`
		Elements         []Element `json:"elements,omitempty"`
	}

	// DesignUpdate is a partial design update: only non-nil fields are stored.
	DesignUpdate struct {
		Name             *string   `json:"name,omitempty"`
		Description      *string   `json:"description,omitempty"`
		Width            *int      `json:"width,omitempty"`
		Height           *int      `json:"height,omitempty"`
		CanvasBackground *string   `json:"canvasBackground,omitempty"`
		Elements         []Element `json:"elements"` // nil is absent, empty clears
	}

	// User is a mentionable user.
	User struct {
		Id     string `json:"_id"`
		Name   string `json:"name"`
		Email  string `json:"email,omitempty"`
		Avatar string `json:"avatar,omitempty"`
	}

	// ApiResponse wraps every persistence API response.
	// Paged lists also carry Total, Page and TotalPages.
	ApiResponse struct {
		Success    bool        `json:"success"`
		Data       interface{} `json:"data,omitempty"`
		Message    string      `json:"message,omitempty"`
		Count      *int        `json:"count,omitempty"`
		Total      *int        `json:"total,omitempty"`
		Page       *int        `json:"page,omitempty"`
		TotalPages *int        `json:"totalPages,omitempty"`
	}
)

// String implements the stringer interface.
func (d Design) String() string {
	return fmt.Sprintf("Design %s (%q, %dx%d, %d elements)", d.Id, d.Name, d.Width, d.Height, len(d.Elements))
}

// Snapshot returns the design collaborative state.
func (d Design) Snapshot() Snapshot {
	return Snapshot{
		Elements:         CloneElements(d.Elements),
		CanvasBackground: d.CanvasBackground,
		CanvasWidth:      d.Width,
		CanvasHeight:     d.Height,
	}
}

// Validate checks the creation request.
func (r DesignCreate) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%s: empty", "name")
	}
	if r.Width < 0 {
		return fmt.Errorf("%s: must be GTE 0", "width")
	}
	if r.Height < 0 {
		return fmt.Errorf("%s: must be GTE 0", "height")
	}

	return nil
}

// Validate checks the update request.
func (r DesignUpdate) Validate() error {
	if r.Name != nil && *r.Name == "" {
		return fmt.Errorf("%s: empty", "name")
	}
	if r.Width != nil && *r.Width <= 0 {
		return fmt.Errorf("%s: must be GT 0", "width")
	}
	if r.Height != nil && *r.Height <= 0 {
		return fmt.Errorf("%s: must be GT 0", "height")
	}

	return nil
}
