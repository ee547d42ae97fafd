package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/itiky/collaborate-canvas/model"
)

type (
	// DesignsClient is the persistence API client.
	DesignsClient struct {
		baseUrl    string
		httpClient *http.Client
	}

	// apiResponse is model.ApiResponse with a deferred data decoding.
	apiResponse struct {
		Success    bool            `json:"success"`
		Data       json.RawMessage `json:"data"`
		Message    string          `json:"message"`
		Count      *int            `json:"count"`
		Total      int             `json:"total"`
		Page       int             `json:"page"`
		TotalPages int             `json:"totalPages"`
	}
)

// String implements the stringer interface.
func (c *DesignsClient) String() string {
	return fmt.Sprintf("DesignsClient (%s)", c.baseUrl)
}

// List returns all designs, most recently updated first.
func (c *DesignsClient) List(ctx context.Context) ([]model.Design, error) {
	var designs []model.Design
	if err := c.do(ctx, http.MethodGet, "/designs", nil, &designs); err != nil {
		return nil, err
	}

	return designs, nil
}

// Get returns a design by its ID.
func (c *DesignsClient) Get(ctx context.Context, id string) (model.Design, error) {
	var design model.Design
	if err := c.do(ctx, http.MethodGet, "/designs/"+url.PathEscape(id), nil, &design); err != nil {
		return model.Design{}, err
	}

	return design, nil
}

// Create creates a new design.
func (c *DesignsClient) Create(ctx context.Context, req model.DesignCreate) (model.Design, error) {
	if err := req.Validate(); err != nil {
		return model.Design{}, err
	}

	var design model.Design
	if err := c.do(ctx, http.MethodPost, "/designs/create", req, &design); err != nil {
		return model.Design{}, err
	}

	return design, nil
}

// Update partially updates a design.
func (c *DesignsClient) Update(ctx context.Context, id string, upd model.DesignUpdate) (model.Design, error) {
	if err := upd.Validate(); err != nil {
		return model.Design{}, err
	}

	var design model.Design
	if err := c.do(ctx, http.MethodPut, "/designs/"+url.PathEscape(id), upd, &design); err != nil {
		return model.Design{}, err
	}

	return design, nil
}

// Delete removes a design and returns the removed record.
func (c *DesignsClient) Delete(ctx context.Context, id string) (model.Design, error) {
	var design model.Design
	if err := c.do(ctx, http.MethodDelete, "/designs/"+url.PathEscape(id), nil, &design); err != nil {
		return model.Design{}, err
	}

	return design, nil
}

// SearchUsers returns users matching the mention query.
func (c *DesignsClient) SearchUsers(ctx context.Context, query string, limit int) ([]model.User, error) {
	params := url.Values{}
	params.Set("q", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var users []model.User
	if err := c.do(ctx, http.MethodGet, "/users/search?"+params.Encode(), nil, &users); err != nil {
		return nil, err
	}

	return users, nil
}

// ListComments returns a page (starting from 1) of the design comments, the newest first.
func (c *DesignsClient) ListComments(ctx context.Context, designId string, page, limit int) (model.CommentsPage, error) {
	if designId == "" {
		return model.CommentsPage{}, fmt.Errorf("%s: empty", "designId")
	}

	params := url.Values{}
	params.Set("designId", designId)
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	res := model.CommentsPage{}
	envelope, err := c.doEnvelope(ctx, http.MethodGet, "/comments?"+params.Encode(), nil, &res.Comments)
	if err != nil {
		return model.CommentsPage{}, err
	}
	res.Total, res.Page, res.TotalPages = envelope.Total, envelope.Page, envelope.TotalPages

	return res, nil
}

// CreateComment posts a new design comment.
func (c *DesignsClient) CreateComment(ctx context.Context, req model.CommentCreate) (model.Comment, error) {
	if err := req.Validate(); err != nil {
		return model.Comment{}, err
	}

	var comment model.Comment
	if err := c.do(ctx, http.MethodPost, "/comments/create", req, &comment); err != nil {
		return model.Comment{}, err
	}

	return comment, nil
}

// DeleteComment removes a comment and returns the removed record.
func (c *DesignsClient) DeleteComment(ctx context.Context, id string) (model.Comment, error) {
	var comment model.Comment
	if err := c.do(ctx, http.MethodDelete, "/comments/"+url.PathEscape(id), nil, &comment); err != nil {
		return model.Comment{}, err
	}

	return comment, nil
}

// do sends the request and decodes the response envelope data into dst.
func (c *DesignsClient) do(ctx context.Context, method, path string, body interface{}, dst interface{}) error {
	_, err := c.doEnvelope(ctx, method, path, body, dst)
	return err
}

// doEnvelope is do which also returns the response envelope.
func (c *DesignsClient) doEnvelope(ctx context.Context, method, path string, body interface{}, dst interface{}) (apiResponse, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apiResponse{}, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseUrl+path, reqBody)
	if err != nil {
		return apiResponse{}, fmt.Errorf("http.NewRequest: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return apiResponse{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return apiResponse{}, fmt.Errorf("%s %s: status %d: decode response: %w", method, path, res.StatusCode, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 || !envelope.Success {
		msg := envelope.Message
		if msg == "" {
			msg = http.StatusText(res.StatusCode)
		}
		return apiResponse{}, fmt.Errorf("%s %s: status %d: %s", method, path, res.StatusCode, msg)
	}

	if dst == nil || len(envelope.Data) == 0 {
		return envelope, nil
	}
	if err := json.Unmarshal(envelope.Data, dst); err != nil {
		return apiResponse{}, fmt.Errorf("%s %s: decode data: %w", method, path, err)
	}

	return envelope, nil
}

// NewDesignsClient creates a new DesignsClient object.
// serverUrl is either host:port or an http(s) URL.
func NewDesignsClient(serverUrl string, timeout time.Duration) (*DesignsClient, error) {
	if serverUrl == "" {
		return nil, fmt.Errorf("%s: empty", "serverUrl")
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("%s: must be GT 0", "timeout")
	}

	if !strings.Contains(serverUrl, "://") {
		serverUrl = "http://" + serverUrl
	}
	if _, err := url.Parse(serverUrl); err != nil {
		return nil, fmt.Errorf("url.Parse(%s): %w", serverUrl, err)
	}

	return &DesignsClient{
		baseUrl:    strings.TrimRight(serverUrl, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}
