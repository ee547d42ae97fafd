package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"

	"github.com/itiky/collaborate-canvas/model"
	"github.com/itiky/collaborate-canvas/storage"
)

const (
	defaultUsersLimit = 10
	maxUsersLimit     = 50
	maxBodySize       = 8 << 20
)

type (
	// DesignStore is the persistence layer used by DesignsAPI.
	DesignStore interface {
		ListDesigns(ctx context.Context) ([]model.Design, error)
		GetDesign(ctx context.Context, id string) (model.Design, error)
		CreateDesign(ctx context.Context, req model.DesignCreate) (model.Design, error)
		UpdateDesign(ctx context.Context, id string, upd model.DesignUpdate) (model.Design, error)
		DeleteDesign(ctx context.Context, id string) (model.Design, error)
		SearchUsers(ctx context.Context, query string, limit int) ([]model.User, error)
		ListComments(ctx context.Context, designId string, page, limit int) (model.CommentsPage, error)
		CreateComment(ctx context.Context, req model.CommentCreate) (model.Comment, error)
		DeleteComment(ctx context.Context, id string) (model.Comment, error)
	}

	// DesignsAPI serves the designs REST API.
	DesignsAPI struct {
		store DesignStore
	}
)

// Register adds the API routes to the router.
func (a *DesignsAPI) Register(r *mux.Router) {
	r.Methods(http.MethodGet).Path("/designs").HandlerFunc(a.listDesigns)
	r.Methods(http.MethodPost).Path("/designs/create").HandlerFunc(a.createDesign)
	r.Methods(http.MethodGet).Path("/designs/{id}").HandlerFunc(a.getDesign)
	r.Methods(http.MethodPut).Path("/designs/{id}").HandlerFunc(a.updateDesign)
	r.Methods(http.MethodDelete).Path("/designs/{id}").HandlerFunc(a.deleteDesign)
	r.Methods(http.MethodGet).Path("/users/search").HandlerFunc(a.searchUsers)
	r.Methods(http.MethodGet).Path("/comments").HandlerFunc(a.listComments)
	r.Methods(http.MethodPost).Path("/comments/create").HandlerFunc(a.createComment)
	r.Methods(http.MethodDelete).Path("/comments/{id}").HandlerFunc(a.deleteComment)
}

func (a *DesignsAPI) listDesigns(w http.ResponseWriter, r *http.Request) {
	designs, err := a.store.ListDesigns(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	count := len(designs)
	writeResponse(w, http.StatusOK, model.ApiResponse{Success: true, Data: designs, Count: &count})
}

func (a *DesignsAPI) getDesign(w http.ResponseWriter, r *http.Request) {
	design, err := a.store.GetDesign(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeResponse(w, http.StatusOK, model.ApiResponse{Success: true, Data: design})
}

func (a *DesignsAPI) createDesign(w http.ResponseWriter, r *http.Request) {
	var req model.DesignCreate
	if !readRequest(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	design, err := a.store.CreateDesign(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeResponse(w, http.StatusCreated, model.ApiResponse{Success: true, Data: design})
}

func (a *DesignsAPI) updateDesign(w http.ResponseWriter, r *http.Request) {
	var upd model.DesignUpdate
	if !readRequest(w, r, &upd) {
		return
	}
	if err := upd.Validate(); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	design, err := a.store.UpdateDesign(r.Context(), mux.Vars(r)["id"], upd)
	if err != nil {
		writeError(w, err)
		return
	}

	writeResponse(w, http.StatusOK, model.ApiResponse{Success: true, Data: design})
}

func (a *DesignsAPI) deleteDesign(w http.ResponseWriter, r *http.Request) {
	design, err := a.store.DeleteDesign(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeResponse(w, http.StatusOK, model.ApiResponse{Success: true, Data: design, Message: "Design deleted"})
}

func (a *DesignsAPI) searchUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit, ok := queryInt(w, r, "limit", defaultUsersLimit)
	if !ok {
		return
	}
	if limit > maxUsersLimit {
		limit = maxUsersLimit
	}

	users, err := a.store.SearchUsers(r.Context(), query, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	count := len(users)
	writeResponse(w, http.StatusOK, model.ApiResponse{Success: true, Data: users, Count: &count})
}

func (a *DesignsAPI) listComments(w http.ResponseWriter, r *http.Request) {
	designId := r.URL.Query().Get("designId")
	if designId == "" {
		writeMessage(w, http.StatusBadRequest, "designId: empty")
		return
	}

	page, ok := queryInt(w, r, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit", model.DefaultCommentsLimit)
	if !ok {
		return
	}
	if limit > model.MaxCommentsLimit {
		limit = model.MaxCommentsLimit
	}

	res, err := a.store.ListComments(r.Context(), designId, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	count := len(res.Comments)
	writeResponse(w, http.StatusOK, model.ApiResponse{
		Success:    true,
		Data:       res.Comments,
		Count:      &count,
		Total:      &res.Total,
		Page:       &res.Page,
		TotalPages: &res.TotalPages,
	})
}

func (a *DesignsAPI) createComment(w http.ResponseWriter, r *http.Request) {
	var req model.CommentCreate
	if !readRequest(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	comment, err := a.store.CreateComment(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeResponse(w, http.StatusCreated, model.ApiResponse{Success: true, Data: comment})
}

func (a *DesignsAPI) deleteComment(w http.ResponseWriter, r *http.Request) {
	comment, err := a.store.DeleteComment(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeResponse(w, http.StatusOK, model.ApiResponse{Success: true, Data: comment, Message: "Comment deleted"})
}

// queryInt parses a positive integer query parameter, writing the error response on failure.
func queryInt(w http.ResponseWriter, r *http.Request, key string, defaultValue int) (int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultValue, true
	}

	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		writeMessage(w, http.StatusBadRequest, key+": must be a positive integer")
		return 0, false
	}

	return n, true
}

// readRequest decodes the JSON request body, writing the error response on failure.
func readRequest(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}

	return true
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, err.Error())
		return
	}

	log.Printf("DesignsAPI: %v", err)
	writeMessage(w, http.StatusInternalServerError, "internal error")
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeResponse(w, status, model.ApiResponse{Success: false, Message: msg})
}

func writeResponse(w http.ResponseWriter, status int, res model.ApiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.Printf("DesignsAPI: write response: %v", err)
	}
}

// logRequests is the request logging middleware.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		log.Printf("HTTP: %s %s -> %d (%v)", r.Method, r.URL, m.Code, m.Duration)
		go monitor.RequestServed()
	})
}

// NewDesignsAPI creates a new DesignsAPI object.
func NewDesignsAPI(store DesignStore) *DesignsAPI {
	return &DesignsAPI{store: store}
}
