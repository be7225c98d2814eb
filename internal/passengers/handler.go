package passengers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"flightdeck/internal/api"
	"flightdeck/internal/auth"
)

type PassengerStore interface {
	Create(ctx context.Context, p *Passenger) (*Passenger, error)
	GetByID(ctx context.Context, id int64) (*Passenger, error)
	List(ctx context.Context) ([]Passenger, error)
	FindByFirstName(ctx context.Context, firstName string) ([]Passenger, error)
	Update(ctx context.Context, p *Passenger) (*Passenger, error)
	Delete(ctx context.Context, id int64) error
	OwnedBy(ctx context.Context, id, userID int64) (bool, error)
}

type CollectionHandler struct {
	Store  PassengerStore
	Logger *slog.Logger
}

func (h *CollectionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *CollectionHandler) list(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !auth.RoleAllowed(ident, auth.RoleAdmin, auth.RoleStaff) {
		api.WriteError(w, http.StatusForbidden, "insufficient role")
		return
	}
	list, err := h.Store.List(r.Context())
	if err != nil {
		h.Logger.Error("list passengers", "err", err)
		api.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []Passenger{}
	}
	api.Write(w, http.StatusOK, "passengers found", list)
}

// create accepts a passenger from any authenticated role. A customer's
// submission is always persisted under their own account: any owner_id
// supplied in the body is overwritten before the record is saved.
// Admin and staff submissions keep the owner as given.
func (h *CollectionHandler) create(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var p Passenger
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.FirstName == "" {
		api.WriteError(w, http.StatusBadRequest, "first_name is required")
		return
	}
	if p.Age < 0 {
		api.WriteError(w, http.StatusBadRequest, "age must not be negative")
		return
	}
	if ident.Role == auth.RoleCustomer {
		p.OwnerID = &ident.UserID
	}
	created, err := h.Store.Create(r.Context(), &p)
	if err != nil {
		h.Logger.Error("create passenger", "err", err)
		api.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	api.Write(w, http.StatusCreated, "passenger saved", created)
}

type SearchHandler struct {
	Store  PassengerStore
	Logger *slog.Logger
}

func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	firstName := r.URL.Query().Get("first_name")
	if firstName == "" {
		api.WriteError(w, http.StatusBadRequest, "first_name is required")
		return
	}
	list, err := h.Store.FindByFirstName(r.Context(), firstName)
	if err != nil {
		h.Logger.Error("search passengers", "err", err)
		api.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(list) == 0 {
		api.WriteError(w, http.StatusNotFound, "no passengers found")
		return
	}
	api.Write(w, http.StatusOK, "passengers found", list)
}

type DetailHandler struct {
	Store  PassengerStore
	Logger *slog.Logger
}

func (h *DetailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Path is /api/v1/passengers/{id}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	id, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid passenger id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !auth.AuthorizeRecord(w, r, id, h.Store.OwnedBy, auth.RoleAdmin, auth.RoleStaff) {
			return
		}
		h.get(w, r, id)
	case http.MethodPut:
		if !auth.AuthorizeRecord(w, r, id, h.Store.OwnedBy, auth.RoleAdmin, auth.RoleStaff) {
			return
		}
		h.update(w, r, id)
	case http.MethodDelete:
		ident, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			api.WriteError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !auth.RoleAllowed(ident, auth.RoleAdmin) {
			api.WriteError(w, http.StatusForbidden, "insufficient role")
			return
		}
		h.delete(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *DetailHandler) get(w http.ResponseWriter, r *http.Request, id int64) {
	p, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPassengerNotFound) {
			api.WriteError(w, http.StatusNotFound, "passenger not found")
			return
		}
		h.Logger.Error("get passenger", "err", err)
		api.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	api.Write(w, http.StatusOK, "passenger found", p)
}

// update merges only the mutable passenger fields: empty names and
// non-positive ages in the body leave the stored values alone. Owner
// and flight references never change through this endpoint.
func (h *DetailHandler) update(w http.ResponseWriter, r *http.Request, id int64) {
	var payload struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Age       int    `json:"age"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	existing, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPassengerNotFound) {
			api.WriteError(w, http.StatusNotFound, "passenger not found")
			return
		}
		h.Logger.Error("get passenger", "err", err)
		api.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if payload.FirstName != "" {
		existing.FirstName = payload.FirstName
	}
	if payload.LastName != "" {
		existing.LastName = payload.LastName
	}
	if payload.Age > 0 {
		existing.Age = payload.Age
	}
	updated, err := h.Store.Update(r.Context(), existing)
	if err != nil {
		h.Logger.Error("update passenger", "err", err)
		api.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	api.Write(w, http.StatusOK, "passenger updated", updated)
}

func (h *DetailHandler) delete(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.Store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrPassengerNotFound) {
			api.WriteError(w, http.StatusNotFound, "passenger not found")
			return
		}
		h.Logger.Error("delete passenger", "err", err)
		api.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	api.Write(w, http.StatusOK, "passenger deleted", nil)
}
