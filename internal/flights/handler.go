package flights

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
	"flightdeck/internal/passengers"
)

type FlightStore interface {
	Create(ctx context.Context, f *Flight) (*Flight, error)
	GetByID(ctx context.Context, id int64) (*Flight, error)
	List(ctx context.Context) ([]Flight, error)
	FindByRoute(ctx context.Context, source, destination string) ([]Flight, error)
	Update(ctx context.Context, f *Flight) (*Flight, error)
	Delete(ctx context.Context, id int64) error
}

// PassengerCreator is the slice of the passenger store needed to book a
// passenger onto a flight.
type PassengerCreator interface {
	Create(ctx context.Context, p *passengers.Passenger) (*passengers.Passenger, error)
}

type CollectionHandler struct {
	Store  FlightStore
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
	if _, ok := auth.IdentityFromContext(r.Context()); !ok {
		api.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	list, err := h.Store.List(r.Context())
	if err != nil {
		h.Logger.Error("list flights", "err", err)
		api.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []Flight{}
	}
	api.Write(w, http.StatusOK, "flights found", list)
}

func (h *CollectionHandler) create(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !auth.RoleAllowed(ident, auth.RoleAdmin) {
		api.WriteError(w, http.StatusForbidden, "insufficient role")
		return
	}
	var f Flight
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if f.Name == "" || f.Source == "" || f.Destination == "" {
		api.WriteError(w, http.StatusBadRequest, "name, source and destination are required")
		return
	}
	created, err := h.Store.Create(r.Context(), &f)
	if err != nil {
		h.Logger.Error("create flight", "err", err)
		api.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	api.Write(w, http.StatusCreated, "flight created", created)
}

type SearchHandler struct {
	Store  FlightStore
	Logger *slog.Logger
}

func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	source := q.Get("source")
	destination := q.Get("destination")
	if source == "" || destination == "" {
		api.WriteError(w, http.StatusBadRequest, "source and destination are required")
		return
	}
	list, err := h.Store.FindByRoute(r.Context(), source, destination)
	if err != nil {
		h.Logger.Error("search flights", "err", err)
		api.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(list) == 0 {
		api.WriteError(w, http.StatusNotFound, "no flights on this route")
		return
	}
	api.Write(w, http.StatusOK, "flights found", list)
}

type DetailHandler struct {
	Store      FlightStore
	Passengers PassengerCreator
	Logger     *slog.Logger
}

func (h *DetailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Path is /api/v1/flights/{id} or /api/v1/flights/{id}/passengers
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 4 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid flight id")
		return
	}

	if len(parts) == 5 && parts[4] == "passengers" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.attachPassenger(w, r, id)
		return
	}
	if len(parts) != 4 {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		if !auth.RoleAllowed(ident, auth.RoleAdmin, auth.RoleStaff) {
			api.WriteError(w, http.StatusForbidden, "insufficient role")
			return
		}
		h.update(w, r, id)
	case http.MethodDelete:
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
	f, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrFlightNotFound) {
			api.WriteError(w, http.StatusNotFound, "flight not found")
			return
		}
		h.Logger.Error("get flight", "err", err)
		api.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	api.Write(w, http.StatusOK, "flight found", f)
}

func (h *DetailHandler) update(w http.ResponseWriter, r *http.Request, id int64) {
	var f Flight
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if f.Name == "" || f.Source == "" || f.Destination == "" {
		api.WriteError(w, http.StatusBadRequest, "name, source and destination are required")
		return
	}
	f.ID = id
	updated, err := h.Store.Update(r.Context(), &f)
	if err != nil {
		if errors.Is(err, ErrFlightNotFound) {
			api.WriteError(w, http.StatusNotFound, "flight not found")
			return
		}
		h.Logger.Error("update flight", "err", err)
		api.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	api.Write(w, http.StatusOK, "flight updated", updated)
}

func (h *DetailHandler) delete(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.Store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrFlightNotFound) {
			api.WriteError(w, http.StatusNotFound, "flight not found")
			return
		}
		h.Logger.Error("delete flight", "err", err)
		api.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	api.Write(w, http.StatusOK, "flight deleted", nil)
}

// attachPassenger books a passenger onto the flight. Any authenticated
// role may book; a customer always books under their own account, no
// matter what owner the request body claims.
func (h *DetailHandler) attachPassenger(w http.ResponseWriter, r *http.Request, flightID int64) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if _, err := h.Store.GetByID(r.Context(), flightID); err != nil {
		if errors.Is(err, ErrFlightNotFound) {
			api.WriteError(w, http.StatusNotFound, "flight not found")
			return
		}
		h.Logger.Error("get flight", "err", err)
		api.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	var p passengers.Passenger
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.FirstName == "" {
		api.WriteError(w, http.StatusBadRequest, "first_name is required")
		return
	}
	p.FlightID = &flightID
	if ident.Role == auth.RoleCustomer {
		p.OwnerID = &ident.UserID
	}
	created, err := h.Passengers.Create(r.Context(), &p)
	if err != nil {
		h.Logger.Error("create passenger", "err", err)
		api.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	api.Write(w, http.StatusCreated, "passenger saved", created)
}
