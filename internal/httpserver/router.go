package httpserver

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"flightdeck/internal/auth"
	"flightdeck/internal/flights"
	"flightdeck/internal/passengers"
)

func NewRouter(
	logger *slog.Logger,
	authSvc *auth.Service,
	users auth.UserStore,
	flightStore flights.FlightStore,
	passengerStore passengers.PassengerStore,
	corsOrigin string,
) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Auth
	mux.Handle("/api/v1/auth/register", &auth.RegisterHandler{Service: authSvc, Logger: logger})
	mux.Handle("/api/v1/auth/login", &auth.LoginHandler{Service: authSvc, Logger: logger})

	// Flights
	flightCollection := &flights.CollectionHandler{Store: flightStore, Logger: logger}
	flightSearch := &flights.SearchHandler{Store: flightStore, Logger: logger}
	flightDetail := &flights.DetailHandler{Store: flightStore, Passengers: passengerStore, Logger: logger}
	mux.Handle("/api/v1/flights", flightCollection)
	mux.Handle("/api/v1/flights/search", auth.RequireRole(flightSearch.ServeHTTP,
		auth.RoleAdmin, auth.RoleStaff, auth.RoleCustomer))
	mux.Handle("/api/v1/flights/", flightDetail)

	// Passengers
	passengerCollection := &passengers.CollectionHandler{Store: passengerStore, Logger: logger}
	passengerSearch := &passengers.SearchHandler{Store: passengerStore, Logger: logger}
	passengerDetail := &passengers.DetailHandler{Store: passengerStore, Logger: logger}
	mux.Handle("/api/v1/passengers", passengerCollection)
	mux.Handle("/api/v1/passengers/search", auth.RequireRole(passengerSearch.ServeHTTP,
		auth.RoleAdmin, auth.RoleStaff, auth.RoleCustomer))
	mux.Handle("/api/v1/passengers/", passengerDetail)

	// Every request, authenticated or not, passes through the gate; the
	// handlers above decide whether an anonymous caller is acceptable.
	gated := auth.Authenticate(authSvc.Tokens(), users)(mux)

	return withRequestID(logger, withCORS(corsOrigin, gated))
}
