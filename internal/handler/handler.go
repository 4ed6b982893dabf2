// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/spot-booking/internal/apperrors"
	"github.com/Shivanand-hulikatti/spot-booking/internal/listing"
	"github.com/Shivanand-hulikatti/spot-booking/internal/model"
	"github.com/Shivanand-hulikatti/spot-booking/internal/service"
)

// Parking is the user-facing core the handlers call.
type Parking interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)
	GetUser(ctx context.Context, externalID int64) (*model.User, error)
	StartListing(ctx context.Context, externalID int64) (*service.ListingReply, error)
	ListingInput(ctx context.Context, externalID int64, in listing.Input) (*service.ListingReply, error)
	CancelListing(ctx context.Context, externalID int64) bool
	ListAvailable(ctx context.Context) ([]model.SpotView, error)
	GetSpot(ctx context.Context, id int64) (*model.SpotView, error)
	MySpots(ctx context.Context, externalID int64) ([]model.SpotView, error)
	Book(ctx context.Context, externalID, spotID int64, hours int) (*service.BookingConfirmation, error)
	MyBookings(ctx context.Context, externalID int64) ([]model.BookingView, error)
}

// Admin is the admin aggregation the handlers call.
type Admin interface {
	Stats(ctx context.Context) (*model.Stats, error)
	Users(ctx context.Context) ([]model.User, error)
	Spots(ctx context.Context) ([]model.SpotStats, error)
	Bookings(ctx context.Context) ([]model.BookingView, error)
}

// Gate logs admins in and checks their tokens.
type Gate interface {
	Login(ctx context.Context, externalID int64, passphrase string) (string, time.Time, error)
	Authorize(ctx context.Context, token string) (int64, error)
}

// ParkingHandler holds the user-facing HTTP handlers.
type ParkingHandler struct {
	svc Parking
	log *zap.Logger
}

// NewParkingHandler constructs a ParkingHandler.
func NewParkingHandler(svc Parking, log *zap.Logger) *ParkingHandler {
	return &ParkingHandler{svc: svc, log: log}
}

// AdminHandler holds the admin HTTP handlers.
type AdminHandler struct {
	svc  Admin
	gate Gate
	log  *zap.Logger
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(svc Admin, gate Gate, log *zap.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, gate: gate, log: log}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as the JSON error envelope. Internal causes are
// logged, never sent.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	appErr := apperrors.As(err)
	if appErr.Kind == apperrors.KindInternal {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	msg := appErr.Message
	if msg == "" {
		msg = string(appErr.Kind)
	}
	writeJSON(w, appErr.HTTPStatus(), model.ErrorResponse{Code: string(appErr.Kind), Message: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.Validation("invalid request body: " + err.Error())
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NotFound("spot")
	}
	return id, nil
}

// emptyIfNil keeps list endpoints returning [] instead of null.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ─── Users ────────────────────────────────────────────────────────────────────

// Register handles POST /users
// The body is optional; identity headers fill in anything it leaves out.
func (h *ParkingHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, h.log, err)
			return
		}
	}

	id := userID(r)
	if req.ExternalID == 0 {
		req.ExternalID = id
	}
	if req.ExternalID != id {
		writeError(w, r, h.log, apperrors.Validation("external_id does not match X-User-ID"))
		return
	}
	if req.FullName == "" {
		req.FullName = r.Header.Get(HeaderUserName)
	}
	if req.Username == nil {
		if handle := r.Header.Get(HeaderUsername); handle != "" {
			req.Username = &handle
		}
	}

	u, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Me handles GET /users/me
func (h *ParkingHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.GetUser(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ─── Listing form ─────────────────────────────────────────────────────────────

// StartListing handles POST /listing
func (h *ParkingHandler) StartListing(w http.ResponseWriter, r *http.Request) {
	reply, err := h.svc.StartListing(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// ListingInput handles POST /listing/input
// A completed form answers 201 with the created spot. {"cancel": true}
// abandons the form.
func (h *ParkingHandler) ListingInput(w http.ResponseWriter, r *http.Request) {
	var req model.ListingInputRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	in := listing.Text(req.Text)
	if req.Cancel {
		in = listing.Cancel()
	}
	reply, err := h.svc.ListingInput(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	status := http.StatusOK
	if reply.Spot != nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, reply)
}

// CancelListing handles POST /listing/cancel
func (h *ParkingHandler) CancelListing(w http.ResponseWriter, r *http.Request) {
	cancelled := h.svc.CancelListing(r.Context(), userID(r))
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

// ─── Spots and bookings ───────────────────────────────────────────────────────

// ListAvailable handles GET /spots
func (h *ParkingHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	spots, err := h.svc.ListAvailable(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(spots))
}

// GetSpot handles GET /spots/{id}
func (h *ParkingHandler) GetSpot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	spot, err := h.svc.GetSpot(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, spot)
}

// MySpots handles GET /spots/mine
func (h *ParkingHandler) MySpots(w http.ResponseWriter, r *http.Request) {
	spots, err := h.svc.MySpots(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(spots))
}

// Book handles POST /spots/{id}/book
// Performs the atomic check-and-flip and returns the confirmation together
// with the owner notification.
func (h *ParkingHandler) Book(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var req model.BookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	conf, err := h.svc.Book(r.Context(), userID(r), id, req.Hours)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, conf)
}

// MyBookings handles GET /bookings/mine
func (h *ParkingHandler) MyBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.svc.MyBookings(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(bookings))
}

// RecommendedHours handles GET /hours
func RecommendedHours(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.RecommendedHours)
}

// ─── Admin ────────────────────────────────────────────────────────────────────

// Login handles POST /admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.AdminLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	token, expiresAt, err := h.gate.Login(r.Context(), userID(r), req.Passphrase)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, model.AdminLoginResponse{Token: token, ExpiresAt: expiresAt})
}

// Stats handles GET /admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Users handles GET /admin/users
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Users(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(users))
}

// Spots handles GET /admin/spots
func (h *AdminHandler) Spots(w http.ResponseWriter, r *http.Request) {
	spots, err := h.svc.Spots(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(spots))
}

// Bookings handles GET /admin/bookings
func (h *AdminHandler) Bookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.svc.Bookings(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(bookings))
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
// ping checks the database; a nil ping reports ok unconditionally.
func HealthCheck(ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
