// Package model defines the core domain types for the parking spot booking system.
package model

import "time"

// BookingStatusActive is the only status the core ever writes.
const BookingStatusActive = "active"

// RecommendedHours is the set of durations the frontend offers as buttons.
// Any positive number of hours is accepted by the core.
var RecommendedHours = []int{1, 2, 3, 4, 6, 12, 24}

// User is a person known to the bot, keyed by their chat platform id.
type User struct {
	ID         int64     `json:"id"`
	ExternalID int64     `json:"external_id"`
	FullName   string    `json:"full_name"`
	Username   *string   `json:"username,omitempty"`
	IsAdmin    bool      `json:"is_admin"`
	CreatedAt  time.Time `json:"created_at"`
}

// Handle returns the username or an empty string.
func (u *User) Handle() string {
	if u.Username == nil {
		return ""
	}
	return *u.Username
}

// Spot is a bookable parking slot listed by its owner.
type Spot struct {
	ID           int64     `json:"id"`
	OwnerID      int64     `json:"owner_id"`
	Label        string    `json:"label"`
	Address      string    `json:"address"`
	PricePerHour int       `json:"price_per_hour"`
	IsAvailable  bool      `json:"is_available"`
	CreatedAt    time.Time `json:"created_at"`
}

// SpotView is a Spot joined with its owner's public data.
type SpotView struct {
	Spot
	OwnerName       string  `json:"owner_name"`
	OwnerExternalID int64   `json:"owner_external_id"`
	OwnerUsername   *string `json:"owner_username,omitempty"`
}

// Booking is a reservation of a spot for a whole number of hours.
type Booking struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	SpotID     int64     `json:"spot_id"`
	Hours      int       `json:"hours"`
	TotalPrice int       `json:"total_price"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// BookingView is a Booking joined with the spot, its owner and the client.
type BookingView struct {
	Booking
	SpotLabel    string `json:"spot_label"`
	SpotAddress  string `json:"spot_address"`
	PricePerHour int    `json:"price_per_hour"`
	OwnerName    string `json:"owner_name"`
	ClientName   string `json:"client_name,omitempty"`
}

// SpotStats is a spot together with its booking rollup.
type SpotStats struct {
	SpotView
	BookingsCount int64 `json:"bookings_count"`
	TotalEarnings int64 `json:"total_earnings"`
}

// Stats is the system-wide admin summary.
type Stats struct {
	Users    int64 `json:"users"`
	Spots    int64 `json:"spots"`
	Bookings int64 `json:"bookings"`
	Revenue  int64 `json:"revenue"`
	Admins   int64 `json:"admins"`
}

// RegisterRequest is the payload for registering a user.
type RegisterRequest struct {
	ExternalID int64   `json:"external_id"`
	FullName   string  `json:"full_name"`
	Username   *string `json:"username,omitempty"`
}

// ListingInputRequest carries one answer of the listing form. Cancel
// abandons the form instead.
type ListingInputRequest struct {
	Text   string `json:"text"`
	Cancel bool   `json:"cancel,omitempty"`
}

// BookRequest is the payload for booking a spot.
type BookRequest struct {
	Hours int `json:"hours"`
}

// AdminLoginRequest carries the shared admin passphrase.
type AdminLoginRequest struct {
	Passphrase string `json:"passphrase"`
}

// AdminLoginResponse returns the admin bearer token.
type AdminLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
