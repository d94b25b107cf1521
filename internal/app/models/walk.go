package models

import "time"

type WalkStatus string

const (
	WalkStatusOpen      WalkStatus = "open"
	WalkStatusAccepted  WalkStatus = "accepted"
	WalkStatusCompleted WalkStatus = "completed"
	WalkStatusCancelled WalkStatus = "cancelled"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// OpenWalkRequest is a row of the open request board.
type OpenWalkRequest struct {
	RequestID       int64     `json:"request_id"`
	DogName         string    `json:"dog_name"`
	RequestedTime   time.Time `json:"requested_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Location        string    `json:"location"`
	OwnerUsername   string    `json:"owner_username"`
}

type WalkApplication struct {
	ID             int64             `json:"application_id"`
	RequestID      int64             `json:"request_id"`
	WalkerID       int64             `json:"walker_id"`
	WalkerUsername string            `json:"walker_username"`
	AppliedAt      time.Time         `json:"applied_at"`
	Status         ApplicationStatus `json:"status"`
}

// WalkerSummary aggregates a walker's ratings and completed walks.
// AverageRating stays nil when the walker has no ratings.
type WalkerSummary struct {
	WalkerUsername string   `json:"walker_username"`
	TotalRatings   int64    `json:"total_ratings"`
	AverageRating  *float64 `json:"average_rating"`
	CompletedWalks int64    `json:"completed_walks"`
}

type CreateWalkRequestParams struct {
	OwnerID         int64
	DogID           int64
	RequestedTime   time.Time
	DurationMinutes int
	Location        string
}

type CreateRatingParams struct {
	RequestID int64
	OwnerID   int64
	Rating    int
	Comments  string
}
