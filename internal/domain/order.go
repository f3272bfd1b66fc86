package domain

import "time"

// StageStatus is the fulfilment state of one timeline stage.
type StageStatus string

const (
	StageCompleted StageStatus = "completed"
	StageCurrent   StageStatus = "current"
	StageUpcoming  StageStatus = "upcoming"
)

// TimelineStage is one fixed step of the order fulfilment display.
type TimelineStage struct {
	ID          int         `json:"id"`
	Title       string      `json:"title"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Status      StageStatus `json:"status"`
	Icon        string      `json:"icon"`
	Progress    *int        `json:"progress,omitempty"`
}

// Order is the tracked order shown on the order status view.
type Order struct {
	ID       string          `json:"id"`
	Date     string          `json:"date"`
	Total    string          `json:"total"`
	Status   string          `json:"status"`
	Address  string          `json:"address"`
	ETA      string          `json:"eta"`
	Timeline []TimelineStage `json:"timeline"`
}

// PlacedOrder records a successful checkout.
type PlacedOrder struct {
	Ref            string     `json:"ref"`
	Scope          string     `json:"-"`
	UserID         string     `json:"userId"`
	Items          []CartItem `json:"items"`
	Total          int64      `json:"total"`
	Currency       string     `json:"currency"`
	PaymentChannel string     `json:"paymentChannel"`
	Name           string     `json:"name"`
	Phone          string     `json:"phone"`
	Location       string     `json:"location"`
	City           string     `json:"city"`
	PlacedAt       time.Time  `json:"placedAt"`
}
