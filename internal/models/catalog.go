package models

import "time"

// Service is a catalog entry for a wash/detailing package.
type Service struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Price    int64  `json:"price" yaml:"price"`
	Duration int    `json:"duration_minutes" yaml:"duration_minutes"`
	Active   bool   `json:"active" yaml:"active"`
}

type AddOn struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Price  int64  `json:"price" yaml:"price"`
	Active bool   `json:"active" yaml:"active"`
}

type Technician struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	OnShift bool   `json:"on_shift"`
}

// Subscription is the projection resolved from a scanned membership QR code.
// Activation and wash accounting are server-side.
type Subscription struct {
	ID         string     `json:"id"`
	Code       string     `json:"code"`
	CustomerID string     `json:"customer_id"`
	Plan       string     `json:"plan"`
	Status     string     `json:"status"`
	Remaining  int        `json:"remaining_washes"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}
