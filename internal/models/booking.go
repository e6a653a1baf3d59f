package models

import "time"

// Customer is a reference projection; the full entity lives on the server.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

type Car struct {
	ID    string `json:"id"`
	Plate string `json:"plate"`
	Model string `json:"model"`
	Color string `json:"color,omitempty"`
}

type ServiceRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type AddOnRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Assignment привязывает техника к конкретному этапу мойки.
type Assignment struct {
	TechnicianID   string `json:"technician_id"`
	TechnicianName string `json:"technician_name"`
	Stage          string `json:"stage"`
}

// Image is photo evidence captured for one stage.
type Image struct {
	URL        string    `json:"url"`
	Stage      string    `json:"stage"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Booking is the client-side projection of a server-owned booking.
// Status is the single source of truth for which board column it lives in.
type Booking struct {
	ID          string       `json:"id"`
	Status      string       `json:"status"`
	Customer    Customer     `json:"customer"`
	Car         Car          `json:"car"`
	Service     ServiceRef   `json:"service"`
	AddOns      []AddOnRef   `json:"add_ons,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	DeliverTime *time.Time   `json:"deliver_time,omitempty"`
	Images      []Image      `json:"images,omitempty"`
	Assignments []Assignment `json:"assignments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// HasImageForStage reports whether at least one photo is attached for the stage.
func (b *Booking) HasImageForStage(stage string) bool {
	for _, img := range b.Images {
		if img.Stage == stage {
			return true
		}
	}
	return false
}

// TechnicianForStage возвращает имя техника, назначенного на этап.
func (b *Booking) TechnicianForStage(stage string) string {
	for _, a := range b.Assignments {
		if a.Stage == stage {
			return a.TechnicianName
		}
	}
	return ""
}

// CreateBookingRequest is the payload for booking creation. Bookings always
// start at scheduled; the server assigns id and timestamps.
type CreateBookingRequest struct {
	CustomerID  string     `json:"customer_id"`
	CarID       string     `json:"car_id"`
	ServiceID   string     `json:"service_id"`
	AddOnIDs    []string   `json:"add_on_ids,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	DeliverTime *time.Time `json:"deliver_time,omitempty"`
	Date        string     `json:"date"`
}
