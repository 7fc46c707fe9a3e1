package models

import (
	"time"

	id "vouch/pkg/domain"
)

// AppointmentStatus is the lifecycle of an in-person verification appointment.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentTimedOut  AppointmentStatus = "timed_out"
)

// Appointment is one scheduled in-person verification.
type Appointment struct {
	VerifierID    id.VerifierID     `json:"verifier_id"`
	ScheduledTime time.Time         `json:"scheduled_time"`
	Location      string            `json:"location,omitempty"`
	Status        AppointmentStatus `json:"status"`
}

// Verifier describes an available in-person verifier returned by discovery.
type Verifier struct {
	VerifierID             id.VerifierID `json:"verifier_id"`
	Name                   string        `json:"name"`
	Location               string        `json:"location"`
	AvailableSlots         []time.Time   `json:"available_slots"`
	Certifications         []string      `json:"certifications,omitempty"`
	VerificationsCompleted int           `json:"verifications_completed"`
	Rating                 float64       `json:"rating"`
}

// AppointmentState is a queryable snapshot of the in-person coordinator.
type AppointmentState struct {
	Scheduled  bool          `json:"scheduled"`
	Completed  bool          `json:"completed"`
	VerifierID id.VerifierID `json:"verifier_id,omitempty"`
	Date       time.Time     `json:"date,omitempty"`
}
