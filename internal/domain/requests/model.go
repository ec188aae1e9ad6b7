package requests

import (
	"strings"
	"time"
)

// Kind discrimina los cuatro flujos que comparten la misma máquina de estados.
type Kind string

const (
	KindAdoption  Kind = "adoption"
	KindBuyer     Kind = "buyer"
	KindSeller    Kind = "seller"
	KindClearance Kind = "clearance"
)

func ParseKind(s string) (Kind, bool) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindAdoption, KindBuyer, KindSeller, KindClearance:
		return k, true
	default:
		return "", false
	}
}

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// ParseDecision acepta solo estados terminales ("approved", "Approve", ...).
func ParseDecision(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approved", "approve":
		return StatusApproved, true
	case "rejected", "reject":
		return StatusRejected, true
	default:
		return "", false
	}
}

// Request: Pending -> Approved | Rejected. Los estados terminales no cambian más.
type Request struct {
	ID          string
	Kind        Kind
	PetID       string
	RequesterID string
	DoctorID    *string // solo clearance
	Status      Status
	Note        string

	CreatedAt time.Time
	UpdatedAt time.Time
	DecidedAt *time.Time
	DecidedBy *string
}

func (r Request) IsPending() bool { return r.Status == StatusPending }
