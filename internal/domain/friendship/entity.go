// Package friendship contains the friendship graph model. A friendship row
// is a directed request (requester, addressee) that becomes an undirected
// edge once accepted; at most one row exists per unordered user pair.
package friendship

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a friendship edge.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusBlocked  Status = "blocked"
)

// Friendship is a single edge in the friendship graph. RequesterID sent
// the request; AddresseeID received it. The direction stays meaningful
// after acceptance only for display purposes.
type Friendship struct {
	ID          string
	RequesterID string
	AddresseeID string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Domain errors.
var (
	ErrSameUser       = errors.New("requester and addressee must differ")
	ErrNotPending     = errors.New("friendship is not pending")
	ErrNotAddressee   = errors.New("only the addressee can respond to a request")
	ErrNotParticipant = errors.New("user is not part of this friendship")
)

// NewRequest creates a pending friendship request.
func NewRequest(id, requesterID, addresseeID string, now time.Time) (*Friendship, error) {
	if requesterID == addresseeID {
		return nil, ErrSameUser
	}
	if id == "" || requesterID == "" || addresseeID == "" {
		return nil, errors.New("friendship ids are required")
	}

	return &Friendship{
		ID:          id,
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Involves reports whether the user is one of the two endpoints.
func (f *Friendship) Involves(userID string) bool {
	return f.RequesterID == userID || f.AddresseeID == userID
}

// OtherSide returns the endpoint that is not userID.
func (f *Friendship) OtherSide(userID string) string {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}

// Accept transitions pending to accepted. Only the addressee may accept.
func (f *Friendship) Accept(userID string, now time.Time) error {
	if f.Status != StatusPending {
		return ErrNotPending
	}
	if f.AddresseeID != userID {
		return ErrNotAddressee
	}
	f.Status = StatusAccepted
	f.UpdatedAt = now
	return nil
}

// Block marks the edge blocked, overwriting a pending or accepted state.
// Either participant may block.
func (f *Friendship) Block(userID string, now time.Time) error {
	if !f.Involves(userID) {
		return ErrNotParticipant
	}
	f.Status = StatusBlocked
	f.UpdatedAt = now
	return nil
}

// CanRespond reports whether the user may accept or reject the request.
func (f *Friendship) CanRespond(userID string) bool {
	return f.Status == StatusPending && f.AddresseeID == userID
}
