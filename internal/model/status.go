package model

// Lifecycle statuses shared by orders, bookings and reservations
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
)

var statusTransitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// ValidStatus reports whether s is a known lifecycle status
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether moving from one status to another is allowed.
// COMPLETED and CANCELLED are terminal.
func CanTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Lifecycled is implemented by records that move through the status graph
type Lifecycled interface {
	CurrentStatus() string
}

func (o *Order) CurrentStatus() string       { return o.Status }
func (r *Reservation) CurrentStatus() string { return r.Status }
func (b *Booking) CurrentStatus() string     { return b.Status }
