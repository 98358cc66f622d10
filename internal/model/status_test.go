package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusPending))
	assert.True(t, ValidStatus(StatusConfirmed))
	assert.True(t, ValidStatus(StatusCompleted))
	assert.True(t, ValidStatus(StatusCancelled))

	assert.False(t, ValidStatus("pending"))
	assert.False(t, ValidStatus("SHIPPED"))
	assert.False(t, ValidStatus(""))
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		allowed bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusPending, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to),
			"transition %s -> %s", tt.from, tt.to)
	}
}

func TestCurrentStatus(t *testing.T) {
	order := &Order{Status: StatusConfirmed}
	assert.Equal(t, StatusConfirmed, order.CurrentStatus())

	reservation := &Reservation{Status: StatusPending}
	assert.Equal(t, StatusPending, reservation.CurrentStatus())

	booking := &Booking{Status: StatusCancelled}
	assert.Equal(t, StatusCancelled, booking.CurrentStatus())
}
