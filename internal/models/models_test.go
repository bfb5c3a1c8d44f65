package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBookingStatus(t *testing.T) {
	tests := []struct {
		raw    string
		want   BookingStatus
		wantOK bool
	}{
		{"all", BookingAll, true},
		{"  Active ", BookingActive, true},
		{"ENDED", BookingEnded, true},
		{"bogus", BookingStatus("BOGUS"), false},
		{"", BookingStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseBookingStatus(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestParseSlotStatus(t *testing.T) {
	s, err := ParseSlotStatus("booked")
	assert.NoError(t, err)
	assert.Equal(t, SlotBooked, s)

	_, err = ParseSlotStatus("reserved")
	assert.Error(t, err)
}

func TestFetchBookingsRequestString(t *testing.T) {
	userID := int64(7)
	assert.Equal(t, "FetchBookingsRequest(status=active, userId=7)",
		FetchBookingsRequest{Status: "active", UserID: &userID}.String())
	assert.Equal(t, "FetchBookingsRequest(status=, userId=<nil>)", FetchBookingsRequest{}.String())
}
