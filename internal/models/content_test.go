package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidTransition(t *testing.T) {
	allowed := map[[2]ContentStatus]bool{
		{StatusGenerating, StatusPending}:  true,
		{StatusGenerating, StatusError}:    true,
		{StatusPending, StatusApproved}:    true,
		{StatusPending, StatusRejected}:    true,
		{StatusApproved, StatusScheduled}:  true,
		{StatusScheduled, StatusPosted}:    true,
		{StatusScheduled, StatusScheduled}: true,
	}

	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			want := allowed[[2]ContentStatus{from, to}]
			got := IsValidTransition(from, to)
			assert.Equal(t, want, got, "transition %s -> %s", from, to)
		}
	}
}

func TestIsValidTransitionUnknownStatus(t *testing.T) {
	assert.False(t, IsValidTransition("bogus", StatusPosted))
	assert.False(t, IsValidTransition(StatusPending, "bogus"))
}

func TestCanDelete(t *testing.T) {
	deletable := map[ContentStatus]bool{
		StatusPending:  true,
		StatusApproved: true,
		StatusRejected: true,
		StatusPosted:   true,
		StatusError:    true,
	}

	for _, status := range AllStatuses() {
		assert.Equal(t, deletable[status], CanDelete(status), "status %s", status)
	}
}
