package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	for _, st := range AllStatuses {
		got, ok := ParseStatus(string(st))
		assert.True(t, ok, "status %q should parse", st)
		assert.Equal(t, st, got)
	}
	for _, bad := range []string{"", "shipped", "PENDING", "done", "canceled"} {
		_, ok := ParseStatus(bad)
		assert.False(t, ok, "status %q should not parse", bad)
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, st := range AllStatuses {
		want := st == StatusDelivered || st == StatusCancelled
		assert.Equal(t, want, st.Terminal(), "status %q", st)
	}
}

func TestCanTransition_Pipeline(t *testing.T) {
	pipeline := []Status{
		StatusPending, StatusConfirmed, StatusPickupSchedule, StatusPickedUp,
		StatusProcessing, StatusReady, StatusOutForDelivery, StatusDelivered,
	}
	for i := 0; i < len(pipeline)-1; i++ {
		assert.True(t, CanTransition(pipeline[i], pipeline[i+1]),
			"%s -> %s", pipeline[i], pipeline[i+1])
	}
	// Jumps over a stage are not adjacent.
	assert.False(t, CanTransition(StatusPending, StatusProcessing))
	assert.False(t, CanTransition(StatusConfirmed, StatusDelivered))
	// No going backwards.
	assert.False(t, CanTransition(StatusReady, StatusProcessing))
}

func TestCanTransition_Cancellation(t *testing.T) {
	for _, st := range AllStatuses {
		if st.Terminal() {
			continue
		}
		assert.True(t, CanTransition(st, StatusCancelled), "cancel from %q", st)
	}
	assert.False(t, CanTransition(StatusDelivered, StatusCancelled))
}

func TestCanTransition_TerminalAndIdempotent(t *testing.T) {
	assert.False(t, CanTransition(StatusDelivered, StatusPending))
	assert.False(t, CanTransition(StatusCancelled, StatusConfirmed))
	// Re-setting the same status is always legal.
	for _, st := range AllStatuses {
		assert.True(t, CanTransition(st, st), "repeat %q", st)
	}
}
