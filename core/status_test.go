package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	all := []DocumentStatus{StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusDeleted}

	legal := map[DocumentStatus][]DocumentStatus{
		StatusPending:    {StatusProcessing, StatusDeleted},
		StatusProcessing: {StatusCompleted, StatusFailed, StatusDeleted},
		StatusCompleted:  {StatusDeleted},
		StatusFailed:     {StatusDeleted},
		StatusDeleted:    {},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, ok := range legal[from] {
				if to == ok {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusProcessing.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusDeleted.Terminal())
}

func TestCanReset(t *testing.T) {
	assert.True(t, StatusCompleted.CanReset())
	assert.True(t, StatusFailed.CanReset())
	assert.False(t, StatusPending.CanReset())
	assert.False(t, StatusProcessing.CanReset())
	assert.False(t, StatusDeleted.CanReset())
}
