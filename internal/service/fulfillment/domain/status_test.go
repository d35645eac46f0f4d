package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		current ItemStatus
		want    ItemStatus
	}{
		{ItemStatusUnfulfilled, ItemStatusFulfilled},
		{ItemStatusFulfilled, ItemStatusShipped},
		{ItemStatusShipped, ItemStatusShipped},
		{ItemStatusBackordered, ItemStatusBackordered},
		{ItemStatusCanceled, ItemStatusCanceled},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NextStatus(tt.current), "from %s", tt.current)
	}
}

func TestNextStatusShippedIsFixedPoint(t *testing.T) {
	s := ItemStatusUnfulfilled
	for i := 0; i < 5; i++ {
		s = NextStatus(s)
	}
	assert.Equal(t, ItemStatusShipped, s)
}

func TestIsValidItemStatus(t *testing.T) {
	for _, s := range []ItemStatus{ItemStatusUnfulfilled, ItemStatusBackordered, ItemStatusFulfilled, ItemStatusShipped, ItemStatusCanceled} {
		assert.True(t, IsValidItemStatus(s))
	}
	assert.False(t, IsValidItemStatus("Pending"))
	assert.False(t, IsValidItemStatus(""))
	assert.False(t, IsValidItemStatus("unfulfilled"))
}
