package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrendsService_Get(t *testing.T) {
	tr := NewTrendsService().Get("u1")

	assert.Len(t, tr.HeartRate, 6)
	assert.Equal(t, HeartRatePoint{"6AM", 65}, tr.HeartRate[0])
	assert.Len(t, tr.Steps, 7)
	assert.Equal(t, "Sun", tr.Steps[6].Day)
}
