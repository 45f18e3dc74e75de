package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("2024-05-01T13:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 13, 30, 0, 0, time.UTC), got)

	got, err = ParseTimestamp("2024-05-01T15:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 13, 30, 0, 0, time.UTC), got)

	got, err = ParseTimestamp("2024-05-01T13:30:00.123456")
	require.NoError(t, err)
	assert.Equal(t, 123456000, got.Nanosecond())

	_, err = ParseTimestamp("invalid-timestamp")
	assert.Error(t, err)
}
