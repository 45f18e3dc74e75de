package service

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStreamMessage(t *testing.T) {
	req, err := decodeStreamMessage(redis.XMessage{
		ID:     "1-0",
		Values: map[string]interface{}{"payload": `{"symbol":"AAPL","headline":"Apple beats earnings","request_id":"r1"}`},
	})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", req.Symbol)
	assert.Equal(t, "Apple beats earnings", req.Headline)
	assert.Equal(t, "r1", req.RequestID)
	assert.Equal(t, "stream", req.Source)

	req, err = decodeStreamMessage(redis.XMessage{
		Values: map[string]interface{}{"payload": `{"symbol":"AAPL","headline":"x","source":"feed"}`},
	})
	require.NoError(t, err)
	assert.Equal(t, "feed", req.Source)

	_, err = decodeStreamMessage(redis.XMessage{Values: map[string]interface{}{}})
	assert.Error(t, err)

	_, err = decodeStreamMessage(redis.XMessage{Values: map[string]interface{}{"payload": "{not json"}})
	assert.Error(t, err)
}
