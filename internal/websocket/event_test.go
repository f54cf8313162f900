package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_CombinesEntityAndType(t *testing.T) {
	evt := NewEvent(EventTypeCreated, EntityTypeLoan, map[string]string{"description": "Working capital"})

	assert.Equal(t, "loan.created", evt.Type)
	assert.Equal(t, EntityTypeLoan, evt.Entity)
	assert.WithinDuration(t, time.Now().UTC(), evt.Timestamp, time.Second)
}

func TestEventToJSON(t *testing.T) {
	evt := NewEvent(EventTypeCancelled, EntityTypeLoan, map[string]interface{}{"id": float64(7)})

	data, err := evt.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "loan.cancelled", decoded["type"])
	assert.Equal(t, "loan", decoded["entity"])

	payload, ok := decoded["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(7), payload["id"])
}
