package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventWireFormat(t *testing.T) {
	evt := Connected("shop", 7)

	data, err := json.Marshal(evt)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "connected", decoded["event"])
	assert.NotEmpty(t, decoded["timestamp"])
	payload, ok := decoded["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "shop", payload["client_type"])
	assert.EqualValues(t, 7, payload["client_id"])
}

func TestProductModerationFeeOnlyWhenCharged(t *testing.T) {
	approved := ProductModeration(KindProductApproved, 42, 7, 1, "Linen Blazer", "Atelier Nord", "approved", "", 5.0)
	assert.Equal(t, 5.0, approved.Data["approval_fee"])

	rejected := ProductModeration(KindProductRejected, 42, 7, 1, "Linen Blazer", "Atelier Nord", "rejected", "blurry photos", 0)
	assert.NotContains(t, rejected.Data, "approval_fee")
	assert.Equal(t, "blurry photos", rejected.Data["moderation_notes"])
}

func TestModerationQueueOmitsZeroProduct(t *testing.T) {
	withProduct := ModerationQueue(3, "added", 42)
	assert.EqualValues(t, 42, withProduct.Data["product_id"])

	bulk := ModerationQueue(3, "bulk_approve", 0)
	assert.NotContains(t, bulk.Data, "product_id")
}

func TestBalanceUpdatedComputesChange(t *testing.T) {
	evt := BalanceUpdated(7, 20, 15, "approval_fee")
	assert.Equal(t, -5.0, evt.Data["change_amount"])
	assert.Equal(t, "approval_fee", evt.Data["reason"])
}

func TestPongEchoesClientTimestamp(t *testing.T) {
	evt := Pong("2026-01-02T15:04:05Z")
	assert.Equal(t, KindPong, evt.Event)
	assert.Equal(t, "2026-01-02T15:04:05Z", evt.Data["timestamp"])
}
