package amqp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionSyncMessageRoundTrip(t *testing.T) {
	msg := NewTransactionSyncMessage("tx-123", 2)
	assert.Equal(t, "tx-123", msg.ID)
	assert.Equal(t, int64(2), msg.Version)
	assert.WithinDuration(t, time.Now(), msg.Timestamp, time.Second)

	raw, err := msg.ToJSON()
	require.NoError(t, err)

	got, err := TransactionSyncMessageFromJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, msg.Version, got.Version)
	assert.True(t, msg.Timestamp.Equal(got.Timestamp))
}

func TestTransactionSyncMessageFromJSONMalformed(t *testing.T) {
	_, err := TransactionSyncMessageFromJSON([]byte("not json"))
	assert.Error(t, err)
}
