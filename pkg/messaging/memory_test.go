package messaging

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBrokerPublishSubscribe(t *testing.T) {
	b := NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx, "push")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "push", PushMessage{PatientID: "p1", Title: "hi"}))
	require.NoError(t, b.Publish(ctx, "other", PushMessage{PatientID: "p2"}))

	var got PushMessage
	require.NoError(t, json.Unmarshal(<-ch, &got))
	assert.Equal(t, "p1", got.PatientID)
	assert.Empty(t, ch)

	require.NoError(t, b.Close())
	_, open := <-ch
	assert.False(t, open)
	assert.Error(t, b.Publish(ctx, "push", PushMessage{}))
}
