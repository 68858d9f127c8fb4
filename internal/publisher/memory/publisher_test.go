package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishRecordsJSONMessages(t *testing.T) {
	t.Parallel()

	p := New()
	ctx := context.Background()

	id, err := p.Publish(ctx, "harvest-events", map[string]any{"outcome": "success"})
	require.NoError(t, err)
	assert.Equal(t, "mem-1", id)

	id, err = p.Publish(ctx, "harvest-events", map[string]any{"outcome": "failed"})
	require.NoError(t, err)
	assert.Equal(t, "mem-2", id)

	msgs := p.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "harvest-events", msgs[0].Topic)
	assert.JSONEq(t, `{"outcome":"success"}`, string(msgs[0].Payload))
	assert.JSONEq(t, `{"outcome":"failed"}`, string(msgs[1].Payload))
}

func TestPublishRejectsUnmarshalablePayload(t *testing.T) {
	t.Parallel()

	p := New()
	_, err := p.Publish(context.Background(), "t", make(chan int))
	require.Error(t, err)
	assert.Empty(t, p.Messages())
}
