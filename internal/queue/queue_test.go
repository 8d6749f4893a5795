package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	msg := Message{Type: "session.marked", Body: json.RawMessage(`{"session_id":"abc"}`)}
	raw, err := encode(msg)
	require.NoError(t, err)

	got, err := decode(raw)
	require.NoError(t, err)
	assert.Equal(t, msg.Type, got.Type)
	assert.JSONEq(t, string(msg.Body), string(got.Body))

	_, err = encode(Message{})
	assert.Error(t, err)
	_, err = decode("checkin|abc")
	assert.Error(t, err)
	_, err = decode(`{"body":{}}`)
	assert.Error(t, err)
}

func TestInMemoryDeliversInOrder(t *testing.T) {
	q := NewInMemory(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, typ := range []string{"a", "b", "c"} {
		require.NoError(t, q.Publish(ctx, Message{Type: typ}))
	}

	msgs, err := q.Consume(ctx)
	require.NoError(t, err)
	for _, want := range []string{"a", "b", "c"} {
		select {
		case got := <-msgs:
			assert.Equal(t, want, got.Type)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}

	cancel()
	select {
	case _, ok := <-msgs:
		assert.False(t, ok, "channel closes after cancel")
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestInMemoryPublishRespectsContext(t *testing.T) {
	q := NewInMemory(1)
	require.NoError(t, q.Publish(context.Background(), Message{Type: "a"}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Publish(ctx, Message{Type: "b"}), context.DeadlineExceeded)
}
