package events

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), "any", SearchRecorded{Term: "x"}))
}

func TestNATS_Publish(t *testing.T) {
	url := os.Getenv("NATS_TEST_URL")
	if url == "" {
		t.Skip("NATS_TEST_URL not set")
	}

	sub, err := nats.Connect(url)
	require.NoError(t, err)
	defer sub.Close()
	msgs := make(chan *nats.Msg, 1)
	s, err := sub.ChanSubscribe("moodreel.test.recorded", msgs)
	require.NoError(t, err)
	defer s.Unsubscribe()
	require.NoError(t, sub.Flush())

	p, err := NewNATS(url)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Publish(context.Background(), "moodreel.test.recorded", SearchRecorded{Term: "batman", Count: 2}))

	select {
	case msg := <-msgs:
		var got SearchRecorded
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		assert.Equal(t, "batman", got.Term)
		assert.Equal(t, int64(2), got.Count)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestNATS_PublishCanceled(t *testing.T) {
	p := &NATS{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, "x", nil), context.Canceled)
}
