package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kandev/meddler/internal/domain"
)

func TestNotifyToUnknownNameReturnsFalse(t *testing.T) {
	m := NewManager()
	delivered := m.Notify("nobody", AgentMessageEvent(domain.Message{Content: "hi"}))
	assert.False(t, delivered)
}

func TestSubscribeThenNotifyDelivers(t *testing.T) {
	m := NewManager()
	sub := m.Subscribe("agent")
	defer sub.Close()

	assert.True(t, m.IsConnected("agent"))

	delivered := m.Notify("agent", AgentMessageEvent(domain.Message{Content: "hi"}))
	assert.True(t, delivered)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	event, ok := sub.Recv(ctx)
	require.True(t, ok)
	require.NotNil(t, event.Message)
	assert.Equal(t, "hi", event.Message.Content)
}

func TestMultipleSubscribersEachReceiveEverySend(t *testing.T) {
	m := NewManager()
	sub1 := m.Subscribe("agent")
	sub2 := m.Subscribe("agent")
	defer sub1.Close()
	defer sub2.Close()

	m.Notify("agent", AgentMessageEvent(domain.Message{Content: "broadcast"}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	e1, ok := sub1.Recv(ctx)
	require.True(t, ok)
	assert.Equal(t, "broadcast", e1.Message.Content)

	e2, ok := sub2.Recv(ctx)
	require.True(t, ok)
	assert.Equal(t, "broadcast", e2.Message.Content)
}

func TestIsConnectedFalseAfterLastUnsubscribe(t *testing.T) {
	m := NewManager()
	sub := m.Subscribe("agent")
	assert.True(t, m.IsConnected("agent"))

	sub.Close()
	assert.False(t, m.IsConnected("agent"))

	// the channel itself is retained, not removed, on last unsubscribe
	assert.False(t, m.Notify("agent", AgentMessageEvent(domain.Message{Content: "x"})))
}

func TestOverflowDropsOldestNotNewest(t *testing.T) {
	m := NewManager()
	sub := m.Subscribe("agent")
	defer sub.Close()

	total := subscriberBufferSize + 10
	for i := 0; i < total; i++ {
		m.Notify("agent", AgentMessageEvent(domain.Message{Content: seqContent(i)}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	first, ok := sub.Recv(ctx)
	require.True(t, ok)
	// the oldest 10 sends should have been evicted, so the first delivered
	// event is #10, not #0.
	assert.Equal(t, seqContent(10), first.Message.Content)
}

func TestRemoveTerminatesSubscribersOnNextRead(t *testing.T) {
	m := NewManager()
	sub := m.Subscribe("agent")

	m.Remove("agent")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, ok := sub.Recv(ctx)
	assert.False(t, ok)
}

func TestReconnectAfterRemoveCreatesFreshChannel(t *testing.T) {
	m := NewManager()
	sub := m.Subscribe("agent")
	m.Remove("agent")
	sub.Close() // closing an already-removed subscription must not panic

	sub2 := m.Subscribe("agent")
	defer sub2.Close()
	assert.True(t, m.IsConnected("agent"))
}

func seqContent(i int) string {
	return fmt.Sprintf("msg-%d", i)
}
