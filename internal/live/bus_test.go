package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToMatchingPrefix(t *testing.T) {
	bus := NewBus()

	ch, unsubscribe := bus.Subscribe(TopicChat("c1"), 4)
	defer unsubscribe()

	bus.Publish(NewEvent(TopicChat("c1"), KindMessageAppended, "hello"))

	select {
	case evt := <-ch:
		assert.Equal(t, KindMessageAppended, evt.Kind)
		assert.Equal(t, "hello", evt.Payload)
	default:
		t.Fatal("expected an event on the subscription channel")
	}
}

func TestBusSkipsNonMatchingTopics(t *testing.T) {
	bus := NewBus()

	ch, unsubscribe := bus.Subscribe(TopicChat("c1"), 4)
	defer unsubscribe()

	bus.Publish(NewEvent(TopicChat("c2"), KindMessageAppended, nil))
	bus.Publish(NewEvent(TopicChats("u1"), KindChatUpdated, nil))

	assert.Empty(t, ch)
}

func TestBusTopicDoesNotMatchExtendedIDs(t *testing.T) {
	bus := NewBus()

	ch, unsubscribe := bus.Subscribe(TopicChat("alice:bob"), 4)
	defer unsubscribe()

	// "alice:bob" is a proper prefix of "alice:bobby"; the subscription
	// must still be scoped to its own chat.
	bus.Publish(NewEvent(TopicChat("alice:bobby"), KindMessageAppended, "leak"))
	assert.Empty(t, ch)

	bus.Publish(NewEvent(TopicChat("alice:bob"), KindMessageAppended, "ok"))
	require.Len(t, ch, 1)
	evt := <-ch
	assert.Equal(t, TopicChat("alice:bob"), evt.Topic)
}

func TestBusPrefixMatchesAllUserTopics(t *testing.T) {
	bus := NewBus()

	ch, unsubscribe := bus.Subscribe("user.", 8)
	defer unsubscribe()

	bus.Publish(NewEvent(TopicUser("u1"), KindRelationUpdated, nil))
	bus.Publish(NewEvent(TopicUser("u2"), KindProfileUpdated, nil))

	require.Len(t, ch, 2)
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()

	ch, unsubscribe := bus.Subscribe(TopicUser("u1"), 4)
	require.Equal(t, 1, bus.SubscriberCount())

	unsubscribe()
	assert.Equal(t, 0, bus.SubscriberCount())

	bus.Publish(NewEvent(TopicUser("u1"), KindProfileUpdated, nil))
	assert.Empty(t, ch)

	// Disposer is safe to call twice.
	unsubscribe()
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewBus()

	ch, unsubscribe := bus.Subscribe(TopicChat("c1"), 1)
	defer unsubscribe()

	bus.Publish(NewEvent(TopicChat("c1"), KindMessageAppended, 1))
	bus.Publish(NewEvent(TopicChat("c1"), KindMessageAppended, 2))

	// The second publish must not block; the slow subscriber just loses it.
	require.Len(t, ch, 1)
	evt := <-ch
	assert.Equal(t, 1, evt.Payload)
}
