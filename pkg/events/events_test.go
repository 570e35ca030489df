package events

import "testing"

func TestPublishDeliversToTopicSubscribers(t *testing.T) {
	b := NewBus()
	var got ChannelMutation
	calls := 0
	b.Subscribe("consumer-a", "topic", func(m ChannelMutation) {
		calls++
		got = m
	})
	b.Publish("topic", ChannelMutation{Montage: "m0", Channel: "c0", Reason: "filter"})
	if calls != 1 {
		t.Fatalf("expected exactly one delivery, got %d", calls)
	}
	if got.Montage != "m0" || got.Channel != "c0" || got.Reason != "filter" {
		t.Fatalf("unexpected mutation delivered: %+v", got)
	}
}

func TestPublishIgnoresOtherTopics(t *testing.T) {
	b := NewBus()
	calls := 0
	b.Subscribe("consumer-a", "topic-a", func(ChannelMutation) { calls++ })
	b.Publish("topic-b", ChannelMutation{})
	if calls != 0 {
		t.Fatalf("expected no delivery across topics, got %d", calls)
	}
}

func TestRemoveAllForUnsubscribesEveryTopic(t *testing.T) {
	b := NewBus()
	calls := 0
	b.Subscribe("consumer-a", "topic-a", func(ChannelMutation) { calls++ })
	b.Subscribe("consumer-a", "topic-b", func(ChannelMutation) { calls++ })
	b.Subscribe("consumer-b", "topic-a", func(ChannelMutation) { calls++ })

	b.RemoveAllFor("consumer-a")
	b.Publish("topic-a", ChannelMutation{})
	b.Publish("topic-b", ChannelMutation{})

	if calls != 1 {
		t.Fatalf("expected only consumer-b's subscription to survive, got %d calls", calls)
	}
}

func TestSubscribersDeliveredInRegistrationOrder(t *testing.T) {
	b := NewBus()
	var order []string
	b.Subscribe("a", "t", func(ChannelMutation) { order = append(order, "a") })
	b.Subscribe("b", "t", func(ChannelMutation) { order = append(order, "b") })
	b.Publish("t", ChannelMutation{})
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("expected [a b] delivery order, got %v", order)
	}
}
