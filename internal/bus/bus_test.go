package bus

import (
	"fmt"
	"testing"
)

func TestBus_DeliversInPublishOrder(t *testing.T) {
	b := New()

	var got []string
	b.Subscribe(func(msg Broadcast) {
		got = append(got, msg.Text)
	})

	for i := 0; i < 5; i++ {
		b.Publish("tg:1", fmt.Sprintf("step %d", i))
	}

	if len(got) != 5 {
		t.Fatalf("Expected 5 broadcasts, got %d", len(got))
	}
	for i, text := range got {
		if want := fmt.Sprintf("step %d", i); text != want {
			t.Errorf("Broadcast %d: got %q, want %q", i, text, want)
		}
	}
}

func TestBus_FansOutToAllSubscribers(t *testing.T) {
	b := New()

	var first, second int
	b.Subscribe(func(Broadcast) { first++ })
	b.Subscribe(func(Broadcast) { second++ })

	b.Publish("tg:1", "hello")

	if first != 1 || second != 1 {
		t.Errorf("Expected both subscribers to receive, got %d and %d", first, second)
	}
	if b.Count() != 2 {
		t.Errorf("Expected 2 subscribers, got %d", b.Count())
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	b := New()

	var calls int
	id := b.Subscribe(func(Broadcast) { calls++ })

	if !b.Unsubscribe(id) {
		t.Fatal("Expected unsubscribe to find the subscription")
	}
	if b.Unsubscribe(id) {
		t.Error("Second unsubscribe must report not found")
	}

	b.Publish("tg:1", "after unsubscribe")
	if calls != 0 {
		t.Errorf("Unsubscribed handler was called %d times", calls)
	}
}

func TestBus_PanickingSubscriberIsIsolated(t *testing.T) {
	b := New()

	var delivered bool
	b.Subscribe(func(Broadcast) { panic("bad subscriber") })
	b.Subscribe(func(Broadcast) { delivered = true })

	b.Publish("tg:1", "survives")

	if !delivered {
		t.Error("A panicking subscriber must not block delivery to others")
	}
}

func TestBus_CarriesSessionAndTimestamp(t *testing.T) {
	b := New()

	var got Broadcast
	b.Subscribe(func(msg Broadcast) { got = msg })

	b.Publish("dc:42", "payload")

	if got.SessionID != "dc:42" || got.Text != "payload" {
		t.Errorf("Unexpected broadcast: %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Error("Broadcast must be timestamped")
	}
}
