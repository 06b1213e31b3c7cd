package gateway

import (
	"testing"

	"github.com/google/uuid"
)

func TestFilterZeroValueMatchesEverything(t *testing.T) {
	if !(Filter{}).Matches(Row{"anything": 1}) {
		t.Fatal("zero filter must match")
	}
}

func TestFilterEqAcrossEncodings(t *testing.T) {
	id := uuid.New()
	f := Eq("user_id", id)
	if !f.Matches(Row{"user_id": id.String()}) {
		t.Fatal("uuid vs string equality expected")
	}
	if f.Matches(Row{"user_id": uuid.NewString()}) {
		t.Fatal("different id must not match")
	}
}

func TestFilterInSet(t *testing.T) {
	f := In("conversation_id", "a", "b")
	if !f.Matches(Row{"conversation_id": "b"}) {
		t.Fatal("in-set match expected")
	}
	if f.Matches(Row{"conversation_id": "c"}) {
		t.Fatal("out-of-set must not match")
	}
}

func TestFilterComposite(t *testing.T) {
	me := uuid.NewString()
	other := uuid.NewString()
	// either side of a friendship edge
	f := Or(
		And(Eq("user_id", me), Eq("friend_id", other)),
		And(Eq("user_id", other), Eq("friend_id", me)),
	)
	if !f.Matches(Row{"user_id": other, "friend_id": me}) {
		t.Fatal("reverse edge should match")
	}
	if f.Matches(Row{"user_id": me, "friend_id": me}) {
		t.Fatal("self edge should not match")
	}
	if !Not(f).Matches(Row{"user_id": me, "friend_id": me}) {
		t.Fatal("negation expected to match")
	}
}

func TestMemoryBrokerFanOutAndUnsubscribe(t *testing.T) {
	broker := NewMemoryBroker()
	var got []Event
	handle, err := broker.Subscribe("messages", func(ev Event) { got = append(got, ev) })
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	ev := Event{Kind: EventInsert, Table: "messages", Row: Row{"id": "1"}}
	if err := broker.Publish(t.Context(), "messages", ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}

	if err := handle.Unsubscribe(); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if err := broker.Publish(t.Context(), "messages", ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(got) != 1 {
		t.Fatal("no events expected after unsubscribe")
	}
}
