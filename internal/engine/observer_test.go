package engine

import (
	"context"
	"testing"
)

// MockObserver is a test observer that records events
type MockObserver struct {
	Events []Event
}

func (m *MockObserver) OnEvent(event Event) {
	m.Events = append(m.Events, event)
}

func (m *MockObserver) types() []EventType {
	out := make([]EventType, len(m.Events))
	for i, ev := range m.Events {
		out[i] = ev.Type
	}
	return out
}

func TestAddObserver(t *testing.T) {
	eng := New(nil, nil, nil)
	observer := &MockObserver{}

	eng.AddObserver(observer)

	if len(eng.observers) != 1 {
		t.Errorf("Expected 1 observer, got %d", len(eng.observers))
	}
}

func TestRemoveObserver(t *testing.T) {
	eng := New(nil, nil, nil)
	observer := &MockObserver{}

	eng.AddObserver(observer)
	eng.RemoveObserver(observer)

	if len(eng.observers) != 0 {
		t.Errorf("Expected 0 observers, got %d", len(eng.observers))
	}
}

func TestNotifyWithNoObservers(t *testing.T) {
	eng := New(nil, nil, nil)

	// Should not panic
	eng.notify(Event{Type: EventOpStart, TxID: "test-tx"})
}

func TestNotifyWithMultipleObservers(t *testing.T) {
	observer1 := &MockObserver{}
	observer2 := &MockObserver{}
	eng := New(nil, nil, nil, WithObserver(observer1))
	eng.AddObserver(observer2)

	eng.notify(Event{Type: EventOpStart, TxID: "test-tx", Table: "users"})

	if len(observer1.Events) != 1 {
		t.Errorf("Observer1: Expected 1 event, got %d", len(observer1.Events))
	}
	if len(observer2.Events) != 1 {
		t.Errorf("Observer2: Expected 1 event, got %d", len(observer2.Events))
	}
	if observer1.Events[0].Timestamp.IsZero() {
		t.Error("Expected timestamp to be set, got zero value")
	}
}

func TestLifecycleEventsShareTxID(t *testing.T) {
	observer := &MockObserver{}
	eng := newTestEngine(t, WithObserver(observer))

	if _, err := eng.Create(context.Background(), "users", record(t, `{"name": "Ada"}`)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	want := []EventType{EventOpStart, EventTxCommit, EventOpEnd}
	got := observer.types()
	if len(got) != len(want) {
		t.Fatalf("Expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], got[i])
		}
		if observer.Events[i].TxID != observer.Events[0].TxID {
			t.Errorf("Event %d has a different tx id", i)
		}
		if observer.Events[i].Op != "create" || observer.Events[i].Table != "users" {
			t.Errorf("Event %d: unexpected op/table %s/%s", i, observer.Events[i].Op, observer.Events[i].Table)
		}
	}
}

func TestFailedMutationRollsBack(t *testing.T) {
	observer := &MockObserver{}
	eng := newTestEngine(t, WithObserver(observer))

	// name is NOT NULL
	if _, err := eng.Create(context.Background(), "users", record(t, `{"email": "x@example.com"}`)); err == nil {
		t.Fatal("Expected the insert to be rejected")
	}

	got := observer.types()
	want := []EventType{EventOpStart, EventTxAbort, EventOpError}
	if len(got) != len(want) {
		t.Fatalf("Expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
