package worker

import (
	"context"
	"testing"
	"time"

	"screen-translate-llm/translate"
)

func TestPoolRunsSubmittedStream(t *testing.T) {
	stream := func(ctx context.Context, token uint64, png []byte, events chan<- translate.Event) {
		events <- translate.Event{Token: token, Kind: translate.EventChunk, Text: "hi"}
		events <- translate.Event{Token: token, Kind: translate.EventDone}
	}
	p := New(stream)
	defer p.Close()

	events := make(chan translate.Event, 4)
	if !p.Submit(context.Background(), 1, []byte("png"), events) {
		t.Fatal("submit into an empty pool must succeed")
	}

	if ev := <-events; ev.Kind != translate.EventChunk || ev.Text != "hi" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev := <-events; ev.Kind != translate.EventDone {
		t.Fatalf("unexpected terminal %+v", ev)
	}
}

func TestPoolDropsWhenBusy(t *testing.T) {
	release := make(chan struct{})
	stream := func(ctx context.Context, token uint64, png []byte, events chan<- translate.Event) {
		<-release
	}
	p := New(stream)
	defer p.Close()
	defer close(release)

	events := make(chan translate.Event, 1)
	if !p.Submit(context.Background(), 1, nil, events) {
		t.Fatal("first submit should succeed")
	}

	// Give the worker time to take the job so the slot state is settled;
	// either way, with one slot and one in-flight job the third must drop.
	time.Sleep(20 * time.Millisecond)
	ok2 := p.Submit(context.Background(), 2, nil, events)
	ok3 := p.Submit(context.Background(), 3, nil, events)
	if ok2 && ok3 {
		t.Fatal("expected at least one submit to drop due to the full slot")
	}
}
