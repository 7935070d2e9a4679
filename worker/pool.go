package worker

import (
	"context"
	"log"
	"sync"

	"screen-translate-llm/translate"
)

// StreamFunc runs one streaming translation to completion, delivering events
// to the channel. Defaults to translate.Stream; tests substitute fakes.
type StreamFunc func(ctx context.Context, token uint64, png []byte, events chan<- translate.Event)

// Pool runs translation sessions off the interactive goroutine. The queue is
// a single slot with strict back-pressure: the state machine allows at most
// one visible session, so a second submission while one is in flight is
// refused rather than queued.
type Pool struct {
	jobs   chan job
	wg     sync.WaitGroup
	stream StreamFunc
}

type job struct {
	ctx    context.Context
	token  uint64
	png    []byte
	events chan<- translate.Event
}

// New creates the pool. A nil stream uses translate.Stream.
func New(stream StreamFunc) *Pool {
	if stream == nil {
		stream = translate.Stream
	}
	p := &Pool{jobs: make(chan job, 1), stream: stream}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for j := range p.jobs {
		log.Printf("Worker: starting translation, token=%d, payload=%d bytes", j.token, len(j.png))
		p.stream(j.ctx, j.token, j.png, j.events)
		log.Printf("Worker: translation finished, token=%d", j.token)
	}
}

// Submit enqueues a translation if the slot is free. Returns false when busy.
func (p *Pool) Submit(ctx context.Context, token uint64, png []byte, events chan<- translate.Event) bool {
	select {
	case p.jobs <- job{ctx: ctx, token: token, png: png, events: events}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
