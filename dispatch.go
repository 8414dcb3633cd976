package understory

import "context"

// defaultQueueCapacity bounds the incremental dispatch queue. Producers
// buffer up to this many findings before offer blocks on the consumer (or
// unblocks on cancellation).
const defaultQueueCapacity = 200

// dispatchItem is one freshly found issue queued for the presentation
// collaborator while the pass is still running.
type dispatchItem struct {
	finding storedFinding
	rule    Rule
	meta    RuleMeta
	unit    *SourceUnit

	// flush marks a barrier item: the consumer closes the channel instead of
	// applying anything, signalling that every earlier item has been drained.
	flush chan struct{}
}

// dispatcher is the bounded multi-producer/single-consumer queue feeding the
// live sink. Items from different rules may arrive out of discovery order,
// but items from one rule on one unit preserve it (a rule's reporter offers
// serially).
type dispatcher struct {
	ch   chan dispatchItem
	done chan struct{}
}

func newDispatcher(capacity int) *dispatcher {
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	return &dispatcher{
		ch:   make(chan dispatchItem, capacity),
		done: make(chan struct{}),
	}
}

// start launches the single consumer goroutine. apply is invoked off the
// producers' goroutines, one item at a time; the consumer checks the pass's
// cancellation signal before applying each item and stops draining once
// cancellation is observed.
func (d *dispatcher) start(ctx context.Context, apply func(dispatchItem)) {
	go func() {
		defer close(d.done)
		for item := range d.ch {
			if item.flush != nil {
				close(item.flush)
				continue
			}
			if ctx.Err() != nil {
				return
			}
			apply(item)
		}
	}()
}

// offer enqueues an item. It blocks only while the queue is full and the
// pass is still live; cancellation unblocks the producer immediately.
func (d *dispatcher) offer(ctx context.Context, item dispatchItem) {
	select {
	case d.ch <- item:
	case <-ctx.Done():
	}
}

// drain blocks until every item offered so far has been consumed. Used as
// the phase barrier: priority-range diagnostics reach the sink before the
// rest scan begins. Returns early on cancellation or consumer exit.
func (d *dispatcher) drain(ctx context.Context) {
	barrier := make(chan struct{})
	select {
	case d.ch <- dispatchItem{flush: barrier}:
	case <-ctx.Done():
		return
	}
	select {
	case <-barrier:
	case <-ctx.Done():
	case <-d.done:
	}
}

// close stops accepting items. Producers must not offer after close.
func (d *dispatcher) close() {
	close(d.ch)
}

// wait blocks until the consumer goroutine has exited.
func (d *dispatcher) wait() {
	<-d.done
}
