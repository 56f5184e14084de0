// Package memory is the in-process journal backend. Receipts are lost when
// the process exits.
package memory

import (
	"slices"
	"sync"
	"time"

	"github.com/govm-net/actions/core"
	"github.com/govm-net/actions/journal"
)

func init() {
	if err := journal.Register(journal.MemoryType, New); err != nil {
		panic(err)
	}
}

// Journal keeps committed receipts in a slice ordered by global sequence.
type Journal struct {
	mu       sync.RWMutex
	receipts []journal.Receipt
	closed   bool

	writer chan struct{} // holds one token while a Tx is open
}

// New creates an empty journal. It takes no params.
func New(params map[string]any) (journal.Journal, error) {
	return NewJournal(), nil
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{writer: make(chan struct{}, 1)}
}

// Begin implements journal.Journal.
func (j *Journal) Begin() (journal.Tx, error) {
	j.writer <- struct{}{}

	last, err := j.LastSequence()
	if err != nil {
		<-j.writer
		return nil, err
	}
	return &tx{j: j, next: last + 1}, nil
}

// List implements journal.Journal.
func (j *Journal) List(receiver core.Name) ([]journal.Receipt, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		return nil, journal.ErrClosed
	}
	var out []journal.Receipt
	for _, r := range j.receipts {
		if r.Receiver == receiver {
			out = append(out, r)
		}
	}
	return out, nil
}

// LastSequence implements journal.Journal.
func (j *Journal) LastSequence() (uint64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		return 0, journal.ErrClosed
	}
	if len(j.receipts) == 0 {
		return 0, nil
	}
	return j.receipts[len(j.receipts)-1].GlobalSequence, nil
}

// Close implements journal.Journal.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.closed = true
	return nil
}

type tx struct {
	j      *Journal
	next   uint64
	staged []journal.Receipt
	done   bool
}

func (t *tx) Append(r *journal.Receipt) error {
	if t.done {
		return journal.ErrTxDone
	}
	r.GlobalSequence = t.next
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	t.next++
	staged := *r
	staged.Authorizers = slices.Clone(r.Authorizers)
	t.staged = append(t.staged, staged)
	return nil
}

func (t *tx) Commit() error {
	if t.done {
		return journal.ErrTxDone
	}
	defer t.finish()

	t.j.mu.Lock()
	defer t.j.mu.Unlock()
	if t.j.closed {
		return journal.ErrClosed
	}
	t.j.receipts = append(t.j.receipts, t.staged...)
	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return journal.ErrTxDone
	}
	t.finish()
	return nil
}

func (t *tx) finish() {
	t.done = true
	t.staged = nil
	<-t.j.writer
}
