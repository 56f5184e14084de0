// Package journal records the receipts of dispatched actions.
//
// A runtime opens one Tx per transaction, appends a receipt for every action
// that completed and commits only when the whole transaction succeeded. A
// rolled back Tx leaves no trace. Backends register themselves under a Type
// and are opened by name, usually from runtime configuration.
package journal

import (
	"errors"
	"time"

	"github.com/govm-net/actions/core"
)

// ErrTxDone is returned by a Tx used after Commit or Rollback.
var ErrTxDone = errors.New("journal transaction already finished")

// ErrClosed is returned by a journal used after Close.
var ErrClosed = errors.New("journal is closed")

// Receipt is the record of one completed action.
type Receipt struct {
	Receiver       core.Name
	Action         core.Name
	Digest         [32]byte
	GlobalSequence uint64
	Authorizers    core.Authorizers
	Console        string
	CreatedAt      time.Time
}

// Journal stores receipts in global sequence order.
type Journal interface {
	// Begin starts a write transaction. Only one Tx is open at a time;
	// Begin waits for the previous one to finish.
	Begin() (Tx, error)
	// List returns the committed receipts of receiver in sequence order
	List(receiver core.Name) ([]Receipt, error)
	// LastSequence returns the highest committed global sequence, 0 if none
	LastSequence() (uint64, error)
	// Close releases the backend
	Close() error
}

// Tx is an open write transaction on a Journal.
type Tx interface {
	// Append assigns r the next global sequence and stages it
	Append(r *Receipt) error
	// Commit makes every staged receipt visible
	Commit() error
	// Rollback drops every staged receipt
	Rollback() error
}
