// Package runtime applies transactions to one contract: every action of a
// transaction is dispatched in order and a receipt is journaled for each.
// A transaction either completes as a whole or leaves the journal untouched.
package runtime

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/govm-net/actions/abi"
	"github.com/govm-net/actions/core"
	"github.com/govm-net/actions/dispatch"
	"github.com/govm-net/actions/journal"
	_ "github.com/govm-net/actions/journal/db"
	_ "github.com/govm-net/actions/journal/memory"
	"github.com/govm-net/actions/registry"
)

// ErrEmptyTransaction is returned when a transaction carries no actions.
var ErrEmptyTransaction = errors.New("transaction has no actions")

// Transaction is an ordered list of invocations applied atomically.
type Transaction struct {
	Actions []registry.Invocation
}

// TransactionResult holds the outcome and receipt of every action.
type TransactionResult struct {
	Outcomes []*dispatch.Outcome
	Receipts []journal.Receipt
}

// ActionError reports which action of a transaction failed.
type ActionError struct {
	Index int
	Err   error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action %d: %v", e.Index, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Runtime serializes transactions for one contract.
type Runtime struct {
	config     *Config
	receiver   core.Name
	dispatcher *dispatch.Dispatcher
	journal    journal.Journal
	logger     *slog.Logger

	mu sync.Mutex
}

// Option configures a Runtime.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	journal   journal.Journal
	observers []dispatch.Observer
}

// WithLogger sets the logger of the runtime and its dispatcher.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithJournal uses j instead of opening the configured journal.
func WithJournal(j journal.Journal) Option {
	return func(o *options) {
		o.journal = j
	}
}

// WithObserver adds a dispatch observer.
func WithObserver(obs dispatch.Observer) Option {
	return func(o *options) {
		o.observers = append(o.observers, obs)
	}
}

// New creates a runtime serving the actions of reg.
func New(config *Config, reg *registry.Registry, opts ...Option) (*Runtime, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	receiver, err := core.ParseName(config.Receiver)
	if err != nil {
		return nil, err
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if config.Manifest != "" {
		m, err := abi.LoadManifest(config.Manifest)
		if err != nil {
			return nil, err
		}
		if err := m.Verify(reg); err != nil {
			return nil, fmt.Errorf("registry does not match %s: %w", config.Manifest, err)
		}
	}

	j := o.journal
	if j == nil {
		j, err = journal.Open(journal.Type(config.JournalType), config.JournalParams)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
	}

	dopts := []dispatch.Option{dispatch.WithLogger(o.logger)}
	for _, obs := range o.observers {
		dopts = append(dopts, dispatch.WithObserver(obs))
	}

	return &Runtime{
		config:     config,
		receiver:   receiver,
		dispatcher: dispatch.New(receiver, reg, dopts...),
		journal:    j,
		logger:     o.logger.With("receiver", receiver),
	}, nil
}

// Dispatcher returns the dispatcher transactions run through.
func (r *Runtime) Dispatcher() *dispatch.Dispatcher {
	return r.dispatcher
}

// Apply dispatches the actions of tx in order. The first failing action
// stops the transaction, discards every receipt staged so far and is
// returned as an *ActionError.
func (r *Runtime) Apply(tx Transaction) (*TransactionResult, error) {
	if len(tx.Actions) == 0 {
		return nil, ErrEmptyTransaction
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	jtx, err := r.journal.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin journal transaction: %w", err)
	}

	abort := func(err error) (*TransactionResult, error) {
		if rbErr := jtx.Rollback(); rbErr != nil {
			r.logger.Error("journal rollback failed", "error", rbErr)
		}
		return nil, err
	}

	result := &TransactionResult{
		Outcomes: make([]*dispatch.Outcome, 0, len(tx.Actions)),
		Receipts: make([]journal.Receipt, 0, len(tx.Actions)),
	}
	for i, inv := range tx.Actions {
		out, err := r.dispatcher.Dispatch(inv)
		if err != nil {
			r.logger.Warn("transaction aborted", "index", i, "action", inv.Action, "error", err)
			return abort(&ActionError{Index: i, Err: err})
		}

		receipt := journal.Receipt{
			Receiver:    out.Receiver,
			Action:      out.Action,
			Digest:      out.Digest,
			Authorizers: out.Authorizers,
			Console:     out.Console,
		}
		if err := jtx.Append(&receipt); err != nil {
			return abort(&ActionError{Index: i, Err: err})
		}
		result.Outcomes = append(result.Outcomes, out)
		result.Receipts = append(result.Receipts, receipt)
	}

	if err := jtx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit journal transaction: %w", err)
	}
	r.logger.Info("transaction applied",
		"actions", len(result.Receipts),
		"first_sequence", result.Receipts[0].GlobalSequence,
		"last_sequence", result.Receipts[len(result.Receipts)-1].GlobalSequence)
	return result, nil
}

// Receipts returns the committed receipts of the runtime's contract.
func (r *Runtime) Receipts() ([]journal.Receipt, error) {
	return r.journal.List(r.receiver)
}

// Close closes the journal.
func (r *Runtime) Close() error {
	return r.journal.Close()
}
