// Package db is the sqlite journal backend built on GORM.
package db

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/govm-net/actions/core"
	"github.com/govm-net/actions/journal"
)

const (
	defaultDBPath = "./journal.db"
)

func init() {
	if err := journal.Register(journal.DBType, New); err != nil {
		panic(err)
	}
}

// DBReceipt is the stored form of a journal.Receipt.
type DBReceipt struct {
	gorm.Model
	GlobalSequence uint64           `gorm:"column:global_sequence;not null;unique;index"`
	Receiver       string           `gorm:"column:receiver;not null;index;size:13"`
	Action         string           `gorm:"column:action;not null;index;size:13"`
	Digest         string           `gorm:"column:digest;not null;size:64"`
	Authorizers    core.Authorizers `gorm:"column:authorizers;type:text;serializer:json"`
	Console        string           `gorm:"column:console;type:text"`
}

// TableName specifies the table name for DBReceipt
func (DBReceipt) TableName() string {
	return "receipts"
}

// Journal stores receipts in a sqlite database.
type Journal struct {
	db     *gorm.DB
	writer sync.Mutex
}

// New opens the database at params["db_path"], creating it if needed.
func New(params map[string]any) (journal.Journal, error) {
	dbPath := defaultDBPath
	if path, ok := params["db_path"].(string); ok && path != "" {
		dbPath = path
	}
	return Open(dbPath)
}

// Open opens the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&DBReceipt{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Journal{db: db}, nil
}

// Begin implements journal.Journal.
func (j *Journal) Begin() (journal.Tx, error) {
	j.writer.Lock()

	last, err := j.LastSequence()
	if err != nil {
		j.writer.Unlock()
		return nil, err
	}
	gtx := j.db.Begin()
	if gtx.Error != nil {
		j.writer.Unlock()
		return nil, fmt.Errorf("failed to begin transaction: %w", gtx.Error)
	}
	return &tx{j: j, db: gtx, next: last + 1}, nil
}

// List implements journal.Journal.
func (j *Journal) List(receiver core.Name) ([]journal.Receipt, error) {
	var rows []DBReceipt
	result := j.db.Where("receiver = ?", receiver.String()).Order("global_sequence").Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", result.Error)
	}

	out := make([]journal.Receipt, 0, len(rows))
	for _, row := range rows {
		r, err := row.receipt()
		if err != nil {
			return nil, fmt.Errorf("receipt %d: %w", row.GlobalSequence, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// LastSequence implements journal.Journal.
func (j *Journal) LastSequence() (uint64, error) {
	var last uint64
	result := j.db.Model(&DBReceipt{}).Select("COALESCE(MAX(global_sequence), 0)").Scan(&last)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to read last sequence: %w", result.Error)
	}
	return last, nil
}

// Close implements journal.Journal.
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type tx struct {
	j    *Journal
	db   *gorm.DB
	next uint64
	done bool
}

func (t *tx) Append(r *journal.Receipt) error {
	if t.done {
		return journal.ErrTxDone
	}
	row := newDBReceipt(r, t.next)
	if err := t.db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to append receipt: %w", err)
	}
	r.GlobalSequence = t.next
	r.CreatedAt = row.CreatedAt
	t.next++
	return nil
}

func (t *tx) Commit() error {
	if t.done {
		return journal.ErrTxDone
	}
	defer t.finish()
	if err := t.db.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit receipts: %w", err)
	}
	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return journal.ErrTxDone
	}
	defer t.finish()
	if err := t.db.Rollback().Error; err != nil {
		return fmt.Errorf("failed to roll back receipts: %w", err)
	}
	return nil
}

func (t *tx) finish() {
	t.done = true
	t.j.writer.Unlock()
}

func newDBReceipt(r *journal.Receipt, seq uint64) DBReceipt {
	row := DBReceipt{
		GlobalSequence: seq,
		Receiver:       r.Receiver.String(),
		Action:         r.Action.String(),
		Digest:         hex.EncodeToString(r.Digest[:]),
		Authorizers:    r.Authorizers,
		Console:        r.Console,
	}
	if !r.CreatedAt.IsZero() {
		row.CreatedAt = r.CreatedAt
	}
	return row
}

func (row DBReceipt) receipt() (journal.Receipt, error) {
	r := journal.Receipt{
		GlobalSequence: row.GlobalSequence,
		Authorizers:    row.Authorizers,
		Console:        row.Console,
		CreatedAt:      row.CreatedAt,
	}
	var err error
	if r.Receiver, err = core.ParseName(row.Receiver); err != nil {
		return r, err
	}
	if r.Action, err = core.ParseName(row.Action); err != nil {
		return r, err
	}
	digest, err := hex.DecodeString(row.Digest)
	if err != nil || len(digest) != len(r.Digest) {
		return r, fmt.Errorf("bad digest %q", row.Digest)
	}
	copy(r.Digest[:], digest)
	return r, nil
}
