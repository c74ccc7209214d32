package indexer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"photo-index/internal/database"
	"photo-index/internal/logging"
)

// Run modes, also used as metric labels.
const (
	ModeCommit = "commit"
	ModeDryRun = "dry_run"
)

// Sink receives the writes of a reconciliation pass. Writes between two
// Flush calls belong to one directory and are applied together or not at all.
type Sink interface {
	Mode() string
	PutDirectory(ctx context.Context, dir *database.Directory) error
	PutPhoto(ctx context.Context, photo *database.Photo) error
	DeleteDirectory(ctx context.Context, userPath string) error
	DeletePhoto(ctx context.Context, userPath, filename string) error
	DeletePhotosIn(ctx context.Context, userPath string) error
	Flush(ctx context.Context) error
	// Abort discards writes since the last Flush.
	Abort(cause error) error
}

// ApplySink writes to the database. Each directory's writes run in one
// transaction that is opened lazily and committed on Flush.
type ApplySink struct {
	db *database.Database
	tx *sql.Tx
}

// NewApplySink creates a sink that commits to db.
func NewApplySink(db *database.Database) *ApplySink {
	return &ApplySink{db: db}
}

// Mode implements Sink.
func (s *ApplySink) Mode() string { return ModeCommit }

func (s *ApplySink) begin() (*sql.Tx, error) {
	if s.tx != nil {
		return s.tx, nil
	}
	tx, err := s.db.BeginBatch()
	if err != nil {
		return nil, fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	s.tx = tx
	return tx, nil
}

// exec runs fn inside the open transaction and rolls back if it fails.
func (s *ApplySink) exec(fn func(tx *sql.Tx) error) error {
	tx, err := s.begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return s.Abort(err)
	}
	return nil
}

// PutDirectory implements Sink.
func (s *ApplySink) PutDirectory(ctx context.Context, dir *database.Directory) error {
	return s.exec(func(tx *sql.Tx) error { return s.db.ReplaceDirectory(tx, dir) })
}

// PutPhoto implements Sink.
func (s *ApplySink) PutPhoto(ctx context.Context, photo *database.Photo) error {
	return s.exec(func(tx *sql.Tx) error { return s.db.ReplacePhoto(tx, photo) })
}

// DeleteDirectory implements Sink.
func (s *ApplySink) DeleteDirectory(ctx context.Context, userPath string) error {
	return s.exec(func(tx *sql.Tx) error { return s.db.DeleteDirectory(tx, userPath) })
}

// DeletePhoto implements Sink.
func (s *ApplySink) DeletePhoto(ctx context.Context, userPath, filename string) error {
	return s.exec(func(tx *sql.Tx) error { return s.db.DeletePhoto(tx, userPath, filename) })
}

// DeletePhotosIn implements Sink.
func (s *ApplySink) DeletePhotosIn(ctx context.Context, userPath string) error {
	return s.exec(func(tx *sql.Tx) error {
		n, err := s.db.DeletePhotosIn(tx, userPath)
		if err == nil && n > 0 {
			logging.Debug("Purged %d photos of %s", n, userPath)
		}
		return err
	})
}

// Flush commits the open transaction, if any.
func (s *ApplySink) Flush(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := s.db.EndBatch(tx, nil); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Abort rolls back the open transaction and returns cause, joined with any
// rollback failure.
func (s *ApplySink) Abort(cause error) error {
	if s.tx == nil {
		return cause
	}
	tx := s.tx
	s.tx = nil
	return s.db.EndBatch(tx, cause)
}

// Operation kinds recorded by PlanSink.
const (
	OpPutDirectory    = "REPLACE dirs"
	OpPutPhoto        = "REPLACE photos"
	OpDeleteDirectory = "DELETE dirs"
	OpDeletePhoto     = "DELETE photos"
	OpDeletePhotosIn  = "DELETE photos IN"
)

// Operation is one write a dry run would have made.
type Operation struct {
	Kind      string
	UserPath  string
	Filename  string
	Directory *database.Directory
	Photo     *database.Photo
}

// String renders the operation for the dry-run listing. Replacements carry
// the complete record so the plan can be audited field by field.
func (op Operation) String() string {
	switch op.Kind {
	case OpPutDirectory:
		return fmt.Sprintf("%s user_path=%q %s", op.Kind, op.UserPath, recordJSON(op.Directory))
	case OpPutPhoto:
		return fmt.Sprintf("%s user_path=%q filename=%q %s", op.Kind, op.UserPath, op.Filename, recordJSON(op.Photo))
	case OpDeletePhoto:
		return fmt.Sprintf("%s user_path=%q filename=%q", op.Kind, op.UserPath, op.Filename)
	default:
		return fmt.Sprintf("%s user_path=%q", op.Kind, op.UserPath)
	}
}

func recordJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<unencodable: %v>", err)
	}
	return string(data)
}

// PlanSink records writes instead of executing them and prints each one to
// out as it arrives. Nothing is ever discarded: Abort keeps what was planned
// so a failing dry run still shows how far it got.
type PlanSink struct {
	mu  sync.Mutex
	out io.Writer
	ops []Operation
}

// NewPlanSink creates a dry-run sink printing to out. A nil out only records.
func NewPlanSink(out io.Writer) *PlanSink {
	if out == nil {
		out = io.Discard
	}
	return &PlanSink{out: out}
}

// Mode implements Sink.
func (s *PlanSink) Mode() string { return ModeDryRun }

func (s *PlanSink) record(op Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, op)
	if _, err := fmt.Fprintln(s.out, op.String()); err != nil {
		return fmt.Errorf("failed to write plan: %w", err)
	}
	return nil
}

// PutDirectory implements Sink.
func (s *PlanSink) PutDirectory(ctx context.Context, dir *database.Directory) error {
	return s.record(Operation{Kind: OpPutDirectory, UserPath: dir.UserPath, Directory: dir})
}

// PutPhoto implements Sink.
func (s *PlanSink) PutPhoto(ctx context.Context, photo *database.Photo) error {
	return s.record(Operation{Kind: OpPutPhoto, UserPath: photo.UserPath, Filename: photo.Filename, Photo: photo})
}

// DeleteDirectory implements Sink.
func (s *PlanSink) DeleteDirectory(ctx context.Context, userPath string) error {
	return s.record(Operation{Kind: OpDeleteDirectory, UserPath: userPath})
}

// DeletePhoto implements Sink.
func (s *PlanSink) DeletePhoto(ctx context.Context, userPath, filename string) error {
	return s.record(Operation{Kind: OpDeletePhoto, UserPath: userPath, Filename: filename})
}

// DeletePhotosIn implements Sink.
func (s *PlanSink) DeletePhotosIn(ctx context.Context, userPath string) error {
	return s.record(Operation{Kind: OpDeletePhotosIn, UserPath: userPath})
}

// Flush implements Sink.
func (s *PlanSink) Flush(ctx context.Context) error { return nil }

// Abort implements Sink.
func (s *PlanSink) Abort(cause error) error { return cause }

// Operations returns a copy of everything recorded so far.
func (s *PlanSink) Operations() []Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Operation(nil), s.ops...)
}
