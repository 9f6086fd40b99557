// Package store keeps question records in a SQLite database. It is the
// production catalog.Source and backs the editing subcommands.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/opencs408/workbook/internal/catalog"
	"github.com/opencs408/workbook/internal/fileutil"
)

// createAttempts bounds Create retries on identifier collisions.
const createAttempts = 3

const columns = `id, subject_code, chapter_num, question_type, status, question_text,
	option_a, option_b, option_c, option_d, correct_answer, explanation,
	knowledge, notes, created_date, last_modified, image_path`

// Store is a question bank. Its methods serialize access to one
// connection.
type Store struct {
	mu     sync.Mutex
	conn   *sqlite.Conn
	path   string
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for record dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

var _ catalog.Source = (*Store)(nil)

// Open opens or creates the database at path and applies the schema.
func Open(path string, opts ...Option) (*Store, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite, sqlite.OpenCreate, sqlite.OpenWAL)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if err := migrate(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}

	s := &Store{conn: conn, path: path, now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the database file name.
func (s *Store) Path() string {
	return s.path
}

// Close closes the connection. Later calls return nil.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// with runs fn holding the connection, interrupting it when ctx ends.
func (s *Store) with(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.conn.SetInterrupt(ctx.Done())
	defer s.conn.SetInterrupt(nil)
	return fn(s.conn)
}

// Published returns the records with status published, in no particular
// order.
func (s *Store) Published(ctx context.Context) ([]catalog.Record, error) {
	return s.query(ctx, `SELECT `+columns+` FROM questions WHERE status = ?`, string(catalog.StatusPublished))
}

// Export returns every record ordered by id.
func (s *Store) Export(ctx context.Context) ([]catalog.Record, error) {
	return s.query(ctx, `SELECT `+columns+` FROM questions ORDER BY id`)
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Group  catalog.Group
	Kind   catalog.Kind
	Status catalog.Status
	Search string // substring of the id, the question text or the answer
}

// List returns the records matching f ordered by id.
func (s *Store) List(ctx context.Context, f Filter) ([]catalog.Record, error) {
	var (
		where []string
		args  []any
	)
	if f.Group != "" {
		where = append(where, "subject_code = ?")
		args = append(args, string(f.Group))
	}
	if f.Kind != "" {
		where = append(where, "question_type = ?")
		args = append(args, string(f.Kind))
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		pattern := "%" + likeEscaper.Replace(term) + "%"
		where = append(where, `(question_text LIKE ? ESCAPE '\' OR id LIKE ? ESCAPE '\' OR correct_answer LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}

	q := `SELECT ` + columns + ` FROM questions`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	return s.query(ctx, q+` ORDER BY id`, args...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// IDs returns the identifiers stored for exactly the (group, subgroup)
// pair.
func (s *Store) IDs(ctx context.Context, group catalog.Group, subgroup string) ([]string, error) {
	var ids []string
	err := s.with(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT id FROM questions WHERE subject_code = ? AND chapter_num = ?`,
			&sqlitex.ExecOptions{
				Args: []any{string(group), subgroup},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					ids = append(ids, stmt.ColumnText(0))
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("listing identifiers: %w", err)
	}
	return ids, nil
}

// Get returns the record with the given id.
func (s *Store) Get(ctx context.Context, id string) (catalog.Record, error) {
	recs, err := s.query(ctx, `SELECT `+columns+` FROM questions WHERE id = ?`, id)
	if err != nil {
		return catalog.Record{}, err
	}
	if len(recs) == 0 {
		return catalog.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return recs[0], nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]catalog.Record, error) {
	var recs []catalog.Record
	err := s.with(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: args,
			ResultFunc: func(stmt *sqlite.Stmt) error {
				recs = append(recs, scan(stmt))
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	return recs, nil
}

// scan reads a row selected with columns. NULL text reads as "".
func scan(stmt *sqlite.Stmt) catalog.Record {
	return catalog.Record{
		ID:            stmt.ColumnText(0),
		Group:         catalog.Group(stmt.ColumnText(1)),
		Subgroup:      stmt.ColumnText(2),
		Kind:          catalog.Kind(stmt.ColumnText(3)),
		Status:        catalog.Status(stmt.ColumnText(4)),
		Body:          stmt.ColumnText(5),
		ChoiceA:       stmt.ColumnText(6),
		ChoiceB:       stmt.ColumnText(7),
		ChoiceC:       stmt.ColumnText(8),
		ChoiceD:       stmt.ColumnText(9),
		CorrectAnswer: stmt.ColumnText(10),
		Explanation:   stmt.ColumnText(11),
		Knowledge:     stmt.ColumnText(12),
		Notes:         stmt.ColumnText(13),
		CreatedAt:     stmt.ColumnText(14),
		ModifiedAt:    stmt.ColumnText(15),
		ImageRef:      stmt.ColumnText(16),
	}
}

// Insert stores a new record. An id already present fails with
// ErrDuplicateIdentifier; an id not shaped prefix plus six digits fails
// with catalog.ErrMalformedIdentifier.
func (s *Store) Insert(ctx context.Context, rec catalog.Record) error {
	if err := s.prepare(&rec); err != nil {
		return err
	}
	if rec.ID == "" {
		return ErrMissingIdentifier
	}
	if err := rec.CheckID(); err != nil {
		return err
	}
	return s.with(ctx, func(conn *sqlite.Conn) error {
		return insert(conn, rec)
	})
}

// Update overwrites the record with rec.ID and stamps its modification
// date. A missing id fails with ErrNotFound.
func (s *Store) Update(ctx context.Context, rec catalog.Record) error {
	if err := s.prepare(&rec); err != nil {
		return err
	}
	rec.ModifiedAt = s.today()
	return s.with(ctx, func(conn *sqlite.Conn) error {
		return update(conn, rec)
	})
}

// Delete removes the record with id. A missing id fails with ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.with(ctx, func(conn *sqlite.Conn) error {
		if err := sqlitex.Execute(conn, `DELETE FROM questions WHERE id = ?`,
			&sqlitex.ExecOptions{Args: []any{id}}); err != nil {
			return fmt.Errorf("deleting %s: %w", id, err)
		}
		if conn.Changes() == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil
	})
}

// Create assigns the next identifier of the draft's (group, subgroup)
// pair, stamps both dates and inserts it. The identifier is reassigned when
// a concurrent writer took it first.
func (s *Store) Create(ctx context.Context, draft catalog.Record) (catalog.Record, error) {
	var err error
	for attempt := 1; attempt <= createAttempts; attempt++ {
		var rec catalog.Record
		rec, err = s.createOnce(ctx, draft)
		if err == nil {
			return rec, nil
		}
		if !IsRetryable(err) {
			return catalog.Record{}, err
		}
		s.logger.Debug("identifier taken, retrying",
			zap.String("prefix", draft.Prefix()), zap.Int("attempt", attempt), zap.Error(err))
	}
	return catalog.Record{}, err
}

func (s *Store) createOnce(ctx context.Context, draft catalog.Record) (catalog.Record, error) {
	existing, err := s.IDs(ctx, draft.Group, draft.Subgroup)
	if err != nil {
		return catalog.Record{}, err
	}
	id, err := catalog.NextID(draft.Group, draft.Subgroup, existing)
	if err != nil {
		return catalog.Record{}, err
	}

	rec := draft
	rec.ID = id
	rec.CreatedAt = s.today()
	rec.ModifiedAt = rec.CreatedAt
	if rec.Status == "" {
		rec.Status = catalog.StatusDraft
	}
	if err := s.Insert(ctx, rec); err != nil {
		return catalog.Record{}, err
	}
	return rec, nil
}

// Duplicate copies the record with id under a new identifier as a draft
// with fresh dates. An existing image file is copied into imagesDir as
// {newID}{ext}; a missing one leaves the copy without image.
func (s *Store) Duplicate(ctx context.Context, id, imagesDir string) (catalog.Record, error) {
	src, err := s.Get(ctx, id)
	if err != nil {
		return catalog.Record{}, err
	}

	draft := src
	draft.Status = catalog.StatusDraft
	draft.ImageRef = ""
	rec, err := s.Create(ctx, draft)
	if err != nil {
		return catalog.Record{}, err
	}

	if src.ImageRef == "" || !fileutil.FileExists(src.ImageRef) {
		return rec, nil
	}
	dst := filepath.Join(imagesDir, rec.ID+filepath.Ext(src.ImageRef))
	if err := fileutil.CopyFile(src.ImageRef, dst); err != nil {
		return rec, fmt.Errorf("copying image of %s: %w", rec.ID, err)
	}
	rec.ImageRef = filepath.ToSlash(dst)
	if err := s.with(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `UPDATE questions SET image_path = ? WHERE id = ?`,
			&sqlitex.ExecOptions{Args: []any{rec.ImageRef, rec.ID}})
	}); err != nil {
		return rec, fmt.Errorf("recording image of %s: %w", rec.ID, err)
	}
	return rec, nil
}

// ImportSummary counts the outcome of an import.
type ImportSummary struct {
	Inserted int
	Updated  int
	Skipped  int // rows without identifier
}

// Import upserts records by id in one transaction: a known id is
// overwritten, an unknown one inserted. Rows without id are skipped. Any
// other failure rolls the whole import back.
func (s *Store) Import(ctx context.Context, records []catalog.Record) (ImportSummary, error) {
	var sum ImportSummary
	err := s.with(ctx, func(conn *sqlite.Conn) (err error) {
		defer sqlitex.Save(conn)(&err)

		for _, rec := range records {
			if rec.ID == "" {
				sum.Skipped++
				continue
			}
			if err := s.prepare(&rec); err != nil {
				return fmt.Errorf("record %s: %w", rec.ID, err)
			}
			if rec.CreatedAt == "" {
				rec.CreatedAt = s.today()
			}
			if rec.ModifiedAt == "" {
				rec.ModifiedAt = rec.CreatedAt
			}

			err := update(conn, rec)
			switch {
			case err == nil:
				sum.Updated++
			case errors.Is(err, ErrNotFound):
				if err := insert(conn, rec); err != nil {
					return err
				}
				sum.Inserted++
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ImportSummary{}, fmt.Errorf("importing: %w", err)
	}
	s.logger.Debug("import finished",
		zap.Int("inserted", sum.Inserted), zap.Int("updated", sum.Updated), zap.Int("skipped", sum.Skipped))
	return sum, nil
}

// prepare normalizes and validates rec before a write.
func (s *Store) prepare(rec *catalog.Record) error {
	rec.Normalize()
	return rec.Validate()
}

func (s *Store) today() string {
	return s.now().Format(catalog.DateLayout)
}

func insert(conn *sqlite.Conn, rec catalog.Record) error {
	if rec.ID == "" {
		return ErrMissingIdentifier
	}
	err := sqlitex.Execute(conn, `INSERT INTO questions (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{
			rec.ID, string(rec.Group), rec.Subgroup, string(rec.Kind), string(rec.Status), rec.Body,
			rec.ChoiceA, rec.ChoiceB, rec.ChoiceC, rec.ChoiceD, rec.CorrectAnswer, rec.Explanation,
			rec.Knowledge, rec.Notes, rec.CreatedAt, rec.ModifiedAt, nullable(rec.ImageRef),
		}})
	if isPrimaryKeyViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateIdentifier, rec.ID)
	}
	if err != nil {
		return fmt.Errorf("inserting %s: %w", rec.ID, err)
	}
	return nil
}

func update(conn *sqlite.Conn, rec catalog.Record) error {
	err := sqlitex.Execute(conn, `UPDATE questions SET
		subject_code = ?, chapter_num = ?, question_type = ?, status = ?, question_text = ?,
		option_a = ?, option_b = ?, option_c = ?, option_d = ?, correct_answer = ?,
		explanation = ?, knowledge = ?, notes = ?, last_modified = ?, image_path = ?
		WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{
			string(rec.Group), rec.Subgroup, string(rec.Kind), string(rec.Status), rec.Body,
			rec.ChoiceA, rec.ChoiceB, rec.ChoiceC, rec.ChoiceD, rec.CorrectAnswer,
			rec.Explanation, rec.Knowledge, rec.Notes, rec.ModifiedAt, nullable(rec.ImageRef),
			rec.ID,
		}})
	if err != nil {
		return fmt.Errorf("updating %s: %w", rec.ID, err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, rec.ID)
	}
	return nil
}

// nullable stores empty image references as NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
