// Package documentstest serves an in-memory documents table through a
// database/sql driver so the documents repository, and the stages built on
// it, can be exercised without PostgreSQL. It understands only the
// statements the repository issues: single-row selects, signature counts
// and stored function calls.
package documentstest

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/trackerzenith/docpipe/internal/documents"
)

var (
	callPattern  = regexp.MustCompile(`^SELECT (\w+)\((.*)\)$`)
	paramPattern = regexp.MustCompile(`(\w+) => \$(\d+)`)
)

// Store is an in-memory documents table.
type Store struct {
	mu         sync.Mutex
	docs       map[int64]*documents.Document
	statements []string
	procedures []string
	failCalls  error
}

// New creates a Store seeded with docs.
func New(docs ...documents.Document) *Store {
	s := &Store{docs: make(map[int64]*documents.Document)}
	for _, d := range docs {
		s.Put(d)
	}
	return s
}

// DB returns a connection pool backed by the store.
func (s *Store) DB() *sql.DB {
	return sql.OpenDB(connector{s})
}

// Put inserts or replaces a document.
func (s *Store) Put(d documents.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
		d.UpdatedAt = d.CreatedAt
	}
	s.docs[d.ID] = &d
}

// Document returns a copy of the stored document.
func (s *Store) Document(id int64) (documents.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return documents.Document{}, false
	}
	return *d, true
}

// Statements returns every SQL statement received, in order.
func (s *Store) Statements() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.statements...)
}

// Procedures returns the names of the stored functions called, in order.
func (s *Store) Procedures() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.procedures...)
}

// FailCalls makes every subsequent stored function call return err.
func (s *Store) FailCalls(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCalls = err
}

func (s *Store) query(q string, args []driver.NamedValue) (driver.Rows, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statements = append(s.statements, q)

	switch {
	case strings.HasPrefix(q, "SELECT COUNT(*)") && strings.Contains(q, "d.signature = $1"):
		return s.countSignature(args)
	case strings.HasPrefix(q, "SELECT d.id") && strings.Contains(q, "WHERE d.id = $1"):
		id, _ := args[0].Value.(int64)
		d, ok := s.docs[id]
		if !ok {
			return &rows{}, nil
		}
		return &rows{data: [][]driver.Value{values(d)}}, nil
	case callPattern.MatchString(q):
		if err := s.call(q, args); err != nil {
			return nil, err
		}
		return &rows{data: [][]driver.Value{{nil}}}, nil
	default:
		return nil, fmt.Errorf("documentstest: unsupported statement %q", q)
	}
}

func (s *Store) exec(q string, args []driver.NamedValue) (driver.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statements = append(s.statements, q)

	if !callPattern.MatchString(q) {
		return nil, fmt.Errorf("documentstest: unsupported statement %q", q)
	}
	if err := s.call(q, args); err != nil {
		return nil, err
	}
	return driver.RowsAffected(1), nil
}

func (s *Store) countSignature(args []driver.NamedValue) (driver.Rows, error) {
	sig, _ := args[0].Value.(string)
	var exclude int64
	if len(args) > 1 {
		exclude, _ = args[1].Value.(int64)
	}

	var n int64
	for _, d := range s.docs {
		if d.Signature == nil || *d.Signature != sig || d.ID == exclude {
			continue
		}
		if d.Status == documents.StatusFailed {
			continue
		}
		n++
	}
	return &rows{data: [][]driver.Value{{n}}}, nil
}

func (s *Store) call(q string, args []driver.NamedValue) error {
	m := callPattern.FindStringSubmatch(q)
	name := m[1]
	s.procedures = append(s.procedures, name)

	if s.failCalls != nil {
		return s.failCalls
	}
	if name != documents.StatusProcedure {
		return fmt.Errorf("documentstest: function %s does not exist", name)
	}

	params := make(map[string]driver.Value)
	for _, p := range paramPattern.FindAllStringSubmatch(m[2], -1) {
		ordinal, err := strconv.Atoi(p[2])
		if err != nil || ordinal < 1 || ordinal > len(args) {
			return fmt.Errorf("documentstest: bad placeholder $%s", p[2])
		}
		params[p[1]] = args[ordinal-1].Value
	}

	id, _ := params["p_document_id"].(int64)
	d, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("documentstest: document %d not found", id)
	}

	return apply(d, params)
}

func apply(d *documents.Document, params map[string]driver.Value) error {
	for name, v := range params {
		switch name {
		case "p_document_id":
		case "p_status":
			d.Status = documents.Status(v.(string))
		case "p_raw_markdown_output":
			d.RawMarkdownOutput = strPtr(v)
		case "p_document_type":
			d.DocumentType = strPtr(v)
		case "p_vendor_name":
			d.VendorName = strPtr(v)
		case "p_transaction_date":
			t, err := time.Parse(time.DateOnly, v.(string))
			if err != nil {
				return fmt.Errorf("documentstest: invalid date: %w", err)
			}
			d.TransactionDate = &t
		case "p_total_amount":
			d.TotalAmount = floatPtr(v)
		case "p_currency":
			d.Currency = strPtr(v)
		case "p_transaction_type":
			d.TransactionType = strPtr(v)
		case "p_suggested_category_id":
			d.SuggestedCategoryID = intPtr(v)
		case "p_suggested_category_type":
			d.SuggestedCategoryType = strPtr(v)
		case "p_suggested_payment_method_id":
			d.SuggestedPaymentMethodID = intPtr(v)
		case "p_ai_confidence_score":
			d.AIConfidenceScore = floatPtr(v)
		case "p_processing_error":
			d.ProcessingError = strPtr(v)
		case "p_signature":
			d.Signature = strPtr(v)
		default:
			return fmt.Errorf("documentstest: unknown parameter %s", name)
		}
	}
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func values(d *documents.Document) []driver.Value {
	return []driver.Value{
		d.ID,
		d.UserID,
		d.FilePath,
		d.OriginalFilename,
		d.FileSize,
		d.MimeType,
		string(d.Status),
		nullable(d.RawMarkdownOutput),
		nullable(d.DocumentType),
		nullable(d.VendorName),
		nullable(d.TransactionDate),
		nullable(d.TotalAmount),
		nullable(d.Currency),
		nullable(d.TransactionType),
		nullable(d.SuggestedCategoryID),
		nullable(d.SuggestedCategoryType),
		nullable(d.SuggestedPaymentMethodID),
		nullable(d.AIConfidenceScore),
		nullable(d.ProcessingError),
		nullable(d.Signature),
		nullable(d.CreatedExpenseID),
		d.CreatedAt,
		d.UpdatedAt,
	}
}

func nullable[T any](p *T) driver.Value {
	if p == nil {
		return nil
	}
	return *p
}

func strPtr(v driver.Value) *string {
	if v == nil {
		return nil
	}
	s := v.(string)
	return &s
}

func floatPtr(v driver.Value) *float64 {
	if v == nil {
		return nil
	}
	f := v.(float64)
	return &f
}

func intPtr(v driver.Value) *int64 {
	if v == nil {
		return nil
	}
	n := v.(int64)
	return &n
}

type connector struct{ s *Store }

func (c connector) Connect(context.Context) (driver.Conn, error) { return &conn{s: c.s}, nil }
func (c connector) Driver() driver.Driver                        { return drv{} }

type drv struct{}

func (drv) Open(string) (driver.Conn, error) {
	return nil, errors.New("documentstest: open through Store.DB")
}

type conn struct{ s *Store }

func (c *conn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("documentstest: prepared statements are not supported")
}

func (c *conn) Close() error              { return nil }
func (c *conn) Begin() (driver.Tx, error) { return tx{}, nil }

func (c *conn) QueryContext(_ context.Context, q string, args []driver.NamedValue) (driver.Rows, error) {
	return c.s.query(q, args)
}

func (c *conn) ExecContext(_ context.Context, q string, args []driver.NamedValue) (driver.Result, error) {
	return c.s.exec(q, args)
}

type tx struct{}

func (tx) Commit() error   { return nil }
func (tx) Rollback() error { return nil }

type rows struct {
	data [][]driver.Value
	i    int
}

func (r *rows) Columns() []string {
	if len(r.data) == 0 {
		return nil
	}
	cols := make([]string, len(r.data[0]))
	for i := range cols {
		cols[i] = fmt.Sprintf("c%d", i)
	}
	return cols
}

func (r *rows) Close() error { return nil }

func (r *rows) Next(dest []driver.Value) error {
	if r.i >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.i])
	r.i++
	return nil
}
