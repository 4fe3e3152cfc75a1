// Package sqlite persists JSON documents in SQLite and serves them as
// read-only view storages.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	apperrors "github.com/louisbranch/typedview/internal/platform/errors"
	sqlitemigrate "github.com/louisbranch/typedview/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/typedview/internal/storage/jsonstore"
	"github.com/louisbranch/typedview/internal/storage/sqlite/migrations"
	"github.com/louisbranch/typedview/internal/view"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite"
)

const tracerName = "github.com/louisbranch/typedview/internal/storage/sqlite"

// Document is one stored JSON document.
type Document struct {
	ID        string
	Body      []byte
	UpdatedAt time.Time
}

// Store provides SQLite-backed persistence for JSON documents.
type Store struct {
	sqlDB       *sql.DB
	tracer      trace.Tracer
	interpreter *view.Interpreter
}

// Option configures a Store.
type Option func(*Store)

// WithInterpreter sets the interpreter handed to the document storages.
func WithInterpreter(in *view.Interpreter) Option {
	return func(s *Store) {
		s.interpreter = in
	}
}

// WithTracerProvider sets the provider of the store's spans. The default
// is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Store) {
		s.tracer = tp.Tracer(tracerName)
	}
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite document store and applies embedded migrations.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{sqlDB: sqlDB, tracer: otel.Tracer(tracerName)}
	for _, opt := range opts {
		opt(s)
	}
	if s.interpreter == nil {
		s.interpreter = view.Default()
	}
	return s, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Put validates body as a JSON object, compacts it and stores it under id,
// replacing any previous document.
func (s *Store) Put(ctx context.Context, id string, body []byte) (err error) {
	ctx, span := s.start(ctx, "Put", id)
	defer func() { end(span, err) }()

	id, err = s.check(ctx, id)
	if err != nil {
		return err
	}
	compact, err := normalize(body)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO documents (id, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		id, string(compact), toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	return nil
}

// Raw returns the stored JSON text of id.
func (s *Store) Raw(ctx context.Context, id string) (body []byte, err error) {
	ctx, span := s.start(ctx, "Raw", id)
	defer func() { end(span, err) }()

	id, err = s.check(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := s.load(ctx, s.sqlDB, id)
	if err != nil {
		return nil, err
	}
	return doc.Body, nil
}

// Get returns the document id as a read-only storage.
func (s *Store) Get(ctx context.Context, id string) (*jsonstore.Store, error) {
	body, err := s.Raw(ctx, id)
	if err != nil {
		return nil, err
	}
	return jsonstore.ParseBytes(body, jsonstore.WithInterpreter(s.interpreter))
}

// List returns every document ordered by id.
func (s *Store) List(ctx context.Context) (docs []Document, err error) {
	ctx, span := s.start(ctx, "List", "")
	defer func() { end(span, err) }()

	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id, body, updated_at FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var doc Document
		var body string
		var updatedAt int64
		if err := rows.Scan(&doc.ID, &body, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.Body = []byte(body)
		doc.UpdatedAt = fromMillis(updatedAt)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	span.SetAttributes(attribute.Int("typedview.documents", len(docs)))
	return docs, nil
}

// Storages lists the documents and yields each as a read-only storage,
// ready for view.InterpretAll. A listing failure ends the sequence
// immediately; use List and StoragesOf to observe it. Iterating again
// queries again.
func (s *Store) Storages(ctx context.Context) iter.Seq[view.Storage] {
	return func(yield func(view.Storage) bool) {
		docs, err := s.List(ctx)
		if err != nil {
			return
		}
		for storage := range s.StoragesOf(docs) {
			if !yield(storage) {
				return
			}
		}
	}
}

// StoragesOf yields one storage per document, in order. A document whose
// body does not parse yields a storage failing every read with the parse
// error, so positions line up with docs.
func (s *Store) StoragesOf(docs []Document) iter.Seq[view.Storage] {
	return func(yield func(view.Storage) bool) {
		for _, doc := range docs {
			var storage view.Storage
			parsed, err := jsonstore.ParseBytes(doc.Body, jsonstore.WithInterpreter(s.interpreter))
			if err != nil {
				storage = brokenStorage{err: err}
			} else {
				storage = parsed
			}
			if !yield(storage) {
				return
			}
		}
	}
}

// Patch sets the JSON path in document id to value.
func (s *Store) Patch(ctx context.Context, id, path string, value any) error {
	return s.patch(ctx, id, path, func(body []byte) ([]byte, error) {
		return sjson.SetBytes(body, path, value)
	})
}

// PatchRaw sets the JSON path in document id to the raw JSON text value.
func (s *Store) PatchRaw(ctx context.Context, id, path, value string) error {
	if !gjson.Valid(value) {
		return apperrors.WithMetadata(apperrors.CodeInvalidDocument, "patch value is not valid JSON", map[string]string{"ID": id})
	}
	return s.patch(ctx, id, path, func(body []byte) ([]byte, error) {
		return sjson.SetRawBytes(body, path, []byte(value))
	})
}

func (s *Store) patch(ctx context.Context, id, path string, edit func([]byte) ([]byte, error)) (err error) {
	ctx, span := s.start(ctx, "Patch", id)
	defer func() { end(span, err) }()
	span.SetAttributes(attribute.String("typedview.path", path))

	id, err = s.check(ctx, id)
	if err != nil {
		return err
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("patch path is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin patch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	doc, err := s.load(ctx, tx, id)
	if err != nil {
		return err
	}
	edited, err := edit(doc.Body)
	if err != nil {
		return apperrors.WrapWithMetadata(apperrors.CodeInvalidDocument, "patch document", map[string]string{"ID": id}, err)
	}
	compact, err := normalize(edited)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET body = ?, updated_at = ? WHERE id = ?`,
		string(compact), toMillis(time.Now()), id,
	); err != nil {
		return fmt.Errorf("patch document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit patch: %w", err)
	}
	return nil
}

// Delete removes document id. Deleting a missing document is NotFound.
func (s *Store) Delete(ctx context.Context, id string) (err error) {
	ctx, span := s.start(ctx, "Delete", id)
	defer func() { end(span, err) }()

	id, err = s.check(ctx, id)
	if err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if affected == 0 {
		return notFound(id)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) load(ctx context.Context, q queryer, id string) (Document, error) {
	var body string
	var updatedAt int64
	err := q.QueryRowContext(ctx, `SELECT body, updated_at FROM documents WHERE id = ?`, id).Scan(&body, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, notFound(id)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return Document{ID: id, Body: []byte(body), UpdatedAt: fromMillis(updatedAt)}, nil
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func (s *Store) check(ctx context.Context, id string) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("document id is required")
	}
	return id, nil
}

func (s *Store) start(ctx context.Context, op, id string) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	if s != nil && s.tracer != nil {
		tracer = s.tracer
	}
	ctx, span := tracer.Start(ctx, "sqlite.documents."+op)
	if id != "" {
		span.SetAttributes(attribute.String("typedview.document_id", id))
	}
	return ctx, span
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// normalize checks body is a JSON object and compacts it.
func normalize(body []byte) ([]byte, error) {
	if !gjson.ValidBytes(body) {
		return nil, apperrors.New(apperrors.CodeInvalidDocument, "document is not valid JSON")
	}
	if !gjson.ParseBytes(body).IsObject() {
		return nil, apperrors.New(apperrors.CodeInvalidDocument, "document is not a JSON object")
	}
	return pretty.Ugly(body), nil
}

// brokenStorage stands in for a document that could not be parsed.
type brokenStorage struct {
	err error
}

func (b brokenStorage) Get(string) (any, error) { return nil, b.err }
func (b brokenStorage) Set(string, any) error { return b.err }
func (b brokenStorage) GetAs(string, reflect.Type) (any, error) { return nil, b.err }
func (b brokenStorage) SetAs(string, reflect.Type, any) error { return b.err }

func notFound(id string) error {
	return apperrors.WithMetadata(
		apperrors.CodeNotFound,
		fmt.Sprintf("document %q not found", id),
		map[string]string{"ID": id},
	)
}
