// Package postgres stores a dataset as one table per entity.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"

	dataset "energymodel-convert/internal/dataset/domain"
	"energymodel-convert/internal/formats"
	schema "energymodel-convert/internal/schema/domain"
)

const (
	driverName     = "pgx"
	valueColumn    = "value"
	positionColumn = "position"
)

// Store reads and writes datasets through an open database handle.
type Store struct {
	db   *sql.DB
	opts formats.Options
}

// NewStore constructs a store.
func NewStore(db *sql.DB, opts ...formats.Option) *Store {
	return &Store{db: db, opts: formats.NewOptions(opts...)}
}

// Save replaces every emitted entity's table inside one transaction.
func (s *Store) Save(ctx context.Context, model *dataset.Model) error {
	if s == nil || s.db == nil {
		return errors.New("postgres store: nil db")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, entry := range s.opts.Entities(model) {
		if err := s.saveEntity(ctx, tx, model, entry); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("postgres store: %s: %w", entry.Name, err)
		}
	}
	return tx.Commit()
}

func (s *Store) saveEntity(ctx context.Context, tx *sql.Tx, model *dataset.Model, entry schema.Entry) error {
	if _, err := tx.ExecContext(ctx, createStatement(entry)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "TRUNCATE "+tableName(entry)); err != nil {
		return err
	}
	insert := insertStatement(entry)
	if entry.IsSet() {
		for i, member := range model.Members(entry.Name) {
			if _, err := tx.ExecContext(ctx, insert, i, member); err != nil {
				return err
			}
		}
		return nil
	}
	rows, err := formats.OutputRows(model, entry.Name, s.opts.WriteDefaults)
	if err != nil {
		return err
	}
	args := make([]any, entry.Arity()+1)
	for _, row := range rows {
		for i, member := range row.Index {
			args[i] = member
		}
		args[len(args)-1] = row.Value
		if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
			return err
		}
	}
	return nil
}

// Load reads every declared entity whose table exists.
func (s *Store) Load(ctx context.Context, registry *schema.Registry) (*dataset.Model, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("postgres store: nil db")
	}
	model, err := dataset.NewModel(registry)
	if err != nil {
		return nil, err
	}
	for _, entry := range registry.Entries() {
		exists, err := s.tableExists(ctx, entry)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		if err := s.loadEntity(ctx, model, entry); err != nil {
			return nil, fmt.Errorf("postgres store: %s: %w", entry.Name, err)
		}
	}
	return model, nil
}

func (s *Store) tableExists(ctx context.Context, entry schema.Entry) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
SELECT EXISTS (
	SELECT 1 FROM information_schema.tables
	WHERE table_schema = current_schema() AND table_name = $1
)`, strings.ToLower(entry.Label())).Scan(&exists)
	return exists, err
}

func (s *Store) loadEntity(ctx context.Context, model *dataset.Model, entry schema.Entry) error {
	rows, err := s.db.QueryContext(ctx, selectStatement(entry))
	if err != nil {
		return err
	}
	defer rows.Close()

	if entry.IsSet() {
		var members []string
		for rows.Next() {
			var member string
			if err := rows.Scan(&member); err != nil {
				return err
			}
			members = append(members, member)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		return model.PutSet(entry.Name, members)
	}

	table, err := model.TableFor(entry.Name)
	if err != nil {
		return err
	}
	registry := model.Registry()
	line := 0
	for rows.Next() {
		line++
		tokens := make([]string, entry.Arity())
		dest := make([]any, entry.Arity()+1)
		for i := range tokens {
			dest[i] = &tokens[i]
		}
		var value float64
		dest[len(dest)-1] = &value
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		tuple, err := formats.ParseIndex(registry, entry, tokens, "row "+strconv.Itoa(line), s.opts.KeepWhitespace)
		if err != nil {
			return err
		}
		if err := table.Add(tuple, value); err != nil {
			return err
		}
	}
	return rows.Err()
}

func tableName(entry schema.Entry) string {
	return pgx.Identifier{strings.ToLower(entry.Label())}.Sanitize()
}

// columns lists the quoted columns of an entity's table. A set keeps its
// member order in a position column.
func columns(entry schema.Entry) []string {
	if entry.IsSet() {
		return []string{pgx.Identifier{positionColumn}.Sanitize(), pgx.Identifier{valueColumn}.Sanitize()}
	}
	labels := entry.IndexLabels()
	out := make([]string, 0, len(labels)+1)
	for _, label := range labels {
		out = append(out, pgx.Identifier{strings.ToLower(label)}.Sanitize())
	}
	return append(out, pgx.Identifier{valueColumn}.Sanitize())
}

func createStatement(entry schema.Entry) string {
	cols := columns(entry)
	defs := make([]string, len(cols))
	for i, col := range cols {
		kind := "TEXT NOT NULL"
		switch {
		case entry.IsSet() && i == 0:
			kind = "INTEGER NOT NULL"
		case !entry.IsSet() && i == len(cols)-1:
			kind = "DOUBLE PRECISION NOT NULL"
		}
		defs[i] = col + " " + kind
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", tableName(entry), strings.Join(defs, ", "))
}

func insertStatement(entry schema.Entry) string {
	cols := columns(entry)
	params := make([]string, len(cols))
	for i := range cols {
		params[i] = "$" + strconv.Itoa(i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", tableName(entry), strings.Join(cols, ", "), strings.Join(params, ","))
}

func selectStatement(entry schema.Entry) string {
	cols := columns(entry)
	if entry.IsSet() {
		return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", cols[1], tableName(entry), cols[0])
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), tableName(entry))
}

// Adapter opens a connection per call from a DSN source or destination.
type Adapter struct {
	opts []formats.Option
}

// NewAdapter constructs an adapter usable as a formats.Reader and Writer.
func NewAdapter(opts ...formats.Option) *Adapter {
	return &Adapter{opts: opts}
}

// Read loads the dataset from the database at dsn.
func (a *Adapter) Read(ctx context.Context, dsn string, registry *schema.Registry) (*dataset.Model, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: open: %w", err)
	}
	defer db.Close()
	return NewStore(db, a.opts...).Load(ctx, registry)
}

// Write saves model to the database at dsn.
func (a *Adapter) Write(ctx context.Context, model *dataset.Model, dsn string) error {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("postgres store: open: %w", err)
	}
	defer db.Close()
	return NewStore(db, a.opts...).Save(ctx, model)
}
