package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/pseudomuto/oraclekeeper/pkg/connection"
	"github.com/pseudomuto/oraclekeeper/pkg/consts"
	"github.com/pseudomuto/oraclekeeper/pkg/script"
	"github.com/pseudomuto/oraclekeeper/pkg/splitter"
)

const entryColumns = "id, script_name, applied_at, remark, failure_statement_index, failure_remark, script_hash"

type (
	// Dialect isolates the vendor specific parts of the journal.
	Dialect interface {
		// Placeholder returns the bind placeholder for the n-th (1-based) argument.
		Placeholder(n int) string

		// QualifiedName renders the journal table name for use in SQL text.
		QualifiedName(schema, table string) string

		// TableExists reports whether the journal table exists. Any error is a
		// real failure; absence is reported as false.
		TableExists(ctx context.Context, conn connection.Conn, schema, table string) (bool, error)

		// CreateTable returns the statements creating the journal table.
		CreateTable(schema, table string) []string

		// IsNotFound reports whether err means the journal table does not exist.
		IsNotFound(err error) bool
	}

	// Config contains configuration options for creating a new Journal.
	Config struct {
		// DB provides managed connections to the target database
		DB connection.TxManager

		// Dialect supplies the vendor specific SQL
		Dialect Dialect

		// Schema owning the journal table. Empty means the connected user.
		Schema string

		// Table is the journal table name (default: consts.DefaultJournalTable)
		Table string

		// Splitter is used by Validate and RecordOutcome when no statements
		// are supplied by the caller
		Splitter splitter.Splitter

		// Logger receives progress messages (default: slog.Default())
		Logger *slog.Logger

		// Clock returns the applied_at timestamp (default: time.Now().UTC())
		Clock func() time.Time
	}

	// Journal persists per-script execution outcomes.
	Journal struct {
		db       connection.TxManager
		dialect  Dialect
		schema   string
		table    string
		splitter splitter.Splitter
		logger   *slog.Logger
		clock    func() time.Time
	}
)

// New creates a Journal from config.
func New(config Config) *Journal {
	j := &Journal{
		db:       config.DB,
		dialect:  config.Dialect,
		schema:   config.Schema,
		table:    config.Table,
		splitter: config.Splitter,
		logger:   config.Logger,
		clock:    config.Clock,
	}

	if j.table == "" {
		j.table = consts.DefaultJournalTable
	}

	if j.logger == nil {
		j.logger = slog.Default()
	}

	if j.clock == nil {
		j.clock = func() time.Time { return time.Now().UTC() }
	}

	return j
}

// Name returns the qualified journal table name.
func (j *Journal) Name() string {
	return j.dialect.QualifiedName(j.schema, j.table)
}

// HasTable reports whether the journal table exists.
func (j *Journal) HasTable(ctx context.Context) (bool, error) {
	var exists bool
	err := j.db.WithConnection(ctx, func(ctx context.Context, conn connection.Conn) error {
		var err error
		exists, err = j.dialect.TableExists(ctx, conn, j.schema, j.table)
		return err
	})
	if err != nil {
		return false, errors.Wrapf(err, "failed to check for journal table %s", j.Name())
	}

	return exists, nil
}

// EnsureTable creates the journal table unless it already exists.
func (j *Journal) EnsureTable(ctx context.Context) error {
	exists, err := j.HasTable(ctx)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	j.logger.Info("Creating journal table", "table", j.Name())

	return j.db.WithConnection(ctx, func(ctx context.Context, conn connection.Conn) error {
		for _, stmt := range j.dialect.CreateTable(j.schema, j.table) {
			if _, err := conn.ExecContext(ctx, stmt); err != nil {
				return errors.Wrapf(err, "failed to create journal table %s", j.Name())
			}
		}

		return nil
	})
}

// ListCompletedScripts returns the names of scripts with no recorded failure,
// in lexical order. A missing journal table means nothing has been applied.
func (j *Journal) ListCompletedScripts(ctx context.Context) ([]string, error) {
	exists, err := j.HasTable(ctx)
	if err != nil {
		return nil, err
	}

	if !exists {
		j.logger.Info("Journal table does not exist, no migrations applied", "table", j.Name())
		return []string{}, nil
	}

	names := []string{}
	err = j.db.WithConnection(ctx, func(ctx context.Context, conn connection.Conn) error {
		rows, err := conn.QueryContext(ctx, fmt.Sprintf(
			"SELECT script_name FROM %s WHERE failure_statement_index IS NULL",
			j.Name(),
		))
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return errors.Wrap(err, "failed to scan script name")
			}
			names = append(names, name)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list completed scripts")
	}

	// NB: sorted here rather than in SQL so the order does not depend on NLS_SORT.
	slices.Sort(names)
	return slices.Compact(names), nil
}

// Entries returns the full journal history in insertion order.
func (j *Journal) Entries(ctx context.Context) ([]*Entry, error) {
	return j.queryEntries(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY id ASC", entryColumns, j.Name()))
}

// Latest returns the most recent entry for the named script, or nil when the
// script has never been attempted.
func (j *Journal) Latest(ctx context.Context, name string) (*Entry, error) {
	entries, err := j.queryEntries(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE script_name = %s ORDER BY id DESC",
		entryColumns, j.Name(), j.dialect.Placeholder(1),
	), name)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, nil
	}

	return entries[0], nil
}

// IsCompleted reports whether the latest entry for the script is a completed one.
func (j *Journal) IsCompleted(ctx context.Context, name string) (bool, error) {
	entry, err := j.Latest(ctx, name)
	if err != nil {
		return false, err
	}

	return entry != nil && entry.Completed(), nil
}

// FailureIndex returns the statement index a failed script should resume
// from. Zero means the script starts from the beginning.
func (j *Journal) FailureIndex(ctx context.Context, name string) (int, error) {
	entry, err := j.Latest(ctx, name)
	if err != nil {
		return 0, err
	}

	if entry == nil || entry.FailureIndex == nil {
		return 0, nil
	}

	return *entry.FailureIndex, nil
}

// SuccessChecksum returns the checksum recorded for the script, or "" when
// there is none.
func (j *Journal) SuccessChecksum(ctx context.Context, name string) (string, error) {
	entry, err := j.Latest(ctx, name)
	if err != nil {
		return "", err
	}

	if entry == nil {
		return "", nil
	}

	return entry.Hash, nil
}

// Validate reports whether successful, the statements that ran before the
// recorded failure, still match the recorded checksum. When successful is nil
// the raw script contents are re-split and the leading FailureIndex statements
// are used. No preprocessing is applied in that case, so callers that
// substitute variables or rewrite scripts must pass the prepared statements.
func (j *Journal) Validate(ctx context.Context, s *script.Script, successful []string) (bool, error) {
	entry, err := j.Latest(ctx, s.Name)
	if err != nil {
		return false, err
	}

	if entry == nil {
		return false, nil
	}

	if successful == nil {
		index := 0
		if entry.FailureIndex != nil {
			index = *entry.FailureIndex
		}

		statements := j.splitter.Split(s.Contents)
		if index > len(statements) {
			return false, nil
		}
		successful = statements[:index]
	}

	return Checksum(successful) == entry.Hash, nil
}

// RecordOutcome stores the result of executing a script, creating the journal
// table when needed and replacing any earlier failed entry for the script.
//
// failureIndex and failureRemark are both nil for a completed script and both
// set for a failed one. The stored checksum covers all statements for a
// completed script and the leading failureIndex statements otherwise. When
// statements is nil the raw, unprocessed script contents are re-split.
func (j *Journal) RecordOutcome(ctx context.Context, s *script.Script, statements []string, failureIndex *int, failureRemark *string) error {
	if (failureIndex == nil) != (failureRemark == nil) {
		return errors.Errorf("failure index and remark must be set together for %s", s.Name)
	}

	if statements == nil {
		statements = j.splitter.Split(s.Contents)
	}

	successful := statements
	if failureIndex != nil {
		if *failureIndex < 0 || *failureIndex > len(statements) {
			return errors.Errorf("failure index %d out of range for %s (%d statements)", *failureIndex, s.Name, len(statements))
		}
		successful = statements[:*failureIndex]
	}

	if err := j.EnsureTable(ctx); err != nil {
		return err
	}

	// The delete and insert commit together so a failed insert never loses the
	// previous checkpoint.
	ph := j.dialect.Placeholder
	err := j.db.WithTx(ctx, func(ctx context.Context, conn connection.Conn) error {
		if _, err := conn.ExecContext(ctx, fmt.Sprintf(
			"DELETE FROM %s WHERE script_name = %s AND failure_statement_index IS NOT NULL",
			j.Name(), ph(1),
		), s.Name); err != nil {
			return errors.Wrap(err, "failed to delete previous failure")
		}

		var (
			index  sql.NullInt64
			remark sql.NullString
		)

		if failureIndex != nil {
			index = sql.NullInt64{Int64: int64(*failureIndex), Valid: true}
			remark = sql.NullString{String: truncate(*failureRemark, consts.MaxFailureRemarkBytes), Valid: true}
		}

		_, err := conn.ExecContext(ctx, fmt.Sprintf(
			"INSERT INTO %s (script_name, applied_at, failure_statement_index, failure_remark, script_hash) VALUES (%s, %s, %s, %s, %s)",
			j.Name(), ph(1), ph(2), ph(3), ph(4), ph(5),
		), s.Name, j.clock(), index, remark, Checksum(successful))

		return errors.Wrap(err, "failed to insert journal entry")
	})
	if err != nil {
		return errors.Wrapf(err, "failed to record outcome for %s", s.Name)
	}

	return nil
}

func (j *Journal) queryEntries(ctx context.Context, query string, args ...any) ([]*Entry, error) {
	var entries []*Entry

	err := j.db.WithConnection(ctx, func(ctx context.Context, conn connection.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			entry, err := scanEntry(rows)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}

		return rows.Err()
	})
	if err != nil {
		if j.dialect.IsNotFound(err) {
			return nil, nil
		}

		return nil, errors.Wrapf(err, "failed to read journal %s", j.Name())
	}

	return entries, nil
}

func scanEntry(rows *sql.Rows) (*Entry, error) {
	var (
		entry         Entry
		remark        sql.NullString
		failureIndex  sql.NullInt64
		failureRemark sql.NullString
		hash          sql.NullString
	)

	if err := rows.Scan(
		&entry.ID,
		&entry.ScriptName,
		&entry.AppliedAt,
		&remark,
		&failureIndex,
		&failureRemark,
		&hash,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan journal entry")
	}

	if remark.Valid {
		entry.Remark = &remark.String
	}

	if failureIndex.Valid {
		index := int(failureIndex.Int64)
		entry.FailureIndex = &index
	}

	if failureRemark.Valid {
		entry.FailureRemark = &failureRemark.String
	}

	entry.Hash = hash.String
	return &entry, nil
}

// truncate shortens s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n]
}
