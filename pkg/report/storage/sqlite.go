package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // driver "sqlite3", cgo
	_ "modernc.org/sqlite"          // driver "sqlite", pure Go

	"mercator-hq/importcheck/pkg/report"
)

const (
	sqliteBackend = "sqlite"

	// DriverModernc is the pure Go driver registered by modernc.org/sqlite.
	DriverModernc = "sqlite"

	// DriverMattn is the cgo driver registered by github.com/mattn/go-sqlite3.
	DriverMattn = "sqlite3"

	streamBuffer = 100
)

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	// Driver is DriverModernc or DriverMattn.
	// Default: DriverModernc
	Driver string

	// Path is the database file, or ":memory:".
	Path string

	// Default: 10
	MaxOpenConns int

	// Default: 5
	MaxIdleConns int

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool

	// BusyTimeout is how long a connection waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Driver:       DriverModernc,
		Path:         "data/reports.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage stores reports in a SQLite database.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens the database, applies pragmas and creates the schema.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = DriverModernc
	}
	if config.Driver != DriverModernc && config.Driver != DriverMattn {
		return nil, report.NewStorageError(sqliteBackend, "open",
			fmt.Errorf("unknown driver %q (want %q or %q)", config.Driver, DriverModernc, DriverMattn))
	}

	logger := slog.Default().With("component", "report.storage.sqlite")

	db, err := sql.Open(config.Driver, dsn(config))
	if err != nil {
		return nil, report.NewStorageError(sqliteBackend, "open", err)
	}

	// Every connection to ":memory:" opens its own database.
	if config.Path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else {
		if config.MaxOpenConns > 0 {
			db.SetMaxOpenConns(config.MaxOpenConns)
		}
		if config.MaxIdleConns > 0 {
			db.SetMaxIdleConns(config.MaxIdleConns)
		}
	}

	s := &SQLiteStorage{db: db, config: config, logger: logger}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", config.Path,
		"driver", config.Driver,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// dsn builds a data source name that applies the busy timeout to every
// pooled connection. The two drivers spell their pragma parameters differently.
func dsn(config *SQLiteConfig) string {
	ms := config.BusyTimeout.Milliseconds()
	if ms <= 0 {
		return config.Path
	}
	sep := "?"
	if strings.Contains(config.Path, "?") {
		sep = "&"
	}
	if config.Driver == DriverMattn {
		return fmt.Sprintf("%s%s_busy_timeout=%d", config.Path, sep, ms)
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", config.Path, sep, ms)
}

func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode && s.config.Path != ":memory:" {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return report.NewStorageError(sqliteBackend, "enable_wal", err)
		}
		s.logger.Debug("WAL mode enabled")
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return report.NewStorageError(sqliteBackend, "create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return report.NewStorageError(sqliteBackend, "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return report.NewStorageError(sqliteBackend, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return report.NewStorageError(sqliteBackend, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Store inserts a report.
func (s *SQLiteStorage) Store(ctx context.Context, r *report.Report) error {
	if r.ID == "" {
		return report.NewStorageError(sqliteBackend, "store", fmt.Errorf("report has no id"))
	}

	query := `INSERT INTO reports (` + reportColumns + `) VALUES (
		?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
	)`

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.Fingerprint, r.Source, r.Format, nullString(r.Version), nullString(r.Digest), r.Size,
		r.Valid, nullString(r.ViolationKind), nullString(r.ViolationPath), nullString(r.ViolationField), nullString(r.Message),
		r.Summary.Groups, r.Summary.Hosts, r.Summary.Templates, r.Summary.Items, r.Summary.Triggers,
		r.Summary.Graphs, r.Summary.Screens, r.Summary.Images, r.Summary.DiscoveryRules,
		r.Origin, nullString(r.Commit), r.ValidatedAt.UnixNano(), r.RecordedAt.UnixNano(), int64(r.Duration),
	)
	if err != nil {
		return report.NewStorageError(sqliteBackend, "store", err)
	}
	return nil
}

// Get returns one report by ID.
func (s *SQLiteStorage) Get(ctx context.Context, id string) (*report.Report, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+reportColumns+" FROM reports WHERE id = ?", id)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, report.ErrNotFound
	}
	if err != nil {
		return nil, report.NewStorageError(sqliteBackend, "get", err)
	}
	return r, nil
}

// Query returns the matching reports.
func (s *SQLiteStorage) Query(ctx context.Context, q *report.Query) ([]*report.Report, error) {
	sqlQuery, args := s.selectQuery(q)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, report.NewStorageError(sqliteBackend, "query", err)
	}
	defer rows.Close()

	reports := []*report.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, report.NewStorageError(sqliteBackend, "scan", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, report.NewStorageError(sqliteBackend, "query", err)
	}

	return reports, nil
}

// QueryStream streams the matching reports from a background goroutine.
func (s *SQLiteStorage) QueryStream(ctx context.Context, q *report.Query) (<-chan *report.Report, <-chan error, error) {
	reportsCh := make(chan *report.Report, streamBuffer)
	errCh := make(chan error, 1)

	sqlQuery, args := s.selectQuery(q)

	go func() {
		defer close(reportsCh)
		defer close(errCh)

		rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
		if err != nil {
			errCh <- report.NewStorageError(sqliteBackend, "query_stream", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			r, err := scanReport(rows)
			if err != nil {
				errCh <- report.NewStorageError(sqliteBackend, "scan", err)
				return
			}

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case reportsCh <- r:
			}
		}

		if err := rows.Err(); err != nil {
			errCh <- report.NewStorageError(sqliteBackend, "query_stream", err)
		}
	}()

	return reportsCh, errCh, nil
}

// Count returns the number of matching reports.
func (s *SQLiteStorage) Count(ctx context.Context, q *report.Query) (int64, error) {
	where, args := buildWhereClause(q)

	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reports"+where, args...).Scan(&n); err != nil {
		return 0, report.NewStorageError(sqliteBackend, "count", err)
	}
	return n, nil
}

// Delete removes the matching reports.
func (s *SQLiteStorage) Delete(ctx context.Context, q *report.Query) (int64, error) {
	where, args := buildWhereClause(q)

	res, err := s.db.ExecContext(ctx, "DELETE FROM reports"+where, args...)
	if err != nil {
		return 0, report.NewStorageError(sqliteBackend, "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, report.NewStorageError(sqliteBackend, "delete", err)
	}
	return n, nil
}

// Ping checks the database connection.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return report.NewStorageError(sqliteBackend, "ping", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return report.NewStorageError(sqliteBackend, "close", err)
	}
	s.logger.Info("SQLite storage closed")
	return nil
}

func (s *SQLiteStorage) selectQuery(q *report.Query) (string, []any) {
	where, args := buildWhereClause(q)

	column := "validated_at"
	order := "DESC"
	if q != nil {
		if c, ok := sortColumns[q.SortBy]; ok {
			column = c
		}
		if strings.EqualFold(q.SortOrder, "asc") {
			order = "ASC"
		}
	}

	sqlQuery := fmt.Sprintf("SELECT %s FROM reports%s ORDER BY %s %s, id %s", reportColumns, where, column, order, order)

	if q != nil && q.Limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT %d", q.Limit)
		if q.Offset > 0 {
			sqlQuery += fmt.Sprintf(" OFFSET %d", q.Offset)
		}
	} else if q != nil && q.Offset > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT -1 OFFSET %d", q.Offset)
	}

	return sqlQuery, args
}

// buildWhereClause returns " WHERE ..." (or "") and its arguments.
func buildWhereClause(q *report.Query) (string, []any) {
	if q == nil {
		return "", nil
	}

	var conditions []string
	var args []any

	add := func(cond string, vals ...any) {
		conditions = append(conditions, cond)
		args = append(args, vals...)
	}

	if q.StartTime != nil {
		add("validated_at >= ?", q.StartTime.UnixNano())
	}
	if q.EndTime != nil {
		add("validated_at <= ?", q.EndTime.UnixNano())
	}
	if q.Source != "" {
		add("source = ?", q.Source)
	}
	if q.Origin != "" {
		add("origin = ?", q.Origin)
	}
	if q.Commit != "" {
		add("commit_sha = ?", q.Commit)
	}
	if q.Fingerprint != "" {
		add("fingerprint = ?", q.Fingerprint)
	}
	if q.Kind != "" {
		add("violation_kind = ?", q.Kind)
	}
	if q.Valid != nil {
		add("valid = ?", *q.Valid)
	}
	if len(q.IDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(q.IDs)), ",")
		ids := make([]any, len(q.IDs))
		for i, id := range q.IDs {
			ids[i] = id
		}
		add("id IN ("+placeholders+")", ids...)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (*report.Report, error) {
	var (
		r                                               report.Report
		version, digest, kind, path, field, msg, commit sql.NullString
		validatedAt, recordedAt, duration               int64
	)

	err := row.Scan(
		&r.ID, &r.Fingerprint, &r.Source, &r.Format, &version, &digest, &r.Size,
		&r.Valid, &kind, &path, &field, &msg,
		&r.Summary.Groups, &r.Summary.Hosts, &r.Summary.Templates, &r.Summary.Items, &r.Summary.Triggers,
		&r.Summary.Graphs, &r.Summary.Screens, &r.Summary.Images, &r.Summary.DiscoveryRules,
		&r.Origin, &commit, &validatedAt, &recordedAt, &duration,
	)
	if err != nil {
		return nil, err
	}

	r.Version = version.String
	r.Digest = digest.String
	r.ViolationKind = kind.String
	r.ViolationPath = path.String
	r.ViolationField = field.String
	r.Message = msg.String
	r.Commit = commit.String
	r.ValidatedAt = time.Unix(0, validatedAt).UTC()
	r.RecordedAt = time.Unix(0, recordedAt).UTC()
	r.Duration = time.Duration(duration)

	return &r, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
