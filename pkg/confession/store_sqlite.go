package confession

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS confessions (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	confession_name TEXT    NOT NULL DEFAULT '',
	description     TEXT    NOT NULL DEFAULT '',
	tags            TEXT    NOT NULL DEFAULT '',
	audio_key       TEXT    NOT NULL,
	deletion_code   TEXT    NOT NULL UNIQUE,
	daily_plays     INTEGER NOT NULL DEFAULT 0,
	plays           INTEGER NOT NULL DEFAULT 0,
	created_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_confessions_created_at ON confessions (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_confessions_daily_plays ON confessions (daily_plays DESC);
`

// SQLiteStore persists confession records in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens a SQLite metadata store and applies the schema.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("store path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite db")
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping sqlite db")
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to apply schema")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Insert(ctx context.Context, rec *Record) error {
	createdAt := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO confessions (
		   confession_name, description, tags, audio_key, deletion_code, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Name,
		rec.Description,
		joinTags(rec.Tags),
		rec.AudioKey,
		rec.DeletionCode,
		toMillis(createdAt),
	)
	if err != nil {
		var serr *msqlite.Error
		if errors.As(err, &serr) && serr.Code() == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE {
			// 72 bits of code entropy make this astronomically unlikely;
			// treat it as an integrity failure, not a retry case.
			return errors.Wrap(err, "deletion code collision")
		}
		return errors.Wrap(err, "failed to insert confession")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "failed to read inserted id")
	}
	rec.ID = id
	rec.CreatedAt = createdAt
	return nil
}

func (s *SQLiteStore) ByDeletionCode(ctx context.Context, code string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, confession_name, description, tags, audio_key, deletion_code,
		        daily_plays, plays, created_at
		   FROM confessions WHERE deletion_code = ?`,
		code,
	)
	var (
		rec       Record
		tags      string
		createdAt int64
	)
	err := row.Scan(&rec.ID, &rec.Name, &rec.Description, &tags, &rec.AudioKey,
		&rec.DeletionCode, &rec.DailyPlays, &rec.Plays, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up deletion code")
	}
	rec.Tags = NormalizeTags(tags)
	rec.CreatedAt = fromMillis(createdAt)
	return &rec, nil
}

func (s *SQLiteStore) DeleteByID(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM confessions WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete confession")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, offset, limit int) ([]Confession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, confession_name, description, tags, audio_key, daily_plays, plays, created_at
		   FROM confessions
		  ORDER BY created_at DESC, id DESC
		  LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list confessions")
	}
	return scanConfessions(rows)
}

func (s *SQLiteStore) Search(ctx context.Context, fragment string) ([]Confession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, confession_name, description, tags, audio_key, daily_plays, plays, created_at
		   FROM confessions
		  WHERE confession_name LIKE ? ESCAPE '\'
		  ORDER BY created_at DESC, id DESC`,
		"%"+escapeLike(fragment)+"%",
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search confessions")
	}
	return scanConfessions(rows)
}

func (s *SQLiteStore) IncrementPlays(ctx context.Context, id int64) error {
	// Single server-side arithmetic update. A read-modify-write round trip
	// here would lose updates under concurrent plays.
	res, err := s.db.ExecContext(ctx,
		`UPDATE confessions SET daily_plays = daily_plays + 1, plays = plays + 1 WHERE id = ?`,
		id,
	)
	if err != nil {
		return errors.Wrap(err, "failed to increment plays")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Popular(ctx context.Context, limit int) ([]Confession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, confession_name, description, tags, audio_key, daily_plays, plays, created_at
		   FROM confessions
		  ORDER BY daily_plays DESC, id DESC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load popular confessions")
	}
	return scanConfessions(rows)
}

func scanConfessions(rows *sql.Rows) ([]Confession, error) {
	defer rows.Close()

	confessions := []Confession{}
	for rows.Next() {
		var (
			c         Confession
			tags      string
			createdAt int64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &tags, &c.AudioKey,
			&c.DailyPlays, &c.Plays, &createdAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan confession row")
		}
		c.Tags = NormalizeTags(tags)
		c.CreatedAt = fromMillis(createdAt)
		confessions = append(confessions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate confession rows")
	}
	return confessions, nil
}

// escapeLike makes fragment match literally inside a LIKE pattern.
func escapeLike(fragment string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(fragment)
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}
