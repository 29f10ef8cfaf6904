package favorites

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

var gooseMu sync.Mutex

// SQLiteStore persists favorites in a SQLite database.
type SQLiteStore struct {
	conn *sql.DB
	path string
	now  func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{conn: conn, path: path, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.conn, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, id int) (Favorite, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT movie, added_at FROM favorites WHERE movie_id = ?`, id)
	fav, err := scanFavorite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Favorite{}, ErrNotFound
	}
	return fav, err
}

func (s *SQLiteStore) Put(ctx context.Context, fav Favorite) error {
	data, err := json.Marshal(fav.Movie)
	if err != nil {
		return fmt.Errorf("encode movie: %w", err)
	}
	if fav.AddedAt.IsZero() {
		fav.AddedAt = s.now()
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO favorites (movie_id, position, movie, added_at)
		VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM favorites), ?, ?)
		ON CONFLICT(movie_id) DO NOTHING`,
		fav.Movie.ID, string(data), fav.AddedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id int) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM favorites WHERE movie_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Favorite, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT movie, added_at FROM favorites ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	out := []Favorite{}
	for rows.Next() {
		fav, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fav)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Contains(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := s.conn.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM favorites WHERE movie_id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return exists, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFavorite(row scanner) (Favorite, error) {
	var (
		data    string
		addedAt int64
	)
	if err := row.Scan(&data, &addedAt); err != nil {
		return Favorite{}, err
	}

	var fav Favorite
	if err := json.Unmarshal([]byte(data), &fav.Movie); err != nil {
		return Favorite{}, fmt.Errorf("decode movie: %w", err)
	}
	fav.AddedAt = time.UnixMilli(addedAt)
	return fav, nil
}
