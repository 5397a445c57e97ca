package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/xburncrust/xburncrust/internal/models"
)

var (
	ErrMediaNotFound    = errors.New("media not found")
	ErrCategoryNotFound = errors.New("category not found")
)

const schema = `
CREATE TABLE IF NOT EXISTS categories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    slug TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS media (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    type TEXT NOT NULL DEFAULT 'video',
    duration INTEGER NOT NULL DEFAULT 0,
    views INTEGER NOT NULL DEFAULT 0,
    is_hd INTEGER NOT NULL DEFAULT 0,
    cover_url TEXT NOT NULL,
    video_url TEXT,
    performer TEXT NOT NULL DEFAULT '',
    age_badge TEXT,
    show_on_home INTEGER NOT NULL DEFAULT 0,
    category_id INTEGER NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (category_id) REFERENCES categories(id)
);

CREATE TABLE IF NOT EXISTS favorites (
    user_id TEXT NOT NULL,
    media_id TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, media_id),
    FOREIGN KEY (media_id) REFERENCES media(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_media_category_id ON media(category_id);
CREATE INDEX IF NOT EXISTS idx_media_created_at ON media(created_at);
CREATE INDEX IF NOT EXISTS idx_favorites_user_id ON favorites(user_id);
`

// Store is the sqlite-backed media catalog.
type Store struct {
	db *sql.DB
}

// NewStore opens (and if needed creates) the catalog database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateCategory inserts a category and fills in its generated ID.
func (s *Store) CreateCategory(ctx context.Context, cat *models.Category) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (name, slug) VALUES (?, ?)`, cat.Name, cat.Slug)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read category id: %w", err)
	}
	cat.ID = id
	return nil
}

// GetCategory looks up one category by ID.
func (s *Store) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, slug FROM categories WHERE id = ?`, id)

	cat := &models.Category{}
	if err := row.Scan(&cat.ID, &cat.Name, &cat.Slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	return cat, nil
}

// ListCategories returns all categories in insertion order.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, slug FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

// CreateMedia inserts a media record. The record's CreatedAt is filled in on
// return.
func (s *Store) CreateMedia(ctx context.Context, m *models.Media) error {
	cat, err := s.GetCategory(ctx, m.CategoryID)
	if err != nil {
		return err
	}

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO media (id, title, type, duration, views, is_hd, cover_url, video_url, performer, age_badge, show_on_home, category_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Title, m.Type, m.Duration, m.Views, boolToInt(m.IsHD),
		m.CoverURL, nullString(m.VideoURL), m.Performer, nullString(m.AgeBadge),
		boolToInt(m.ShowOnHome), m.CategoryID, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert media: %w", err)
	}

	m.Category = cat.Name
	return nil
}

const mediaColumns = `m.id, m.title, m.type, m.duration, m.views, m.is_hd,
	m.cover_url, m.video_url, m.performer, m.age_badge, m.show_on_home,
	m.category_id, c.name, m.created_at`

// GetMedia looks up one media record by ID.
func (s *Store) GetMedia(ctx context.Context, id string) (*models.Media, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+mediaColumns+` FROM media m JOIN categories c ON c.id = m.category_id WHERE m.id = ?`, id)

	m, err := scanMedia(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMediaNotFound
		}
		return nil, fmt.Errorf("failed to load media: %w", err)
	}
	return m, nil
}

// Filter narrows a media listing. Zero values mean no constraint.
type Filter struct {
	Category   string // category name or slug
	CategoryID int64
	Type       string
	Limit      int
}

// ListMedia returns catalog entries newest first, optionally filtered by
// category and type. The limit is capped at 100.
func (s *Store) ListMedia(ctx context.Context, f Filter) ([]models.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media m JOIN categories c ON c.id = m.category_id`
	var conds []string
	var args []any

	if f.Category != "" {
		conds = append(conds, `(c.name = ? OR c.slug = ?)`)
		args = append(args, f.Category, f.Category)
	}
	if f.CategoryID > 0 {
		conds = append(conds, `m.category_id = ?`)
		args = append(args, f.CategoryID)
	}
	if f.Type != "" {
		conds = append(conds, `m.type = ?`)
		args = append(args, f.Type)
	}

	for i, cond := range conds {
		if i == 0 {
			query += ` WHERE ` + cond
		} else {
			query += ` AND ` + cond
		}
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	query += ` ORDER BY m.created_at DESC, m.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	defer rows.Close()

	var media []models.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		media = append(media, *m)
	}
	return media, rows.Err()
}

// DeleteMedia removes a media record and its favorites.
func (s *Store) DeleteMedia(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM media WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrMediaNotFound
	}
	return nil
}

// IncrementViews bumps the view counter atomically and returns the new count.
func (s *Store) IncrementViews(ctx context.Context, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE media SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to increment views: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return 0, ErrMediaNotFound
	}

	var views int64
	if err := s.db.QueryRowContext(ctx, `SELECT views FROM media WHERE id = ?`, id).Scan(&views); err != nil {
		return 0, fmt.Errorf("failed to read view count: %w", err)
	}
	return views, nil
}

// AddFavorite marks a media entry as a favorite for the user. Adding an
// existing favorite is a no-op; added reports whether a new row was written.
func (s *Store) AddFavorite(ctx context.Context, userID, mediaID string) (added bool, err error) {
	if _, err := s.GetMedia(ctx, mediaID); err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO favorites (user_id, media_id) VALUES (?, ?)`, userID, mediaID)
	if err != nil {
		return false, fmt.Errorf("failed to insert favorite: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return affected > 0, nil
}

// RemoveFavorite unmarks a favorite. Removing an absent favorite is a no-op.
func (s *Store) RemoveFavorite(ctx context.Context, userID, mediaID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND media_id = ?`, userID, mediaID)
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return nil
}

// ListFavorites returns the media IDs the user has favorited, newest first.
func (s *Store) ListFavorites(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT media_id FROM favorites WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanMedia(row scannable) (*models.Media, error) {
	m := &models.Media{}
	var isHD, showOnHome int
	var videoURL, ageBadge sql.NullString

	err := row.Scan(&m.ID, &m.Title, &m.Type, &m.Duration, &m.Views, &isHD,
		&m.CoverURL, &videoURL, &m.Performer, &ageBadge, &showOnHome,
		&m.CategoryID, &m.Category, &m.CreatedAt)
	if err != nil {
		return nil, err
	}

	m.IsHD = isHD != 0
	m.ShowOnHome = showOnHome != 0
	m.VideoURL = videoURL.String
	m.AgeBadge = ageBadge.String
	return m, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
