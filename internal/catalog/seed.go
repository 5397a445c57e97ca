package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xburncrust/xburncrust/internal/models"
)

// Starter catalog written by the seed command. Cover and video references are
// object-storage public IDs, not full URLs.
var seedCategories = []models.Category{
	{Name: "Trending", Slug: "trending"},
	{Name: "Nouveautés", Slug: "nouveautes"},
}

type seedMedia struct {
	models.Media
	category string
}

var seedCatalog = []seedMedia{
	{category: "Trending", Media: models.Media{
		ID: "trend-photo-01", Title: "Muse incendiaire", Type: "photo",
		Duration: 210, Views: 118000, IsHD: true,
		CoverURL: "xburncrust/media/Photo_IA/muse-01", Performer: "XBURN Studio",
	}},
	{category: "Trending", Media: models.Media{
		ID: "trend-photo-02", Title: "Cyber bloom", Type: "photo",
		Duration: 195, Views: 104000, IsHD: true,
		CoverURL: "xburncrust/media/Photo_IA/bloom-02", Performer: "Delta Crew",
	}},
	{category: "Trending", Media: models.Media{
		ID: "trend-video-01", Title: "Neon lux", Type: "video",
		Duration: 184, Views: 96000, IsHD: true, AgeBadge: "18+",
		CoverURL: "xburncrust/media/Photo_IA/frame-01",
		VideoURL: "xburncrust/media/Video_IA/neon-lux", Performer: "XBURN Studio",
	}},
	{category: "Nouveautés", Media: models.Media{
		ID: "new-photo-01", Title: "Chrome siren", Type: "photo",
		Duration: 185, Views: 9800, IsHD: true,
		CoverURL: "xburncrust/media/Photo_IA/chrome-01", Performer: "Nox Empire",
	}},
	{category: "Nouveautés", Media: models.Media{
		ID: "new-video-01", Title: "Glitch rush", Type: "video",
		Duration: 201, Views: 8400, IsHD: true, AgeBadge: "18+",
		CoverURL: "xburncrust/media/Photo_IA/frame-02",
		VideoURL: "xburncrust/media/Video_IA/glitch-rush", Performer: "Delta Crew",
	}},
}

// Seed wipes the media and category tables and writes the starter catalog.
func (s *Store) Seed(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"favorites", "media", "categories"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	categoryIDs := make(map[string]int64, len(seedCategories))
	for _, cat := range seedCategories {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO categories (name, slug) VALUES (?, ?)`, cat.Name, cat.Slug)
		if err != nil {
			return fmt.Errorf("failed to seed category %s: %w", cat.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read category id: %w", err)
		}
		categoryIDs[cat.Name] = id
	}

	for _, m := range seedCatalog {
		catID, ok := categoryIDs[m.category]
		if !ok {
			return fmt.Errorf("seed media %s references unknown category %s", m.ID, m.category)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO media (id, title, type, duration, views, is_hd, cover_url, video_url, performer, age_badge, show_on_home, category_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.Title, m.Type, m.Duration, m.Views, boolToInt(m.IsHD),
			m.CoverURL, nullString(m.VideoURL), m.Performer, nullString(m.AgeBadge),
			boolToInt(m.ShowOnHome), catID, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to seed media %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}

	slog.Info("Seeded catalog", "categories", len(seedCategories), "media", len(seedCatalog))
	return nil
}
