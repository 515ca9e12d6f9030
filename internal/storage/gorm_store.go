package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/samvad-hq/news-ingestor/internal/domain"
)

// newsArticle is the relational row. The composite unique index on
// (title, source) backs the dedup contract.
type newsArticle struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement"`
	Title       string     `gorm:"size:500;not null;uniqueIndex:idx_title_source"`
	Summary     string     `gorm:"type:text"`
	ImageURL    string     `gorm:"size:1000"`
	Source      string     `gorm:"size:100;not null;uniqueIndex:idx_title_source;index"`
	Category    string     `gorm:"size:50"`
	Link        string     `gorm:"size:1000"`
	PublishedAt time.Time  `gorm:"index"`
	CreatedAt   time.Time  `gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime:false"`
}

func (newsArticle) TableName() string { return "news_articles" }

// gormStore implements Store on Postgres through gorm.
type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

func openGorm(ctx context.Context, dsn string, now func() time.Time) (*gormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return newGormStore(ctx, db, now)
}

// newGormStore migrates the schema on an existing connection.
func newGormStore(ctx context.Context, db *gorm.DB, now func() time.Time) (*gormStore, error) {
	if err := db.WithContext(ctx).AutoMigrate(&newsArticle{}); err != nil {
		return nil, fmt.Errorf("migrate news_articles: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &gormStore{db: db, now: now}, nil
}

func (g *gormStore) Exists(ctx context.Context, title, source string) (bool, error) {
	var n int64
	err := g.db.WithContext(ctx).
		Model(&newsArticle{}).
		Where("title = ? AND source = ?", title, source).
		Limit(1).
		Count(&n).Error
	return n > 0, err
}

func (g *gormStore) Save(ctx context.Context, a *domain.Article) error {
	if err := validArticle(a); err != nil {
		return err
	}

	row := newsArticle{
		Title:       a.Title,
		Summary:     a.Summary,
		ImageURL:    a.ImageURL,
		Source:      a.Source,
		Category:    a.Category,
		Link:        a.Link,
		PublishedAt: a.PublishedAt,
		CreatedAt:   g.now(),
		UpdatedAt:   a.UpdatedAt,
	}
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}

	a.ID = row.ID
	a.CreatedAt = row.CreatedAt
	return nil
}

func (g *gormStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := g.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&newsArticle{})
	return res.RowsAffected, res.Error
}

func (g *gormStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	q := g.db.WithContext(ctx).Model(&newsArticle{})
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (g *gormStore) DistinctSources(ctx context.Context) ([]string, error) {
	var sources []string
	err := g.db.WithContext(ctx).
		Model(&newsArticle{}).
		Distinct("source").
		Order("source ASC").
		Pluck("source", &sources).Error
	return sources, err
}

func (g *gormStore) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
