package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"product-pulse/internal/models"
)

// ProductStore persists product records in a local SQLite database. Nested
// pipeline output (videos, prices, summary, schema) is stored as JSON so a
// product is always written as one document in a single replace-style write.
type ProductStore struct {
	db  *gorm.DB
	log *logrus.Logger
}

type productRow struct {
	ID           string `gorm:"primaryKey"`
	Name         string
	Brand        string
	Category     string
	SearchQuery  string
	Stores       datatypes.JSON
	Videos       datatypes.JSON
	Prices       datatypes.JSON
	Summary      datatypes.JSON
	Schema       datatypes.JSON
	LastAnalyzed time.Time
	LastUpdated  time.Time
}

func (productRow) TableName() string { return "products" }

func Open(path string, log *logrus.Logger) (*ProductStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open product database: %w", err)
	}

	if err := db.AutoMigrate(&productRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate product schema: %w", err)
	}

	return &ProductStore{db: db, log: log}, nil
}

// Seed inserts products that do not exist yet. Existing records are left
// untouched so accumulated pipeline state survives restarts.
func (s *ProductStore) Seed(ctx context.Context, products []models.Product) error {
	for _, p := range products {
		row, err := toRow(p)
		if err != nil {
			return err
		}
		result := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&row)
		if result.Error != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.ID, result.Error)
		}
		if result.RowsAffected > 0 {
			s.log.WithFields(logrus.Fields{"product": p.ID, "name": p.Name}).Info("Seeded product")
		}
	}
	return nil
}

// List returns all products ordered by ID.
func (s *ProductStore) List(ctx context.Context) ([]models.Product, error) {
	var rows []productRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		p, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

// Get loads one product by ID.
func (s *ProductStore) Get(ctx context.Context, id string) (*models.Product, error) {
	var row productRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", id, err)
	}
	p, err := fromRow(row)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Save writes the full product record, replacing whatever was stored before.
func (s *ProductStore) Save(ctx context.Context, p models.Product) error {
	row, err := toRow(p)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save product %s: %w", p.ID, err)
	}
	return nil
}

func toRow(p models.Product) (productRow, error) {
	stores, err := marshalJSON(p.Stores)
	if err != nil {
		return productRow{}, fmt.Errorf("product %s: %w", p.ID, err)
	}
	videos, err := marshalJSON(p.Videos)
	if err != nil {
		return productRow{}, fmt.Errorf("product %s: %w", p.ID, err)
	}
	prices, err := marshalJSON(p.Prices)
	if err != nil {
		return productRow{}, fmt.Errorf("product %s: %w", p.ID, err)
	}
	summary, err := marshalJSON(p.Summary)
	if err != nil {
		return productRow{}, fmt.Errorf("product %s: %w", p.ID, err)
	}
	schema, err := marshalJSON(p.Schema)
	if err != nil {
		return productRow{}, fmt.Errorf("product %s: %w", p.ID, err)
	}

	return productRow{
		ID:           p.ID,
		Name:         p.Name,
		Brand:        p.Brand,
		Category:     p.Category,
		SearchQuery:  p.SearchQuery,
		Stores:       stores,
		Videos:       videos,
		Prices:       prices,
		Summary:      summary,
		Schema:       schema,
		LastAnalyzed: p.LastAnalyzed,
		LastUpdated:  p.LastUpdated,
	}, nil
}

func fromRow(row productRow) (models.Product, error) {
	p := models.Product{
		ID:           row.ID,
		Name:         row.Name,
		Brand:        row.Brand,
		Category:     row.Category,
		SearchQuery:  row.SearchQuery,
		LastAnalyzed: row.LastAnalyzed,
		LastUpdated:  row.LastUpdated,
	}

	if err := unmarshalJSON(row.Stores, &p.Stores); err != nil {
		return p, fmt.Errorf("product %s: %w", row.ID, err)
	}
	if err := unmarshalJSON(row.Videos, &p.Videos); err != nil {
		return p, fmt.Errorf("product %s: %w", row.ID, err)
	}
	if err := unmarshalJSON(row.Prices, &p.Prices); err != nil {
		return p, fmt.Errorf("product %s: %w", row.ID, err)
	}
	if err := unmarshalJSON(row.Summary, &p.Summary); err != nil {
		return p, fmt.Errorf("product %s: %w", row.ID, err)
	}
	if err := unmarshalJSON(row.Schema, &p.Schema); err != nil {
		return p, fmt.Errorf("product %s: %w", row.ID, err)
	}
	return p, nil
}

func marshalJSON(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record field: %w", err)
	}
	return datatypes.JSON(data), nil
}

func unmarshalJSON(data datatypes.JSON, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode record field: %w", err)
	}
	return nil
}
