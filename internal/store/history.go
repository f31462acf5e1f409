package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bloomsight/bloom-engine/internal/models"
	"github.com/bloomsight/bloom-engine/internal/utils"
)

// ObservationSummary is the per-fetch record the fusion engine persists and
// the aggregator later reads back as a time series.
type ObservationSummary struct {
	ID           uint      `gorm:"primarykey"`
	RegionKey    string    `gorm:"index:idx_region_date"`
	Date         time.Time `gorm:"index:idx_region_date"`
	Vegetation   float64
	Water        float64
	Pigment      float64
	RainfallMM   float64
	TemperatureC float64
	Synthetic    bool
	CreatedAt    time.Time
}

// HistoryStore persists observation summaries in SQLite.
type HistoryStore struct {
	db *gorm.DB
}

// NewHistoryStore opens (or creates) the SQLite database at dsn and migrates
// the schema. Use ":memory:" in tests.
func NewHistoryStore(dsn string) (*HistoryStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	if err := db.AutoMigrate(&ObservationSummary{}); err != nil {
		return nil, fmt.Errorf("migrate history store: %w", err)
	}
	return &HistoryStore{db: db}, nil
}

// Append stores one per-fetch summary.
func (s *HistoryStore) Append(ctx context.Context, region models.BoundingBox, date time.Time, obs models.Observation) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("history store not initialised")
	}

	summary := ObservationSummary{
		RegionKey: region.Key(),
		Date:      date.UTC(),
		Synthetic: obs.FullySynthetic(),
	}
	if v, ok := obs.Value(models.MetricVegetation); ok {
		summary.Vegetation = v.Value
	}
	if v, ok := obs.Value(models.MetricWater); ok {
		summary.Water = v.Value
	}
	if v, ok := obs.Value(models.MetricPigment); ok {
		summary.Pigment = v.Value
	}
	if v, ok := obs.Value(models.MetricRainfall); ok {
		summary.RainfallMM = v.Value
	}
	if v, ok := obs.Value(models.MetricTemperature); ok {
		summary.TemperatureC = v.Value
	}

	if err := s.db.WithContext(ctx).Create(&summary).Error; err != nil {
		return utils.NewAppError("history.append", "persist summary for "+region.Key(), err)
	}
	return nil
}

// Query returns a region's summaries since the given time, ordered by date.
func (s *HistoryStore) Query(ctx context.Context, region models.BoundingBox, since time.Time) ([]ObservationSummary, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("history store not initialised")
	}

	var summaries []ObservationSummary
	err := s.db.WithContext(ctx).
		Where("region_key = ? AND date >= ?", region.Key(), since.UTC()).
		Order("date asc").
		Find(&summaries).Error
	if err != nil {
		return nil, utils.NewAppError("history.query", "load summaries for "+region.Key(), err)
	}
	return summaries, nil
}

// Close releases the underlying connection pool.
func (s *HistoryStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
