package store

import (
	"context"
	"testing"
	"time"

	"github.com/bloomsight/bloom-engine/internal/models"
)

var storeRegion = models.BoundingBox{MinLon: 36.0, MinLat: -1.5, MaxLon: 37.5, MaxLat: 0.5}

func storeObservation(veg float64, synthetic bool) models.Observation {
	source := "optical-primary"
	if synthetic {
		source = "seasonal-heuristic"
	}
	return models.Observation{
		Region: storeRegion,
		Metrics: map[models.Metric]models.MetricValue{
			models.MetricVegetation:  {Value: veg, Source: source, Synthetic: synthetic},
			models.MetricWater:       {Value: 0.2, Source: source, Synthetic: synthetic},
			models.MetricRainfall:    {Value: 35, Source: source, Synthetic: synthetic},
			models.MetricTemperature: {Value: 23, Source: source, Synthetic: synthetic},
		},
	}
}

func TestHistoryStoreRoundTrip(t *testing.T) {
	s, err := NewHistoryStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	base := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := s.Append(ctx, storeRegion, base.AddDate(0, 0, i), storeObservation(0.5, false)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	summaries, err := s.Query(ctx, storeRegion, base)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(summaries) != 5 {
		t.Fatalf("expected 5 summaries, got %d", len(summaries))
	}
	for i := 1; i < len(summaries); i++ {
		if summaries[i].Date.Before(summaries[i-1].Date) {
			t.Fatalf("summaries not date-ordered")
		}
	}
	if summaries[0].Vegetation != 0.5 || summaries[0].TemperatureC != 23 {
		t.Fatalf("summary values wrong: %+v", summaries[0])
	}
}

func TestHistoryStoreQueryFiltersByRegionAndTime(t *testing.T) {
	s, err := NewHistoryStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	base := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	other := models.BoundingBox{MinLon: 30, MinLat: 0, MaxLon: 31, MaxLat: 1}

	_ = s.Append(ctx, storeRegion, base, storeObservation(0.5, false))
	_ = s.Append(ctx, storeRegion, base.AddDate(0, 0, 10), storeObservation(0.6, false))
	_ = s.Append(ctx, other, base.AddDate(0, 0, 10), storeObservation(0.9, false))

	summaries, err := s.Query(ctx, storeRegion, base.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 filtered summary, got %d", len(summaries))
	}
	if summaries[0].Vegetation != 0.6 {
		t.Fatalf("wrong summary returned: %+v", summaries[0])
	}
}

func TestHistoryStoreRecordsSyntheticFlag(t *testing.T) {
	s, err := NewHistoryStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	date := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	if err := s.Append(ctx, storeRegion, date, storeObservation(0.5, true)); err != nil {
		t.Fatalf("append: %v", err)
	}

	summaries, err := s.Query(ctx, storeRegion, date.AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(summaries) != 1 || !summaries[0].Synthetic {
		t.Fatalf("synthetic provenance not persisted: %+v", summaries)
	}
}
