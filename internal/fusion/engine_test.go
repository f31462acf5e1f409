package fusion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bloomsight/bloom-engine/internal/models"
	"github.com/bloomsight/bloom-engine/internal/providers"
)

var fuseRegion = models.BoundingBox{MinLon: 36.0, MinLat: -1.5, MaxLon: 37.5, MaxLat: 0.5}

func fuseWindow() models.TimeWindow {
	end := time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC)
	return models.TimeWindow{Start: end.AddDate(0, 0, -10), End: end}
}

type fakeProvider struct {
	name    string
	metrics map[models.Metric]float64
	err     error
	calls   int
}

func (f *fakeProvider) Name() string         { return f.name }
func (f *fakeProvider) ResolutionM() float64 { return 10 }
func (f *fakeProvider) Supports(m models.Metric) bool {
	_, ok := f.metrics[m]
	return ok
}
func (f *fakeProvider) Fetch(context.Context, models.BoundingBox, time.Time, time.Time) (map[models.Metric]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.metrics, nil
}

type memorySink struct {
	mu   sync.Mutex
	obs  []models.Observation
	err  error
	done chan struct{}
}

func newMemorySink() *memorySink {
	return &memorySink{done: make(chan struct{}, 8)}
}

func (s *memorySink) Append(_ context.Context, _ models.BoundingBox, _ time.Time, obs models.Observation) error {
	s.mu.Lock()
	s.obs = append(s.obs, obs)
	s.mu.Unlock()
	s.done <- struct{}{}
	return s.err
}

func opticalValues(veg, water float64) map[models.Metric]float64 {
	return map[models.Metric]float64{
		models.MetricVegetation: veg,
		models.MetricWater:      water,
	}
}

func TestFetchSnapshotFirstSuccessWins(t *testing.T) {
	primary := &fakeProvider{name: "optical-primary", metrics: opticalValues(0.6, 0.2)}
	backup := &fakeProvider{name: "optical-backup", metrics: opticalValues(0.4, 0.1)}

	e := NewEngine([]providers.Provider{primary, backup}, nil, nil, Options{}, nil)
	obs, err := e.FetchSnapshot(context.Background(), fuseRegion, fuseWindow())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	veg, ok := obs.Value(models.MetricVegetation)
	if !ok || veg.Source != "optical-primary" {
		t.Fatalf("expected primary to win, got source %q", veg.Source)
	}
	if veg.Value != 0.6 {
		t.Fatalf("values must not be averaged across providers, got %f", veg.Value)
	}
	if backup.calls != 0 {
		t.Fatalf("backup consulted despite primary success")
	}
}

func TestFetchSnapshotFallsThroughOnFailure(t *testing.T) {
	primary := &fakeProvider{name: "optical-primary", metrics: opticalValues(0, 0), err: errors.New("cloud cover")}
	backup := &fakeProvider{name: "optical-backup", metrics: opticalValues(0.45, 0.15)}

	e := NewEngine([]providers.Provider{primary, backup}, nil, nil, Options{}, nil)
	obs, err := e.FetchSnapshot(context.Background(), fuseRegion, fuseWindow())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	veg, _ := obs.Value(models.MetricVegetation)
	if veg.Source != "optical-backup" {
		t.Fatalf("expected fallback to backup, got %q", veg.Source)
	}
	if veg.Synthetic {
		t.Fatalf("real backup value flagged synthetic")
	}
}

func TestFetchSnapshotAllProvidersFailFillsSynthetically(t *testing.T) {
	failing := &fakeProvider{
		name: "optical-primary",
		metrics: map[models.Metric]float64{
			models.MetricVegetation: 0, models.MetricWater: 0,
			models.MetricPigment: 0, models.MetricRainfall: 0, models.MetricTemperature: 0,
		},
		err: errors.New("gateway down"),
	}

	e := NewEngine([]providers.Provider{failing}, nil, nil, Options{}, nil)
	obs, err := e.FetchSnapshot(context.Background(), fuseRegion, fuseWindow())
	if err != nil {
		t.Fatalf("total provider failure must degrade, not error: %v", err)
	}

	if !obs.FullySynthetic() {
		t.Fatalf("expected fully synthetic observation")
	}
	for _, metric := range models.AllMetrics {
		v, ok := obs.Value(metric)
		if !ok {
			t.Fatalf("metric %s missing from snapshot", metric)
		}
		if !v.Synthetic || v.Source != providers.SourceSynthetic {
			t.Fatalf("metric %s not attributed to the seasonal heuristic: %+v", metric, v)
		}
	}
}

func TestFetchSnapshotMixedProvenance(t *testing.T) {
	optical := &fakeProvider{name: "optical-primary", metrics: opticalValues(0.6, 0.2)}
	rainfall := &fakeProvider{
		name:    "rainfall",
		metrics: map[models.Metric]float64{models.MetricRainfall: 40},
	}

	e := NewEngine([]providers.Provider{optical, rainfall}, nil, nil, Options{}, nil)
	obs, err := e.FetchSnapshot(context.Background(), fuseRegion, fuseWindow())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	if obs.FullySynthetic() {
		t.Fatalf("snapshot with real metrics flagged fully synthetic")
	}
	if !obs.Real(models.MetricRainfall) {
		t.Fatalf("rainfall should be real")
	}
	if pigment, ok := obs.Value(models.MetricPigment); !ok || !pigment.Synthetic {
		t.Fatalf("unprovided pigment should be synthetic, got %+v", pigment)
	}

	sources := obs.Sources()
	if len(sources) < 3 {
		t.Fatalf("expected optical, rainfall and heuristic sources, got %v", sources)
	}
}

func TestFetchSnapshotInvalidRegion(t *testing.T) {
	e := NewEngine(nil, nil, nil, Options{}, nil)
	bad := models.BoundingBox{MinLon: 40, MinLat: 5, MaxLon: 36, MaxLat: 1}
	if _, err := e.FetchSnapshot(context.Background(), bad, fuseWindow()); !errors.Is(err, models.ErrInvalidRegion) {
		t.Fatalf("expected ErrInvalidRegion, got %v", err)
	}
}

func TestFetchSnapshotPersistsSummary(t *testing.T) {
	optical := &fakeProvider{name: "optical-primary", metrics: opticalValues(0.6, 0.2)}
	sink := newMemorySink()

	e := NewEngine([]providers.Provider{optical}, sink, nil, Options{}, nil)
	if _, err := e.FetchSnapshot(context.Background(), fuseRegion, fuseWindow()); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	select {
	case <-sink.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("summary was not persisted")
	}
}

func TestFetchSnapshotSinkFailureDoesNotFailFetch(t *testing.T) {
	optical := &fakeProvider{name: "optical-primary", metrics: opticalValues(0.6, 0.2)}
	sink := newMemorySink()
	sink.err = errors.New("db locked")

	e := NewEngine([]providers.Provider{optical}, sink, nil, Options{}, nil)
	if _, err := e.FetchSnapshot(context.Background(), fuseRegion, fuseWindow()); err != nil {
		t.Fatalf("sink failure leaked into fetch: %v", err)
	}
	<-sink.done
}

func TestFetchSnapshotCachesRegionArea(t *testing.T) {
	optical := &fakeProvider{name: "optical-primary", metrics: opticalValues(0.6, 0.2)}
	c := &countingCache{data: map[string][]byte{}}

	e := NewEngine([]providers.Provider{optical}, nil, c, Options{AreaTTL: time.Hour}, nil)
	first, _ := e.FetchSnapshot(context.Background(), fuseRegion, fuseWindow())
	second, _ := e.FetchSnapshot(context.Background(), fuseRegion, fuseWindow())

	if first.AreaKm2 != second.AreaKm2 {
		t.Fatalf("cached area differs: %f vs %f", first.AreaKm2, second.AreaKm2)
	}
	if c.sets != 1 {
		t.Fatalf("expected one cache write, got %d", c.sets)
	}
}

type countingCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func (c *countingCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (c *countingCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func (c *countingCache) Close() error { return nil }
