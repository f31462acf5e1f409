package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bloomsight/bloom-engine/internal/detector"
	"github.com/bloomsight/bloom-engine/internal/models"
)

// Config captures the settings required to boot the bloom engine.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Fusion    FusionConfig    `yaml:"fusion"`
	Detector  DetectorConfig  `yaml:"detector"`
	Training  TrainingConfig  `yaml:"training"`
	Advisory  AdvisoryConfig  `yaml:"advisory"`
	Store     StoreConfig     `yaml:"store"`
	Logging   LoggingConfig   `yaml:"logging"`
	Cache     CacheConfig     `yaml:"cache"`
}

// ServerConfig controls the HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// ProviderConfig configures one upstream observation product.
type ProviderConfig struct {
	BaseURL     string        `yaml:"baseURL"`
	Path        string        `yaml:"path"`
	ResolutionM float64       `yaml:"resolutionM"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ProvidersConfig groups the five products in descending priority within
// their class: high-resolution optical first, then the backup, then the
// coarse frequent-revisit one, plus the dedicated rainfall and thermal feeds.
type ProvidersConfig struct {
	OpticalPrimary OpticalProviderConfig `yaml:"opticalPrimary"`
	OpticalBackup  OpticalProviderConfig `yaml:"opticalBackup"`
	OpticalCoarse  OpticalProviderConfig `yaml:"opticalCoarse"`
	Rainfall       ProviderConfig        `yaml:"rainfall"`
	Thermal        ProviderConfig        `yaml:"thermal"`
}

// OpticalProviderConfig extends ProviderConfig with a pigment capability
// flag; only the high-resolution product carries a usable pigment band.
type OpticalProviderConfig struct {
	ProviderConfig `yaml:",inline"`
	Pigment        bool `yaml:"pigment"`
}

// FusionConfig controls snapshot window and fallback behaviour.
type FusionConfig struct {
	LookbackDays     int           `yaml:"lookbackDays"`
	PublishDelayDays int           `yaml:"publishDelayDays"`
	RainfallBuffer   time.Duration `yaml:"rainfallBuffer"`
	ProviderTimeout  time.Duration `yaml:"providerTimeout"`
	AreaTTL          time.Duration `yaml:"areaTTL"`
}

// DetectorConfig holds the three detection thresholds.
type DetectorConfig struct {
	WaterThreshold      float64 `yaml:"waterThreshold"`
	VegetationThreshold float64 `yaml:"vegetationThreshold"`
	PigmentThreshold    float64 `yaml:"pigmentThreshold"`
}

// Thresholds converts to the detector's threshold type.
func (d DetectorConfig) Thresholds() detector.Thresholds {
	return detector.Thresholds{
		Water:      d.WaterThreshold,
		Vegetation: d.VegetationThreshold,
		Pigment:    d.PigmentThreshold,
	}
}

// TrainingConfig controls training-set preparation and fitting.
type TrainingConfig struct {
	MonthsBack          int  `yaml:"monthsBack"`
	MinSyntheticSamples int  `yaml:"minSyntheticSamples"`
	IncludeWeather      bool `yaml:"includeWeather"`
	Optimize            bool `yaml:"optimize"`
}

// AdvisoryConfig controls advisory composition.
type AdvisoryConfig struct {
	DefaultLanguage string `yaml:"defaultLanguage"`
	MaxCrops        int    `yaml:"maxCrops"`
	PackPath        string `yaml:"packPath"`
}

// StoreConfig points at the persistence backends.
type StoreConfig struct {
	HistoryDSN string `yaml:"historyDSN"`
	ModelPath  string `yaml:"modelPath"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// CacheConfig controls Valkey-backed caching of provider responses and
// computed region areas.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
}

// Load initialises Config from a YAML file and optional environment
// overrides, then validates caller-contract constraints.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("BLOOM_ENGINE_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails fast on out-of-range thresholds and unsupported languages;
// both are caller contract violations per the error-handling contract.
func (c *Config) Validate() error {
	if err := c.Detector.Thresholds().Validate(); err != nil {
		return err
	}
	if lang := models.Language(c.Advisory.DefaultLanguage); !models.SupportedLanguage(lang) {
		return fmt.Errorf("%w: %q", models.ErrUnsupportedLanguage, c.Advisory.DefaultLanguage)
	}
	if c.Fusion.LookbackDays <= 0 {
		return fmt.Errorf("fusion.lookbackDays must be positive, got %d", c.Fusion.LookbackDays)
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Providers: ProvidersConfig{
			OpticalPrimary: OpticalProviderConfig{
				ProviderConfig: ProviderConfig{Path: "/api/v1/statistics", ResolutionM: 10, Timeout: 8 * time.Second},
				Pigment:        true,
			},
			OpticalBackup: OpticalProviderConfig{
				ProviderConfig: ProviderConfig{Path: "/api/v1/statistics", ResolutionM: 30, Timeout: 8 * time.Second},
			},
			OpticalCoarse: OpticalProviderConfig{
				ProviderConfig: ProviderConfig{Path: "/api/v1/statistics", ResolutionM: 250, Timeout: 5 * time.Second},
			},
			Rainfall: ProviderConfig{Path: "/api/v1/precipitation", ResolutionM: 5000, Timeout: 5 * time.Second},
			Thermal:  ProviderConfig{Path: "/api/v1/temperature", ResolutionM: 1000, Timeout: 5 * time.Second},
		},
		Fusion: FusionConfig{
			LookbackDays:     10,
			PublishDelayDays: 2,
			RainfallBuffer:   5 * 24 * time.Hour,
			ProviderTimeout:  8 * time.Second,
			AreaTTL:          time.Hour,
		},
		Detector: DetectorConfig{
			WaterThreshold:      0.3,
			VegetationThreshold: 0.5,
			PigmentThreshold:    0.15,
		},
		Training: TrainingConfig{
			MonthsBack:          6,
			MinSyntheticSamples: 60,
			IncludeWeather:      true,
		},
		Advisory: AdvisoryConfig{
			DefaultLanguage: string(models.LangEnglish),
			MaxCrops:        3,
			PackPath:        "configs/advisory/default.yaml",
		},
		Store: StoreConfig{
			HistoryDSN: "data/history.db",
			ModelPath:  "data/model.json",
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Cache: CacheConfig{
			Enabled:      false,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BLOOM_ENGINE_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("BLOOM_ENGINE_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("BLOOM_ENGINE_OPTICAL_PRIMARY_URL"); v != "" {
		cfg.Providers.OpticalPrimary.BaseURL = v
	}
	if v := os.Getenv("BLOOM_ENGINE_OPTICAL_BACKUP_URL"); v != "" {
		cfg.Providers.OpticalBackup.BaseURL = v
	}
	if v := os.Getenv("BLOOM_ENGINE_OPTICAL_COARSE_URL"); v != "" {
		cfg.Providers.OpticalCoarse.BaseURL = v
	}
	if v := os.Getenv("BLOOM_ENGINE_RAINFALL_URL"); v != "" {
		cfg.Providers.Rainfall.BaseURL = v
	}
	if v := os.Getenv("BLOOM_ENGINE_THERMAL_URL"); v != "" {
		cfg.Providers.Thermal.BaseURL = v
	}
	if v := os.Getenv("BLOOM_ENGINE_LOOKBACK_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.Fusion.LookbackDays = days
		}
	}
	if v := os.Getenv("BLOOM_ENGINE_WATER_THRESHOLD"); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Detector.WaterThreshold = t
		}
	}
	if v := os.Getenv("BLOOM_ENGINE_VEGETATION_THRESHOLD"); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Detector.VegetationThreshold = t
		}
	}
	if v := os.Getenv("BLOOM_ENGINE_PIGMENT_THRESHOLD"); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Detector.PigmentThreshold = t
		}
	}
	if v := os.Getenv("BLOOM_ENGINE_TRAINING_OPTIMIZE"); v != "" {
		cfg.Training.Optimize = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("BLOOM_ENGINE_MIN_SYNTHETIC_SAMPLES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Training.MinSyntheticSamples = n
		}
	}
	if v := os.Getenv("BLOOM_ENGINE_LANGUAGE"); v != "" {
		cfg.Advisory.DefaultLanguage = v
	}
	if v := os.Getenv("BLOOM_ENGINE_MAX_CROPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Advisory.MaxCrops = n
		}
	}
	if v := os.Getenv("BLOOM_ENGINE_ADVISORY_PACK"); v != "" {
		cfg.Advisory.PackPath = v
	}
	if v := os.Getenv("BLOOM_ENGINE_HISTORY_DSN"); v != "" {
		cfg.Store.HistoryDSN = v
	}
	if v := os.Getenv("BLOOM_ENGINE_MODEL_PATH"); v != "" {
		cfg.Store.ModelPath = v
	}
	if v := os.Getenv("BLOOM_ENGINE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BLOOM_ENGINE_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("BLOOM_ENGINE_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("BLOOM_ENGINE_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("BLOOM_ENGINE_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("BLOOM_ENGINE_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("BLOOM_ENGINE_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("BLOOM_ENGINE_CACHE_TLS"); strings.EqualFold(v, "true") || v == "1" {
		cfg.Cache.TLS = true
	}
}
