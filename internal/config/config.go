package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Geocoder and recognizer providers.
const (
	ProviderNominatim = "nominatim"
	ProviderMapbox    = "mapbox"
	ProviderClarifai  = "clarifai"
	ProviderGemini    = "gemini"
)

const (
	minRecognitionTimeout = time.Second
	maxRecognitionTimeout = 5 * time.Second
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	MaxRequestBytes int64
	MaxImageBytes   int

	// Geocoding.
	GeocoderProvider   string
	NominatimURL       string
	NominatimUserAgent string
	MapboxToken        string
	GeocodeTimeout     time.Duration
	GeocodeCacheSize   int

	// Building footprints.
	OverpassURL           string
	FootprintTimeout      time.Duration
	FootprintRadiusMeters float64
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	FootprintCacheTTL     time.Duration

	// Imagery.
	GoogleMapsAPIKey string
	SatelliteZoom    int
	ImageryTimeout   time.Duration

	// Image recognition.
	RecognizerProvider string
	ClarifaiAPIKey     string
	GeminiAPIKey       string
	GeminiModel        string
	RecognitionTimeout time.Duration

	// Persistence.
	DatabaseDriver  string
	DatabaseURL     string
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioSecure     bool
	SignedURLExpiry time.Duration

	// Events. Publishing is disabled when no brokers are set.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	p := parser{}
	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		MaxRequestBytes: int64(p.positiveInt("MAX_REQUEST_BYTES", 20<<20)),
		MaxImageBytes:   p.positiveInt("MAX_IMAGE_BYTES", 512000),

		NominatimURL:       sharedcfg.EnvOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: sharedcfg.EnvOrDefault("NOMINATIM_USER_AGENT", "remodel-estimate-service/1.0"),
		MapboxToken:        os.Getenv("MAPBOX_TOKEN"),
		GeocodeTimeout:     p.duration("GEOCODE_TIMEOUT", 5*time.Second),
		GeocodeCacheSize:   p.positiveInt("GEOCODE_CACHE_SIZE", 1000),

		OverpassURL:           sharedcfg.EnvOrDefault("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		FootprintTimeout:      p.duration("FOOTPRINT_TIMEOUT", 10*time.Second),
		FootprintRadiusMeters: p.positiveFloat("FOOTPRINT_RADIUS_METERS", 50),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               p.nonNegativeInt("REDIS_DB", 0),
		FootprintCacheTTL:     p.duration("FOOTPRINT_CACHE_TTL", 24*time.Hour),

		GoogleMapsAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
		SatelliteZoom:    p.positiveInt("SATELLITE_ZOOM", 20),
		ImageryTimeout:   p.duration("IMAGERY_TIMEOUT", 5*time.Second),

		ClarifaiAPIKey:     os.Getenv("CLARIFAI_API_KEY"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        sharedcfg.EnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		RecognitionTimeout: p.duration("RECOGNITION_TIMEOUT", 4*time.Second),

		DatabaseDriver:  sharedcfg.EnvOrDefault("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:     sharedcfg.EnvOrDefault("DATABASE_URL", "file:remodel.db"),
		MinioEndpoint:   os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey:  os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:  os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:     sharedcfg.EnvOrDefault("MINIO_BUCKET", "remodels"),
		MinioSecure:     p.boolean("MINIO_SECURE", false),
		SignedURLExpiry: p.duration("SIGNED_URL_EXPIRY", 24*time.Hour),

		KafkaTopic: sharedcfg.EnvOrDefault("KAFKA_TOPIC", "remodel-estimates"),
	}
	if p.err != nil {
		return nil, p.err
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	cfg.GeocoderProvider = os.Getenv("GEOCODER_PROVIDER")
	if cfg.GeocoderProvider == "" {
		cfg.GeocoderProvider = ProviderNominatim
		if cfg.MapboxToken != "" {
			cfg.GeocoderProvider = ProviderMapbox
		}
	}
	cfg.RecognizerProvider = sharedcfg.EnvOrDefault("RECOGNIZER_PROVIDER", ProviderClarifai)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.GeocoderProvider {
	case ProviderNominatim:
	case ProviderMapbox:
		if c.MapboxToken == "" {
			return errors.New("GEOCODER_PROVIDER is mapbox but MAPBOX_TOKEN is not set")
		}
	default:
		return fmt.Errorf("invalid GEOCODER_PROVIDER %q", c.GeocoderProvider)
	}

	switch c.RecognizerProvider {
	case ProviderClarifai, ProviderGemini:
	default:
		return fmt.Errorf("invalid RECOGNIZER_PROVIDER %q", c.RecognizerProvider)
	}

	if c.RecognitionTimeout < minRecognitionTimeout || c.RecognitionTimeout > maxRecognitionTimeout {
		return fmt.Errorf("invalid RECOGNITION_TIMEOUT: must be between %s and %s", minRecognitionTimeout, maxRecognitionTimeout)
	}

	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	if c.KafkaTopic == "" && len(c.KafkaBrokers) > 0 {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// parser reads typed env vars, keeping the first error.
type parser struct {
	err error
}

func (p *parser) fail(key string) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s", key)
	}
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		p.fail(key)
		return def
	}
	return d
}

func (p *parser) positiveInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		p.fail(key)
		return def
	}
	return n
}

func (p *parser) nonNegativeInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		p.fail(key)
		return def
	}
	return n
}

func (p *parser) positiveFloat(key string, def float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		p.fail(key)
		return def
	}
	return f
}

func (p *parser) boolean(key string, def bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		p.fail(key)
		return def
	}
	return b
}
