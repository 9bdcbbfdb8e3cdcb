package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/remodel-estimate-service/internal/adapter/clarifai"
	"github.com/couchcryptid/remodel-estimate-service/internal/adapter/gemini"
	"github.com/couchcryptid/remodel-estimate-service/internal/adapter/googlemaps"
	httpadapter "github.com/couchcryptid/remodel-estimate-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/remodel-estimate-service/internal/adapter/kafka"
	"github.com/couchcryptid/remodel-estimate-service/internal/adapter/mapbox"
	"github.com/couchcryptid/remodel-estimate-service/internal/adapter/minio"
	"github.com/couchcryptid/remodel-estimate-service/internal/adapter/nominatim"
	"github.com/couchcryptid/remodel-estimate-service/internal/adapter/overpass"
	redisadapter "github.com/couchcryptid/remodel-estimate-service/internal/adapter/redis"
	"github.com/couchcryptid/remodel-estimate-service/internal/adapter/store"
	"github.com/couchcryptid/remodel-estimate-service/internal/config"
	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
	"github.com/couchcryptid/remodel-estimate-service/internal/measure"
	"github.com/couchcryptid/remodel-estimate-service/internal/observability"
	"github.com/couchcryptid/remodel-estimate-service/internal/openings"
	"github.com/couchcryptid/remodel-estimate-service/internal/remodel"
	"github.com/couchcryptid/remodel-estimate-service/internal/roof"
)

func main() {
	if err := run(); err != nil {
		slog.Error("remodel service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	var geocoder domain.Geocoder
	switch cfg.GeocoderProvider {
	case config.ProviderMapbox:
		client := mapbox.NewClient(cfg.MapboxToken, cfg.GeocodeTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.GeocodeCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.GeocodeCacheSize, "timeout", cfg.GeocodeTimeout)
	default:
		client := nominatim.NewClient(cfg.NominatimURL, cfg.NominatimUserAgent, cfg.GeocodeTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.GeocodeCacheSize, metrics)
		logger.Info("nominatim geocoding enabled", "url", cfg.NominatimURL)
	}

	var footprints domain.FootprintFinder = overpass.NewClient(cfg.OverpassURL, cfg.FootprintTimeout)
	if cfg.RedisAddr != "" {
		rdb, err := redisadapter.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		footprints = redisadapter.NewFootprintCache(footprints, rdb, cfg.FootprintCacheTTL, metrics, logger)
		logger.Info("footprint cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.FootprintCacheTTL)
	}

	clarifaiClient := clarifai.NewClient(cfg.ClarifaiAPIKey, cfg.RecognitionTimeout)
	var recognizer domain.Recognizer
	switch {
	case cfg.RecognizerProvider == config.ProviderGemini && cfg.GeminiAPIKey != "":
		g, err := gemini.NewRecognizer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return err
		}
		defer g.Close()
		recognizer = g
	case cfg.RecognizerProvider == config.ProviderClarifai && cfg.ClarifaiAPIKey != "":
		recognizer = clarifaiClient
	default:
		logger.Warn("recognizer API key not set, opening counts will use fallbacks", "provider", cfg.RecognizerProvider)
	}

	strategies := []measure.Strategy{
		measure.NewFootprintStrategy(footprints, cfg.FootprintRadiusMeters, cfg.FootprintTimeout, metrics),
		measure.OutlineStrategy{},
		measure.SatelliteStrategy{},
	}
	if cfg.ClarifaiAPIKey != "" {
		strategies = append(strategies, measure.NewPhotoScaleStrategy(clarifaiClient, cfg.RecognitionTimeout, metrics))
	}

	deps := remodel.Deps{
		Geocoder: geocoder,
		Resolver: measure.NewResolver(strategies, logger, metrics),
		Roof:     roof.NewEstimator(logger, metrics),
		Openings: openings.NewDetector(recognizer, cfg.RecognitionTimeout, cfg.MaxImageBytes, logger, metrics),
		Store:    db,
	}
	if cfg.GoogleMapsAPIKey != "" {
		maps := googlemaps.NewClient(cfg.GoogleMapsAPIKey, cfg.ImageryTimeout)
		deps.Satellite = maps
		deps.StreetView = maps
	} else {
		logger.Warn("GOOGLE_MAPS_API_KEY not set, satellite and street view imagery disabled")
	}
	if cfg.MinioEndpoint != "" {
		blobs, err := minio.NewBlobStore(ctx, minio.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Secure:    cfg.MinioSecure,
			URLExpiry: cfg.SignedURLExpiry,
		})
		if err != nil {
			return err
		}
		deps.Blobs = blobs
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		deps.Events = publisher
	}

	svc := remodel.New(deps, remodel.Options{
		SatelliteZoom:  cfg.SatelliteZoom,
		ImageryTimeout: cfg.ImageryTimeout,
	}, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, db, httpadapter.Options{
		MapsAPIKey:      cfg.GoogleMapsAPIKey,
		MaxRequestBytes: cfg.MaxRequestBytes,
	}, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
