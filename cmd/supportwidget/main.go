package main

import (
	"context"
	"time"

	"github.com/georgestephanis/support-widget/internal/dashboard"
	"github.com/georgestephanis/support-widget/internal/diagnostics"
	"github.com/georgestephanis/support-widget/internal/handlers"
	"github.com/georgestephanis/support-widget/internal/recipients"
	"github.com/georgestephanis/support-widget/internal/site"
	"github.com/georgestephanis/support-widget/internal/widget"
	"github.com/georgestephanis/support-widget/pkg/auth"
	"github.com/georgestephanis/support-widget/pkg/cache"
	"github.com/georgestephanis/support-widget/pkg/config"
	"github.com/georgestephanis/support-widget/pkg/database"
	"github.com/georgestephanis/support-widget/pkg/email"
	"github.com/georgestephanis/support-widget/pkg/geoip"
	"github.com/georgestephanis/support-widget/pkg/logging"
	"github.com/georgestephanis/support-widget/pkg/monitoring"
	"github.com/georgestephanis/support-widget/pkg/nonce"
	"github.com/georgestephanis/support-widget/pkg/redis"
	"github.com/georgestephanis/support-widget/pkg/server"
	"github.com/georgestephanis/support-widget/pkg/version"
)

const serviceName = "support"

func main() {
	logger := logging.NewLoggerWithService(serviceName)
	config.LoadEnv(logger)

	port := config.GetEnv("PORT", "18040")
	jwtSecret := []byte(config.RequireEnv("JWT_SECRET"))
	nonceSecret := []byte(config.GetEnv("NONCE_SECRET", ""))
	if len(nonceSecret) == 0 {
		derived, err := nonce.DeriveKey(jwtSecret)
		if err != nil {
			logger.WithError(err).Fatal("Failed to derive form token key")
		}
		nonceSecret = derived
	}

	emailConfig := email.Config{
		Host:     config.GetEnv("SMTP_HOST", ""),
		Port:     config.GetEnv("SMTP_PORT", "587"),
		User:     config.GetEnv("SMTP_USER", ""),
		Password: config.GetEnv("SMTP_PASSWORD", ""),
		From:     config.GetEnv("FROM_EMAIL", "wordpress@localhost"),
		FromName: config.GetEnv("FROM_NAME", "WordPress"),
	}
	emailSender := email.NewSender(emailConfig)

	healthChecker := monitoring.NewHealthChecker(serviceName, version.Version)
	metricsCollector := monitoring.NewMetricsCollector(serviceName, version.Version, version.GitCommit)

	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"SMTP_HOST":  emailConfig.Host,
		"FROM_EMAIL": emailConfig.From,
	}))

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	envOptions := site.FromEnv()
	var options site.Source = site.Static(envOptions)
	if dbURL := config.GetEnv("DATABASE_URL", ""); dbURL != "" {
		db, err := database.Connect(startCtx, database.DefaultConfig(dbURL), logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()
		cacheEvents := metricsCollector.NewCounter("options_cache_total", "Site options cache lookups by result", []string{"result"})
		options = site.NewCachedSource(
			site.NewPostgresSource(db, config.GetEnv("SITE_OPTIONS_TABLE", "options"), envOptions),
			config.GetEnvDuration("SITE_OPTIONS_CACHE_TTL", 30*time.Second),
			cache.Hooks{
				OnHit:   func(string) { cacheEvents.WithLabelValues("hit").Inc() },
				OnMiss:  func(string) { cacheEvents.WithLabelValues("miss").Inc() },
				OnStale: func(string) { cacheEvents.WithLabelValues("stale").Inc() },
				OnError: func(string) { cacheEvents.WithLabelValues("error").Inc() },
			},
		)
		healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	}

	var tokenStore nonce.Store = nonce.NewMemoryStore()
	if redisURL := config.GetEnv("REDIS_URL", ""); redisURL != "" {
		client, err := redis.NewClientFromURL(startCtx, redisURL)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer client.Close()
		tokenStore = nonce.NewRedisStore(client, "support:nonce:")
		healthChecker.AddCheck("redis", monitoring.PingHealthCheck("redis", redis.Pinger{Client: client}, false))
	}
	tokens := nonce.NewManager(nonceSecret, config.GetEnvDuration("NONCE_TTL", nonce.DefaultTTL), tokenStore)

	collector := diagnostics.NewCollector(tokens, nil)
	geoReader, err := geoip.NewReader(config.GetEnv("GEOIP_MMDB_PATH", ""))
	if err != nil {
		logger.WithError(err).Warn("GeoIP database unavailable, remote-country disabled")
	}
	if geoReader != nil {
		defer geoReader.Close()
		collector = diagnostics.NewCollector(tokens, geoReader)
	}

	registry, err := recipients.FromEnv()
	if err != nil {
		logger.WithError(err).Fatal("Invalid recipient configuration")
	}

	manifest, err := widget.LoadManifest(widget.Build())
	if err != nil {
		logger.WithError(err).Fatal("Failed to load widget assets")
	}

	metrics := &handlers.SupportMetrics{
		SupportRequests: metricsCollector.NewCounter("requests_total", "Support form submissions by outcome", []string{"status"}),
	}
	supportHandler := handlers.NewSupportHandler(emailSender, tokens, collector, registry, options, logger, metrics).
		WithPlainText(config.GetEnv("SUPPORT_MAIL_FORMAT", "html") == "text")
	formRenderer := handlers.NewFormRenderer(tokens, registry, options)

	board := dashboard.NewRegistry(logger)
	if err := board.Add(dashboard.Widget{ID: widget.ID, Title: widget.Title, Render: formRenderer.Render}); err != nil {
		logger.WithError(err).Fatal("Failed to register support widget")
	}
	board.Enqueue(widget.Enqueue("/assets", manifest))
	board.HandleAction(widget.Action, supportHandler.Handle)

	app := server.SetupServiceRouter(logger, serviceName, healthChecker, metricsCollector)
	admin := app.Group("/", auth.JWTAuthMiddleware(jwtSecret))
	board.Mount(admin, app, widget.Build())

	serverConfig := server.DefaultConfig(serviceName, port)
	if err := server.Start(serverConfig, app, logger); err != nil {
		logger.Fatal(err.Error())
	}
}
