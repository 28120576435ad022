package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"maven-deps/build"
	"maven-deps/config"
	"maven-deps/data"
	"maven-deps/depsdev"
	"maven-deps/handlers"
	"maven-deps/maven"
	"maven-deps/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	_ "github.com/mattn/go-sqlite3"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		ForceColors:     true,
		DisableQuote:    true,
		PadLevelText:    true,
	})

	sqlitePath := os.Getenv("SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = "./data/app.db"
	}

	db, err := sql.Open("sqlite3", sqlitePath)
	if err != nil {
		logger.Fatalf("failed to open DB: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	store := &storage.Storage{DB: db}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.InitSchema(ctx); err != nil {
		logger.Fatalf("failed to initialize schema: %v", err)
	}

	client := &depsdev.DepsDevClient{
		BaseURL:    config.BaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}

	dm := &data.DataManager{
		Store:         store,
		API:           client,
		Log:           logger,
		System:        config.DependencySystem,
		MaxConcurrent: config.DefaultMaxConcurrent,
	}

	handler := &handlers.Handler{
		Store:       store,
		DataManager: dm,
		Log:         logger,
	}

	allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
	if allowedOrigin == "" {
		allowedOrigin = config.DefaultAllowedOrigin
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{allowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Logger)
	handler.Routes(r)

	if pomPath := os.Getenv("POM_PATH"); pomPath != "" {
		importAtStartup(logger, dm, pomPath, os.Getenv("PROJECT_NAME"))
	}

	if os.Getenv("WITH_DAILY_DATA_REFRESH") == "true" {
		c := cron.New()
		_, err := c.AddFunc(config.DefaultRefreshSchedule, func() {
			logger.Info("Scheduled refresh triggered")
			if err := dm.RefreshAll(context.Background()); err != nil {
				logger.Errorf("scheduled refresh failed: %v", err)
			}
		})
		if err != nil {
			logger.Fatalf("failed to schedule cron: %v", err)
		}
		c.Start()
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Infof("starting on port %s...", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatal(err)
	}
}

func importAtStartup(logger *logrus.Logger, dm *data.DataManager, pomPath, project string) {
	pom, err := maven.ParsePOMFile(pomPath)
	if err != nil {
		logger.Fatalf("failed to read POM: %v", err)
	}
	if project == "" {
		project = pom.ArtifactID
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := dm.ImportProject(ctx, project, pom, build.ReactorFor(pom)); err != nil {
		logger.Fatalf("failed to import %s: %v", pomPath, err)
	}
}
