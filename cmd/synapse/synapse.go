package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/synapse-data/product.intel/internal/api"
	"github.com/synapse-data/product.intel/internal/auth"
	"github.com/synapse-data/product.intel/internal/catalog"
	"github.com/synapse-data/product.intel/internal/config"
	"github.com/synapse-data/product.intel/internal/db"
	"github.com/synapse-data/product.intel/internal/pipeline"
	"github.com/synapse-data/product.intel/internal/predict"
	"github.com/synapse-data/product.intel/internal/workflow"
	"github.com/synapse-data/product.intel/internal/wshub"
)

var (
	listen      = flag.String("listen", ":8000", "Listen address")
	dbFile      = flag.String("db", "synapse.db", "SQLite database file")
	catalogFile = flag.String("catalog", "product_data.csv", "Product catalog CSV (imported when the products table is empty)")
	demandModel = flag.String("demand-model", "models/demand_model.json", "Demand classifier coefficients file")
	priceModel  = flag.String("price-model", "models/price_model.json", "Price estimator coefficients file")
	configFile  = flag.String("config", "", "Optional tuning config JSON file")
)

func main() {
	flag.Parse()

	if flag.NArg() > 0 {
		switch flag.Arg(0) {
		case "migrate":
			db.RunMigrateCommand(flag.Args()[1:], *dbFile)
			return
		default:
			log.Fatalf("Unknown command: %s", flag.Arg(0))
		}
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	tuning := config.EmptyTuningConfig()
	if *configFile != "" {
		cfg, err := config.LoadTuningConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		tuning = cfg
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	if err := importCatalog(database, *catalogFile); err != nil {
		log.Fatalf("Failed to import catalog: %v", err)
	}

	// Missing model files degrade the affected pipeline stages instead of
	// refusing to start. The interface vars stay nil on load failure.
	var classifier predict.DemandClassifier
	if c, err := predict.LoadLogisticClassifier(*demandModel); err != nil {
		log.Printf("demand model unavailable: %v", err)
	} else {
		classifier = c
	}
	var estimator predict.PriceEstimator
	if e, err := predict.LoadLinearEstimator(*priceModel); err != nil {
		log.Printf("price model unavailable: %v", err)
	} else {
		estimator = e
	}

	optimizer := pipeline.New(database.Products(), classifier, estimator,
		pipeline.WithCapabilityTimeout(tuning.GetCapabilityTimeout()),
		pipeline.WithSampleIDCount(tuning.GetSampleIDCount()))

	authSvc := auth.NewService(auth.Config{
		JWTSecret:          envOr("JWT_SECRET", "dev-secret-change-me"),
		TokenExpiry:        tuning.GetTokenExpiry(),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		FrontendURL:        os.Getenv("FRONTEND_URL"),
	})

	hub := wshub.New()
	workflows := workflow.NewService(database, optimizer, hub)
	workflows.SetAgentTimeout(tuning.GetAgentTimeout())

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		srv := api.NewServer(database, optimizer, authSvc, hub, workflows, tuning.GetCurrency())
		srv.SetReportProductLimit(tuning.GetReportProductLimit())
		mux := srv.ServeMux()
		database.AttachAdminRoutes(mux)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()

	// Let in-flight workflow runs record their terminal status.
	workflows.Wait()
	log.Printf("Graceful shutdown complete")
}

// importCatalog seeds the products table from the catalog CSV on first run.
// A populated table wins over the file so re-imports never clobber data.
func importCatalog(database *db.DB, path string) error {
	count, err := database.ProductCount()
	if err != nil {
		return err
	}
	if count > 0 {
		log.Printf("catalog already imported (%d rows)", count)
		return nil
	}

	store, err := catalog.LoadCSV(path)
	if err != nil {
		return err
	}
	if err := database.ImportProducts(store.Records()); err != nil {
		return err
	}
	log.Printf("imported %d catalog rows from %s", store.Len(), path)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
