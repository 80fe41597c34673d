// main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/inngest/inngestgo"
	"github.com/joho/godotenv"

	"github.com/DeividasMat/firegeo/internal/config"
	"github.com/DeividasMat/firegeo/internal/providers"
	"github.com/DeividasMat/firegeo/internal/store"
	"github.com/DeividasMat/firegeo/services"
	"github.com/DeividasMat/firegeo/workflows"
)

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("dev.env"); err != nil {
			log.Printf("Note: No .env or dev.env file loaded: %v", err)
		} else {
			log.Printf("Loaded dev.env file for local development")
		}
	} else {
		log.Printf("Loaded .env file")
	}

	cfg := config.Load()

	log.Printf("Environment: %s", cfg.Environment)
	log.Printf("Port: %s", cfg.Port)

	if cfg.OpenAIAPIKey == "" {
		log.Printf("WARNING: OpenAI API key not loaded!")
	} else {
		log.Printf("OpenAI API key loaded (length: %d)", len(cfg.OpenAIAPIKey))
	}
	if cfg.AnthropicAPIKey == "" {
		log.Printf("WARNING: Anthropic API key not loaded!")
	} else {
		log.Printf("Anthropic API key loaded (length: %d)", len(cfg.AnthropicAPIKey))
	}
	if cfg.PerplexityAPIKey == "" {
		log.Printf("WARNING: Perplexity API key not loaded!")
	} else {
		log.Printf("Perplexity API key loaded (length: %d)", len(cfg.PerplexityAPIKey))
	}

	ctx := context.Background()

	// The store is optional: without DATABASE_URL the service still runs
	// analyses, it just doesn't persist them or feed the daily scheduler.
	var analysisStore *store.Store
	if cfg.DatabaseURL != "" {
		var err error
		analysisStore, err = store.New(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer analysisStore.Close()
		log.Printf("Successfully connected to database")
	} else {
		log.Printf("WARNING: DATABASE_URL not set - analyses will not be persisted")
	}

	if cfg.Environment == "development" || cfg.Environment == "" {
		os.Unsetenv("INNGEST_SIGNING_KEY")
		cfg.InngestSigningKey = ""
		log.Printf("Running in development mode - signing key verification disabled")
	}

	// Initialize services
	costService := services.NewCostService()
	registry := providers.NewRegistry(cfg, costService)
	extractionClient := services.NewExtractionClient(cfg, costService)
	discoveryService := services.NewDiscoveryService(cfg, extractionClient)
	interpreterService := services.NewInterpreterService(extractionClient, registry)
	analysisService := services.NewAnalysisService(
		cfg,
		registry,
		discoveryService,
		interpreterService,
		services.NewAggregatorService(),
		services.NewScorerService(),
	)
	log.Printf("Analysis pipeline initialized")

	// Create Inngest client
	client, err := inngestgo.NewClient(
		inngestgo.ClientOpts{
			AppID:    "firegeo",
			EventKey: inngestgo.StrPtr(cfg.InngestEventKey),
			Env:      inngestgo.StrPtr(cfg.Environment),
		},
	)
	if err != nil {
		log.Fatalf("Failed to create Inngest client: %v", err)
	}

	// Initialize and register workflows
	log.Printf("Initializing and registering workflows...")

	analysisProcessor := workflows.NewAnalysisProcessor(analysisService, discoveryService, analysisStore, cfg)
	analysisProcessor.SetClient(client)
	analysisProcessor.ProcessBrandAnalysis()

	if analysisStore != nil {
		scheduledProcessor := workflows.NewScheduledProcessor(analysisStore)
		scheduledProcessor.SetClient(client)
		scheduledProcessor.DailyReanalysis()
	}

	log.Printf("All processors initialized and functions registered")

	h := client.Serve()
	mux := http.NewServeMux()
	mux.Handle("/api/inngest", h)

	// Root endpoint for ALB health check
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"service":"firegeo","status":"running"}`))
	})

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	mux.HandleFunc("/test/trigger-analysis", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		company := r.URL.Query().Get("company")
		if company == "" {
			company = "Firegeo"
		}
		evt := inngestgo.Event{
			Name: "brand.analyze",
			Data: map[string]interface{}{
				"company_name": company,
				"company_url":  r.URL.Query().Get("url"),
				"triggered_by": "manual_test",
			},
		}
		result, err := client.Send(r.Context(), evt)
		if err != nil {
			log.Printf("Failed to send test event: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(fmt.Sprintf(`{"error":"Failed to send event: %v"}`, err)))
			return
		}
		log.Printf("Test event sent successfully: %+v", result)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(fmt.Sprintf(`{"status":"success","message":"Analysis triggered for %s","event_ids":["%s"]}`, company, result)))
	})

	port := cfg.Port
	log.Printf("Starting Firegeo service on port %s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatal(err)
	}
}
