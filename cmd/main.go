package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/paperclip-video/paperclip-backend/internal/clients/gcp"
	"github.com/paperclip-video/paperclip-backend/internal/clients/redis"
	"github.com/paperclip-video/paperclip-backend/internal/config"
	"github.com/paperclip-video/paperclip-backend/internal/data/db"
	"github.com/paperclip-video/paperclip-backend/internal/data/repos"
	"github.com/paperclip-video/paperclip-backend/internal/http/handlers"
	"github.com/paperclip-video/paperclip-backend/internal/jobs/orchestrator"
	"github.com/paperclip-video/paperclip-backend/internal/jobs/pipeline/analyze"
	"github.com/paperclip-video/paperclip-backend/internal/jobs/pipeline/parse"
	"github.com/paperclip-video/paperclip-backend/internal/jobs/pipeline/render"
	"github.com/paperclip-video/paperclip-backend/internal/jobs/pipeline/segmentize"
	"github.com/paperclip-video/paperclip-backend/internal/jobs/pipeline/upload"
	"github.com/paperclip-video/paperclip-backend/internal/jobs/pipeline/visualgen"
	"github.com/paperclip-video/paperclip-backend/internal/jobs/runtime"
	"github.com/paperclip-video/paperclip-backend/internal/jobs/worker"
	"github.com/paperclip-video/paperclip-backend/internal/observability"
	"github.com/paperclip-video/paperclip-backend/internal/platform/envutil"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
	"github.com/paperclip-video/paperclip-backend/internal/server"
	"github.com/paperclip-video/paperclip-backend/internal/services"
	"github.com/paperclip-video/paperclip-backend/internal/sse"
)

func main() {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "paperclip-backend",
		Environment: envutil.GetEnv("APP_ENV", "development", log),
		Version:     envutil.GetEnv("APP_VERSION", "dev", log),
	}); shutdown != nil {
		defer shutdown(context.Background())
	}

	spec := config.LoadPipelineSpec(log)

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrateAll(postgresService.DB()); err != nil {
		log.Warn("Auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	log.Info("Setting up repos...")
	all := repos.NewAll(thePG, log)

	// SSE
	sseHub := sse.NewSSEHub(log)
	var notify services.JobNotifier
	if bus, err := redis.NewSSEBus(log); err != nil {
		log.Warn("Redis SSE bus unavailable, events stay process-local", "error", err)
		notify = services.NewJobNotifier(sseHub)
	} else {
		if err := bus.StartForwarder(ctx, sseHub.Broadcast); err != nil {
			log.Warn("Redis SSE forwarder failed, events stay process-local", "error", err)
			notify = services.NewJobNotifier(sseHub)
		} else {
			notify = services.NewBusJobNotifier(log, bus)
			defer bus.Close()
		}
	}

	// Clients
	log.Info("Setting up clients...")
	bucketService, err := gcp.NewBucketService(log)
	if err != nil {
		log.Warn("Could not init BucketService", "error", err)
		bucketService = nil
	}
	docAI, err := gcp.NewDocument(log)
	if err != nil {
		log.Warn("Could not init Document AI client, PDFs will fail to parse", "error", err)
		docAI = nil
	}

	// Services
	log.Info("Setting up services...")
	extractor := services.NewTextExtractor(log, docAI)
	analyzer := services.NewHeuristicAnalyzer()
	segmentizer := services.NewSegmentizer(spec.Limits)
	scriptgen := services.NewScriptGenerator(spec.Limits)
	planner := services.NewTimelinePlanner(spec.Limits)
	provider, err := services.NewTemplateCardRenderer(log)
	if err != nil {
		log.Error("Could not init card renderer", "error", err)
		os.Exit(1)
	}

	seedVisualTemplates(log, all.VisualTemplate)

	// Jobs
	orch := orchestrator.New(spec, all.ProcessingJob, all.Document, notify, log)
	registry := runtime.NewRegistry()
	for _, h := range []runtime.Handler{
		upload.New(log, all.Document, bucketService),
		parse.New(log, all.Document, all.Decomposition, bucketService, extractor),
		analyze.New(log, all.Decomposition, analyzer),
		segmentize.New(log, all.Document, all.Decomposition, all.Segment, segmentizer),
		visualgen.New(log, all.Segment, all.VideoScript, all.GeneratedVisual, all.VisualTemplate, scriptgen, provider, bucketService),
		render.New(log, all.VideoScript, all.GeneratedVisual, all.Video, planner, bucketService),
	} {
		if err := registry.Register(h); err != nil {
			log.Error("Handler registration failed", "stage", h.Stage(), "error", err)
			os.Exit(1)
		}
	}
	jobWorker := worker.NewWorker(thePG, log, all.ProcessingJob, registry, notify, orch)
	jobWorker.Start(ctx)

	jobService := services.NewJobService(log, all.ProcessingJob, orch)

	// HTTP
	log.Info("Setting up router...")
	router := server.NewRouter(server.RouterConfig{
		ServiceName:      "paperclip-backend",
		CORSOrigins:      corsOrigins(log),
		ProjectHandler:   handlers.NewProjectHandler(log, all.Project, all.Document),
		DocumentHandler:  handlers.NewDocumentHandler(log, all.Project, all.Document, all.Decomposition, jobService, bucketService),
		JobHandler:       handlers.NewJobHandler(jobService),
		ScriptHandler:    handlers.NewScriptHandler(log, all.VideoScript, all.Segment, all.SegmentSource),
		VideoHandler:     handlers.NewVideoHandler(log, all.Video, all.GeneratedVisual),
		AnalyticsHandler: handlers.NewAnalyticsHandler(log, all.VideoAnalytics, all.Video),
		ABTestHandler:    handlers.NewABTestHandler(log, all.ABTest, all.Video),
		SSEHandler:       handlers.NewSSEHandler(log, sseHub),
	})

	port := envutil.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}

func corsOrigins(log *logger.Logger) []string {
	raw := envutil.GetEnv("CORS_ORIGINS", "", log)
	if raw == "" {
		return nil
	}
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
