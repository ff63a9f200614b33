package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taskflow-labs/taskflow-go/internal/auditexport"
	"github.com/taskflow-labs/taskflow-go/internal/platform/env"
	"github.com/taskflow-labs/taskflow-go/internal/platform/httpserver"
	"github.com/taskflow-labs/taskflow-go/internal/platform/objectstore"
	"github.com/taskflow-labs/taskflow-go/internal/platform/postgres"
	repopg "github.com/taskflow-labs/taskflow-go/internal/repo/postgres"
	"github.com/taskflow-labs/taskflow-go/internal/workflow"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := env.String("WORKFLOW_HTTP_ADDR", ":8080")
	shutdownTimeout, err := env.Duration("WORKFLOW_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}
	cacheSize, err := env.Int("WORKFLOW_CACHE_SIZE", 1024)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}

	dbCfg, err := postgres.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid database config", "error", err)
		os.Exit(2)
	}
	db, err := postgres.Open(ctx, dbCfg)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	exportCfg, err := auditexport.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid audit export config", "error", err)
		os.Exit(2)
	}
	var exporter auditexport.Exporter = auditexport.NoopExporter{}
	if exportCfg.Enabled() {
		storeCfg, err := objectstore.ConfigFromEnv()
		if err != nil {
			logger.Error("invalid object store config", "error", err)
			os.Exit(2)
		}
		client, err := objectstore.NewMinIOClient(storeCfg)
		if err != nil {
			logger.Error("object store unavailable", "error", err)
			os.Exit(1)
		}
		if err := objectstore.EnsureAuditBucket(ctx, client, storeCfg); err != nil {
			logger.Error("audit bucket unavailable", "error", err)
			os.Exit(1)
		}
		exporter = auditexport.NewObjectStoreExporter(client, storeCfg.BucketAudit)
	}

	cache, err := workflow.NewCache(cacheSize)
	if err != nil {
		logger.Error("invalid cache size", "error", err)
		os.Exit(2)
	}

	repos := repopg.NewRepositories(db)
	runner := repopg.NewRunner(db)

	catalog := workflow.NewStatusCatalog(repos.Statuses, runner, cache)
	graph := workflow.NewTransitionGraph(repos.Statuses, repos.Transitions, cache)
	executor := workflow.NewTransitionExecutor(runner, repos.Tasks, catalog, graph, exporter, logger)
	intake := workflow.NewTaskIntake(runner, executor)
	history := workflow.NewAuditLog(repos.Tasks, repos.Audit)
	setup := workflow.NewWorkflowSetup(runner, cache)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Healthz("workflow"))
	mux.HandleFunc(
		"/readyz",
		httpserver.ReadyzWithChecks(
			"workflow",
			httpserver.ReadinessCheck{
				Name: "postgres",
				Check: func(ctx context.Context) error {
					checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
					defer cancel()
					return db.PingContext(checkCtx)
				},
			},
		),
	)

	api := newWorkflowAPI(logger, catalog, graph, executor, intake, history, setup)
	api.register(mux)

	cfg := httpserver.Config{
		Service:         "workflow",
		Addr:            addr,
		ShutdownTimeout: shutdownTimeout,
	}

	if err := httpserver.Run(ctx, logger, cfg, httpserver.Wrap(logger, "workflow", mux)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
