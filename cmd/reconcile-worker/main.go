// Entry point for the punch reconciliation worker
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"attendance.service/internal/audit"
	"attendance.service/internal/config"
	"attendance.service/internal/core"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"attendance.service/internal/shiftdir"
	"attendance.service/internal/worker"
	"attendance.service/internal/worker/punch"
	"attendance.service/pkg/aws"
	"attendance.service/pkg/database"
	"attendance.service/pkg/logger"
	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	// Configure structured logging
	logger.Setup("reconcile-worker", cfg.IsLocalDev)

	// Configure OpenTelemetry Tracing
	shutdownTracer, err := telemetry.InitTracer("reconcile-worker", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	// DB connection
	db, err := database.NewInstrumentedConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}
	defer db.Close()
	log.Info().Msg("Successfully connected to the database.")

	// AWS SDK Config
	awsCfg, err := aws.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}

	// Initialize dependencies
	sqsClient := sqs.NewFromConfig(awsCfg)

	punchRepo := repository.NewPunchRepository(db)
	shiftRepo := repository.NewShiftRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	producer := messaging.NewSQSProducer(sqsClient, cfg.PunchSQSQueueURL, cfg.AuditSQSQueueURL)
	auditSink := audit.NewSQSSink(producer)

	directory := shiftdir.NewHTTPClient(cfg.ShiftDirectoryURL)
	resolver := core.NewShiftResolver(directory, shiftRepo, auditSink)
	engine := core.NewReconciler(punchRepo, punchRepo, resolver, attendanceRepo, auditSink)

	processor := punch.NewProcessor(engine)

	// Start Worker
	ctx, cancel := context.WithCancel(context.Background())
	app := worker.NewWorker(sqsClient, cfg.PunchSQSQueueURL, processor)

	go func() {
		app.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info().Msg("Shutting down worker...")

	// Cancel the context to signal the worker to stop polling.
	cancel()

	log.Info().Msg("Worker exited gracefully")
}
