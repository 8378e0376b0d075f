package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/laurel/internal/repositories/docket"
	"github.com/Ramsey-B/laurel/internal/repositories/idb"
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/jobs"
	laurelkafka "github.com/Ramsey-B/laurel/pkg/kafka"
	"github.com/Ramsey-B/laurel/pkg/pacer"
	"github.com/Ramsey-B/laurel/pkg/routes/health"
	"github.com/Ramsey-B/laurel/pkg/startup"
)

func newWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the job worker",
		Long:  "Consumes reconciliation jobs from Kafka and applies them to the docket store, serving health endpoints while it runs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd.Context())
		},
	}
}

func runWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, zlog, err := bootstrap()
	if err != nil {
		return err
	}
	defer zlog.Sync()

	sqlxDB, err := connectDB(cfg)
	if err != nil {
		return err
	}
	defer sqlxDB.Close()
	db := database.NewDatabaseInstance(sqlxDB, logger)

	producer := laurelkafka.NewProducer(laurelkafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, logger)
	defer producer.Close()

	idbRepo := idb.NewRepository(db, logger)
	docketRepo := docket.NewRepository(db, logger)

	sessions := newSessionManager(cfg, logger)
	lookup := pacer.NewCaseLookupClient(sessions, logger)

	runner := jobs.NewRunner(producer, cfg.KafkaJobTopic, logger)
	runner.Register(jobs.KindCreateDocketFromIDB, jobs.NewCreateDocketExecutor(idbRepo, docketRepo, logger))
	runner.Register(jobs.KindMergeDocketWithIDB, jobs.NewMergeDocketExecutor(docketRepo, logger))
	runner.Register(jobs.KindFetchPacerCaseID, jobs.NewFetchCaseIDExecutor(lookup, logger))
	runner.Register(jobs.KindUpdateDocketFromPacer, jobs.NewUpdateDocketExecutor(docketRepo, logger))

	consumer := laurelkafka.NewConsumer(laurelkafka.ConsumerConfig{
		Brokers:       cfg.KafkaBrokers,
		Topic:         cfg.KafkaJobTopic,
		ConsumerGroup: cfg.KafkaConsumerGroup,
	}, logger, func(ctx context.Context, msg *laurelkafka.IncomingMessage) error {
		return runner.Execute(ctx, msg.Job)
	})

	backlog := laurelkafka.NewBacklogReader(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, logger)
	checker := health.NewChecker(sqlxDB, nil, backlog, version)

	e := echo.New()
	e.HideBanner = true
	e.Use(otelecho.Middleware(cfg.AppName))
	checker.RegisterRoutes(e)

	boot := startup.NewStartup[any](logger, cfg.StartupMaxAttempts)
	boot.AddDependency(&consumerDependency{consumer: consumer})
	boot.AddDependency(&httpDependency{e: e, addr: fmt.Sprintf(":%d", cfg.Port)})
	if err := boot.Start(ctx); err != nil {
		return err
	}
	checker.SetReady(true)

	<-ctx.Done()
	logger.Info("Shutting down worker")
	checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return boot.Stop(shutdownCtx)
}

type consumerDependency struct {
	consumer *laurelkafka.Consumer
}

func (d *consumerDependency) GetName() string     { return "kafka-consumer" }
func (d *consumerDependency) DependsOn() []string { return nil }
func (d *consumerDependency) Start(ctx context.Context) error {
	return d.consumer.Start(ctx)
}
func (d *consumerDependency) Stop(ctx context.Context) error {
	return d.consumer.Stop()
}

type httpDependency struct {
	e    *echo.Echo
	addr string
}

func (d *httpDependency) GetName() string     { return "http-server" }
func (d *httpDependency) DependsOn() []string { return nil }
func (d *httpDependency) Start(ctx context.Context) error {
	go func() {
		if err := d.e.Start(d.addr); err != nil && err != http.ErrServerClosed {
			d.e.Logger.Error(err)
		}
	}()
	return nil
}
func (d *httpDependency) Stop(ctx context.Context) error {
	return d.e.Shutdown(ctx)
}
