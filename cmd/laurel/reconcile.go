package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/laurel/config"
	"github.com/Ramsey-B/laurel/internal/repositories/docket"
	"github.com/Ramsey-B/laurel/internal/repositories/idb"
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/jobs"
	laurelkafka "github.com/Ramsey-B/laurel/pkg/kafka"
	"github.com/Ramsey-B/laurel/pkg/matching"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/pacer"
	"github.com/Ramsey-B/laurel/pkg/reconcile"
	laurelredis "github.com/Ramsey-B/laurel/pkg/redis"
	"github.com/Ramsey-B/laurel/pkg/throttle"
)

type reconcileFlags struct {
	task    string
	queue   string
	dataset string
	courtID string
	offset  int
	limit   int
}

func newReconcileCommand() *cobra.Command {
	var flags reconcileFlags

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run a batch reconciliation task",
		Long:  "Walks a window of records and enqueues merge, create, or PACER lookup jobs for each.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd.Context(), flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.task, "task", "", "Task to run: merge_and_create or update_case_ids")
	f.StringVar(&flags.queue, "queue", "", "Queue to dispatch jobs to (defaults to KAFKA_JOB_TOPIC)")
	f.StringVar(&flags.dataset, "dataset", string(models.IDBDatasetCivil2020), "IDB dataset to reconcile")
	f.StringVar(&flags.courtID, "court-id", "", "Restrict the run to one district court")
	f.IntVar(&flags.offset, "offset", 0, "Skip this many eligible rows before processing")
	f.IntVar(&flags.limit, "limit", 0, "Process at most this many rows after the offset (0 = no cap)")
	_ = cmd.MarkFlagRequired("task")

	return cmd
}

func runReconcile(ctx context.Context, flags reconcileFlags) error {
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
	engine := matching.NewEngine(logger, matching.EngineConfig{
		MatchRatioThreshold:   cfg.MatchRatioThreshold,
		CaptionTruncateLength: cfg.CaptionTruncateLength,
	})

	queue := flags.queue
	if queue == "" {
		queue = cfg.KafkaJobTopic
	}

	backlog := laurelkafka.NewBacklogReader(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, logger)
	thr := throttle.New(backlog.Backlog, cfg.ThrottleMaxBacklog, cfg.ThrottlePollInterval, logger)

	// The sync fallback path runs jobs inline with the same executors the
	// workers use
	runner := jobs.NewRunner(producer, queue, logger)
	runner.Register(jobs.KindCreateDocketFromIDB, jobs.NewCreateDocketExecutor(idbRepo, docketRepo, logger))
	runner.Register(jobs.KindMergeDocketWithIDB, jobs.NewMergeDocketExecutor(docketRepo, logger))

	var sessions *pacer.SessionManager
	if flags.task == "update_case_ids" {
		sessions = newSessionManager(cfg, logger)
	}

	driver := reconcile.NewDriver(idbRepo, docketRepo, engine, producer, runner, thr, sessionRefresher(sessions), reconcile.Config{
		BatchSize:           cfg.ReconcileBatchSize,
		SyncFallback:        cfg.ReconcileSyncFallback,
		SessionRefreshEvery: cfg.PacerSessionRefreshEvery,
	}, logger)

	opts := reconcile.Options{
		Queue:   queue,
		Dataset: models.IDBDatasetSource(flags.dataset),
		CourtID: flags.courtID,
		Offset:  flags.offset,
		Limit:   flags.limit,
	}

	switch flags.task {
	case "merge_and_create":
		_, err = driver.MergeAndCreate(ctx, opts)
	case "update_case_ids":
		_, err = driver.UpdateCaseIDs(ctx, opts)
	default:
		err = fmt.Errorf("unknown task %q: expected merge_and_create or update_case_ids", flags.task)
	}
	return err
}

// newSessionManager builds the PACER session manager, backed by Redis when
// it is reachable and a process-local cache otherwise.
func newSessionManager(cfg config.Config, logger ectologger.Logger) *pacer.SessionManager {
	var cache *laurelredis.Client
	if cfg.RedisEnabled {
		client, err := laurelredis.NewClient(laurelredis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, PACER sessions will not be shared")
		} else {
			cache = client
		}
	}

	return pacer.NewSessionManager(pacer.Config{
		Username: cfg.PacerUsername,
		Password: cfg.PacerPassword,
		AuthURL:  cfg.PacerAuthURL,
		Timeout:  cfg.PacerTimeout,
	}, cache, logger)
}

// sessionRefresher avoids handing the driver a non-nil interface wrapping a
// nil manager.
func sessionRefresher(sessions *pacer.SessionManager) reconcile.SessionRefresher {
	if sessions == nil {
		return nil
	}
	return sessions
}
