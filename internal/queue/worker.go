package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harms-haus/memoriae/internal/automation"
	"github.com/harms-haus/memoriae/internal/config"
	"github.com/harms-haus/memoriae/internal/db"
	"github.com/harms-haus/memoriae/internal/errors"
	"github.com/harms-haus/memoriae/internal/llm"
)

// Worker drains the queue with a bounded pool of goroutines. Retries are the
// queue's job, not the worker's: a worker runs each claimed job exactly once
// and reports the outcome back via Complete or Fail.
type Worker struct {
	queue    *Queue
	registry *automation.Registry
	cfg      *config.Config
	logger   *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewWorker creates a worker pool over the queue.
func NewWorker(q *Queue, registry *automation.Registry, cfg *config.Config, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{queue: q, registry: registry, cfg: cfg, logger: logger}
}

// Start launches the pool. Starting an already-running worker is a no-op.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true

	count := w.cfg.WorkerCount
	if count < 1 {
		count = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.run(ctx, id)
		}(i)
	}
	go func() {
		wg.Wait()
		close(w.done)
	}()
}

// Stop signals the pool and waits for in-flight jobs to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	cancel()
	<-done
}

func (w *Worker) run(ctx context.Context, id int) {
	ticker := time.NewTicker(w.cfg.JobPollInterval())
	defer ticker.Stop()

	for {
		// Drain everything ready before sleeping again.
		for {
			job, ok, err := w.queue.Claim()
			if err != nil {
				w.logger.Error("job claim failed", zap.Int("worker", id), zap.Error(err))
				break
			}
			if !ok {
				break
			}
			w.process(ctx, job)
			if ctx.Err() != nil {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// process runs one claimed job end to end and settles it with the queue.
func (w *Worker) process(ctx context.Context, job *Job) {
	log := w.logger.With(
		zap.String("job", job.Key),
		zap.String("automation", job.AutomationID),
		zap.String("seed", job.SeedID),
	)

	auto, ok := w.registry.Get(job.AutomationID)
	if !ok {
		w.settle(log, job, fmt.Errorf("automation %q is not registered", job.AutomationID))
		return
	}
	if !auto.Enabled() {
		log.Debug("automation disabled, dropping job")
		w.complete(log, job)
		return
	}

	item, err := db.LoadSeedForUser(w.queue.db, job.SeedID, job.UserID)
	if err != nil {
		w.settle(log, job, err)
		return
	}

	settings, err := db.GetUserSettings(w.queue.db, job.UserID)
	if err != nil {
		w.settle(log, job, err)
		return
	}
	client, err := llm.FromSettings(settings, w.cfg)
	if err != nil {
		if errors.IsUnconfigured(err) {
			// No credentials yet: skip quietly, the job shouldn't burn retries.
			log.Info("llm unconfigured, skipping job")
			w.complete(log, job)
			return
		}
		w.settle(log, job, err)
		return
	}

	if v, ok := auto.(automation.SeedValidator); ok && !v.ValidateSeed(item) {
		log.Debug("seed not applicable, dropping job")
		w.complete(log, job)
		return
	}

	actx := &automation.Context{
		DB:     w.queue.db,
		Config: w.cfg,
		Logger: w.logger,
		LLM:    client,
		UserID: job.UserID,
	}
	txs, err := auto.Process(ctx, item, actx)
	if err != nil {
		w.settle(log, job, err)
		return
	}

	for i := range txs {
		tx := &txs[i]
		if tx.ID == "" {
			id, err := db.NewULID()
			if err != nil {
				w.settle(log, job, err)
				return
			}
			tx.ID = id
		}
		if tx.SeedID == "" {
			tx.SeedID = job.SeedID
		}
	}
	// One database transaction for the whole batch: a retry after a partial
	// write would otherwise duplicate the entries that already landed.
	if err := db.AppendTransactions(w.queue.db, txs); err != nil {
		w.settle(log, job, err)
		return
	}

	log.Info("job processed", zap.Int("transactions", len(txs)))
	w.complete(log, job)
}

func (w *Worker) complete(log *zap.Logger, job *Job) {
	if err := w.queue.Complete(job.Key); err != nil {
		log.Error("job completion failed", zap.Error(err))
	}
}

func (w *Worker) settle(log *zap.Logger, job *Job, cause error) {
	log.Warn("job failed", zap.Int("attempt", job.Attempts+1), zap.Error(cause))
	if err := w.queue.Fail(job.Key, cause.Error(), w.cfg.JobMaxAttempts, time.Second); err != nil {
		log.Error("job failure could not be recorded", zap.Error(err))
	}
}
