package worker

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"zoskagram/internal/queue"
)

const (
	// DefaultWorkerCount is the default number of worker goroutines
	DefaultWorkerCount = 2

	// DefaultBatchSize is the number of messages to read per batch
	DefaultBatchSize = 10

	// DefaultBlockTimeout is how long to block waiting for new messages
	DefaultBlockTimeout = 5 * time.Second
)

// EventHandler handles one decoded stream event.
type EventHandler interface {
	HandleEvent(ctx context.Context, event queue.PostEvent) error
}

// Manager orchestrates worker goroutines that consume from Redis Streams.
type Manager struct {
	consumer    queue.Consumer
	handler     EventHandler
	log         *zap.Logger
	workerCount int
	batchSize   int64
	blockTime   time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// ManagerConfig holds configuration for the worker manager.
type ManagerConfig struct {
	WorkerCount  int           // Number of worker goroutines
	BatchSize    int64         // Messages per read
	BlockTimeout time.Duration // Block time for XREADGROUP
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
	}
}

// NewManager creates a new worker manager.
func NewManager(consumer queue.Consumer, handler EventHandler, cfg ManagerConfig, log *zap.Logger) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		log:         log.Named("worker"),
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
	}
}

// Start begins the worker goroutines.
// Call Stop() to gracefully shut down.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, queue.StreamPosts, queue.ConsumerGroupFeed); err != nil {
		m.cancel()
		return err
	}

	for i := 0; i < m.workerCount; i++ {
		workerID := i + 1
		m.wg.Add(1)
		go m.runWorker(workerID, consumerNameForWorker(workerID))
	}

	m.log.Info("Workers started",
		zap.Int("count", m.workerCount),
		zap.String("stream", queue.StreamPosts),
		zap.String("group", queue.ConsumerGroupFeed),
	)
	return nil
}

// Stop gracefully shuts down all workers.
// Blocks until all workers have finished.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	m.log.Info("All workers stopped")
}

// runWorker is the main loop for a single worker goroutine.
func (m *Manager) runWorker(workerID int, consumerName string) {
	defer m.wg.Done()
	log := m.log.With(zap.Int("worker", workerID))

	// First, process any pending messages from previous runs (crash recovery)
	m.processPending(log, consumerName)

	for {
		select {
		case <-m.ctx.Done():
			log.Debug("Shutting down")
			return
		default:
			m.processMessages(log, consumerName)
		}
	}
}

// processPending handles messages that were delivered but not acknowledged.
func (m *Manager) processPending(log *zap.Logger, consumerName string) {
	for {
		messages, err := m.consumer.ReadPending(m.ctx, queue.StreamPosts, queue.ConsumerGroupFeed, consumerName, m.batchSize)
		if err != nil {
			log.Warn("Error reading pending", zap.Error(err))
			return
		}
		if len(messages) == 0 {
			return
		}

		log.Info("Processing pending messages", zap.Int("count", len(messages)))
		m.handleMessages(log, messages)
	}
}

// processMessages reads and handles a batch of messages.
func (m *Manager) processMessages(log *zap.Logger, consumerName string) {
	messages, err := m.consumer.Read(
		m.ctx,
		queue.StreamPosts,
		queue.ConsumerGroupFeed,
		consumerName,
		m.batchSize,
		m.blockTime,
	)
	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		log.Warn("Error reading", zap.Error(err))
		// Back off on error
		select {
		case <-m.ctx.Done():
		case <-time.After(time.Second):
		}
		return
	}

	if len(messages) > 0 {
		m.handleMessages(log, messages)
	}
}

// handleMessages processes a batch of messages and acknowledges them.
func (m *Manager) handleMessages(log *zap.Logger, messages []queue.Message) {
	for _, msg := range messages {
		if err := m.handler.HandleEvent(m.ctx, msg.Event); err != nil {
			// Still ACK to prevent infinite retry loops; the cache is
			// rebuilt from the database when it expires.
			log.Warn("Handler error", zap.String("msg_id", msg.ID), zap.Error(err))
		}

		if err := m.consumer.Ack(m.ctx, queue.StreamPosts, queue.ConsumerGroupFeed, msg.ID); err != nil {
			log.Warn("ACK error", zap.String("msg_id", msg.ID), zap.Error(err))
		}
	}
}

// consumerNameForWorker generates a unique consumer name for each worker.
func consumerNameForWorker(workerID int) string {
	return "worker-" + strconv.Itoa(workerID)
}
