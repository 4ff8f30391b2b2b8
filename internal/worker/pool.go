package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/YarKhan02/Workshop-sub000/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueAvailabilitySync = "jobs:availability_sync"
	QueueStockAlert       = "jobs:stock_alert"

	JobAvailabilitySync = "availability_sync"
	JobStockAlert       = "stock_alert"

	// MaxJobAttempts is how many times a failing job runs before the DLQ.
	MaxJobAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// AvailabilitySyncPayload lists the days to recompute, as YYYY-MM-DD.
type AvailabilitySyncPayload struct {
	Dates []string `json:"dates"`
}

// StockAlertPayload describes a variant that dropped to its threshold.
type StockAlertPayload struct {
	VariantID string `json:"variant_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Threshold int    `json:"threshold"`
}

// jobQueue is the slice of the redis client the pool writes with.
type jobQueue interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb jobQueue
}

func NewDispatcher(rdb jobQueue) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueAvailabilitySync asks the pool to recompute the given days.
func (d *Dispatcher) EnqueueAvailabilitySync(ctx context.Context, dates []time.Time) error {
	p := AvailabilitySyncPayload{Dates: make([]string, 0, len(dates))}
	for _, dt := range dates {
		p.Dates = append(p.Dates, dt.Format(model.DateLayout))
	}
	return d.enqueue(ctx, QueueAvailabilitySync, JobAvailabilitySync, p)
}

// EnqueueStockAlert pushes a low-stock notification.
func (d *Dispatcher) EnqueueStockAlert(ctx context.Context, v *model.ProductVariant) error {
	return d.enqueue(ctx, QueueStockAlert, JobStockAlert, StockAlertPayload{
		VariantID: v.ID.String(),
		SKU:       v.SKU,
		Name:      v.Name,
		Quantity:  v.Quantity,
		Threshold: v.LowStockThreshold,
	})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb jobQueue, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// HandlerFunc processes one job payload.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// Pool consumes the job queues with a fixed number of goroutines.
type Pool struct {
	rdb      jobQueue
	handlers map[string]HandlerFunc
}

func NewPool(rdb jobQueue) *Pool {
	return &Pool{rdb: rdb, handlers: make(map[string]HandlerFunc)}
}

// Handle registers fn for jobs of jobType.
func (p *Pool) Handle(jobType string, fn HandlerFunc) {
	p.handlers[jobType] = fn
}

// Start launches numWorkers goroutines blocking on BRPOP (zero CPU when idle).
func (p *Pool) Start(ctx context.Context, rdb *redis.Client, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go p.runWorker(ctx, rdb, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) runWorker(ctx context.Context, rdb *redis.Client, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop; waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, Queues...).Result()
			if err != nil {
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.processJob(ctx, result[0], result[1])
		}
	}
}

// processJob runs the handler for raw. A failing job is pushed back with its
// attempt count incremented until MaxJobAttempts, then moved to the DLQ.
func (p *Pool) processJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	handler, ok := p.handlers[job.Type]
	if !ok {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, "no handler registered", job.Attempts)
		return
	}

	err := handler(ctx, job.Payload)
	if err == nil {
		return
	}
	job.Attempts++
	if job.Attempts >= MaxJobAttempts {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload,
			fmt.Sprintf("max attempts (%d) exceeded: %v", MaxJobAttempts, err), job.Attempts)
		return
	}
	log.Warn().Err(err).Str("type", job.Type).Int("attempts", job.Attempts).Msg("job failed, requeued")
	if perr := push(ctx, p.rdb, queue, job); perr != nil {
		log.Error().Err(perr).Str("queue", queue).Msg("failed to requeue job")
	}
}
