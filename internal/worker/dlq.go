package worker

// Jobs that keep failing are moved to a Redis list per source queue,
// dlq:{original_queue}. An admin can replay them once the cause is fixed.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/YarKhan02/Workshop-sub000/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// Queues lists every queue the pool consumes, in BRPOP priority order.
var Queues = []string{QueueAvailabilitySync, QueueStockAlert}

// ErrUnknownQueue is returned for a queue name the pool does not consume.
var ErrUnknownQueue = errors.New("unknown job queue")

// DLQEntry wraps a failed job with metadata for debugging.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"` // RFC 3339
	Attempts      int             `json:"attempts"`
}

// deadLetterStore is the slice of the redis client the DLQ needs.
type deadLetterStore interface {
	jobQueue
	RPop(ctx context.Context, key string) *redis.StringCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
}

// SendToDLQ pushes a failed job to the dead letter queue.
func SendToDLQ(ctx context.Context, rdb jobQueue, queue, jobType string, payload json.RawMessage, reason string, attempts int) {
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       jobType,
		Payload:       payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC().Format(time.RFC3339),
		Attempts:      attempts,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	dlqKey := DLQPrefix + queue
	if err := rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to push to DLQ")
		return
	}
	metrics.JobsDeadLetteredTotal.WithLabelValues(queue, jobType).Inc()

	log.Warn().
		Str("queue", queue).
		Str("job_type", jobType).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: job moved to dead letter queue")
}

// DeadLetters inspects and drains the dead letter queues.
type DeadLetters struct {
	rdb deadLetterStore
}

func NewDeadLetters(rdb deadLetterStore) *DeadLetters {
	return &DeadLetters{rdb: rdb}
}

// Stats returns the number of dead-lettered jobs per queue.
func (d *DeadLetters) Stats(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, len(Queues))
	for _, q := range Queues {
		n, err := d.rdb.LLen(ctx, DLQPrefix+q).Result()
		if err != nil {
			return nil, fmt.Errorf("dlq length %s: %w", q, err)
		}
		out[q] = n
	}
	return out, nil
}

// Replay moves up to limit entries, oldest first, from the DLQ of queue back
// onto queue with a fresh attempt count. Entries that no longer decode are
// dropped and logged. It returns how many jobs were requeued.
func (d *DeadLetters) Replay(ctx context.Context, queue string, limit int) (int, error) {
	if !knownQueue(queue) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownQueue, queue)
	}
	key := DLQPrefix + queue
	replayed := 0
	for i := 0; i < limit; i++ {
		raw, err := d.rdb.RPop(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return replayed, fmt.Errorf("dlq pop %s: %w", queue, err)
		}

		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Error().Err(err).Str("dlq_key", key).Msg("dlq: dropping undecodable entry")
			continue
		}
		job := Job{Type: entry.JobType, Payload: entry.Payload}
		if err := push(ctx, d.rdb, queue, job); err != nil {
			// Back on the tail so the next replay retries it first.
			if rerr := d.rdb.RPush(ctx, key, raw).Err(); rerr != nil {
				log.Error().Err(rerr).Str("dlq_key", key).Msg("dlq: failed to restore entry")
			}
			return replayed, fmt.Errorf("requeue %s: %w", queue, err)
		}
		replayed++
	}
	if replayed > 0 {
		metrics.JobsReplayedTotal.WithLabelValues(queue).Add(float64(replayed))
		log.Info().Str("queue", queue).Int("replayed", replayed).Msg("dlq: jobs replayed")
	}
	return replayed, nil
}

func knownQueue(q string) bool {
	for _, k := range Queues {
		if k == q {
			return true
		}
	}
	return false
}
