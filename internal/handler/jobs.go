package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/YarKhan02/Workshop-sub000/internal/apierror"
	"github.com/YarKhan02/Workshop-sub000/internal/dto"
	"github.com/YarKhan02/Workshop-sub000/internal/worker"

	"github.com/gin-gonic/gin"
)

const defaultReplayMax = 100

// DeadLetterQueues is implemented by worker.DeadLetters.
type DeadLetterQueues interface {
	Stats(ctx context.Context) (map[string]int64, error)
	Replay(ctx context.Context, queue string, limit int) (int, error)
}

type JobsHandler struct {
	dlq DeadLetterQueues
}

func NewJobsHandler(dlq DeadLetterQueues) *JobsHandler {
	return &JobsHandler{dlq: dlq}
}

// DeadLetters handles GET /v1/jobs/dead-letters.
func (h *JobsHandler) DeadLetters(c *gin.Context) {
	stats, err := h.dlq.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DeadLetterStatsResponse{Queues: stats})
}

// Replay handles POST /v1/jobs/:queue/replay, where :queue is the name
// without its "jobs:" prefix (availability_sync, stock_alert).
func (h *JobsHandler) Replay(c *gin.Context) {
	var req dto.ReplayDeadLettersRequest
	if c.Request.ContentLength > 0 && !bindAndValidate(c, &req) {
		return
	}
	if req.Max == 0 {
		req.Max = defaultReplayMax
	}
	queue := "jobs:" + c.Param("queue")
	n, err := h.dlq.Replay(c.Request.Context(), queue, req.Max)
	if errors.Is(err, worker.ErrUnknownQueue) {
		c.JSON(http.StatusNotFound, apierror.New("unknown queue "+c.Param("queue")))
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ReplayDeadLettersResponse{Queue: queue, Replayed: n})
}
