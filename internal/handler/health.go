package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/YarKhan02/Workshop-sub000/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response. DB and Redis are required;
// the broker breaker stats and dead-letter counts are informational.
func Health(db *gorm.DB, rdb *redis.Client, dlq DeadLetterQueues, brokerCB *infra.Breaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		var deadLetters map[string]int64
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		} else if stats, err := dlq.Stats(ctx); err == nil {
			deadLetters = stats
		}

		var brokerStatus any = "disabled"
		if brokerCB != nil {
			brokerStatus = brokerCB.Stats()
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":     status == http.StatusOK,
			"db":     dbStatus,
			"redis":  redisStatus,
			"broker": brokerStatus,
			"dlq":    deadLetters,
		})
	}
}
