package service

import (
	"context"

	"github.com/YarKhan02/Workshop-sub000/internal/model"
	"github.com/YarKhan02/Workshop-sub000/internal/repository"

	"gorm.io/gorm"
)

// runTx executes fn inside a transaction when a runner is available,
// or calls fn(nil) directly when it is nil (unit test mode).
func runTx(ctx context.Context, runner repository.TxRunner, fn func(tx *gorm.DB) error) error {
	if runner == nil {
		return fn(nil)
	}
	return runner.RunTx(ctx, fn)
}

func actorOrSystem(actor string) string {
	if actor == "" {
		return model.SystemActor
	}
	return actor
}
