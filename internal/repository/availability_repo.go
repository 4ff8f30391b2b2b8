package repository

import (
	"context"
	"time"

	"github.com/YarKhan02/Workshop-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AvailabilityRepository is the persistence contract of the availability ledger.
// Methods with a Tx suffix must run inside TxRunner.RunTx.
type AvailabilityRepository interface {
	// EnsureTx inserts the row for date with defaultTotal free slots unless it
	// already exists. Concurrent first touches resolve on the unique date index.
	EnsureTx(tx *gorm.DB, date time.Time, defaultTotal int) error
	FindByDateTx(tx *gorm.DB, date time.Time) (*model.DailyAvailability, error)
	// LockByDateTx reads the row with SELECT ... FOR UPDATE.
	LockByDateTx(tx *gorm.DB, date time.Time) (*model.DailyAvailability, error)
	SaveTx(tx *gorm.DB, rec *model.DailyAvailability) error
	ListRange(ctx context.Context, from, to time.Time) ([]model.DailyAvailability, error)
}

type availabilityRepo struct{ db *gorm.DB }

func NewAvailabilityRepository(db *gorm.DB) AvailabilityRepository {
	return &availabilityRepo{db: db}
}

func (r *availabilityRepo) EnsureTx(tx *gorm.DB, date time.Time, defaultTotal int) error {
	rec := &model.DailyAvailability{
		Date:           date,
		TotalSlots:     defaultTotal,
		AvailableSlots: defaultTotal,
		IsAvailable:    true,
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoNothing: true,
	}).Create(rec).Error
}

func (r *availabilityRepo) FindByDateTx(tx *gorm.DB, date time.Time) (*model.DailyAvailability, error) {
	var rec model.DailyAvailability
	err := tx.Where("date = ?", dateKey(date)).First(&rec).Error
	return &rec, err
}

func (r *availabilityRepo) LockByDateTx(tx *gorm.DB, date time.Time) (*model.DailyAvailability, error) {
	var rec model.DailyAvailability
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("date = ?", dateKey(date)).First(&rec).Error
	return &rec, err
}

func (r *availabilityRepo) SaveTx(tx *gorm.DB, rec *model.DailyAvailability) error {
	return tx.Model(&model.DailyAvailability{}).Where("id = ?", rec.ID).Updates(map[string]interface{}{
		"total_slots":     rec.TotalSlots,
		"available_slots": rec.AvailableSlots,
		"is_available":    rec.IsAvailable,
		"updated_at":      time.Now(),
	}).Error
}

func (r *availabilityRepo) ListRange(ctx context.Context, from, to time.Time) ([]model.DailyAvailability, error) {
	var recs []model.DailyAvailability
	err := r.db.WithContext(ctx).
		Where("date BETWEEN ? AND ?", dateKey(from), dateKey(to)).
		Order("date ASC").Find(&recs).Error
	return recs, err
}
