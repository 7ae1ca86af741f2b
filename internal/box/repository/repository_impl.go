package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/linecontrol/boxline/internal/box/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, boxes []*domain.Box) error {
	if len(boxes) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(boxes).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*domain.Box, error) {
	var box domain.Box
	err := db.WithContext(ctx).First(&box, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &box, nil
}

func (r *repo) CountProduced(ctx context.Context, db *gorm.DB, batchID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Box{}).
		Where("batch_id = ? AND status = ?", batchID, domain.StatusProduced).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) MarkProduced(ctx context.Context, db *gorm.DB, id string, stamp domain.ProduceStamp) error {
	coworkers := stamp.Coworkers
	if coworkers == nil {
		coworkers = []string{}
	}
	encoded, err := json.Marshal(coworkers)
	if err != nil {
		return err
	}

	return db.WithContext(ctx).
		Model(&domain.Box{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":                 domain.StatusProduced,
			"scanned_at":             stamp.ScannedAt,
			"scanned_by_user_name":   stamp.UserName,
			"produced_on_machine_id": stamp.MachineID,
			"coworkers":              datatypes.JSON(encoded),
			"updated_at":             time.Now().UTC(),
		}).Error
}

func (r *repo) MarkInventory(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Box{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"inventory_ok": true,
			"inventory_at": at,
			"updated_at":   time.Now().UTC(),
		}).Error
}
