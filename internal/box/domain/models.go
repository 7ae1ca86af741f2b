package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Status is the production state of a box. The path CREATED -> PRODUCED is
// one-way; the inventory marker lives in a separate flag so a stock check
// never reverts a produced box.
type Status string

const (
	StatusCreated  Status = "CREATED"
	StatusProduced Status = "PRODUCED"
)

// Box is one physical packaging unit. The primary key is the scannable
// payload printed on the label, verbatim.
type Box struct {
	ID                  string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	BatchID             snowflake.ID   `gorm:"index;not null;default:0" json:"batch_id"`
	Status              Status         `gorm:"type:varchar(16);not null;default:CREATED" json:"status"`
	ScannedAt           *time.Time     `json:"scanned_at,omitempty"`
	ScannedByUserName   string         `gorm:"not null;default:''" json:"scanned_by_user_name,omitempty"`
	ProducedOnMachineID string         `gorm:"column:produced_on_machine_id;not null;default:''" json:"produced_on_machine_id,omitempty"`
	Coworkers           datatypes.JSON `gorm:"type:json" json:"coworkers,omitempty"`
	InventoryOK         bool           `gorm:"column:inventory_ok;not null;default:false" json:"inventory_ok"`
	InventoryAt         *time.Time     `json:"inventory_at,omitempty"`
	CreatedAt           time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"not null" json:"updated_at"`
}

func (Box) TableName() string { return "boxes" }

// ProduceStamp is the field group written on the CREATED -> PRODUCED
// transition and never again.
type ProduceStamp struct {
	ScannedAt time.Time
	UserName  string
	MachineID string
	Coworkers []string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, boxes []*Box) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Box, error)
	CountProduced(ctx context.Context, db *gorm.DB, batchID snowflake.ID) (int64, error)
	MarkProduced(ctx context.Context, db *gorm.DB, id string, stamp ProduceStamp) error
	MarkInventory(ctx context.Context, db *gorm.DB, id string, at time.Time) error
}
