package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Batch is one production run of boxes sharing a product definition.
type Batch struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	ProductInfo     string       `gorm:"not null" json:"product_info"`
	PlannedQuantity int          `gorm:"not null;default:0" json:"planned_quantity"`
	BatchNumber     string       `gorm:"not null;default:''" json:"batch_number"`
	CreatedAt       time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null" json:"updated_at"`
}

func (Batch) TableName() string { return "batches" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, batch *Batch) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Batch, error)
}

// CreateBatchRequest is the print request: one batch, count boxes, one
// label document.
type CreateBatchRequest struct {
	Type        string
	Category    string
	Recipe      string
	BrandName   string
	ItemsPerBox int
	Count       int
	BatchNumber string
}

type CreateBatchResponse struct {
	BatchID  snowflake.ID
	BoxIDs   []string
	Document []byte
	Filename string
}

type Service interface {
	Create(ctx context.Context, req CreateBatchRequest) (CreateBatchResponse, error)
}

var (
	ErrInvalidCount       = errors.New("invalid_count")
	ErrInvalidItemsPerBox = errors.New("invalid_items_per_box")
)
