package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, refund *RefundRequest) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*RefundRequest, error)
	FindOpenByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (*RefundRequest, error)
	ListByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]RefundRequest, error)
	Transition(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to Status, decidedBy snowflake.ID, note string, at time.Time) (bool, error)
}
