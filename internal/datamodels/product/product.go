package product

import (
	"context"
	"time"

	"github.com/example/gomarket/internal/datamodels/transaction"
	"github.com/example/gomarket/internal/pagination"
)

// 商品状态
const (
	StatusAvailable = "available" // 在售
	StatusReserved  = "reserved"  // 已为某个买家保留
	StatusSold      = "sold"      // 已售出
)

// Product 商品模型
// Version 是乐观锁版本号，每次状态变更写入成功后 +1；
// ReservedBy 仅在 status=reserved 时非空。
type Product struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	SellerID    int64     `gorm:"index;not null" json:"sellerId"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"size:2000" json:"description"`
	Price       int64     `gorm:"not null" json:"price"` // 分
	Status      string    `gorm:"size:16;index;not null;default:available" json:"status"`
	ReservedBy  *int64    `json:"reservedBy"`
	Version     int64     `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Repository 商品仓储接口
// Sell 是唯一允许把商品置为 sold 的入口：按读到的版本号做条件更新，
// 并在同一事务里写入成交记录，版本不匹配时返回 ErrVersionConflict。
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	ListAvailable(ctx context.Context, cursor *pagination.Cursor, limit int) ([]*Product, error)
	ListBySeller(ctx context.Context, sellerID int64, cursor *pagination.Cursor, limit int) ([]*Product, error)
	ListAll(ctx context.Context) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
	Sell(ctx context.Context, productID, buyerID, sellerID, finalPrice, expectedVersion int64, offerID *int64) (*transaction.Transaction, error)
}
