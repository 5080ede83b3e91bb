package transaction

import (
	"context"
	"time"
)

// Transaction 成交记录，每个商品最多一条，写入后不可变
// OfferID 为空表示按标价直接购买，未经过议价。
type Transaction struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	ProductID  int64     `gorm:"uniqueIndex;not null" json:"productId"`
	BuyerID    int64     `gorm:"index;not null" json:"buyerId"`
	SellerID   int64     `gorm:"index;not null" json:"sellerId"`
	FinalPrice int64     `gorm:"not null" json:"finalPrice"` // 分
	OfferID    *int64    `json:"offerId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Repository 成交记录仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Transaction, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]*Transaction, error)
	ListByBuyer(ctx context.Context, buyerID int64) ([]*Transaction, error)
	ListRecent(ctx context.Context, limit int) ([]*Transaction, error)
}
