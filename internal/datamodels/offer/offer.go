package offer

import (
	"context"
	"time"

	"github.com/example/gomarket/internal/pagination"
)

// 报价状态
const (
	StatusPending   = "pending"   // 等待对方回应
	StatusCountered = "countered" // 已被还价覆盖，保留为历史
	StatusAccepted  = "accepted"  // 已接受（终态）
)

// 报价发起方角色
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

// Offer 议价报价模型
// 同一 (product, buyer) 的报价通过 ParentOfferID 串成一条链，
// ProposedBy 沿链严格交替。idx_one_pending_per_buyer 部分唯一索引
// 保证同一买家在同一商品上最多只有一条 pending 报价，
// 这是并发去重的最终防线（预检查本身存在竞态窗口）。
type Offer struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	ProductID     int64     `gorm:"not null;index:idx_one_pending_per_buyer,unique,where:status = 'pending',priority:1" json:"productId"`
	BuyerID       int64     `gorm:"not null;index:idx_one_pending_per_buyer,unique,priority:2" json:"buyerId"`
	Amount        int64     `gorm:"not null" json:"amount"` // 分
	ProposedBy    string    `gorm:"size:8;not null" json:"proposedBy"`
	Status        string    `gorm:"size:16;index;not null;default:pending" json:"status"`
	ParentOfferID *int64    `json:"parentOfferId"`
	CreatedAt     time.Time `gorm:"index" json:"createdAt"`
}

// Repository 报价仓储接口
// Create 触发唯一索引冲突时返回 ErrDuplicateOffer；
// Counter 在一个事务里把父报价置为 countered 并插入子报价；
// AcceptWithReservation 在一个事务里把报价置为 accepted 并按版本号
// 条件更新商品为 reserved，版本不匹配时整体回滚并返回 ErrVersionConflict。
type Repository interface {
	Create(ctx context.Context, o *Offer) error
	GetByID(ctx context.Context, id int64) (*Offer, error)
	GetPending(ctx context.Context, productID, buyerID int64) (*Offer, error)
	ListByProduct(ctx context.Context, productID int64) ([]*Offer, error)
	Counter(ctx context.Context, parent *Offer, amount int64, proposedBy string) (*Offer, error)
	AcceptWithReservation(ctx context.Context, offerID, productID, buyerID, expectedVersion int64) error
	ListPendingForSeller(ctx context.Context, sellerID int64, cursor *pagination.Cursor, limit int) ([]*Offer, error)
	ListPendingForBuyer(ctx context.Context, buyerID int64, cursor *pagination.Cursor, limit int) ([]*Offer, error)
	ListAcceptedForBuyer(ctx context.Context, buyerID int64, cursor *pagination.Cursor, limit int) ([]*Offer, error)
	CountPendingByProducts(ctx context.Context, productIDs []int64) (map[int64]int64, error)
}
