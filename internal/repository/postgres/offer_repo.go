package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/gomarket/internal/datamodels/offer"
	"github.com/example/gomarket/internal/datamodels/product"
	"github.com/example/gomarket/internal/pagination"
)

type offerRepo struct {
	db *gorm.DB
}

// NewOfferRepository 创建报价仓储
func NewOfferRepository(db *gorm.DB) offer.Repository {
	return &offerRepo{db: db}
}

// Create 插入报价；唯一索引 idx_one_pending_per_buyer 冲突时
// 翻译为 ErrDuplicateOffer，不向上层泄露原始约束错误。
func (r *offerRepo) Create(ctx context.Context, o *offer.Offer) error {
	if o.Status == "" {
		o.Status = offer.StatusPending
	}
	if err := r.db.WithContext(ctx).Create(o).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateOffer
		}
		return err
	}
	return nil
}

func (r *offerRepo) GetByID(ctx context.Context, id int64) (*offer.Offer, error) {
	var o offer.Offer
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// GetPending 查找买家在指定商品上的 pending 报价，不存在时返回 (nil, nil)
func (r *offerRepo) GetPending(ctx context.Context, productID, buyerID int64) (*offer.Offer, error) {
	var o offer.Offer
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND buyer_id = ? AND status = ?", productID, buyerID, offer.StatusPending).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *offerRepo) ListByProduct(ctx context.Context, productID int64) ([]*offer.Offer, error) {
	var list []*offer.Offer
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC, id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Counter 还价：父报价置为 countered，插入翻转角色的子报价，两步一个事务
func (r *offerRepo) Counter(ctx context.Context, parent *offer.Offer, amount int64, proposedBy string) (*offer.Offer, error) {
	child := &offer.Offer{
		ProductID:     parent.ProductID,
		BuyerID:       parent.BuyerID,
		Amount:        amount,
		ProposedBy:    proposedBy,
		Status:        offer.StatusPending,
		ParentOfferID: &parent.ID,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&offer.Offer{}).
			Where("id = ?", parent.ID).
			Update("status", offer.StatusCountered).Error; err != nil {
			return err
		}
		return tx.Create(child).Error
	})
	if err != nil {
		return nil, err
	}
	return child, nil
}

// AcceptWithReservation 接受报价并保留商品
// 报价置为 accepted 与商品的版本条件更新在同一事务内，
// 版本不匹配时返回 ErrVersionConflict，报价状态一并回滚。
func (r *offerRepo) AcceptWithReservation(ctx context.Context, offerID, productID, buyerID, expectedVersion int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&offer.Offer{}).
			Where("id = ?", offerID).
			Update("status", offer.StatusAccepted).Error; err != nil {
			return err
		}

		res := tx.Model(&product.Product{}).
			Where("id = ? AND version = ?", productID, expectedVersion).
			Updates(map[string]interface{}{
				"status":      product.StatusReserved,
				"reserved_by": buyerID,
				"version":     expectedVersion + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}
		return nil
	})
}

func (r *offerRepo) ListPendingForSeller(ctx context.Context, sellerID int64, cursor *pagination.Cursor, limit int) ([]*offer.Offer, error) {
	var list []*offer.Offer
	q := r.db.WithContext(ctx).Model(&offer.Offer{}).
		Joins("JOIN products ON products.id = offers.product_id").
		Where("products.seller_id = ? AND offers.status = ? AND offers.proposed_by = ?",
			sellerID, offer.StatusPending, offer.RoleBuyer)
	q = applyCursor(q, "offers", cursor)
	if err := q.Order("offers.created_at DESC, offers.id DESC").
		Limit(limit + 1).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *offerRepo) ListPendingForBuyer(ctx context.Context, buyerID int64, cursor *pagination.Cursor, limit int) ([]*offer.Offer, error) {
	var list []*offer.Offer
	q := r.db.WithContext(ctx).Model(&offer.Offer{}).
		Where("offers.buyer_id = ? AND offers.status = ? AND offers.proposed_by = ?",
			buyerID, offer.StatusPending, offer.RoleSeller)
	q = applyCursor(q, "offers", cursor)
	if err := q.Order("offers.created_at DESC, offers.id DESC").
		Limit(limit + 1).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ListAcceptedForBuyer 买家已被接受且商品仍处于保留状态的报价（可去支付的清单）
func (r *offerRepo) ListAcceptedForBuyer(ctx context.Context, buyerID int64, cursor *pagination.Cursor, limit int) ([]*offer.Offer, error) {
	var list []*offer.Offer
	q := r.db.WithContext(ctx).Model(&offer.Offer{}).
		Joins("JOIN products ON products.id = offers.product_id").
		Where("offers.buyer_id = ? AND offers.status = ? AND products.status = ?",
			buyerID, offer.StatusAccepted, product.StatusReserved)
	q = applyCursor(q, "offers", cursor)
	if err := q.Order("offers.created_at DESC, offers.id DESC").
		Limit(limit + 1).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *offerRepo) CountPendingByProducts(ctx context.Context, productIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(productIDs))
	if len(productIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ProductID int64
		Count     int64
	}
	if err := r.db.WithContext(ctx).Model(&offer.Offer{}).
		Select("product_id, COUNT(id) AS count").
		Where("product_id IN ? AND status = ? AND proposed_by = ?",
			productIDs, offer.StatusPending, offer.RoleBuyer).
		Group("product_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ProductID] = row.Count
	}
	return counts, nil
}
