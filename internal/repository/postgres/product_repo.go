package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/gomarket/internal/datamodels/product"
	"github.com/example/gomarket/internal/datamodels/transaction"
	"github.com/example/gomarket/internal/pagination"
)

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepo{db: db}
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	var p product.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) ListAvailable(ctx context.Context, cursor *pagination.Cursor, limit int) ([]*product.Product, error) {
	var list []*product.Product
	q := r.db.WithContext(ctx).
		Where("status <> ?", product.StatusSold)
	q = applyCursor(q, "products", cursor)
	if err := q.Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) ListBySeller(ctx context.Context, sellerID int64, cursor *pagination.Cursor, limit int) ([]*product.Product, error) {
	var list []*product.Product
	q := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID)
	q = applyCursor(q, "products", cursor)
	if err := q.Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) ListAll(ctx context.Context) ([]*product.Product, error) {
	var list []*product.Product
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) Create(ctx context.Context, p *product.Product) error {
	if p.Status == "" {
		p.Status = product.StatusAvailable
	}
	if p.Version == 0 {
		p.Version = 1
	}
	return r.db.WithContext(ctx).Create(p).Error
}

// Sell 售出商品：按读到的版本号条件更新为 sold，并在同一事务里写成交记录。
// 版本不匹配（0 行受影响）说明商品已被并发修改，整体回滚。
func (r *productRepo) Sell(ctx context.Context, productID, buyerID, sellerID, finalPrice, expectedVersion int64, offerID *int64) (*transaction.Transaction, error) {
	var t *transaction.Transaction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&product.Product{}).
			Where("id = ? AND version = ?", productID, expectedVersion).
			Updates(map[string]interface{}{
				"status":      product.StatusSold,
				"reserved_by": nil,
				"version":     expectedVersion + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}

		t = &transaction.Transaction{
			ProductID:  productID,
			BuyerID:    buyerID,
			SellerID:   sellerID,
			FinalPrice: finalPrice,
			OfferID:    offerID,
		}
		return tx.Create(t).Error
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// applyCursor 追加键集分页条件：(created_at, id) 严格小于游标
func applyCursor(q *gorm.DB, table string, cursor *pagination.Cursor) *gorm.DB {
	if cursor == nil {
		return q
	}
	return q.Where(
		table+".created_at < ? OR ("+table+".created_at = ? AND "+table+".id < ?)",
		cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
	)
}
