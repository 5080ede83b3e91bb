package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/gomarket/internal/datamodels/transaction"
)

type transactionRepo struct {
	db *gorm.DB
}

// NewTransactionRepository 创建成交记录仓储
func NewTransactionRepository(db *gorm.DB) transaction.Repository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) GetByID(ctx context.Context, id int64) (*transaction.Transaction, error) {
	var t transaction.Transaction
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepo) ListBySeller(ctx context.Context, sellerID int64) ([]*transaction.Transaction, error) {
	var list []*transaction.Transaction
	if err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *transactionRepo) ListByBuyer(ctx context.Context, buyerID int64) ([]*transaction.Transaction, error) {
	var list []*transaction.Transaction
	if err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *transactionRepo) ListRecent(ctx context.Context, limit int) ([]*transaction.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*transaction.Transaction
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
