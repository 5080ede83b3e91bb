package service

import (
	"context"

	"github.com/example/gomarket/internal/datamodels/transaction"
)

// TransactionService 成交记录查询
type TransactionService struct {
	repo transaction.Repository
}

// NewTransactionService 创建成交记录服务
func NewTransactionService(repo transaction.Repository) *TransactionService {
	return &TransactionService{repo: repo}
}

// ListBySeller 卖家的成交记录
func (s *TransactionService) ListBySeller(ctx context.Context, sellerID int64) ([]*transaction.Transaction, error) {
	return s.repo.ListBySeller(ctx, sellerID)
}

// ListByBuyer 买家的购买记录
func (s *TransactionService) ListByBuyer(ctx context.Context, buyerID int64) ([]*transaction.Transaction, error) {
	return s.repo.ListByBuyer(ctx, buyerID)
}

// ListRecent 后台用：最近成交
func (s *TransactionService) ListRecent(ctx context.Context, limit int) ([]*transaction.Transaction, error) {
	return s.repo.ListRecent(ctx, limit)
}
