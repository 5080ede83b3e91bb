package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/gomarket/internal/datamodels/offer"
	"github.com/example/gomarket/internal/datamodels/product"
	"github.com/example/gomarket/internal/repository/postgres"
)

// PurchaseService 购买/保留引擎
// 每件商品最多成交一次：以读到的版本号做条件更新，
// 同一版本只有一个写入者能赢，输家得到 Conflict。
type PurchaseService struct {
	productRepo product.Repository
	offerRepo   offer.Repository
	events      *EventPublisher
}

// NewPurchaseService 创建购买服务
func NewPurchaseService(productRepo product.Repository, offerRepo offer.Repository, events *EventPublisher) *PurchaseService {
	return &PurchaseService{
		productRepo: productRepo,
		offerRepo:   offerRepo,
		events:      events,
	}
}

// PurchaseResult 购买成功的返回值
type PurchaseResult struct {
	TransactionID int64 `json:"transactionId"`
	FinalPrice    int64 `json:"finalPrice"`
}

// PurchaseProduct 购买商品
// offerID 为空表示按标价直接购买；否则必须指向本商品上
// 属于调用者的 accepted 报价，成交价取报价金额。
// 商品置 sold 与成交记录写入在同一事务内完成。
func (s *PurchaseService) PurchaseProduct(ctx context.Context, productID, buyerID int64, offerID *int64) (*PurchaseResult, error) {
	GetMonitor().RecordPurchaseRequest()

	p, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("Product not found")
		}
		GetMonitor().RecordDBError()
		return nil, err
	}

	if p.Status == product.StatusSold {
		return nil, InvalidStateError("Product is already sold")
	}
	if p.SellerID == buyerID {
		return nil, InvalidStateError("Cannot purchase your own product")
	}
	if p.Status == product.StatusReserved && (p.ReservedBy == nil || *p.ReservedBy != buyerID) {
		return nil, ForbiddenError("Product is reserved for another buyer")
	}

	finalPrice := p.Price
	var resolvedOfferID *int64
	if offerID != nil {
		productOffers, err := s.offerRepo.ListByProduct(ctx, productID)
		if err != nil {
			GetMonitor().RecordDBError()
			return nil, err
		}
		var accepted *offer.Offer
		for _, o := range productOffers {
			if o.ID == *offerID && o.Status == offer.StatusAccepted && o.BuyerID == buyerID {
				accepted = o
				break
			}
		}
		if accepted == nil {
			return nil, InvalidStateError("Invalid or non-accepted offer")
		}
		finalPrice = accepted.Amount
		resolvedOfferID = &accepted.ID
	}

	t, err := s.productRepo.Sell(ctx, productID, buyerID, p.SellerID, finalPrice, p.Version, resolvedOfferID)
	if err != nil {
		if errors.Is(err, postgres.ErrVersionConflict) {
			GetMonitor().RecordVersionConflict()
			return nil, ConflictError("Product was modified by another user")
		}
		GetMonitor().RecordDBError()
		return nil, err
	}

	GetMonitor().RecordPurchaseComplete()
	zap.L().Info("product sold",
		zap.Int64("product_id", productID),
		zap.Int64("buyer_id", buyerID),
		zap.Int64("transaction_id", t.ID),
		zap.Int64("final_price", finalPrice))
	s.events.Publish(ctx, Event{
		Type:      EventProductSold,
		ProductID: productID,
		BuyerID:   buyerID,
		SellerID:  p.SellerID,
		Amount:    finalPrice,
	})
	return &PurchaseResult{TransactionID: t.ID, FinalPrice: finalPrice}, nil
}
