package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/gomarket/internal/datamodels/offer"
	"github.com/example/gomarket/internal/datamodels/product"
	"github.com/example/gomarket/internal/pagination"
	"github.com/example/gomarket/internal/repository/postgres"
)

// OfferService 议价状态机
// 每个 (product, buyer) 议价线程独立推进：
// no-offer → pending(buyer) ⇄ pending(seller) → accepted，
// 被还价覆盖的报价以 countered 留作历史。
type OfferService struct {
	offerRepo   offer.Repository
	productRepo product.Repository
	events      *EventPublisher
}

// NewOfferService 创建议价服务
func NewOfferService(offerRepo offer.Repository, productRepo product.Repository, events *EventPublisher) *OfferService {
	return &OfferService{
		offerRepo:   offerRepo,
		productRepo: productRepo,
		events:      events,
	}
}

// AcceptResult 接受报价的返回值
type AcceptResult struct {
	Success bool  `json:"success"`
	OfferID int64 `json:"offerId"`
	Amount  int64 `json:"amount"`
}

// OffersQuery 报价列表查询参数
type OffersQuery struct {
	Status string
	Seller string
	Buyer  string
	Cursor *pagination.Cursor
	Limit  int
}

type offerContext struct {
	offer    *offer.Offer
	product  *product.Product
	userRole string
}

// validateOfferAction 还价/接受共用的前置校验
// 校验顺序与错误文案是对外契约的一部分，不要调整。
func (s *OfferService) validateOfferAction(ctx context.Context, offerID, userID int64, action string) (*offerContext, error) {
	o, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("Offer not found")
		}
		GetMonitor().RecordDBError()
		return nil, err
	}

	if o.Status != offer.StatusPending {
		return nil, InvalidStateError("Offer is not pending")
	}

	p, err := s.productRepo.GetByID(ctx, o.ProductID)
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

	isBuyer := userID == o.BuyerID
	isSeller := userID == p.SellerID
	if !isBuyer && !isSeller {
		return nil, ForbiddenError("Not authorised to " + action + " this offer")
	}

	userRole := offer.RoleSeller
	if isBuyer {
		userRole = offer.RoleBuyer
	}
	// 轮次交替规则：不能对自己刚提出的报价继续操作
	if o.ProposedBy == userRole {
		return nil, InvalidStateError("Cannot " + action + " your own offer")
	}

	return &offerContext{offer: o, product: p, userRole: userRole}, nil
}

// CreateInitialOffer 买家创建首个报价
// 预检查挡住常见情况；真正的并发去重由 idx_one_pending_per_buyer
// 唯一索引兜底，冲突同样映射为 AlreadyExists。
func (s *OfferService) CreateInitialOffer(ctx context.Context, productID, buyerID, amount int64) (*offer.Offer, error) {
	GetMonitor().RecordOfferRequest()

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
	if p.Status == product.StatusReserved {
		return nil, InvalidStateError("Product is reserved")
	}
	if p.SellerID == buyerID {
		return nil, InvalidStateError("Cannot make an offer on your own product")
	}

	existing, err := s.offerRepo.GetPending(ctx, productID, buyerID)
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	if existing != nil {
		GetMonitor().RecordDuplicateOffer()
		return nil, AlreadyExistsError("You already have a pending offer on this product")
	}

	o := &offer.Offer{
		ProductID:  productID,
		BuyerID:    buyerID,
		Amount:     amount,
		ProposedBy: offer.RoleBuyer,
		Status:     offer.StatusPending,
	}
	if err := s.offerRepo.Create(ctx, o); err != nil {
		if errors.Is(err, postgres.ErrDuplicateOffer) {
			GetMonitor().RecordDuplicateOffer()
			return nil, AlreadyExistsError("You already have a pending offer on this product")
		}
		GetMonitor().RecordDBError()
		return nil, err
	}

	GetMonitor().RecordOfferCreated()
	zap.L().Info("offer created",
		zap.Int64("offer_id", o.ID),
		zap.Int64("product_id", productID),
		zap.Int64("buyer_id", buyerID),
		zap.Int64("amount", amount))
	s.events.Publish(ctx, Event{
		Type:      EventOfferCreated,
		ProductID: productID,
		BuyerID:   buyerID,
		SellerID:  p.SellerID,
		OfferID:   o.ID,
		Amount:    amount,
	})
	return o, nil
}

// CounterOffer 还价：父报价置为 countered，插入角色翻转后的新 pending 报价
func (s *OfferService) CounterOffer(ctx context.Context, offerID, userID, amount int64) (*offer.Offer, error) {
	GetMonitor().RecordOfferRequest()

	octx, err := s.validateOfferAction(ctx, offerID, userID, "counter")
	if err != nil {
		return nil, err
	}

	child, err := s.offerRepo.Counter(ctx, octx.offer, amount, octx.userRole)
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}

	GetMonitor().RecordOfferCreated()
	zap.L().Info("offer countered",
		zap.Int64("parent_offer_id", offerID),
		zap.Int64("offer_id", child.ID),
		zap.String("proposed_by", octx.userRole),
		zap.Int64("amount", amount))
	s.events.Publish(ctx, Event{
		Type:      EventOfferCountered,
		ProductID: octx.offer.ProductID,
		BuyerID:   octx.offer.BuyerID,
		SellerID:  octx.product.SellerID,
		OfferID:   child.ID,
		Amount:    amount,
	})
	return child, nil
}

// AcceptOffer 接受报价并把商品保留给买家
// 报价置 accepted 与商品的版本条件更新是一个原子单元，
// 输掉版本竞争时两者一起回滚并返回 Conflict。
func (s *OfferService) AcceptOffer(ctx context.Context, offerID, userID int64) (*AcceptResult, error) {
	GetMonitor().RecordOfferRequest()

	octx, err := s.validateOfferAction(ctx, offerID, userID, "accept")
	if err != nil {
		return nil, err
	}

	o, p := octx.offer, octx.product
	if err := s.offerRepo.AcceptWithReservation(ctx, o.ID, o.ProductID, o.BuyerID, p.Version); err != nil {
		if errors.Is(err, postgres.ErrVersionConflict) {
			GetMonitor().RecordVersionConflict()
			return nil, ConflictError("Product was modified by another user")
		}
		GetMonitor().RecordDBError()
		return nil, err
	}

	zap.L().Info("offer accepted",
		zap.Int64("offer_id", o.ID),
		zap.Int64("product_id", o.ProductID),
		zap.Int64("buyer_id", o.BuyerID),
		zap.Int64("amount", o.Amount))
	s.events.Publish(ctx, Event{
		Type:      EventOfferAccepted,
		ProductID: o.ProductID,
		BuyerID:   o.BuyerID,
		SellerID:  p.SellerID,
		OfferID:   o.ID,
		Amount:    o.Amount,
	})
	return &AcceptResult{Success: true, OfferID: o.ID, Amount: o.Amount}, nil
}

// ListOffers 按身份查询报价列表，只支持三种组合
func (s *OfferService) ListOffers(ctx context.Context, userID int64, q OffersQuery) (*pagination.Page[*offer.Offer], error) {
	limit := pagination.Normalize(q.Limit)

	var (
		list []*offer.Offer
		err  error
	)
	switch {
	case q.Status == offer.StatusPending && q.Seller == "me":
		list, err = s.offerRepo.ListPendingForSeller(ctx, userID, q.Cursor, limit)
	case q.Status == offer.StatusPending && q.Buyer == "me":
		list, err = s.offerRepo.ListPendingForBuyer(ctx, userID, q.Cursor, limit)
	case q.Status == offer.StatusAccepted && q.Buyer == "me":
		list, err = s.offerRepo.ListAcceptedForBuyer(ctx, userID, q.Cursor, limit)
	default:
		return nil, InvalidStateError("Invalid query parameters")
	}
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}

	page := pagination.Extract(list, limit, func(o *offer.Offer) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &page, nil
}
