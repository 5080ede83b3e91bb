package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/gomarket/internal/datamodels/offer"
	"github.com/example/gomarket/internal/datamodels/product"
	"github.com/example/gomarket/internal/pagination"
)

// ProductService 商品管理与查询
type ProductService struct {
	productRepo product.Repository
	offerRepo   offer.Repository
}

// NewProductService 创建商品服务
func NewProductService(productRepo product.Repository, offerRepo offer.Repository) *ProductService {
	return &ProductService{productRepo: productRepo, offerRepo: offerRepo}
}

// SellerProduct 卖家视角的商品，附带 pending 报价数
type SellerProduct struct {
	*product.Product
	OfferCount int64 `json:"offerCount"`
}

// OfferView 商品详情里的报价，附带当前用户的可操作标记
type OfferView struct {
	*offer.Offer
	CanCounter bool `json:"canCounter"`
	CanAccept  bool `json:"canAccept"`
}

// ProductDetails 商品详情
type ProductDetails struct {
	*product.Product
	Offers              []OfferView `json:"offers"`
	CanPurchase         bool        `json:"canPurchase"`
	CanMakeInitialOffer bool        `json:"canMakeInitialOffer"`
}

// Create 创建商品（status=available，version=1）
func (s *ProductService) Create(ctx context.Context, sellerID int64, name, description string, price int64) (*product.Product, error) {
	p := &product.Product{
		SellerID:    sellerID,
		Name:        name,
		Description: description,
		Price:       price,
		Status:      product.StatusAvailable,
		Version:     1,
	}
	if err := s.productRepo.Create(ctx, p); err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	return p, nil
}

// ListAvailable 在售商品列表
func (s *ProductService) ListAvailable(ctx context.Context, cursor *pagination.Cursor, limit int) (*pagination.Page[*product.Product], error) {
	limit = pagination.Normalize(limit)
	list, err := s.productRepo.ListAvailable(ctx, cursor, limit)
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	page := pagination.Extract(list, limit, productCursor)
	return &page, nil
}

// ListBySeller 卖家自己的商品列表，附带每件商品的 pending 报价数
func (s *ProductService) ListBySeller(ctx context.Context, sellerID int64, cursor *pagination.Cursor, limit int) (*pagination.Page[*SellerProduct], error) {
	limit = pagination.Normalize(limit)
	list, err := s.productRepo.ListBySeller(ctx, sellerID, cursor, limit)
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	page := pagination.Extract(list, limit, productCursor)

	ids := make([]int64, 0, len(page.Items))
	for _, p := range page.Items {
		ids = append(ids, p.ID)
	}
	counts, err := s.offerRepo.CountPendingByProducts(ctx, ids)
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}

	items := make([]*SellerProduct, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, &SellerProduct{Product: p, OfferCount: counts[p.ID]})
	}
	return &pagination.Page[*SellerProduct]{
		Items:      items,
		HasMore:    page.HasMore,
		NextCursor: page.NextCursor,
	}, nil
}

// GetByID 按 id 查询商品
func (s *ProductService) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	p, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("Product not found")
		}
		GetMonitor().RecordDBError()
		return nil, err
	}
	return p, nil
}

// ListAll 后台用：返回全部商品
func (s *ProductService) ListAll(ctx context.Context) ([]*product.Product, error) {
	return s.productRepo.ListAll(ctx)
}

// GetDetails 商品详情：报价链 + 当前用户的可操作标记
func (s *ProductService) GetDetails(ctx context.Context, productID, userID int64) (*ProductDetails, error) {
	p, err := s.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	productOffers, err := s.offerRepo.ListByProduct(ctx, productID)
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}

	hasPendingFromUser := false
	views := make([]OfferView, 0, len(productOffers))
	for _, o := range productOffers {
		if o.BuyerID == userID && o.Status == offer.StatusPending {
			hasPendingFromUser = true
		}
		canCounter, canAccept := OfferPermissions(o, p, userID)
		views = append(views, OfferView{Offer: o, CanCounter: canCounter, CanAccept: canAccept})
	}

	canPurchase, canMakeInitialOffer := ProductPermissions(p, userID, hasPendingFromUser)
	return &ProductDetails{
		Product:             p,
		Offers:              views,
		CanPurchase:         canPurchase,
		CanMakeInitialOffer: canMakeInitialOffer,
	}, nil
}

func productCursor(p *product.Product) pagination.Cursor {
	return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
}
