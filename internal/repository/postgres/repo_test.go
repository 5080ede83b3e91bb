package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/example/gomarket/internal/datamodels/offer"
	"github.com/example/gomarket/internal/datamodels/product"
	"github.com/example/gomarket/internal/datamodels/transaction"
	"github.com/example/gomarket/internal/pagination"
)

// newTestDB 每个测试一个独立的内存库
// 单连接串行化写入，贴近“协调全部下推到存储层”的模型。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, sellerID, price int64) *product.Product {
	t.Helper()
	p := &product.Product{
		SellerID: sellerID,
		Name:     "test product",
		Price:    price,
		Status:   product.StatusAvailable,
		Version:  1,
	}
	if err := NewProductRepository(db).Create(context.Background(), p); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func TestOfferCreateDuplicatePendingGuard(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewOfferRepository(db)
	p := seedProduct(t, db, 1, 10000)

	first := &offer.Offer{ProductID: p.ID, BuyerID: 7, Amount: 5000, ProposedBy: offer.RoleBuyer}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("first offer: %v", err)
	}

	dup := &offer.Offer{ProductID: p.ID, BuyerID: 7, Amount: 6000, ProposedBy: offer.RoleBuyer}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrDuplicateOffer) {
		t.Fatalf("expected ErrDuplicateOffer, got %v", err)
	}

	// 其他买家不受影响
	other := &offer.Offer{ProductID: p.ID, BuyerID: 8, Amount: 5500, ProposedBy: offer.RoleBuyer}
	if err := repo.Create(ctx, other); err != nil {
		t.Fatalf("offer from another buyer: %v", err)
	}

	// 父报价不再 pending 后可以再次插入
	if err := db.Model(&offer.Offer{}).Where("id = ?", first.ID).
		Update("status", offer.StatusCountered).Error; err != nil {
		t.Fatalf("mark countered: %v", err)
	}
	again := &offer.Offer{ProductID: p.ID, BuyerID: 7, Amount: 6500, ProposedBy: offer.RoleSeller}
	if err := repo.Create(ctx, again); err != nil {
		t.Fatalf("offer after countered: %v", err)
	}
}

func TestCounterMarksParentAndInsertsChild(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewOfferRepository(db)
	p := seedProduct(t, db, 1, 10000)

	parent := &offer.Offer{ProductID: p.ID, BuyerID: 7, Amount: 5000, ProposedBy: offer.RoleBuyer}
	if err := repo.Create(ctx, parent); err != nil {
		t.Fatalf("create parent: %v", err)
	}

	child, err := repo.Counter(ctx, parent, 6000, offer.RoleSeller)
	if err != nil {
		t.Fatalf("counter: %v", err)
	}
	if child.ParentOfferID == nil || *child.ParentOfferID != parent.ID {
		t.Fatalf("child parent link = %v, want %d", child.ParentOfferID, parent.ID)
	}
	if child.ProposedBy != offer.RoleSeller || child.Status != offer.StatusPending {
		t.Fatalf("child = %s/%s, want seller/pending", child.ProposedBy, child.Status)
	}

	reloaded, err := repo.GetByID(ctx, parent.ID)
	if err != nil {
		t.Fatalf("reload parent: %v", err)
	}
	if reloaded.Status != offer.StatusCountered {
		t.Fatalf("parent status = %s, want countered", reloaded.Status)
	}
}

func TestAcceptWithReservationVersionGuard(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	offers := NewOfferRepository(db)
	products := NewProductRepository(db)
	p := seedProduct(t, db, 1, 10000)

	o := &offer.Offer{ProductID: p.ID, BuyerID: 7, Amount: 6000, ProposedBy: offer.RoleSeller}
	if err := offers.Create(ctx, o); err != nil {
		t.Fatalf("create offer: %v", err)
	}

	// 过期版本：商品和报价都必须保持原样（整体回滚）
	err := offers.AcceptWithReservation(ctx, o.ID, p.ID, o.BuyerID, p.Version+1)
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	stale, _ := offers.GetByID(ctx, o.ID)
	if stale.Status != offer.StatusPending {
		t.Fatalf("offer rolled back status = %s, want pending", stale.Status)
	}
	unchanged, _ := products.GetByID(ctx, p.ID)
	if unchanged.Status != product.StatusAvailable || unchanged.Version != 1 {
		t.Fatalf("product changed on failed accept: %s v%d", unchanged.Status, unchanged.Version)
	}

	// 正确版本：报价 accepted，商品 reserved，版本 +1
	if err := offers.AcceptWithReservation(ctx, o.ID, p.ID, o.BuyerID, p.Version); err != nil {
		t.Fatalf("accept: %v", err)
	}
	accepted, _ := offers.GetByID(ctx, o.ID)
	if accepted.Status != offer.StatusAccepted {
		t.Fatalf("offer status = %s, want accepted", accepted.Status)
	}
	reserved, _ := products.GetByID(ctx, p.ID)
	if reserved.Status != product.StatusReserved || reserved.Version != 2 {
		t.Fatalf("product = %s v%d, want reserved v2", reserved.Status, reserved.Version)
	}
	if reserved.ReservedBy == nil || *reserved.ReservedBy != o.BuyerID {
		t.Fatalf("reservedBy = %v, want %d", reserved.ReservedBy, o.BuyerID)
	}
}

func TestSellVersionGuard(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	products := NewProductRepository(db)
	p := seedProduct(t, db, 1, 10000)

	// 过期版本：不产生成交记录
	if _, err := products.Sell(ctx, p.ID, 7, 1, 10000, p.Version+1, nil); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	var count int64
	db.Model(&transaction.Transaction{}).Where("product_id = ?", p.ID).Count(&count)
	if count != 0 {
		t.Fatalf("transaction rows after failed sell = %d, want 0", count)
	}

	tx, err := products.Sell(ctx, p.ID, 7, 1, 10000, p.Version, nil)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if tx.FinalPrice != 10000 || tx.OfferID != nil {
		t.Fatalf("transaction = %+v, want finalPrice 10000 and nil offerId", tx)
	}
	sold, _ := products.GetByID(ctx, p.ID)
	if sold.Status != product.StatusSold || sold.Version != 2 || sold.ReservedBy != nil {
		t.Fatalf("product = %s v%d reservedBy=%v, want sold v2 nil", sold.Status, sold.Version, sold.ReservedBy)
	}

	// 再卖一次：版本已前进，旧版本条件写必然落空
	if _, err := products.Sell(ctx, p.ID, 8, 1, 10000, 1, nil); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict on resell, got %v", err)
	}
	db.Model(&transaction.Transaction{}).Where("product_id = ?", p.ID).Count(&count)
	if count != 1 {
		t.Fatalf("transaction rows = %d, want exactly 1", count)
	}
}

func TestListAvailableKeysetPagination(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	products := NewProductRepository(db)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		p := &product.Product{
			SellerID:  1,
			Name:      fmt.Sprintf("item %d", i),
			Price:     1000,
			Status:    product.StatusAvailable,
			Version:   1,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := products.Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	limit := 2
	first, err := products.ListAvailable(ctx, nil, limit)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	page1 := pagination.Extract(first, limit, func(p *product.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	if len(page1.Items) != 2 || !page1.HasMore || page1.NextCursor == nil {
		t.Fatalf("page1 = %d items hasMore=%v", len(page1.Items), page1.HasMore)
	}
	if page1.Items[0].Name != "item 2" {
		t.Fatalf("newest first, got %s", page1.Items[0].Name)
	}

	second, err := products.ListAvailable(ctx, page1.NextCursor, limit)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	page2 := pagination.Extract(second, limit, func(p *product.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	if len(page2.Items) != 1 || page2.HasMore {
		t.Fatalf("page2 = %d items hasMore=%v, want 1 false", len(page2.Items), page2.HasMore)
	}
	if page2.Items[0].Name != "item 0" {
		t.Fatalf("page2 item = %s, want item 0", page2.Items[0].Name)
	}
}

func TestCountPendingByProducts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	offers := NewOfferRepository(db)
	p1 := seedProduct(t, db, 1, 1000)
	p2 := seedProduct(t, db, 1, 2000)

	for buyer := int64(10); buyer < 13; buyer++ {
		if err := offers.Create(ctx, &offer.Offer{
			ProductID: p1.ID, BuyerID: buyer, Amount: 900, ProposedBy: offer.RoleBuyer,
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	// 卖家还价中的报价不计入（proposed_by=seller）
	if err := offers.Create(ctx, &offer.Offer{
		ProductID: p2.ID, BuyerID: 20, Amount: 1800, ProposedBy: offer.RoleSeller,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	counts, err := offers.CountPendingByProducts(ctx, []int64{p1.ID, p2.ID})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[p1.ID] != 3 {
		t.Fatalf("p1 count = %d, want 3", counts[p1.ID])
	}
	if counts[p2.ID] != 0 {
		t.Fatalf("p2 count = %d, want 0", counts[p2.ID])
	}
}
