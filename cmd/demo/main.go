package main

import (
	"context"
	"fmt"
	"log"

	"github.com/example/gomarket/internal/config"
	"github.com/example/gomarket/internal/logger"
	"github.com/example/gomarket/internal/repository/postgres"
	"github.com/example/gomarket/internal/service"
)

// 简单 demo：初始化卖家/买家和一件商品，
// 走一遍 报价 → 还价 → 接受 → 购买 的完整议价流程
func main() {
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger.InitLogger()

	db := postgres.Init(&cfg.Database)

	userRepo := postgres.NewUserRepository(db)
	productRepo := postgres.NewProductRepository(db)
	offerRepo := postgres.NewOfferRepository(db)

	userSvc := service.NewUserService(userRepo, &cfg.JWT)
	productSvc := service.NewProductService(productRepo, offerRepo)
	offerSvc := service.NewOfferService(offerRepo, productRepo, nil)
	purchaseSvc := service.NewPurchaseService(productRepo, offerRepo, nil)

	ctx := context.Background()

	seller, err := userSvc.Register(ctx, "Demo Seller", "seller@demo.local", "seller123")
	if err != nil {
		log.Fatalf("create seller failed: %v", err)
	}
	buyer, err := userSvc.Register(ctx, "Demo Buyer", "buyer@demo.local", "buyer123")
	if err != nil {
		log.Fatalf("create buyer failed: %v", err)
	}

	p, err := productSvc.Create(ctx, seller.ID, "复古胶片相机", "九成新，含原装皮套", 12000)
	if err != nil {
		log.Fatalf("create product failed: %v", err)
	}
	fmt.Printf("商品已创建 id=%d 标价=%d 分\n", p.ID, p.Price)

	o, err := offerSvc.CreateInitialOffer(ctx, p.ID, buyer.ID, 9000)
	if err != nil {
		log.Fatalf("create offer failed: %v", err)
	}
	fmt.Printf("买家报价 id=%d amount=%d\n", o.ID, o.Amount)

	counter, err := offerSvc.CounterOffer(ctx, o.ID, seller.ID, 10500)
	if err != nil {
		log.Fatalf("counter offer failed: %v", err)
	}
	fmt.Printf("卖家还价 id=%d amount=%d\n", counter.ID, counter.Amount)

	accepted, err := offerSvc.AcceptOffer(ctx, counter.ID, buyer.ID)
	if err != nil {
		log.Fatalf("accept offer failed: %v", err)
	}
	fmt.Printf("买家接受还价 offer=%d amount=%d，商品已保留\n", accepted.OfferID, accepted.Amount)

	result, err := purchaseSvc.PurchaseProduct(ctx, p.ID, buyer.ID, &accepted.OfferID)
	if err != nil {
		log.Fatalf("purchase failed: %v", err)
	}
	fmt.Printf("购买完成 transaction=%d 成交价=%d 分\n", result.TransactionID, result.FinalPrice)
}
