package server

import (
	"github.com/kataras/iris/v12"

	"github.com/example/gomarket/internal/config"
	"github.com/example/gomarket/internal/repository/postgres"
	"github.com/example/gomarket/internal/service"
)

// RegisterAdminRoutes 注册后台管理端的 HTTP 路由
// 端口通常是 8081，与前台 API 服务分离，只读视角。
func RegisterAdminRoutes(app *iris.Application, cfg *config.Config) {
	db := postgres.Init(&cfg.Database)

	userRepo := postgres.NewUserRepository(db)
	productRepo := postgres.NewProductRepository(db)
	offerRepo := postgres.NewOfferRepository(db)
	txRepo := postgres.NewTransactionRepository(db)

	userSvc := service.NewUserService(userRepo, &cfg.JWT)
	productSvc := service.NewProductService(productRepo, offerRepo)
	txSvc := service.NewTransactionService(txRepo)

	api := app.Party("/api")

	// 全部商品（含 reserved/sold）
	api.Get("/products", func(ctx iris.Context) {
		list, err := productSvc.ListAll(ctx.Request().Context())
		if err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// 指定商品的完整报价链
	api.Get("/products/{id:int64}/offers", func(ctx iris.Context) {
		pid, _ := ctx.Params().GetInt64("id")
		list, err := offerRepo.ListByProduct(ctx.Request().Context(), pid)
		if err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// 最近成交
	api.Get("/transactions", func(ctx iris.Context) {
		limit := ctx.URLParamIntDefault("limit", 20)
		list, err := txSvc.ListRecent(ctx.Request().Context(), limit)
		if err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// 用户列表
	api.Get("/users", func(ctx iris.Context) {
		list, err := userSvc.ListAll(ctx.Request().Context())
		if err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// 监控计数
	api.Get("/stats", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"code": 0, "data": service.GetMonitor().Snapshot()})
	})
}
