package server

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/example/gomarket/internal/auth"
	"github.com/example/gomarket/internal/config"
	"github.com/example/gomarket/internal/infra/mq"
	"github.com/example/gomarket/internal/infra/redis"
	"github.com/example/gomarket/internal/middleware"
	"github.com/example/gomarket/internal/pagination"
	"github.com/example/gomarket/internal/repository/postgres"
	"github.com/example/gomarket/internal/service"
)

// RegisterRoutes 注册所有 HTTP 路由
func RegisterRoutes(app *iris.Application, cfg *config.Config) {
	// 初始化基础设施
	db := postgres.Init(&cfg.Database)
	redisClient := redis.Init(&cfg.Redis)
	mqConn := mq.Init(&cfg.RabbitMQ)

	// 仓储与服务
	userRepo := postgres.NewUserRepository(db)
	productRepo := postgres.NewProductRepository(db)
	offerRepo := postgres.NewOfferRepository(db)
	txRepo := postgres.NewTransactionRepository(db)

	events := service.NewEventPublisher(mqConn)
	userSvc := service.NewUserService(userRepo, &cfg.JWT)
	productSvc := service.NewProductService(productRepo, offerRepo)
	offerSvc := service.NewOfferService(offerRepo, productRepo, events)
	purchaseSvc := service.NewPurchaseService(productRepo, offerRepo, events)
	txSvc := service.NewTransactionService(txRepo)

	ring := auth.NewConsistentHashRing(cfg.Auth.Nodes, cfg.Auth.HashReplicas)
	tokenCache := auth.NewTokenCache(redisClient, ring, time.Duration(cfg.Auth.TokenCacheTTLSeconds)*time.Second)

	api := app.Party("/api")

	// 健康检查
	api.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{
			"code": 0,
			"msg":  "ok",
		})
	})

	// 用户注册/登录
	api.Post("/register", func(ctx iris.Context) {
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		if req.Name == "" || req.Email == "" || req.Password == "" {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": "name, email and password are required"})
			return
		}
		u, err := userSvc.Register(ctx.Request().Context(), req.Name, req.Email, req.Password)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": u})
	})

	api.Post("/login", func(ctx iris.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		token, err := userSvc.Login(ctx.Request().Context(), req.Email, req.Password)
		if err != nil {
			ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "invalid credentials"})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{"token": token}})
	})

	// 需要登录的接口
	authAPI := api.Party("/", func(ctx iris.Context) {
		token := strings.TrimPrefix(ctx.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "missing token"})
			return
		}
		claims, hit, err := tokenCache.Get(ctx.Request().Context(), token)
		if err != nil || !hit {
			claims, err = auth.ParseToken(&cfg.JWT, token)
			if err != nil {
				ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "invalid token"})
				return
			}
			if err := tokenCache.Set(ctx.Request().Context(), token, claims); err != nil {
				zap.L().Warn("cache token failed", zap.Error(err))
			}
		}
		ctx.Values().Set("user_id", claims.UserID)
		ctx.Next()
	})

	// 商品列表：默认在售商品，seller=me 时返回自己的商品（含报价数）
	authAPI.Get("/products", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		cursor := readCursor(ctx)
		limit := ctx.URLParamIntDefault("limit", 50)
		if ctx.URLParam("seller") == "me" {
			page, err := productSvc.ListBySeller(ctx.Request().Context(), userID, cursor, limit)
			if err != nil {
				fail(ctx, err)
				return
			}
			ctx.JSON(iris.Map{"code": 0, "data": page})
			return
		}
		page, err := productSvc.ListAvailable(ctx.Request().Context(), cursor, limit)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": page})
	})

	// 发布商品
	authAPI.Post("/products", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Price       int64  `json:"price"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		if req.Name == "" || len(req.Name) > 255 {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": "Name is required (max 255 characters)"})
			return
		}
		if len(req.Description) > 2000 {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": "Description too long (max 2000 characters)"})
			return
		}
		if req.Price <= 0 {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": "Price must be a positive integer (cents)"})
			return
		}
		p, err := productSvc.Create(ctx.Request().Context(), userID, req.Name, req.Description, req.Price)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.StatusCode(201)
		ctx.JSON(iris.Map{"code": 0, "data": p})
	})

	// 商品详情（含报价链和可操作标记）
	authAPI.Get("/products/{id:int64}", func(ctx iris.Context) {
		pid, _ := ctx.Params().GetInt64("id")
		userID := ctx.Values().GetInt64Default("user_id", 0)
		details, err := productSvc.GetDetails(ctx.Request().Context(), pid, userID)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": details})
	})

	// 买家创建首个报价
	authAPI.Post("/products/{id:int64}/offers", middleware.NegotiationRateLimit(), func(ctx iris.Context) {
		pid, _ := ctx.Params().GetInt64("id")
		userID := ctx.Values().GetInt64Default("user_id", 0)
		amount, ok := readAmount(ctx)
		if !ok {
			return
		}
		o, err := offerSvc.CreateInitialOffer(ctx.Request().Context(), pid, userID, amount)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.StatusCode(201)
		ctx.JSON(iris.Map{"code": 0, "data": o})
	})

	// 购买（可带 offerId 按成交价购买）
	authAPI.Post("/products/{id:int64}/purchase", middleware.NegotiationRateLimit(), func(ctx iris.Context) {
		pid, _ := ctx.Params().GetInt64("id")
		userID := ctx.Values().GetInt64Default("user_id", 0)
		var req struct {
			OfferID *int64 `json:"offerId"`
		}
		// 不带 offerId（甚至不带请求体）就是按标价直接购买
		if err := ctx.ReadJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		result, err := purchaseSvc.PurchaseProduct(ctx.Request().Context(), pid, userID, req.OfferID)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": result})
	})

	// 报价列表：status+seller/buyer 三种组合
	authAPI.Get("/offers", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		page, err := offerSvc.ListOffers(ctx.Request().Context(), userID, service.OffersQuery{
			Status: ctx.URLParam("status"),
			Seller: ctx.URLParam("seller"),
			Buyer:  ctx.URLParam("buyer"),
			Cursor: readCursor(ctx),
			Limit:  ctx.URLParamIntDefault("limit", 50),
		})
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": page})
	})

	// 还价
	authAPI.Post("/offers/{id:int64}/counter", middleware.NegotiationRateLimit(), func(ctx iris.Context) {
		oid, _ := ctx.Params().GetInt64("id")
		userID := ctx.Values().GetInt64Default("user_id", 0)
		amount, ok := readAmount(ctx)
		if !ok {
			return
		}
		o, err := offerSvc.CounterOffer(ctx.Request().Context(), oid, userID, amount)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.StatusCode(201)
		ctx.JSON(iris.Map{"code": 0, "data": o})
	})

	// 接受报价
	authAPI.Post("/offers/{id:int64}/accept", middleware.NegotiationRateLimit(), func(ctx iris.Context) {
		oid, _ := ctx.Params().GetInt64("id")
		userID := ctx.Values().GetInt64Default("user_id", 0)
		result, err := offerSvc.AcceptOffer(ctx.Request().Context(), oid, userID)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": result})
	})

	// 成交记录：默认卖家视角，buyer=me 看购买记录
	authAPI.Get("/transactions", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		var (
			list interface{}
			err  error
		)
		if ctx.URLParam("buyer") == "me" {
			list, err = txSvc.ListByBuyer(ctx.Request().Context(), userID)
		} else {
			list, err = txSvc.ListBySeller(ctx.Request().Context(), userID)
		}
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})
}

// fail 把业务错误映射为 HTTP 状态码后返回
func fail(ctx iris.Context, err error) {
	status := httpStatus(err)
	if status == 500 {
		zap.L().Error("request failed",
			zap.String("path", ctx.Path()),
			zap.Error(err))
		ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": "Internal server error"})
		return
	}
	ctx.StopWithJSON(status, iris.Map{"code": status, "msg": err.Error()})
}

func httpStatus(err error) int {
	switch service.KindOf(err) {
	case service.KindNotFound:
		return 404
	case service.KindForbidden:
		return 403
	case service.KindInvalidState, service.KindAlreadyExists:
		return 400
	case service.KindConflict:
		return 409
	}
	return 500
}

// readAmount 读取并校验报价金额，非法时直接写 400 响应
func readAmount(ctx iris.Context) (int64, bool) {
	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := ctx.ReadJSON(&req); err != nil {
		ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
		return 0, false
	}
	if req.Amount <= 0 {
		ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": "Amount must be a positive integer (cents)"})
		return 0, false
	}
	return req.Amount, true
}

// readCursor 从查询参数解析键集游标（cursorCreatedAt RFC3339 + cursorId）
func readCursor(ctx iris.Context) *pagination.Cursor {
	rawTime := ctx.URLParam("cursorCreatedAt")
	rawID := ctx.URLParam("cursorId")
	if rawTime == "" || rawID == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, rawTime)
	if err != nil {
		return nil
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil
	}
	return &pagination.Cursor{CreatedAt: t, ID: id}
}
