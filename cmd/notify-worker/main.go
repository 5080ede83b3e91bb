package main

import (
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/example/gomarket/internal/config"
	"github.com/example/gomarket/internal/infra/mq"
	"github.com/example/gomarket/internal/logger"
	"github.com/example/gomarket/internal/service"
)

const eventsQueue = "marketplace_events"

// 通知 worker：消费领域事件并记录/分发通知
// 事件是尽力送达的旁路信息，处理失败只影响通知，不影响交易本身。
func main() {
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.InitLogger()

	mqConn := mq.Init(&cfg.RabbitMQ)

	ch, err := mqConn.Channel()
	if err != nil {
		zap.L().Fatal("failed to open channel", zap.Error(err))
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(eventsQueue, true, false, false, false, nil); err != nil {
		zap.L().Fatal("failed to declare queue", zap.Error(err))
	}

	// 手动确认模式（auto-ack=false）
	msgs, err := ch.Consume(eventsQueue, "", false, false, false, false, nil)
	if err != nil {
		zap.L().Fatal("failed to consume", zap.Error(err))
	}

	zap.L().Info("notify worker started, waiting for events")

	for d := range msgs {
		handleEvent(d)
	}
}

func handleEvent(d amqp.Delivery) {
	var evt service.Event
	if err := json.Unmarshal(d.Body, &evt); err != nil {
		zap.L().Warn("invalid event payload", zap.Error(err))
		// 格式错误，拒绝并丢弃
		_ = d.Nack(false, false)
		return
	}

	switch evt.Type {
	case service.EventOfferCreated:
		zap.L().Info("notify seller: new offer",
			zap.Int64("seller_id", evt.SellerID),
			zap.Int64("product_id", evt.ProductID),
			zap.Int64("amount", evt.Amount))
	case service.EventOfferCountered:
		zap.L().Info("notify counterpart: counter offer",
			zap.Int64("product_id", evt.ProductID),
			zap.Int64("offer_id", evt.OfferID),
			zap.Int64("amount", evt.Amount))
	case service.EventOfferAccepted:
		zap.L().Info("notify buyer: offer accepted, product reserved",
			zap.Int64("buyer_id", evt.BuyerID),
			zap.Int64("product_id", evt.ProductID),
			zap.Int64("amount", evt.Amount))
	case service.EventProductSold:
		zap.L().Info("notify seller: product sold",
			zap.Int64("seller_id", evt.SellerID),
			zap.Int64("product_id", evt.ProductID),
			zap.Int64("amount", evt.Amount))
	default:
		zap.L().Warn("unknown event type", zap.String("type", evt.Type))
	}

	if err := d.Ack(false); err != nil {
		zap.L().Warn("failed to ack event", zap.Error(err))
	}
}
