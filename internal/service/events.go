package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const eventsQueue = "marketplace_events"

// 领域事件类型
const (
	EventOfferCreated   = "offer.created"
	EventOfferCountered = "offer.countered"
	EventOfferAccepted  = "offer.accepted"
	EventProductSold    = "product.sold"
)

// Event 领域事件，发往通知 worker
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	ProductID int64     `json:"product_id"`
	BuyerID   int64     `json:"buyer_id"`
	SellerID  int64     `json:"seller_id,omitempty"`
	OfferID   int64     `json:"offer_id,omitempty"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// EventPublisher 把领域事件写入 RabbitMQ
// 事件在数据库事务提交之后发布，尽力送达：
// 发布失败只记录日志和计数，绝不影响核心操作的结果。
type EventPublisher struct {
	conn *amqp.Connection
}

// NewEventPublisher 创建事件发布器，conn 可为 nil（例如测试环境）
func NewEventPublisher(conn *amqp.Connection) *EventPublisher {
	return &EventPublisher{conn: conn}
}

// Publish 发布事件
func (p *EventPublisher) Publish(ctx context.Context, evt Event) {
	if p == nil || p.conn == nil {
		return
	}
	evt.ID = uuid.NewString()
	evt.CreatedAt = time.Now()

	ch, err := p.conn.Channel()
	if err != nil {
		GetMonitor().RecordMQError()
		zap.L().Warn("open mq channel failed", zap.Error(err))
		return
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(eventsQueue, true, false, false, false, nil); err != nil {
		GetMonitor().RecordMQError()
		zap.L().Warn("declare events queue failed", zap.Error(err))
		return
	}

	body, err := json.Marshal(&evt)
	if err != nil {
		zap.L().Warn("marshal event failed", zap.Error(err))
		return
	}

	err = ch.PublishWithContext(
		ctx,
		"",
		eventsQueue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		GetMonitor().RecordMQError()
		zap.L().Warn("publish event failed",
			zap.String("type", evt.Type),
			zap.Int64("product_id", evt.ProductID),
			zap.Error(err))
	}
}
