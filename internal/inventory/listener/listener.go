package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/marketplace-catalog-service/internal/broker"
	"github.com/fekuna/marketplace-catalog-service/internal/inventory"
	"github.com/fekuna/marketplace-catalog-service/internal/inventory/dto"
	"github.com/fekuna/marketplace-catalog-service/internal/logger"
)

const EventOrderCreated = "OrderCreated"

// Reader is the consuming side of a topic, e.g. *broker.KafkaConsumer.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type InventoryListener struct {
	consumer Reader
	uc       inventory.UseCase
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewInventoryListener(consumer Reader, uc inventory.UseCase, logger logger.ZapLogger) *InventoryListener {
	return &InventoryListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
		backoff:  time.Second,
	}
}

// Start consumes order events until ctx is done.
func (l *InventoryListener) Start(ctx context.Context) {
	l.logger.Info("Starting inventory kafka listener")
	for {
		msg, err := l.consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("Stopping inventory kafka listener")
				return
			}
			l.logger.Error("Failed to read kafka message", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(l.backoff):
			}
			continue
		}
		l.processMessage(ctx, msg.Value)
	}
}

type OrderPayload struct {
	ID    string             `json:"id"`
	Items []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (l *InventoryListener) processMessage(ctx context.Context, value []byte) {
	var event broker.Event
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}
	if event.EventType != EventOrderCreated {
		return
	}

	var order OrderPayload
	if err := json.Unmarshal(event.Payload, &order); err != nil {
		l.logger.Error("Failed to unmarshal order payload", zap.String("event_id", event.EventID), zap.Error(err))
		return
	}

	input := &dto.OrderInput{OrderID: order.ID, Lines: make([]dto.OrderLine, len(order.Items))}
	for i, item := range order.Items {
		input.Lines[i] = dto.OrderLine{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	if err := l.uc.ApplyOrder(ctx, input); err != nil {
		l.logger.Error("Failed to apply order to stock",
			zap.String("order_id", order.ID),
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
	}
}
