package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Task types processed by the worker.
const (
	TypeOrderPlaced = "order.placed"
)

// OrderPlacedPayload travels with the order.placed task.
type OrderPlacedPayload struct {
	OrderID     string `json:"orderId"`
	UserID      string `json:"userId"`
	FinalAmount int64  `json:"finalAmount"`
}

// Enqueuer submits background tasks.
type Enqueuer struct {
	Client *asynq.Client
}

// NewEnqueuer constructs an Enqueuer from Redis connection options.
func NewEnqueuer(opt asynq.RedisConnOpt) *Enqueuer {
	return &Enqueuer{Client: asynq.NewClient(opt)}
}

// Close releases the underlying client.
func (e *Enqueuer) Close() error {
	if e == nil || e.Client == nil {
		return nil
	}
	return e.Client.Close()
}

// EnqueueOrderPlaced schedules post-checkout processing for an order.
func (e *Enqueuer) EnqueueOrderPlaced(ctx context.Context, payload OrderPlacedPayload) error {
	if e == nil || e.Client == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal order.placed payload: %w", err)
	}
	task := asynq.NewTask(TypeOrderPlaced, data)
	_, err = e.Client.EnqueueContext(ctx, task,
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("enqueue order.placed: %w", err)
	}
	return nil
}

// OrderConfirmer marks placed orders as confirmed.
type OrderConfirmer interface {
	ConfirmOrder(ctx context.Context, orderID string) error
}

// NewMux wires task handlers for the worker process.
func NewMux(logger zerolog.Logger, confirmer OrderConfirmer) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeOrderPlaced, func(ctx context.Context, task *asynq.Task) error {
		var payload OrderPlacedPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("decode order.placed payload: %w", err)
		}
		logger.Info().
			Str("order_id", payload.OrderID).
			Str("user_id", payload.UserID).
			Int64("final_amount", payload.FinalAmount).
			Msg("processing placed order")
		if confirmer == nil {
			return nil
		}
		if err := confirmer.ConfirmOrder(ctx, payload.OrderID); err != nil {
			return fmt.Errorf("confirm order %s: %w", payload.OrderID, err)
		}
		return nil
	})
	return mux
}
