package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/go-storefront/internal/model"
)

const (
	dlxExchange    = "orders.finalized.dlx"
	dlqQueueName   = "orders.finalized.dlq"
	idempotencyTTL = 24 * time.Hour
)

var errMalformed = errors.New("malformed order message")

// Topology is the part of *amqp.Channel needed to declare queues.
type Topology interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
}

// Consumer is the part of *amqp.Channel the worker reads deliveries from.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// ConfirmationWorker records a confirmation for every finalized order
// announced on model.OrderFinalizedQueue.
type ConfirmationWorker struct {
	channel     Consumer
	store       *ConfirmationStore
	redisClient *redis.Client
	log         *slog.Logger
	done        chan struct{}
	stopped     chan struct{}
}

func NewConfirmationWorker(ch Consumer, store *ConfirmationStore, redisClient *redis.Client, log *slog.Logger) *ConfirmationWorker {
	return &ConfirmationWorker{
		channel:     ch,
		store:       store,
		redisClient: redisClient,
		log:         log.With("component", "confirmation_worker"),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

// SetupTopology declares the finalized-orders queue with its dead-letter
// exchange and queue. Publishers and the worker both call it.
func SetupTopology(ch Topology) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, model.OrderFinalizedQueue, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(model.OrderFinalizedQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": model.OrderFinalizedQueue,
	}); err != nil {
		return fmt.Errorf("declare finalized queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *ConfirmationWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(model.OrderFinalizedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		defer close(w.stopped)
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.handle(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("confirmation worker started", "queue", model.OrderFinalizedQueue)
	return nil
}

// Stop ends the consume loop and waits for the in-flight delivery.
func (w *ConfirmationWorker) Stop() {
	close(w.done)
	<-w.stopped
}

func (w *ConfirmationWorker) handle(ctx context.Context, msg amqp.Delivery) {
	requeue, err := w.process(ctx, msg.Body)
	switch {
	case err == nil:
		_ = msg.Ack(false)
	case requeue:
		w.log.Warn("confirmation deferred", "error", err)
		_ = msg.Nack(false, true)
	default:
		w.log.Error("confirmation dead-lettered", "error", err)
		_ = msg.Nack(false, false)
	}
}

// process reports whether a failed delivery is worth requeueing. Malformed
// messages never are.
func (w *ConfirmationWorker) process(ctx context.Context, body []byte) (bool, error) {
	var orderMsg model.OrderMessage
	if err := json.Unmarshal(body, &orderMsg); err != nil {
		return false, fmt.Errorf("%w: %w", errMalformed, err)
	}
	if orderMsg.OrderID == "" || orderMsg.UserID == "" {
		return false, fmt.Errorf("%w: missing order or user id", errMalformed)
	}

	log := w.log.With("order_id", orderMsg.OrderID, "user_id", orderMsg.UserID)

	idempotencyKey := "order_confirmed:" + orderMsg.OrderID
	fresh, err := w.redisClient.SetNX(ctx, idempotencyKey, "1", idempotencyTTL).Result()
	if err != nil {
		return true, fmt.Errorf("check idempotency key: %w", err)
	}
	if !fresh {
		log.Info("order already confirmed, skipping")
		return false, nil
	}

	if err := w.store.Save(ctx, orderMsg); err != nil {
		if delErr := w.redisClient.Del(ctx, idempotencyKey).Err(); delErr != nil {
			log.Error("release idempotency key", "error", delErr)
		}
		return true, err
	}

	log.Info("order confirmed", "items", orderMsg.ItemCount, "total", orderMsg.TotalPrice.String())
	return false, nil
}
