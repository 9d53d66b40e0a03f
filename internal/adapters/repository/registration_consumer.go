package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/IANDYI/growth-service/internal/core/domain"
	"github.com/IANDYI/growth-service/internal/core/ports"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// RegistrationMessage is published by the identity service when a user registers.
// Child is optional; guardians usually register their first child at sign-up.
//
//	{"user_id": "uuid", "role": "User", "child": {"name": "Ada", "birth_date": "2024-01-31", "gender": "girl"}}
type RegistrationMessage struct {
	UserID string                    `json:"user_id"`
	Role   string                    `json:"role"`
	Child  *ChildRegistrationMessage `json:"child,omitempty"`
}

type ChildRegistrationMessage struct {
	Name      string `json:"name"`
	BirthDate string `json:"birth_date"` // YYYY-MM-DD
	Gender    string `json:"gender"`     // boy, girl, 0 or 1
	Note      string `json:"note,omitempty"`
}

// systemRequester creates children on behalf of the identity service
var systemRequester = domain.Requester{UserID: uuid.Nil, Role: domain.RoleAdmin}

// RegistrationConsumer consumes user registrations from RabbitMQ
// Records the user locally and registers the child carried by the message, if any
type RegistrationConsumer struct {
	conn           *amqp091.Connection
	channel        *amqp091.Channel
	queueName      string
	childService   ports.ChildService
	connMutex      sync.RWMutex
	reconnectCh    chan bool
	stopReconnect  chan bool
	maxRetries     int
	retryDelay     time.Duration
	consumingCtx   context.Context
	consumingMutex sync.Mutex
	isConsuming    bool
}

// NewRegistrationConsumer creates a new RabbitMQ consumer for user registrations
func NewRegistrationConsumer(rabbitMQURL string, queueName string, childService ports.ChildService) (*RegistrationConsumer, error) {
	if queueName == "" {
		queueName = "user.registrations"
	}

	consumer := &RegistrationConsumer{
		queueName:     queueName,
		childService:  childService,
		maxRetries:    3,
		retryDelay:    1 * time.Second,
		reconnectCh:   make(chan bool, 1),
		stopReconnect: make(chan bool),
	}

	if err := consumer.connect(rabbitMQURL); err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	go consumer.handleReconnection(rabbitMQURL)

	return consumer, nil
}

// connect establishes connection to RabbitMQ
func (c *RegistrationConsumer) connect(rabbitMQURL string) error {
	conn, err := dialWithRetry(rabbitMQURL, c.maxRetries, c.retryDelay)
	if err != nil {
		return err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	// Declare queue (idempotent)
	if _, err := channel.QueueDeclare(c.queueName, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return err
	}

	c.connMutex.Lock()
	c.conn, c.channel = conn, channel
	c.connMutex.Unlock()

	log.Println("Registration consumer connected to RabbitMQ successfully")
	return nil
}

// handleReconnection handles automatic reconnection to RabbitMQ
func (c *RegistrationConsumer) handleReconnection(rabbitMQURL string) {
	for {
		select {
		case <-c.reconnectCh:
			log.Println("Attempting to reconnect to RabbitMQ...")
			c.connMutex.Lock()
			if c.channel != nil && !c.channel.IsClosed() {
				c.channel.Close()
			}
			if c.conn != nil && !c.conn.IsClosed() {
				c.conn.Close()
			}
			c.connMutex.Unlock()

			if err := c.connect(rabbitMQURL); err != nil {
				log.Printf("Reconnection failed: %v", err)
				time.Sleep(5 * time.Second)
				c.triggerReconnect()
				continue
			}

			// Restart consuming with the original context
			c.consumingMutex.Lock()
			ctx := c.consumingCtx
			restart := ctx != nil && ctx.Err() == nil && !c.isConsuming
			c.consumingMutex.Unlock()
			if restart {
				if err := c.StartConsuming(ctx); err != nil {
					log.Printf("Failed to restart registration consumer: %v", err)
				}
			}
		case <-c.stopReconnect:
			return
		}
	}
}

func (c *RegistrationConsumer) triggerReconnect() {
	select {
	case c.reconnectCh <- true:
	default:
	}
}

// StartConsuming registers the consumer and processes messages in a background goroutine
// Only one consumer runs per process; RabbitMQ round-robins across replicas
func (c *RegistrationConsumer) StartConsuming(ctx context.Context) error {
	c.consumingMutex.Lock()
	if c.isConsuming {
		c.consumingMutex.Unlock()
		log.Println("Registration consumer is already running, skipping duplicate start")
		return nil
	}
	c.isConsuming = true
	c.consumingCtx = ctx
	c.consumingMutex.Unlock()

	stopConsuming := func() {
		c.consumingMutex.Lock()
		c.isConsuming = false
		c.consumingMutex.Unlock()
	}

	c.connMutex.RLock()
	channel := c.channel
	conn := c.conn
	c.connMutex.RUnlock()

	if channel == nil || channel.IsClosed() || conn == nil || conn.IsClosed() {
		stopConsuming()
		return fmt.Errorf("RabbitMQ connection is closed")
	}

	// One unacknowledged message at a time
	if err := channel.Qos(1, 0, false); err != nil {
		stopConsuming()
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	consumerTag := fmt.Sprintf("registration-consumer-%d", time.Now().UnixNano())
	msgs, err := channel.Consume(
		c.queueName, // queue
		consumerTag, // consumer tag
		false,       // manual ack, only after successful processing
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		stopConsuming()
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf("Registration consumer started (tag: %s), waiting for messages on queue: %s", consumerTag, c.queueName)

	go func() {
		defer stopConsuming()

		for {
			select {
			case <-ctx.Done():
				log.Println("Registration consumer context cancelled")
				return
			case msg, ok := <-msgs:
				if !ok {
					log.Println("Registration consumer channel closed, attempting reconnection...")
					c.triggerReconnect()
					return
				}
				c.processMessage(ctx, msg)
			}
		}
	}()

	return nil
}

// processMessage acks on success, drops invalid messages and requeues everything else
func (c *RegistrationConsumer) processMessage(ctx context.Context, msg amqp091.Delivery) {
	err := c.HandleRegistration(ctx, msg.Body)
	switch {
	case err == nil:
		if ackErr := msg.Ack(false); ackErr != nil {
			// The message will be redelivered
			log.Printf("Failed to acknowledge registration message: %v", ackErr)
		}
	case errors.Is(err, domain.ErrInvalidArgument):
		log.Printf("Rejecting invalid registration message: %v", err)
		msg.Nack(false, false)
	default:
		log.Printf("Failed to process registration message, requeueing: %v", err)
		msg.Nack(false, true)
	}
}

// HandleRegistration applies one registration message. Malformed messages return an
// error wrapping domain.ErrInvalidArgument.
func (c *RegistrationConsumer) HandleRegistration(ctx context.Context, body []byte) error {
	var req RegistrationMessage
	if err := json.Unmarshal(body, &req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return fmt.Errorf("%w: user_id is not a valid UUID", domain.ErrInvalidArgument)
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidArgument, req.Role)
	}

	var childReq *ports.CreateChildRequest
	if req.Child != nil {
		birthDate, err := time.Parse("2006-01-02", req.Child.BirthDate)
		if err != nil {
			return fmt.Errorf("%w: birth_date must be YYYY-MM-DD", domain.ErrInvalidArgument)
		}
		gender, err := domain.ParseGender(req.Child.Gender)
		if err != nil {
			return err
		}
		childReq = &ports.CreateChildRequest{
			Name:       req.Child.Name,
			BirthDate:  birthDate,
			Gender:     gender,
			Note:       req.Child.Note,
			GuardianID: userID,
		}
	}

	if err := c.childService.RegisterUser(ctx, userID, role); err != nil {
		return err
	}
	log.Printf("Registered user from RabbitMQ: user_id=%s, role=%s", userID, role)

	if childReq == nil {
		return nil
	}
	child, err := c.childService.CreateChild(ctx, systemRequester, *childReq)
	if err != nil {
		return err
	}
	log.Printf("Registered child from RabbitMQ: id=%s, guardian_id=%s", child.ID, child.GuardianID)

	return nil
}

// Close closes the RabbitMQ connection and stops consuming
// The consuming context is cancelled by main during graceful shutdown
func (c *RegistrationConsumer) Close() error {
	close(c.stopReconnect)

	c.consumingMutex.Lock()
	c.isConsuming = false
	c.consumingMutex.Unlock()

	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if c.channel != nil && !c.channel.IsClosed() {
		if err := c.channel.Close(); err != nil {
			log.Printf("Error closing RabbitMQ channel: %v", err)
		}
	}
	if c.conn != nil && !c.conn.IsClosed() {
		if err := c.conn.Close(); err != nil {
			log.Printf("Error closing RabbitMQ connection: %v", err)
		}
	}

	log.Println("Registration consumer closed")
	return nil
}
