package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/IANDYI/growth-service/internal/core/domain"
	"github.com/IANDYI/growth-service/internal/core/ports"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
)

// RabbitMQPublisher implements GrowthAlertPublisher for publishing irregular growth results
// Includes retry logic and circuit breaker for resilience
type RabbitMQPublisher struct {
	conn          *amqp091.Connection
	channel       *amqp091.Channel
	queueName     string
	cb            *gobreaker.CircuitBreaker
	maxRetries    int
	retryDelay    time.Duration
	connMutex     sync.RWMutex
	reconnectCh   chan bool
	stopReconnect chan bool
}

// GrowthAlertEvent is the message published for an irregular growth result
type GrowthAlertEvent struct {
	ChildID          uuid.UUID           `json:"child_id"`
	GuardianID       uuid.UUID           `json:"guardian_id"`
	GrowthDataID     uuid.UUID           `json:"growth_data_id"`
	InputDate        string              `json:"input_date"`
	IrregularMetrics []string            `json:"irregular_metrics"`
	GrowthResult     domain.GrowthResult `json:"growth_result"`
	Severity         string              `json:"severity"`
	Timestamp        time.Time           `json:"timestamp"`
}

// NewGrowthAlertEvent builds the alert payload. BMI outside the healthy bands is "critical",
// anything else irregular is a "warning".
func NewGrowthAlertEvent(child *domain.Child, data *domain.GrowthData, now time.Time) GrowthAlertEvent {
	severity := "warning"
	if data.GrowthResult.Bmi.Irregular {
		severity = "critical"
	}
	return GrowthAlertEvent{
		ChildID:          child.ID,
		GuardianID:       child.GuardianID,
		GrowthDataID:     data.ID,
		InputDate:        data.InputDate.Format("2006-01-02"),
		IrregularMetrics: data.GrowthResult.IrregularMetrics(),
		GrowthResult:     data.GrowthResult,
		Severity:         severity,
		Timestamp:        now,
	}
}

// NewRabbitMQPublisher creates a new RabbitMQ publisher with circuit breaker
func NewRabbitMQPublisher(rabbitMQURL string, queueName string, cfg BreakerConfig) (*RabbitMQPublisher, error) {
	if queueName == "" {
		queueName = "growth_alerts"
	}

	publisher := &RabbitMQPublisher{
		queueName:     queueName,
		cb:            newCircuitBreaker("rabbitmq", cfg),
		maxRetries:    3,
		retryDelay:    1 * time.Second,
		reconnectCh:   make(chan bool, 1),
		stopReconnect: make(chan bool),
	}

	if err := publisher.connect(rabbitMQURL); err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	go publisher.handleReconnection(rabbitMQURL)

	return publisher, nil
}

// connect establishes connection to RabbitMQ
func (p *RabbitMQPublisher) connect(rabbitMQURL string) error {
	conn, err := dialWithRetry(rabbitMQURL, p.maxRetries, p.retryDelay)
	if err != nil {
		return err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	// Declare queue (idempotent)
	if _, err := channel.QueueDeclare(p.queueName, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return err
	}

	p.connMutex.Lock()
	p.conn, p.channel = conn, channel
	p.connMutex.Unlock()

	log.Println("Growth alert publisher connected to RabbitMQ successfully")
	return nil
}

// handleReconnection handles automatic reconnection to RabbitMQ
func (p *RabbitMQPublisher) handleReconnection(rabbitMQURL string) {
	for {
		select {
		case <-p.reconnectCh:
			log.Println("Attempting to reconnect to RabbitMQ...")
			p.connMutex.Lock()
			if p.channel != nil {
				p.channel.Close()
			}
			if p.conn != nil {
				p.conn.Close()
			}
			p.connMutex.Unlock()

			if err := p.connect(rabbitMQURL); err != nil {
				log.Printf("Reconnection failed: %v", err)
			}
		case <-p.stopReconnect:
			return
		}
	}
}

// PublishGrowthAlert implements GrowthAlertPublisher
func (p *RabbitMQPublisher) PublishGrowthAlert(ctx context.Context, child *domain.Child, data *domain.GrowthData) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, p.publishWithRetry(ctx, NewGrowthAlertEvent(child, data, time.Now()))
	})
	return err
}

// publishWithRetry publishes with retry logic
func (p *RabbitMQPublisher) publishWithRetry(ctx context.Context, event GrowthAlertEvent) error {
	logEntry := map[string]interface{}{
		"event":             "growth_alert_publish_attempt",
		"child_id":          event.ChildID.String(),
		"growth_data_id":    event.GrowthDataID.String(),
		"irregular_metrics": event.IrregularMetrics,
		"severity":          event.Severity,
		"timestamp":         event.Timestamp.Format(time.RFC3339),
	}
	jsonBytes, _ := json.Marshal(logEntry)
	log.Printf("%s", string(jsonBytes))

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal growth alert: %w", err)
	}

	var lastErr error
	for i := 0; i < p.maxRetries; i++ {
		p.connMutex.RLock()
		ch := p.channel
		conn := p.conn
		p.connMutex.RUnlock()

		if ch == nil || conn == nil || conn.IsClosed() {
			p.triggerReconnect()
			lastErr = fmt.Errorf("RabbitMQ connection is closed")
			time.Sleep(p.retryDelay)
			continue
		}

		err = ch.PublishWithContext(
			ctx,
			"",          // exchange
			p.queueName, // routing key
			false,       // mandatory
			false,       // immediate
			amqp091.Publishing{
				ContentType:  "application/json",
				Body:         body,
				DeliveryMode: amqp091.Persistent,
				Timestamp:    time.Now(),
				MessageId:    event.GrowthDataID.String(),
			},
		)
		if err == nil {
			return nil
		}

		lastErr = err
		log.Printf("Failed to publish growth alert (attempt %d/%d): %v", i+1, p.maxRetries, err)

		if i < p.maxRetries-1 {
			p.triggerReconnect()
			time.Sleep(p.retryDelay)
		}
	}

	return fmt.Errorf("failed to publish growth alert after %d retries: %w", p.maxRetries, lastErr)
}

func (p *RabbitMQPublisher) triggerReconnect() {
	select {
	case p.reconnectCh <- true:
	default:
	}
}

// Close closes the RabbitMQ connection
func (p *RabbitMQPublisher) Close() error {
	close(p.stopReconnect)
	p.connMutex.Lock()
	defer p.connMutex.Unlock()

	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// dialWithRetry dials RabbitMQ up to maxRetries times
func dialWithRetry(rabbitMQURL string, maxRetries int, retryDelay time.Duration) (*amqp091.Connection, error) {
	var conn *amqp091.Connection
	var err error
	for i := 0; i < maxRetries; i++ {
		conn, err = amqp091.Dial(rabbitMQURL)
		if err == nil {
			return conn, nil
		}
		log.Printf("Failed to connect to RabbitMQ (attempt %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	return nil, err
}

// Ensure RabbitMQPublisher implements the interface
var _ ports.GrowthAlertPublisher = (*RabbitMQPublisher)(nil)
