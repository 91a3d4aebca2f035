package pkg

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt/events"
	"github.com/nats-io/nats.go"
)

// connect configures the NATS client for a terminal that regularly loses
// its uplink: the connection retries forever with buffered publishes
// instead of failing the POS flow, which keeps working offline regardless.
func connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("comanda"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to NATS: %w", err)
	}
	return conn, nil
}

// NATSPublisher implements events.Publisher over a NATS connection.
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	return p.conn.Publish(topic, msg)
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// NATSSubscriber implements events.Subscriber. Subscribers on the same
// queue group share a topic's messages, so several kitchen displays can
// split the load.
type NATSSubscriber struct {
	conn  *nats.Conn
	queue string
}

func NewNATSSubscriber(url, queue string) (*NATSSubscriber, error) {
	conn, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &NATSSubscriber{conn: conn, queue: queue}, nil
}

func (s *NATSSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	cb := func(msg *nats.Msg) {
		_ = handler(ctx, msg.Data)
	}
	if s.queue != "" {
		_, err := s.conn.QueueSubscribe(topic, s.queue, cb)
		return err
	}
	_, err := s.conn.Subscribe(topic, cb)
	return err
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}
