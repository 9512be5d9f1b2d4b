package config

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

type AMQPClient struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
}

func DialAMQP(url string) (*AMQPClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &AMQPClient{Conn: conn, Channel: ch}, nil
}

func (c *AMQPClient) Close() {
	if c == nil {
		return
	}
	if c.Channel != nil {
		_ = c.Channel.Close()
	}
	if c.Conn != nil {
		_ = c.Conn.Close()
	}
}
