package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wagslane/go-rabbitmq"
)

func mqURL(mq MQConfig) string {
	return fmt.Sprintf("amqps://%s:%s@%s:%d/%s", mq.User, mq.Password, mq.Host, mq.Port, mq.VHost)
}

func tlsConfig() *tls.Config {
	rootCAs, _ := x509.SystemCertPool()
	return &tls.Config{
		RootCAs:    rootCAs,
		MinVersion: tls.VersionTLS12,
	}
}

// RabbitConn returns a managed connection with automatic reconnection.
func RabbitConn(mq MQConfig) (*rabbitmq.Conn, error) {
	conn, err := rabbitmq.NewConn(
		mqURL(mq),
		rabbitmq.WithConnectionOptionsConfig(rabbitmq.Config{
			TLSClientConfig: tlsConfig(),
			Heartbeat:       2 * time.Second,
			Locale:          "en_US",
			Dial:            amqp.DefaultDial(30 * time.Second),
		}),
		rabbitmq.WithConnectionOptionsLogging,
		rabbitmq.WithConnectionOptionsReconnectInterval(5*time.Second),
	)
	return conn, err
}

// RabbitPublisher builds a confirming publisher on the managed connection.
func RabbitPublisher(conn *rabbitmq.Conn) (*rabbitmq.Publisher, error) {
	return rabbitmq.NewPublisher(
		conn,
		rabbitmq.WithPublisherOptionsLogging,
		rabbitmq.WithPublisherOptionsConfirm,
	)
}
