package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	qos            = 1
	publishTimeout = 10 * time.Second
)

type MQTTConfig struct {
	Broker   string
	ClientID string
	Topic    string
}

// MQTTClient adapts a paho client to Publisher and feeds subscribed
// messages to a Worker.
type MQTTClient struct {
	client mqtt.Client
	cfg    MQTTConfig
	logger *slog.Logger
}

func NewMQTTClient(cfg MQTTConfig, logger *slog.Logger) *MQTTClient {
	return &MQTTClient{cfg: cfg, logger: logger}
}

func (c *MQTTClient) Publish(topic string, payload []byte) error {
	token := c.client.Publish(topic, qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timed out", topic)
	}
	return token.Error()
}

// Run connects, subscribes to the request topic and serves requests until
// ctx is canceled. The subscription is restored on every reconnect.
func (c *MQTTClient) Run(ctx context.Context, w *Worker) error {
	opts := mqtt.NewClientOptions().AddBroker(c.cfg.Broker).SetClientID(c.cfg.ClientID)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(5 * time.Second)
	opts.SetConnectTimeout(30 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(false)
	opts.SetOrderMatters(false)

	opts.OnConnect = func(client mqtt.Client) {
		c.logger.Info("connected to mqtt", slog.String("broker", c.cfg.Broker))
		token := client.Subscribe(c.cfg.Topic, qos, func(_ mqtt.Client, m mqtt.Message) {
			w.Dispatch(ctx, m.Payload())
		})
		if token.Wait() && token.Error() != nil {
			c.logger.Error("subscribe failed",
				slog.String("topic", c.cfg.Topic),
				slog.String("error", token.Error().Error()),
			)
			return
		}
		c.logger.Info("subscribed", slog.String("topic", c.cfg.Topic))
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		c.logger.Warn("mqtt connection lost", slog.String("error", err.Error()))
	}

	c.client = mqtt.NewClient(opts)
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect to mqtt %s: %w", c.cfg.Broker, token.Error())
	}

	<-ctx.Done()

	c.client.Unsubscribe(c.cfg.Topic).WaitTimeout(publishTimeout)
	w.Wait()
	c.client.Disconnect(250)
	c.logger.Info("mqtt worker stopped")

	return nil
}
