package mqtt

import (
	"fmt"
	"sync"
	"time"

	"EnviroMonitorAPI/internal/config"
	"EnviroMonitorAPI/internal/logger"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

type Client struct {
	client    mqtt.Client
	cfg       *config.MQTTConfig
	log       *logger.Logger
	handlers  map[string]MessageHandler
	mu        sync.RWMutex
	connected bool
}

type MessageHandler func(topic string, payload []byte) error

type ClientConfig struct {
	MQTT   *config.MQTTConfig
	Logger *logger.Logger
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	c := &Client{
		cfg:      cfg.MQTT,
		log:      cfg.Logger,
		handlers: make(map[string]MessageHandler),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Broker, cfg.MQTT.Port))
	// Unique client id per instance so two backends never evict each other.
	opts.SetClientID(fmt.Sprintf("%s-%s", cfg.MQTT.ClientID, uuid.NewString()[:8]))
	opts.SetKeepAlive(cfg.MQTT.KeepAlive)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(cfg.MQTT.ConnectTimeout)
	opts.SetAutoReconnect(cfg.MQTT.AutoReconnect)
	opts.SetCleanSession(true)

	if cfg.MQTT.Username != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}

	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.client = mqtt.NewClient(opts)

	return c, nil
}

func (c *Client) Connect() error {
	c.log.Info("Connecting to MQTT broker: %s:%d", c.cfg.Broker, c.cfg.Port)

	token := c.client.Connect()
	if !token.WaitTimeout(c.cfg.ConnectTimeout) {
		return fmt.Errorf("connection timeout after %v", c.cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	c.log.Info("Successfully connected to MQTT broker")
	return nil
}

func (c *Client) Disconnect() error {
	c.log.Info("Disconnecting from MQTT broker")

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	c.client.Disconnect(250)
	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.client.IsConnected()
}

func (c *Client) Subscribe(topic string, handler MessageHandler) error {
	if !c.IsConnected() {
		return fmt.Errorf("not connected to broker")
	}

	c.mu.Lock()
	c.handlers[topic] = handler
	c.mu.Unlock()

	token := c.client.Subscribe(topic, c.cfg.QoS, func(client mqtt.Client, msg mqtt.Message) {
		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			c.log.Error("Handler failed for topic %s: %v", msg.Topic(), err)
		}
	})

	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic: %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe failed for topic %s: %w", topic, err)
	}

	c.log.Info("Subscribed to topic: %s (QoS %d)", topic, c.cfg.QoS)
	return nil
}

func (c *Client) Publish(topic string, payload []byte) error {
	if !c.IsConnected() {
		return fmt.Errorf("not connected to broker")
	}

	token := c.client.Publish(topic, c.cfg.QoS, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout for topic: %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish failed for topic %s: %w", topic, err)
	}
	return nil
}

func (c *Client) onConnect(client mqtt.Client) {
	c.log.Info("MQTT connection established")

	// Re-subscribe after a reconnect; paho drops subscriptions on clean
	// sessions.
	c.mu.RLock()
	defer c.mu.RUnlock()
	for topic, handler := range c.handlers {
		h := handler
		token := client.Subscribe(topic, c.cfg.QoS, func(client mqtt.Client, msg mqtt.Message) {
			if err := h(msg.Topic(), msg.Payload()); err != nil {
				c.log.Error("Handler failed for topic %s: %v", msg.Topic(), err)
			}
		})
		if token.WaitTimeout(5*time.Second) && token.Error() == nil {
			c.log.Debug("Re-subscribed to topic: %s", topic)
		}
	}
}

func (c *Client) onConnectionLost(client mqtt.Client, err error) {
	c.log.Warn("MQTT connection lost: %v", err)
}
