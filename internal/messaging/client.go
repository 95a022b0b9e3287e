// Package messaging bridges the engine to an MQTT or Kafka broker.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	kafkago "github.com/segmentio/kafka-go"
)

// Supported backends.
const (
	BackendMQTT  = "mqtt"
	BackendKafka = "kafka"
)

// Default topic names.
const (
	DefaultCommandTopic = "fleetview/commands"
	DefaultStateTopic   = "fleetview/state"
)

// ErrNotConnected is returned when publishing or subscribing before Connect.
var ErrNotConnected = errors.New("messaging not connected")

// Settings selects a backend and its topics.
type Settings struct {
	Backend      string
	MQTTBroker   string
	ClientID     string
	KafkaBrokers []string
	CommandTopic string
	StateTopic   string
}

// SettingsFromEnv reads MESSAGING_BACKEND, MQTT_BROKER, KAFKA_BROKERS,
// FLEET_COMMAND_TOPIC and FLEET_STATE_TOPIC. An empty Backend disables messaging.
func SettingsFromEnv(clientID string) Settings {
	s := Settings{
		Backend:      strings.ToLower(strings.TrimSpace(os.Getenv("MESSAGING_BACKEND"))),
		MQTTBroker:   os.Getenv("MQTT_BROKER"),
		ClientID:     clientID,
		CommandTopic: os.Getenv("FLEET_COMMAND_TOPIC"),
		StateTopic:   os.Getenv("FLEET_STATE_TOPIC"),
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				s.KafkaBrokers = append(s.KafkaBrokers, b)
			}
		}
	}
	return s.withDefaults()
}

func (s Settings) withDefaults() Settings {
	if s.MQTTBroker == "" {
		s.MQTTBroker = "tcp://localhost:1883"
	} else if !strings.Contains(s.MQTTBroker, "://") {
		s.MQTTBroker = "tcp://" + s.MQTTBroker
	}
	if len(s.KafkaBrokers) == 0 {
		s.KafkaBrokers = []string{"localhost:9092"}
	}
	if s.ClientID == "" {
		s.ClientID = "fleetview-sim"
	}
	if s.CommandTopic == "" {
		s.CommandTopic = DefaultCommandTopic
	}
	if s.StateTopic == "" {
		s.StateTopic = DefaultStateTopic
	}
	return s
}

// Enabled reports whether a backend was selected.
func (s Settings) Enabled() bool { return s.Backend != "" }

// Transport is what the bridge needs from a broker connection.
type Transport interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string, handler func(payload []byte)) error
	Close()
}

// Client is the unified messaging client (MQTT or Kafka).
type Client struct {
	mu       sync.RWMutex
	cfg      Settings
	log      *slog.Logger
	mqttConn mqtt.Client
	kafkaW   *kafkago.Writer
	kafkaR   *kafkago.Reader
}

// NewClient creates a messaging client based on settings.
func NewClient(cfg Settings, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{cfg: cfg.withDefaults(), log: log}
}

// Connect establishes the messaging connection.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.cfg.Backend {
	case BackendMQTT:
		return c.connectMQTT()
	case BackendKafka:
		return c.connectKafka()
	default:
		return fmt.Errorf("unknown messaging backend: %q", c.cfg.Backend)
	}
}

func (c *Client) connectMQTT() error {
	opts := mqtt.NewClientOptions().
		AddBroker(c.cfg.MQTTBroker).
		SetClientID(c.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	c.mqttConn = client
	return nil
}

func (c *Client) connectKafka() error {
	c.kafkaW = &kafkago.Writer{
		Addr:                   kafkago.TCP(c.cfg.KafkaBrokers...),
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return nil
}

// Publish sends a message to topic.
func (c *Client) Publish(topic string, payload []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch c.cfg.Backend {
	case BackendMQTT:
		if c.mqttConn == nil || !c.mqttConn.IsConnected() {
			return ErrNotConnected
		}
		token := c.mqttConn.Publish(topic, 1, false, payload)
		token.Wait()
		return token.Error()
	case BackendKafka:
		if c.kafkaW == nil {
			return ErrNotConnected
		}
		return c.kafkaW.WriteMessages(context.Background(), kafkago.Message{
			Topic: topic,
			Value: payload,
		})
	default:
		return fmt.Errorf("unknown backend: %q", c.cfg.Backend)
	}
}

// Subscribe registers a handler for messages on topic.
func (c *Client) Subscribe(topic string, handler func(payload []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.cfg.Backend {
	case BackendMQTT:
		if c.mqttConn == nil {
			return ErrNotConnected
		}
		token := c.mqttConn.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
			handler(msg.Payload())
		})
		token.Wait()
		return token.Error()
	case BackendKafka:
		c.kafkaR = kafkago.NewReader(kafkago.ReaderConfig{
			Brokers: c.cfg.KafkaBrokers,
			Topic:   topic,
			GroupID: c.cfg.ClientID, // reuse client ID as consumer group
		})
		r := c.kafkaR
		go func() {
			for {
				msg, err := r.ReadMessage(context.Background())
				if err != nil {
					c.log.Warn("kafka read stopped", "topic", topic, "err", err)
					return
				}
				handler(msg.Value)
			}
		}()
		return nil
	default:
		return fmt.Errorf("unknown backend: %q", c.cfg.Backend)
	}
}

// IsConnected returns whether the messaging client is connected.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch c.cfg.Backend {
	case BackendMQTT:
		return c.mqttConn != nil && c.mqttConn.IsConnected()
	case BackendKafka:
		return c.kafkaW != nil
	default:
		return false
	}
}

// Close shuts down the messaging connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mqttConn != nil {
		c.mqttConn.Disconnect(1000)
		c.mqttConn = nil
	}
	if c.kafkaW != nil {
		c.kafkaW.Close()
		c.kafkaW = nil
	}
	if c.kafkaR != nil {
		c.kafkaR.Close()
		c.kafkaR = nil
	}
}
