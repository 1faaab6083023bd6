package platform

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"wisefido-emergency/internal/config"
)

// MQTTClient MQTT客户端封装（救护车车载终端通道）
type MQTTClient struct {
	client mqtt.Client
	config *config.MQTTConfig
}

// NewMQTTClient 创建MQTT客户端并建立连接
func NewMQTTClient(cfg *config.MQTTConfig) (*MQTTClient, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &MQTTClient{
		client: client,
		config: cfg,
	}, nil
}

// Publish 发布消息
func (c *MQTTClient) Publish(topic string, payload []byte) error {
	token := c.client.Publish(topic, c.config.QoS, false, payload)
	token.Wait()

	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}
	return nil
}

// IsConnected 检查连接状态
func (c *MQTTClient) IsConnected() bool {
	return c.client.IsConnected()
}

// Disconnect 断开连接
func (c *MQTTClient) Disconnect() {
	c.client.Disconnect(250)
}
