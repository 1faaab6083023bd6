package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"wisefido-emergency/internal/models"
	"wisefido-emergency/internal/platform"
)

// crewTopicFormat 车载终端任务主题，按救护车ID路由
const crewTopicFormat = "emergency/ambulance/%s/mission"

// MQTTCrewMessenger 通过 MQTT 向救护车车载终端下发任务摘要
type MQTTCrewMessenger struct {
	client *platform.MQTTClient
	logger *zap.Logger
}

// NewMQTTCrewMessenger 创建机组消息通道
func NewMQTTCrewMessenger(client *platform.MQTTClient, logger *zap.Logger) *MQTTCrewMessenger {
	return &MQTTCrewMessenger{
		client: client,
		logger: logger,
	}
}

// SendMissionBrief 下发任务摘要到指定救护车的任务主题
func (m *MQTTCrewMessenger) SendMissionBrief(_ context.Context, ambulanceID string, brief models.MissionBrief) error {
	if !m.client.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	payload, err := json.Marshal(brief)
	if err != nil {
		return fmt.Errorf("failed to marshal mission brief: %w", err)
	}

	topic := fmt.Sprintf(crewTopicFormat, ambulanceID)
	if err := m.client.Publish(topic, payload); err != nil {
		return fmt.Errorf("failed to send mission brief: %w", err)
	}

	m.logger.Debug("Mission brief sent",
		zap.String("topic", topic),
		zap.String("dispatch_id", brief.DispatchID),
	)
	return nil
}
