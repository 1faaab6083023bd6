package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"wisefido-emergency/internal/config"
	"wisefido-emergency/internal/models"
)

// StreamSink 基于 Redis Streams 的通知接收器。
// 医生/患者/急救运营各占一条流，下游消费端（值班看板、患者 App 推送网关、
// 运营中心）各自以消费组读取。事件序列化为 JSON 后写入 payload 字段。
type StreamSink struct {
	client *redis.Client
	config *config.Config
	logger *zap.Logger
}

// NewStreamSink 创建通知接收器
func NewStreamSink(client *redis.Client, cfg *config.Config, logger *zap.Logger) *StreamSink {
	return &StreamSink{
		client: client,
		config: cfg,
		logger: logger,
	}
}

// NotifyDoctors 推送事件到医生通知流
func (s *StreamSink) NotifyDoctors(ctx context.Context, event models.NotificationEvent) error {
	return s.publish(ctx, s.config.Dispatch.Streams.Doctors, event, nil)
}

// NotifyPatient 推送事件到患者通知流（附带目标患者ID供下游路由）
func (s *StreamSink) NotifyPatient(ctx context.Context, patientID string, event models.NotificationEvent) error {
	return s.publish(ctx, s.config.Dispatch.Streams.Patients, event, map[string]interface{}{
		"patient_id": patientID,
	})
}

// NotifyEmergencyOps 推送事件到急救运营通知流
func (s *StreamSink) NotifyEmergencyOps(ctx context.Context, event models.NotificationEvent) error {
	return s.publish(ctx, s.config.Dispatch.Streams.Ops, event, nil)
}

func (s *StreamSink) publish(ctx context.Context, stream string, event models.NotificationEvent, extra map[string]interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	values := map[string]interface{}{
		"type":    event.Type,
		"payload": string(payload),
	}
	for k, v := range extra {
		values[k] = v
	}

	if err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", stream, err)
	}

	s.logger.Debug("Notification published",
		zap.String("stream", stream),
		zap.String("type", event.Type),
	)
	return nil
}
