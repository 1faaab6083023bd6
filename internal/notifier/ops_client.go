package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"wisefido-emergency/internal/config"
	"wisefido-emergency/internal/models"
)

// OpsClient 118 中央调度台 HTTP 客户端。
// 上报新发起的急救呼叫，供区域调度中心掌握院前态势。
type OpsClient struct {
	client *resty.Client
	logger *zap.Logger
}

// NewOpsClient 创建 118 调度台客户端
func NewOpsClient(cfg *config.Config, logger *zap.Logger) *OpsClient {
	client := resty.New().
		SetBaseURL(cfg.EmergencyOps.BaseURL).
		SetTimeout(time.Duration(cfg.EmergencyOps.TimeoutSeconds) * time.Second).
		SetRetryCount(2).
		SetHeader("Content-Type", "application/json")

	return &OpsClient{
		client: client,
		logger: logger,
	}
}

// ReportCall 上报急救呼叫到 118 调度台
func (c *OpsClient) ReportCall(ctx context.Context, call *models.EmergencyCall) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(call).
		Post("/api/v1/emergency-calls")
	if err != nil {
		return fmt.Errorf("failed to report call to 118 operations: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("118 operations rejected call report: status=%d", resp.StatusCode())
	}

	c.logger.Debug("Call reported to 118 operations",
		zap.String("call_id", call.ID),
		zap.Int("status", resp.StatusCode()),
	)
	return nil
}
