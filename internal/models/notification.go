package models

import "time"

// NotificationEvent 通知事件（推送给医生/患者/急救运营通道的结构化载荷）
type NotificationEvent struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}
