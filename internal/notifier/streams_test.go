package notifier

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wisefido-emergency/internal/config"
	"wisefido-emergency/internal/models"
)

func setupStreamSink(t *testing.T) (*StreamSink, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{}
	cfg.Dispatch.Streams.Doctors = "emergency:notify:doctors"
	cfg.Dispatch.Streams.Patients = "emergency:notify:patients"
	cfg.Dispatch.Streams.Ops = "emergency:notify:ops"

	return NewStreamSink(client, cfg, zap.NewNop()), client
}

func TestNotifyDoctors_PublishesToStream(t *testing.T) {
	sink, client := setupStreamSink(t)

	event := models.NotificationEvent{
		Type:      "red_code_triage",
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"patient_id": "PAT-001"},
	}
	require.NoError(t, sink.NotifyDoctors(context.Background(), event))

	entries, err := client.XRange(context.Background(), "emergency:notify:doctors", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "red_code_triage", entries[0].Values["type"])

	var decoded models.NotificationEvent
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["payload"].(string)), &decoded))
	assert.Equal(t, "PAT-001", decoded.Data["patient_id"])
}

func TestNotifyPatient_CarriesPatientID(t *testing.T) {
	sink, client := setupStreamSink(t)

	event := models.NotificationEvent{Type: "ambulance_dispatched", Timestamp: time.Now()}
	require.NoError(t, sink.NotifyPatient(context.Background(), "PAT-007", event))

	entries, err := client.XRange(context.Background(), "emergency:notify:patients", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "PAT-007", entries[0].Values["patient_id"])
}

func TestNotifyEmergencyOps_PublishesToOpsStream(t *testing.T) {
	sink, client := setupStreamSink(t)

	event := models.NotificationEvent{Type: "hospital_incoming", Timestamp: time.Now()}
	require.NoError(t, sink.NotifyEmergencyOps(context.Background(), event))

	entries, err := client.XRange(context.Background(), "emergency:notify:ops", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
