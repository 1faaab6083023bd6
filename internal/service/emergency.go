package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"wisefido-emergency/internal/cache"
	"wisefido-emergency/internal/config"
	"wisefido-emergency/internal/dispatch"
	"wisefido-emergency/internal/fleet"
	"wisefido-emergency/internal/models"
	"wisefido-emergency/internal/notifier"
	"wisefido-emergency/internal/platform"
	"wisefido-emergency/internal/repository"
	"wisefido-emergency/internal/stats"
	"wisefido-emergency/internal/store"
	"wisefido-emergency/internal/triage"
)

// EmergencyService 急救调度服务（整合各层）
type EmergencyService struct {
	config      *config.Config
	db          *sql.DB
	redisClient *redis.Client
	mqttClient  *platform.MQTTClient
	logger      *zap.Logger

	// 各层组件
	classifier      *triage.Classifier
	decisionSupport *triage.DecisionSupport
	fleetRegistry   *fleet.Registry
	callStore       *store.CallStore
	dispatchStore   *store.DispatchStore
	sessionStore    *store.SessionStore
	coordinator     *dispatch.Coordinator
	tracker         *dispatch.TripTracker
	aggregator      *stats.Aggregator
	trackingCache   *cache.TrackingCache
	streamSink      *notifier.StreamSink
	sessionsRepo    *repository.TriageSessionsRepository
	callsRepo       *repository.EmergencyCallsRepository
	dispatchesRepo  *repository.DispatchesRepository
	patientsRepo    *repository.PatientsRepository
}

// dbRecorder 把呼叫/调度仓库组合成协调器的写穿接口
type dbRecorder struct {
	calls      *repository.EmergencyCallsRepository
	dispatches *repository.DispatchesRepository
}

func (r *dbRecorder) SaveCall(ctx context.Context, call *models.EmergencyCall) error {
	return r.calls.SaveCall(ctx, call)
}

func (r *dbRecorder) SaveDispatch(ctx context.Context, d *models.Dispatch) error {
	return r.dispatches.SaveDispatch(ctx, d)
}

// NewEmergencyService 创建急救调度服务
func NewEmergencyService(cfg *config.Config, logger *zap.Logger) (*EmergencyService, error) {
	// 1. 连接数据库
	db, err := platform.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 2. 连接 Redis
	redisClient := platform.NewRedisClient(&cfg.Redis)
	if err := platform.PingRedis(context.Background(), redisClient); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 3. 连接 MQTT（未配置 broker 时跳过，机组摘要通道禁用）
	var mqttClient *platform.MQTTClient
	var crewMessenger dispatch.CrewMessenger
	if cfg.MQTT.Broker != "" {
		mqttClient, err = platform.NewMQTTClient(&cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("failed to connect mqtt: %w", err)
		}
		crewMessenger = notifier.NewMQTTCrewMessenger(mqttClient, logger)
	} else {
		logger.Warn("MQTT broker not configured, crew mission briefs disabled")
	}

	// 4. 创建 Repository 层
	sessionsRepo := repository.NewTriageSessionsRepository(db, logger)
	callsRepo := repository.NewEmergencyCallsRepository(db, logger)
	dispatchesRepo := repository.NewDispatchesRepository(db, logger)
	patientsRepo := repository.NewPatientsRepository(db, logger)

	// 5. 创建内存仲裁层（车队 + 呼叫/调度/会话存储）
	fleetRegistry := fleet.NewRegistry(logger)
	callStore := store.NewCallStore()
	dispatchStore := store.NewDispatchStore()
	sessionStore := store.NewSessionStore()

	// 6. 创建通知与缓存层
	streamSink := notifier.NewStreamSink(redisClient, cfg, logger)
	trackingCache := cache.NewTrackingCache(redisClient, cfg, logger)

	// 7. 118 调度台客户端（未配置 URL 时禁用上报）
	var opsGateway dispatch.OpsGateway
	if cfg.EmergencyOps.BaseURL != "" {
		opsGateway = notifier.NewOpsClient(cfg, logger)
	} else {
		logger.Warn("Emergency ops URL not configured, 118 reporting disabled")
	}

	// 8. 创建分诊与调度核心
	classifier := triage.NewClassifier(triage.NewRiskScorer(triage.MeanVectorPredictor{}), logger)
	decisionSupport := triage.NewDecisionSupport(logger)

	coordinator := dispatch.NewCoordinator(
		cfg,
		fleetRegistry,
		callStore,
		dispatchStore,
		streamSink,
		crewMessenger,
		opsGateway,
		&dbRecorder{calls: callsRepo, dispatches: dispatchesRepo},
		logger,
	)
	tracker := dispatch.NewTripTracker(dispatchStore, trackingCache, logger)
	aggregator := stats.NewAggregator(callStore, dispatchStore, fleetRegistry, logger)

	return &EmergencyService{
		config:          cfg,
		db:              db,
		redisClient:     redisClient,
		mqttClient:      mqttClient,
		logger:          logger,
		classifier:      classifier,
		decisionSupport: decisionSupport,
		fleetRegistry:   fleetRegistry,
		callStore:       callStore,
		dispatchStore:   dispatchStore,
		sessionStore:    sessionStore,
		coordinator:     coordinator,
		tracker:         tracker,
		aggregator:      aggregator,
		trackingCache:   trackingCache,
		streamSink:      streamSink,
		sessionsRepo:    sessionsRepo,
		callsRepo:       callsRepo,
		dispatchesRepo:  dispatchesRepo,
		patientsRepo:    patientsRepo,
	}, nil
}

// ============================================
// 分诊操作
// ============================================

// TriageResult 分诊结果：会话 + 红色等级自动发起的急救呼叫（可能为空）
type TriageResult struct {
	Session       *models.TriageSession `json:"session"`
	EmergencyCall *models.EmergencyCall `json:"emergency_call,omitempty"`
}

// PerformTriage 执行分诊：
// 合并患者目录中的慢性病史，分类后追加到会话日志并落地；
// 需要立即处理的等级推送医生通知，红色且有定位时自动发起急救呼叫。
func (s *EmergencyService) PerformTriage(
	ctx context.Context,
	patientID string,
	symptoms []string,
	vitals models.VitalSigns,
	history []string,
	location *models.GeoPoint,
) (*TriageResult, error) {
	patient := s.lookupPatient(ctx, patientID)
	mergedHistory := mergeHistory(history, patient)

	session := s.classifier.PerformTriage(patientID, symptoms, vitals, mergedHistory)

	s.sessionStore.Append(session)
	if err := s.sessionsRepo.SaveSession(ctx, session); err != nil {
		s.logger.Warn("Failed to persist triage session",
			zap.String("session_id", session.SessionID),
			zap.Error(err),
		)
	}

	if session.RequiresImmediateAction {
		s.notifyDoctorsOfTriage(ctx, session, patient)
	}

	result := &TriageResult{Session: session}

	// 红色等级且有定位：自动发起急救呼叫
	if session.TriageLevel == models.CodiceRosso && location != nil {
		call, err := s.coordinator.InitiateCall(ctx, patientID, *location, dominantEmergencyType(symptoms), session.TriageLevel, patient)
		if err != nil {
			s.logger.Error("Auto-initiated emergency call failed",
				zap.String("session_id", session.SessionID),
				zap.Error(err),
			)
		} else {
			result.EmergencyCall = call
		}
	}

	return result, nil
}

// EvaluateClinicalDecision 临床决策支持评估
func (s *EmergencyService) EvaluateClinicalDecision(patientID, diagnosis string, vitals models.VitalSigns, labs *models.LabResults) *models.ClinicalDecision {
	return s.decisionSupport.Evaluate(patientID, diagnosis, vitals, labs)
}

// GetTriageSession 获取分诊会话：优先取会话日志，未命中回源数据库
func (s *EmergencyService) GetTriageSession(ctx context.Context, sessionID string) (*models.TriageSession, error) {
	session, err := s.sessionStore.Get(sessionID)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, models.ErrSessionNotFound) {
		return nil, err
	}
	return s.sessionsRepo.GetSession(ctx, sessionID)
}

// ============================================
// 急救调度操作（委托协调器）
// ============================================

// InitiateEmergencyCall 发起急救呼叫
func (s *EmergencyService) InitiateEmergencyCall(
	ctx context.Context,
	patientID string,
	location models.GeoPoint,
	emergencyType string,
	triageLevel models.TriageLevel,
) (*models.EmergencyCall, error) {
	return s.coordinator.InitiateCall(ctx, patientID, location, emergencyType, triageLevel, s.lookupPatient(ctx, patientID))
}

// DispatchAmbulance 为呼叫分配救护车
func (s *EmergencyService) DispatchAmbulance(ctx context.Context, callID string) (*models.Dispatch, error) {
	return s.coordinator.DispatchAmbulance(ctx, callID)
}

// UpdateDispatchStatus 更新调度状态
func (s *EmergencyService) UpdateDispatchStatus(ctx context.Context, dispatchID string, status models.DispatchStatus, clinical *models.ClinicalUpdate) (*models.Dispatch, error) {
	return s.coordinator.UpdateStatus(ctx, dispatchID, status, clinical)
}

// CompleteMission 完成调度任务
func (s *EmergencyService) CompleteMission(ctx context.Context, dispatchID string, outcome models.MissionOutcome) (*models.Dispatch, error) {
	return s.coordinator.CompleteMission(ctx, dispatchID, outcome)
}

// TrackTrip 查询行程进度
func (s *EmergencyService) TrackTrip(ctx context.Context, dispatchID string) (*models.TripProgress, error) {
	return s.tracker.Track(ctx, dispatchID)
}

// GetFleet 车队快照
func (s *EmergencyService) GetFleet() []models.Ambulance {
	return s.fleetRegistry.Snapshot()
}

// GetStatistics 运营统计（datePrefix 为空取全部）
func (s *EmergencyService) GetStatistics(datePrefix string) *models.EmergencyStatistics {
	return s.aggregator.GetStatistics(datePrefix)
}

// ============================================
// 生命周期
// ============================================

// Start 启动服务（车队快照定期刷新到 Redis）
func (s *EmergencyService) Start(ctx context.Context) error {
	s.logger.Info("Starting emergency service")

	interval := time.Duration(s.config.Dispatch.FleetSnapshotInterval) * time.Second
	go s.refreshFleetSnapshot(ctx, interval)

	return nil
}

// Stop 停止服务
func (s *EmergencyService) Stop() error {
	s.logger.Info("Stopping emergency service")

	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database",
			zap.Error(err),
		)
	}
	if err := s.redisClient.Close(); err != nil {
		s.logger.Error("Failed to close redis",
			zap.Error(err),
		)
	}

	return nil
}

// refreshFleetSnapshot 周期性把车队快照写入 Redis（轮询直到上下文取消）
func (s *EmergencyService) refreshFleetSnapshot(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Fleet snapshot refresher stopped")
			return
		case <-ticker.C:
			if err := s.trackingCache.SetFleetSnapshot(ctx, s.fleetRegistry.Snapshot()); err != nil {
				s.logger.Warn("Failed to refresh fleet snapshot",
					zap.Error(err),
				)
			}
		}
	}
}

// ============================================
// 内部辅助
// ============================================

// lookupPatient 查询患者目录，未命中或出错返回 nil（呼叫以占位姓名继续）
func (s *EmergencyService) lookupPatient(ctx context.Context, patientID string) *models.PatientSnapshot {
	patient, err := s.patientsRepo.GetPatient(ctx, patientID)
	if err != nil {
		if !errors.Is(err, models.ErrPatientNotFound) {
			s.logger.Warn("Patient directory lookup failed",
				zap.String("patient_id", patientID),
				zap.Error(err),
			)
		}
		return nil
	}
	return patient
}

func (s *EmergencyService) notifyDoctorsOfTriage(ctx context.Context, session *models.TriageSession, patient *models.PatientSnapshot) {
	event := models.NotificationEvent{
		Type:      "triage_immediate_action",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"session_id":   session.SessionID,
			"patient_id":   session.PatientID,
			"patient_name": patient.FullName(),
			"triage_level": string(session.TriageLevel),
			"risk_score":   session.RiskScore,
		},
	}
	if err := s.streamSink.NotifyDoctors(ctx, event); err != nil {
		s.logger.Warn("Failed to notify doctors of triage",
			zap.String("session_id", session.SessionID),
			zap.Error(err),
		)
	}
}

// mergeHistory 合并调用方提供的病史和患者目录中的慢性病（去重，保持顺序）
func mergeHistory(history []string, patient *models.PatientSnapshot) []string {
	if patient == nil || len(patient.ChronicConditions) == 0 {
		return history
	}

	seen := make(map[string]bool, len(history))
	merged := append([]string(nil), history...)
	for _, h := range history {
		seen[h] = true
	}
	for _, c := range patient.ChronicConditions {
		if !seen[c] {
			seen[c] = true
			merged = append(merged, c)
		}
	}
	return merged
}

// dominantEmergencyType 从症状推断呼叫类型（自动发起呼叫时使用）
func dominantEmergencyType(symptoms []string) string {
	for _, s := range symptoms {
		switch s {
		case "chest_pain", "palpitations":
			return "CARDIAC_ARREST"
		case "difficulty_breathing":
			return "RESPIRATORY_FAILURE"
		case "seizure":
			return "CONVULSIONS"
		case "severe_bleeding":
			return "SEVERE_TRAUMA"
		case "loss_of_consciousness", "severe_headache":
			return "STROKE"
		}
	}
	return "GENERIC_EMERGENCY"
}
