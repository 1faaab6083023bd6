package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wisefido-emergency/internal/config"
	"wisefido-emergency/internal/fleet"
	"wisefido-emergency/internal/models"
	"wisefido-emergency/internal/store"
)

// Sink 通知接收器（医生/患者/急救运营通道）。
// 尽力而为推送：投递失败不得影响触发它的状态变更。
type Sink interface {
	NotifyDoctors(ctx context.Context, event models.NotificationEvent) error
	NotifyPatient(ctx context.Context, patientID string, event models.NotificationEvent) error
	NotifyEmergencyOps(ctx context.Context, event models.NotificationEvent) error
}

// CrewMessenger 救护车机组消息通道（患者摘要下发到车载终端）
type CrewMessenger interface {
	SendMissionBrief(ctx context.Context, ambulanceID string, brief models.MissionBrief) error
}

// OpsGateway 118 中央调度台上报通道
type OpsGateway interface {
	ReportCall(ctx context.Context, call *models.EmergencyCall) error
}

// Recorder 呼叫/调度记录持久化（写穿，尽力而为）
type Recorder interface {
	SaveCall(ctx context.Context, call *models.EmergencyCall) error
	SaveDispatch(ctx context.Context, d *models.Dispatch) error
}

// ambulanceStatusMapping 调度状态 → 救护车状态（固定查表）
var ambulanceStatusMapping = map[models.DispatchStatus]models.AmbulanceStatus{
	models.DispatchDispatched:        models.AmbulanceEnRoute,
	models.DispatchArrivedAtPatient:  models.AmbulanceOnScene,
	models.DispatchPatientOnBoard:    models.AmbulanceTransporting,
	models.DispatchArrivedAtHospital: models.AmbulanceAtHospital,
	models.DispatchCompleted:         models.AmbulanceAvailable,
}

// Coordinator 调度协调器：驱动呼叫与调度状态机，独占变更车队状态。
// 所有变更操作在各实体存储的锁作用域内原子执行；
// sink/crew/ops/recorder 均可为 nil（测试或部分部署场景）。
type Coordinator struct {
	config     *config.Config
	fleet      *fleet.Registry
	calls      *store.CallStore
	dispatches *store.DispatchStore
	hospitals  []models.Hospital
	sink       Sink
	crew       CrewMessenger
	ops        OpsGateway
	recorder   Recorder
	logger     *zap.Logger
	now        func() time.Time
}

// NewCoordinator 创建调度协调器
func NewCoordinator(
	cfg *config.Config,
	fleetRegistry *fleet.Registry,
	calls *store.CallStore,
	dispatches *store.DispatchStore,
	sink Sink,
	crew CrewMessenger,
	ops OpsGateway,
	recorder Recorder,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		config:     cfg,
		fleet:      fleetRegistry,
		calls:      calls,
		dispatches: dispatches,
		hospitals:  DefaultHospitals(),
		sink:       sink,
		crew:       crew,
		ops:        ops,
		recorder:   recorder,
		logger:     logger,
		now:        time.Now,
	}
}

// InitiateCall 发起急救呼叫：
// 计算最近医院、推导所需资源、创建呼叫并上报 118 调度台；
// 红色等级立即触发自动调度。
func (c *Coordinator) InitiateCall(
	ctx context.Context,
	patientID string,
	location models.GeoPoint,
	emergencyType string,
	triageLevel models.TriageLevel,
	patient *models.PatientSnapshot,
) (*models.EmergencyCall, error) {
	if !triageLevel.Valid() {
		return nil, fmt.Errorf("%w: unknown triage level %q", models.ErrInvalidTriageInput, triageLevel)
	}

	now := c.now()
	callID := fmt.Sprintf("EMS-%s-%s", now.Format("20060102"), uuid.New().String()[:8])

	call := &models.EmergencyCall{
		ID:              callID,
		PatientID:       patientID,
		PatientName:     patient.FullName(),
		EmergencyType:   emergencyType,
		TriageLevel:     triageLevel,
		Location:        location,
		NearestHospital: NearestHospital(c.hospitals, location),
		ResourcesNeeded: RequiredResources(emergencyType, triageLevel),
		Status:          models.CallInitiated,
		Timestamp:       now,
		History: []models.CallEvent{
			{Action: "call_initiated", Timestamp: now},
		},
	}
	if patient != nil {
		call.PatientCF = patient.CodiceFiscale
	}

	c.calls.Append(call)

	c.logger.Info("Emergency call initiated",
		zap.String("call_id", callID),
		zap.String("patient_id", patientID),
		zap.String("emergency_type", emergencyType),
		zap.String("triage_level", string(triageLevel)),
		zap.String("nearest_hospital", call.NearestHospital.ID),
	)

	c.reportToOps(ctx, call)

	// 红色代码立即自动调度
	if triageLevel == models.CodiceRosso {
		if _, err := c.DispatchAmbulance(ctx, callID); err != nil {
			c.logger.Error("Auto-dispatch for red code failed",
				zap.String("call_id", callID),
				zap.Error(err),
			)
		}
	}

	updated, err := c.calls.Get(callID)
	if err != nil {
		return nil, err
	}
	c.persistCall(ctx, updated)
	return updated, nil
}

// DispatchAmbulance 为呼叫分配救护车：
// 选择距呼叫位置最近的可用车辆（haversine），车队耗尽时降级为全车队选择；
// 计算 ETA，创建调度，抢占车辆并下发机组摘要。
func (c *Coordinator) DispatchAmbulance(ctx context.Context, callID string) (*models.Dispatch, error) {
	call, err := c.calls.Get(callID)
	if err != nil {
		return nil, err
	}

	now := c.now()
	dispatchID := fmt.Sprintf("DSP-%s-%s", now.Format("20060102"), uuid.New().String()[:8])

	ambulance, err := c.selectAmbulance(call.Location, dispatchID)
	if err != nil {
		return nil, err
	}

	etaMinutes := ETAMinutes(Haversine(ambulance.Location, call.Location), c.config.Dispatch.AverageSpeedKmh)

	dispatch := &models.Dispatch{
		ID:                  dispatchID,
		EmergencyCallID:     callID,
		AmbulanceID:         ambulance.ID,
		AmbulanceType:       ambulance.Type,
		Crew:                append([]string(nil), ambulance.Crew...),
		Equipment:           append([]string(nil), ambulance.Equipment...),
		DispatchTime:        now,
		ETAMinutes:          etaMinutes,
		EstimatedArrival:    now.Add(time.Duration(etaMinutes) * time.Minute),
		LocationFrom:        ambulance.Location,
		LocationTo:          call.Location,
		DestinationHospital: call.NearestHospital,
		Route:               illustrativeRoute(),
		Status:              models.DispatchDispatched,
		Updates: []models.DispatchUpdate{
			{Timestamp: now, Status: models.DispatchDispatched, Location: &ambulance.Location},
		},
	}
	c.dispatches.Append(dispatch)

	updatedCall, err := c.calls.Update(callID, func(call *models.EmergencyCall) {
		call.Status = models.CallAmbulanceDispatched
		call.AmbulanceDispatched = true
		call.DispatchID = dispatchID
		call.History = append(call.History, models.CallEvent{
			Action:     "ambulance_dispatched",
			DispatchID: dispatchID,
			Timestamp:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("Ambulance dispatched",
		zap.String("dispatch_id", dispatchID),
		zap.String("call_id", callID),
		zap.String("ambulance_id", ambulance.ID),
		zap.Int("eta_minutes", etaMinutes),
	)

	c.sendMissionBrief(ctx, updatedCall, dispatch)
	c.persistCall(ctx, updatedCall)
	c.persistDispatch(ctx, dispatch)

	return dispatch, nil
}

// selectAmbulance 选择并抢占救护车。
// 可用车辆按距离升序逐一尝试原子抢占（并发竞争下恰有一个调度胜出，
// 落败者自动尝试下一辆）；两轮选择后车队仍然耗尽时，降级为在全部
// 车辆中指派最近者（文档化的降级行为，记录告警日志，绝不无限阻塞）。
func (c *Coordinator) selectAmbulance(location models.GeoPoint, dispatchID string) (*models.Ambulance, error) {
	for attempt := 0; attempt < 2; attempt++ {
		available := c.fleet.Available()
		if len(available) == 0 {
			break
		}
		fleet.SortByDistance(available, location, Haversine)

		for i := range available {
			if err := c.fleet.Claim(available[i].ID, dispatchID); err == nil {
				return &available[i], nil
			}
		}
	}

	// 降级：车队耗尽，在全部车辆中选择最近者
	all := c.fleet.Snapshot()
	if len(all) == 0 {
		return nil, models.ErrNoAvailableAmbulance
	}
	fleet.SortByDistance(all, location, Haversine)

	c.logger.Warn("No available ambulance, degrading to busy-fleet selection",
		zap.String("dispatch_id", dispatchID),
		zap.String("ambulance_id", all[0].ID),
	)
	if err := c.fleet.ForceAssign(all[0].ID, dispatchID); err != nil {
		return nil, err
	}
	return &all[0], nil
}

// UpdateStatus 更新调度状态：追加带时间戳的状态事件，
// 按固定查表联动救护车状态；患者上车且携带临床更新时向医院发出预告通知。
func (c *Coordinator) UpdateStatus(
	ctx context.Context,
	dispatchID string,
	status models.DispatchStatus,
	clinical *models.ClinicalUpdate,
) (*models.Dispatch, error) {
	ambulanceStatus, ok := ambulanceStatusMapping[status]
	if !ok {
		return nil, fmt.Errorf("unknown dispatch status %q", status)
	}

	now := c.now()
	dispatch, err := c.dispatches.Update(dispatchID, func(d *models.Dispatch) {
		d.Status = status
		d.Updates = append(d.Updates, models.DispatchUpdate{
			Timestamp: now,
			Status:    status,
			Clinical:  clinical,
		})
	})
	if err != nil {
		return nil, err
	}

	if err := c.fleet.SetStatus(dispatch.AmbulanceID, ambulanceStatus); err != nil {
		c.logger.Error("Failed to update ambulance status",
			zap.String("dispatch_id", dispatchID),
			zap.String("ambulance_id", dispatch.AmbulanceID),
			zap.Error(err),
		)
	}

	c.logger.Info("Dispatch status updated",
		zap.String("dispatch_id", dispatchID),
		zap.String("status", string(status)),
		zap.String("ambulance_status", string(ambulanceStatus)),
	)

	if status == models.DispatchPatientOnBoard && clinical != nil {
		c.notifyHospitalIncoming(ctx, dispatch, clinical)
	}

	c.persistDispatch(ctx, dispatch)
	return dispatch, nil
}

// CompleteMission 完成任务：调度与呼叫进入终态，
// 救护车恢复可用并把位置更新为呼叫目的地，解除任务绑定。
func (c *Coordinator) CompleteMission(ctx context.Context, dispatchID string, outcome models.MissionOutcome) (*models.Dispatch, error) {
	now := c.now()
	dispatch, err := c.dispatches.Update(dispatchID, func(d *models.Dispatch) {
		d.Status = models.DispatchCompleted
		d.CompletedAt = &now
		d.Outcome = &outcome
		d.Updates = append(d.Updates, models.DispatchUpdate{
			Timestamp: now,
			Status:    models.DispatchCompleted,
		})
	})
	if err != nil {
		return nil, err
	}

	if err := c.fleet.Release(dispatch.AmbulanceID, dispatch.LocationTo); err != nil {
		c.logger.Error("Failed to release ambulance",
			zap.String("dispatch_id", dispatchID),
			zap.String("ambulance_id", dispatch.AmbulanceID),
			zap.Error(err),
		)
	}

	completedCall, err := c.calls.Update(dispatch.EmergencyCallID, func(call *models.EmergencyCall) {
		call.Status = models.CallCompleted
		call.CompletedAt = &now
		call.History = append(call.History, models.CallEvent{
			Action:     "mission_completed",
			DispatchID: dispatchID,
			Timestamp:  now,
		})
	})
	if err != nil {
		c.logger.Error("Failed to complete emergency call",
			zap.String("dispatch_id", dispatchID),
			zap.String("call_id", dispatch.EmergencyCallID),
			zap.Error(err),
		)
	} else {
		c.persistCall(ctx, completedCall)
	}

	c.logger.Info("Mission completed",
		zap.String("dispatch_id", dispatchID),
		zap.String("ambulance_id", dispatch.AmbulanceID),
		zap.String("outcome", outcome.Result),
	)

	c.persistDispatch(ctx, dispatch)
	return dispatch, nil
}

// ============================================
// 尽力而为的协作方调用（失败只记录日志）
// ============================================

func (c *Coordinator) reportToOps(ctx context.Context, call *models.EmergencyCall) {
	if c.ops == nil {
		return
	}
	if err := c.ops.ReportCall(ctx, call); err != nil {
		c.logger.Warn("Failed to report call to 118 central operations",
			zap.String("call_id", call.ID),
			zap.Error(err),
		)
		return
	}
	if _, err := c.calls.Update(call.ID, func(call *models.EmergencyCall) {
		call.History = append(call.History, models.CallEvent{
			Action:    "118_notified",
			Timestamp: c.now(),
		})
	}); err != nil {
		c.logger.Warn("Failed to record 118 notification event",
			zap.String("call_id", call.ID),
			zap.Error(err),
		)
	}
}

func (c *Coordinator) sendMissionBrief(ctx context.Context, call *models.EmergencyCall, dispatch *models.Dispatch) {
	if c.crew == nil {
		return
	}
	brief := models.MissionBrief{
		DispatchID:    dispatch.ID,
		PatientID:     call.PatientID,
		PatientName:   call.PatientName,
		EmergencyType: call.EmergencyType,
		TriageLevel:   call.TriageLevel,
		Location:      call.Location,
	}
	if err := c.crew.SendMissionBrief(ctx, dispatch.AmbulanceID, brief); err != nil {
		c.logger.Warn("Failed to send mission brief to ambulance crew",
			zap.String("dispatch_id", dispatch.ID),
			zap.String("ambulance_id", dispatch.AmbulanceID),
			zap.Error(err),
		)
	}
}

func (c *Coordinator) notifyHospitalIncoming(ctx context.Context, dispatch *models.Dispatch, clinical *models.ClinicalUpdate) {
	if c.sink == nil {
		return
	}
	event := models.NotificationEvent{
		Type:      "hospital_incoming",
		Timestamp: c.now(),
		Data: map[string]interface{}{
			"hospital_id":      dispatch.DestinationHospital.ID,
			"hospital_name":    dispatch.DestinationHospital.Name,
			"dispatch_id":      dispatch.ID,
			"ambulance_id":     dispatch.AmbulanceID,
			"eta_minutes":      dispatch.ETAMinutes,
			"clinical_update":  clinical,
			"resources_needed": HospitalResources(clinical),
		},
	}
	if err := c.sink.NotifyEmergencyOps(ctx, event); err != nil {
		c.logger.Warn("Failed to notify hospital of incoming patient",
			zap.String("dispatch_id", dispatch.ID),
			zap.String("hospital_id", dispatch.DestinationHospital.ID),
			zap.Error(err),
		)
	}
}

func (c *Coordinator) persistCall(ctx context.Context, call *models.EmergencyCall) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.SaveCall(ctx, call); err != nil {
		c.logger.Warn("Failed to persist emergency call",
			zap.String("call_id", call.ID),
			zap.Error(err),
		)
	}
}

func (c *Coordinator) persistDispatch(ctx context.Context, d *models.Dispatch) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.SaveDispatch(ctx, d); err != nil {
		c.logger.Warn("Failed to persist dispatch",
			zap.String("dispatch_id", d.ID),
			zap.Error(err),
		)
	}
}
