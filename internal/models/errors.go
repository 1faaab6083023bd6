package models

import "errors"

// 领域错误（类型化哨兵错误，调用方用 errors.Is 判别；
// 传输层负责映射为对应的 HTTP 状态码）
var (
	// ErrInvalidTriageInput 分诊输入不完整（无症状、无体征、无病史）。
	// 分诊器以白色等级和最低置信度恢复，不视为致命错误。
	ErrInvalidTriageInput = errors.New("invalid triage input")

	// ErrCallNotFound 急救呼叫ID未知
	ErrCallNotFound = errors.New("emergency call not found")

	// ErrDispatchNotFound 调度ID未知
	ErrDispatchNotFound = errors.New("dispatch not found")

	// ErrAmbulanceNotFound 救护车ID未知
	ErrAmbulanceNotFound = errors.New("ambulance not found")

	// ErrNoAvailableAmbulance 车队无可用救护车。
	// 调度策略：降级为在全部车辆中选择最近者（记录告警日志），而非直接失败。
	ErrNoAvailableAmbulance = errors.New("no available ambulance")

	// ErrAmbulanceConflict 救护车状态变更竞争失败（另一调度已抢占）
	ErrAmbulanceConflict = errors.New("ambulance state conflict")

	// ErrPatientNotFound 患者ID未知
	ErrPatientNotFound = errors.New("patient not found")

	// ErrSessionNotFound 分诊会话ID未知
	ErrSessionNotFound = errors.New("triage session not found")
)
