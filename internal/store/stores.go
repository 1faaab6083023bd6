package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"wisefido-emergency/internal/models"
)

// 本包提供呼叫/调度/分诊会话的进程内存储（arena 风格，ID 索引）。
// 每种实体独立持有一把读写锁：变更操作在锁内以拷贝语义执行，
// 读操作返回深拷贝，跟踪/统计等只读查询可以无协调地并发运行。

// CallStore 急救呼叫存储
type CallStore struct {
	mu    sync.RWMutex
	calls map[string]*models.EmergencyCall
	order []string
}

// NewCallStore 创建呼叫存储
func NewCallStore() *CallStore {
	return &CallStore{calls: make(map[string]*models.EmergencyCall)}
}

// Append 追加呼叫记录
func (s *CallStore) Append(call *models.EmergencyCall) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[call.ID] = call.Clone()
	s.order = append(s.order, call.ID)
}

// Get 按ID获取呼叫（拷贝）
func (s *CallStore) Get(id string) (*models.EmergencyCall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	call, ok := s.calls[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrCallNotFound, id)
	}
	return call.Clone(), nil
}

// Update 在锁内对呼叫执行变更函数，返回变更后的拷贝
func (s *CallStore) Update(id string, fn func(call *models.EmergencyCall)) (*models.EmergencyCall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	call, ok := s.calls[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrCallNotFound, id)
	}
	fn(call)
	return call.Clone(), nil
}

// List 全部呼叫（插入顺序，拷贝）
func (s *CallStore) List() []models.EmergencyCall {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.EmergencyCall, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.calls[id].Clone())
	}
	return out
}

// QueryByDatePrefix 按日期前缀过滤（RFC3339 时间戳字符串前缀，如 "2026-08-29"）
func (s *CallStore) QueryByDatePrefix(prefix string) []models.EmergencyCall {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.EmergencyCall, 0)
	for _, id := range s.order {
		call := s.calls[id]
		if matchesDatePrefix(call.Timestamp, prefix) {
			out = append(out, *call.Clone())
		}
	}
	return out
}

// DispatchStore 调度存储
type DispatchStore struct {
	mu         sync.RWMutex
	dispatches map[string]*models.Dispatch
	order      []string
}

// NewDispatchStore 创建调度存储
func NewDispatchStore() *DispatchStore {
	return &DispatchStore{dispatches: make(map[string]*models.Dispatch)}
}

// Append 追加调度记录
func (s *DispatchStore) Append(d *models.Dispatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dispatches[d.ID] = d.Clone()
	s.order = append(s.order, d.ID)
}

// Get 按ID获取调度（拷贝）
func (s *DispatchStore) Get(id string) (*models.Dispatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.dispatches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrDispatchNotFound, id)
	}
	return d.Clone(), nil
}

// Update 在锁内对调度执行变更函数，返回变更后的拷贝
func (s *DispatchStore) Update(id string, fn func(d *models.Dispatch)) (*models.Dispatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dispatches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrDispatchNotFound, id)
	}
	fn(d)
	return d.Clone(), nil
}

// List 全部调度（插入顺序，拷贝）
func (s *DispatchStore) List() []models.Dispatch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Dispatch, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.dispatches[id].Clone())
	}
	return out
}

// QueryByDatePrefix 按调度时间的日期前缀过滤
func (s *DispatchStore) QueryByDatePrefix(prefix string) []models.Dispatch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Dispatch, 0)
	for _, id := range s.order {
		d := s.dispatches[id]
		if matchesDatePrefix(d.DispatchTime, prefix) {
			out = append(out, *d.Clone())
		}
	}
	return out
}

// SessionStore 分诊会话日志（仅追加）
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.TriageSession
	order    []string
}

// NewSessionStore 创建会话存储
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*models.TriageSession)}
}

// Append 追加会话（会话创建后不可变，存储只追加不更新）
func (s *SessionStore) Append(session *models.TriageSession) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.SessionID] = session.Clone()
	s.order = append(s.order, session.SessionID)
}

// Get 按ID获取会话（拷贝）
func (s *SessionStore) Get(id string) (*models.TriageSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	return session.Clone(), nil
}

// QueryByDatePrefix 按日期前缀过滤会话
func (s *SessionStore) QueryByDatePrefix(prefix string) []models.TriageSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.TriageSession, 0)
	for _, id := range s.order {
		session := s.sessions[id]
		if matchesDatePrefix(session.Timestamp, prefix) {
			out = append(out, *session.Clone())
		}
	}
	return out
}

// matchesDatePrefix 时间戳的 RFC3339 文本是否以给定前缀开头；空前缀匹配全部
func matchesDatePrefix(ts time.Time, prefix string) bool {
	if prefix == "" {
		return true
	}
	return strings.HasPrefix(ts.Format(time.RFC3339), prefix)
}
