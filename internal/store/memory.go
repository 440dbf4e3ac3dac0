package store

import (
	"encoding/json"
	"sync"

	"chartboard/internal/model"
)

// MemoryStore 内存持久化（测试与 --memory 模式）。按 JSON 保存，读取时得到独立副本。
type MemoryStore struct {
	mu         sync.RWMutex
	dashboards []byte
	activeID   string
	saves      int
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// LoadDashboards 读取仪表板列表
func (s *MemoryStore) LoadDashboards() ([]model.Dashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dashboards := []model.Dashboard{}
	if len(s.dashboards) == 0 {
		return dashboards, nil
	}
	if err := json.Unmarshal(s.dashboards, &dashboards); err != nil {
		return []model.Dashboard{}, err
	}
	return dashboards, nil
}

// SaveDashboards 保存仪表板列表
func (s *MemoryStore) SaveDashboards(dashboards []model.Dashboard) error {
	data, err := json.Marshal(dashboards)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dashboards = data
	s.saves++
	return nil
}

// LoadActiveID 读取当前仪表板 ID
func (s *MemoryStore) LoadActiveID() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID, nil
}

// SaveActiveID 保存当前仪表板 ID
func (s *MemoryStore) SaveActiveID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeID = id
	return nil
}

// Saves 仪表板列表被写入的次数
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
