package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"chartboard/internal/model"
)

const (
	slotDashboards = "dashboards"
	slotActiveID   = "active_id"
)

func (s *Store) getSlot(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM slots WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read slot %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) setSlot(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO slots (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	return nil
}

func (s *Store) deleteSlot(key string) error {
	if _, err := s.db.Exec("DELETE FROM slots WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete slot %s: %w", key, err)
	}
	return nil
}

// LoadDashboards 读取仪表板列表；槽位为空时返回空列表
func (s *Store) LoadDashboards() ([]model.Dashboard, error) {
	value, ok, err := s.getSlot(slotDashboards)
	if err != nil {
		return []model.Dashboard{}, err
	}
	if !ok || value == "" {
		return []model.Dashboard{}, nil
	}
	var dashboards []model.Dashboard
	if err := json.Unmarshal([]byte(value), &dashboards); err != nil {
		return []model.Dashboard{}, fmt.Errorf("decode dashboards: %w", err)
	}
	if dashboards == nil {
		dashboards = []model.Dashboard{}
	}
	return dashboards, nil
}

// SaveDashboards 覆盖写入仪表板列表
func (s *Store) SaveDashboards(dashboards []model.Dashboard) error {
	if dashboards == nil {
		dashboards = []model.Dashboard{}
	}
	data, err := json.Marshal(dashboards)
	if err != nil {
		return fmt.Errorf("encode dashboards: %w", err)
	}
	return s.setSlot(slotDashboards, string(data))
}

// LoadActiveID 读取当前仪表板 ID；不存在时为空串
func (s *Store) LoadActiveID() (string, error) {
	value, _, err := s.getSlot(slotActiveID)
	return value, err
}

// SaveActiveID 写入当前仪表板 ID；空串表示清除槽位
func (s *Store) SaveActiveID(id string) error {
	if id == "" {
		return s.deleteSlot(slotActiveID)
	}
	return s.setSlot(slotActiveID, id)
}
