package main

import (
	"fmt"

	"go.uber.org/zap"

	"chartboard/internal/config"
	"chartboard/internal/events"
	"chartboard/internal/service/dashboard"
	"chartboard/internal/store"
)

// app 进程内共享的组件
type app struct {
	dataDir    string
	dashboards *dashboard.Manager
	closers    []func() error
}

// openApp 打开持久化与事件发布并恢复仪表板状态
func openApp(cfg *config.AppConfig, memory bool, log *zap.Logger) (*app, error) {
	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	a := &app{dataDir: dataDir}

	var persister dashboard.Persister
	if memory {
		persister = store.NewMemoryStore()
	} else {
		dbPath := config.DBPath(dataDir, cfg)
		st, err := store.New(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open database %s: %w", dbPath, err)
		}
		a.closers = append(a.closers, st.Close)
		persister = st
		log.Info("database opened", zap.String("path", dbPath))
	}

	var publisher events.Publisher = &events.NoopPublisher{}
	if cfg.Events.NatsURL != "" {
		nats, err := events.NewNATSPublisher(cfg.Events.NatsURL, cfg.Events.SubjectPrefix)
		if err != nil {
			// 事件发布是可选能力，连接失败不阻止启动
			log.Warn("connect nats failed, events disabled", zap.String("url", cfg.Events.NatsURL), zap.Error(err))
		} else {
			publisher = nats
			a.closers = append(a.closers, nats.Close)
		}
	}

	a.dashboards = dashboard.NewManager(persister, publisher, log)
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}
