package dashboard

import (
	"context"
	"time"

	"go.uber.org/zap"

	"chartboard/internal/events"
	"chartboard/internal/model"
)

// Change 一次已完成的状态转换
type Change struct {
	Op    string
	Topic string
	Event any

	State             model.State
	DashboardsChanged bool
	ActiveChanged     bool
}

// Observer 状态转换观察者，在内存状态更新之后同步调用
type Observer interface {
	Observe(c Change)
}

// ObserverFunc 函数形式的观察者
type ObserverFunc func(c Change)

func (f ObserverFunc) Observe(c Change) { f(c) }

// persistObserver 写穿持久化；失败只记录日志，不影响内存状态
type persistObserver struct {
	persister Persister
	log       *zap.Logger
}

func (o *persistObserver) Observe(c Change) {
	if c.DashboardsChanged {
		if err := o.persister.SaveDashboards(c.State.Dashboards); err != nil {
			o.log.Error("persist dashboards failed", zap.String("op", c.Op), zap.Error(err))
		}
	}
	if c.ActiveChanged {
		if err := o.persister.SaveActiveID(c.State.ActiveID); err != nil {
			o.log.Error("persist active dashboard failed", zap.String("op", c.Op), zap.Error(err))
		}
	}
}

// eventObserver 将转换发布为领域事件
type eventObserver struct {
	publisher events.Publisher
	log       *zap.Logger
}

const publishTimeout = 2 * time.Second

func (o *eventObserver) Observe(c Change) {
	if c.Topic == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := o.publisher.Publish(ctx, c.Topic, c.Event); err != nil {
		o.log.Error("publish event failed", zap.String("topic", c.Topic), zap.Error(err))
	}
}
