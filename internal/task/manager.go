package task

import (
	"donation-backend/internal/util"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Job 定时任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
}

// NewManager 创建新的任务管理器
func NewManager() (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Manager{scheduler: s}, nil
}

// Register 注册任务，同名任务不会并发执行
func (m *Manager) Register(job Job) error {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		util.Logger.Error("注册任务失败", zap.String("job", job.GetName()), zap.Error(err))
		return err
	}
	return nil
}

// Start 启动调度器
func (m *Manager) Start() {
	m.scheduler.Start()
	util.Logger.Info("任务管理器已启动", zap.Int("jobs", len(m.scheduler.Jobs())))
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		util.Logger.Error("停止调度器失败", zap.Error(err))
	}
	util.Logger.Info("任务管理器已停止")
}
