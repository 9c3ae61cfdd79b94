package task

import (
	"time"

	"donation-backend/internal/util"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// DraftSweeper 关闭空闲的向导会话；draft.Manager 满足该接口
type DraftSweeper interface {
	SweepIdle() int
}

// DraftSweepJob 定期清理空闲草稿会话
type DraftSweepJob struct {
	drafts   DraftSweeper
	interval time.Duration
}

func NewDraftSweepJob(drafts DraftSweeper, interval time.Duration) *DraftSweepJob {
	return &DraftSweepJob{drafts: drafts, interval: interval}
}

func (j *DraftSweepJob) GetName() string {
	return "draft_session_sweep"
}

func (j *DraftSweepJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

func (j *DraftSweepJob) Execute() {
	if closed := j.drafts.SweepIdle(); closed > 0 {
		util.Logger.Info("已关闭空闲草稿会话", zap.Int("closed", closed))
	}
}
