package services

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-preprocessor/internal/models"
)

// stageProgress 各阶段完成后的进度百分比
var stageProgress = map[models.ProcessStage]int{
	models.StageLoading:   25,
	models.StageChunking:  50,
	models.StageImages:    75,
	models.StageComposing: 100,
}

// ProgressFunc 阶段完成回调
type ProgressFunc func(stage models.ProcessStage, progress int)

// RunStatus 单次预处理的状态快照
type RunStatus struct {
	Source    string                                // 源文件路径
	Stage     models.ProcessStage                   // 当前阶段
	Progress  int                                   // 进度（0-100）
	Failed    bool                                  // 是否失败
	Cancelled bool                                  // 是否被取消
	Error     string                                // 失败原因
	StartedAt time.Time                             // 开始时间
	Durations map[models.ProcessStage]time.Duration // 已完成阶段的耗时
}

// StatusTracker 预处理状态跟踪器
// 记录阶段转换、耗时与失败原因
type StatusTracker struct {
	mu         sync.Mutex
	status     RunStatus
	stageStart time.Time
	onProgress ProgressFunc
	logger     *logrus.Logger
}

// NewStatusTracker 创建状态跟踪器
func NewStatusTracker(source string, logger *logrus.Logger, onProgress ProgressFunc) *StatusTracker {
	if logger == nil {
		logger = logrus.New()
	}
	now := time.Now()
	return &StatusTracker{
		status: RunStatus{
			Source:    source,
			StartedAt: now,
			Durations: make(map[models.ProcessStage]time.Duration),
		},
		stageStart: now,
		onProgress: onProgress,
		logger:     logger,
	}
}

// Begin 进入新阶段
func (t *StatusTracker) Begin(stage models.ProcessStage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status.Stage = stage
	t.stageStart = time.Now()

	t.logger.WithFields(logrus.Fields{
		"source": t.status.Source,
		"stage":  stage,
	}).Debug("Stage started")
}

// Complete 完成当前阶段并更新进度
func (t *StatusTracker) Complete(fields logrus.Fields) {
	t.mu.Lock()
	stage := t.status.Stage
	elapsed := time.Since(t.stageStart)
	t.status.Durations[stage] = elapsed
	t.status.Progress = stageProgress[stage]
	progress := t.status.Progress
	t.mu.Unlock()

	entry := t.logger.WithFields(logrus.Fields{
		"source":   t.status.Source,
		"stage":    stage,
		"progress": progress,
		"elapsed":  elapsed.String(),
	})
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	entry.Debug("Stage completed")

	if t.onProgress != nil {
		t.onProgress(stage, progress)
	}
}

// Fail 记录当前阶段失败
func (t *StatusTracker) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status.Failed = true
	if err != nil {
		t.status.Error = err.Error()
	}

	t.logger.WithFields(logrus.Fields{
		"source": t.status.Source,
		"stage":  t.status.Stage,
		"error":  t.status.Error,
	}).Error("Preprocessing failed")
}

// Cancel 记录处理在当前阶段被取消
func (t *StatusTracker) Cancel(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status.Cancelled = true
	if err != nil {
		t.status.Error = err.Error()
	}

	t.logger.WithFields(logrus.Fields{
		"source": t.status.Source,
		"stage":  t.status.Stage,
		"reason": t.status.Error,
	}).Info("Preprocessing cancelled")
}

// Snapshot 返回当前状态的副本
func (t *StatusTracker) Snapshot() RunStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.status
	s.Durations = make(map[models.ProcessStage]time.Duration, len(t.status.Durations))
	for k, v := range t.status.Durations {
		s.Durations[k] = v
	}
	return s
}
