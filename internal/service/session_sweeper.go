package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"coach-center/config"
	"coach-center/internal/repository"
	"coach-center/pkg/metrics"
)

// sweepTimeout 单次巡检的最长执行时间
const sweepTimeout = 2 * time.Minute

// SessionSweeper 定时将已结束的 scheduled 课次置为 completed
// 考勤数据不受影响，只更新课次状态
type SessionSweeper struct {
	repo    *repository.Repository
	clock   Clock
	enabled bool
	spec    string
	cron    *cron.Cron
	logger  *zap.Logger
}

// NewSessionSweeper 创建课次巡检任务；spec 为 cron 表达式
func NewSessionSweeper(cfg *config.SweeperConfig, loc *time.Location, repo *repository.Repository, clock Clock, logger *zap.Logger) *SessionSweeper {
	if loc == nil {
		loc = time.UTC
	}
	cronLog := logger.Named("cron")
	return &SessionSweeper{
		repo:    repo,
		clock:   clock,
		enabled: cfg.Enabled,
		spec:    cfg.Spec,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger{logger: cronLog}),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger: cronLog, verbose: true})),
		),
		logger: logger,
	}
}

// Start 注册并启动定时任务；配置关闭时不做任何事
func (s *SessionSweeper) Start() error {
	if !s.enabled {
		s.logger.Info("课次巡检任务未启用")
		return nil
	}
	_, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("课次巡检失败", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("课次巡检任务已启动", zap.String("spec", s.spec))
	return nil
}

// Stop 停止调度并等待正在执行的任务结束
func (s *SessionSweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("等待课次巡检任务结束超时")
	}
}

// Sweep 执行一次巡检，返回被置为 completed 的课次数
func (s *SessionSweeper) Sweep(ctx context.Context) (int64, error) {
	now := s.clock.Now()
	n, err := s.repo.Session.CompletePast(ctx, Today(s.clock), now.Format("15:04:05"))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.SessionsSwept.Add(float64(n))
		s.logger.Info("已结束课次置为完成", zap.Int64("count", n))
	}
	return n, nil
}

// cronLogger 将 cron 的日志写入 zap
// 调度器自身的 Info（wake / run 等）降为 Debug；verbose 时按 Info 输出，用于跳过执行的提示
type cronLogger struct {
	logger  *zap.Logger
	verbose bool
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if l.verbose {
		l.logger.Sugar().Infow(msg, keysAndValues...)
		return
	}
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
