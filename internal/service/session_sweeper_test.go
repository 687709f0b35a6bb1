package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"coach-center/config"
	"coach-center/internal/model"
)

func newTestSweeper(m *mockRepos, cfg config.SweeperConfig, date string) *SessionSweeper {
	return NewSessionSweeper(&cfg, time.UTC, m.repo, clockAt(date), zap.NewNop())
}

func TestSessionSweeper_Sweep(t *testing.T) {
	m := newMockRepos()
	past := m.sessions.add(model.BatchSession{BatchID: "b1", SequenceNo: 1, Date: mustDate("2025-07-01"), StartTime: "10:00:00", EndTime: "11:00:00"})
	endedToday := m.sessions.add(model.BatchSession{BatchID: "b1", SequenceNo: 2, Date: mustDate("2025-07-02"), StartTime: "10:00:00", EndTime: "11:00:00"})
	laterToday := m.sessions.add(model.BatchSession{BatchID: "b1", SequenceNo: 3, Date: mustDate("2025-07-02"), StartTime: "13:00:00", EndTime: "14:00:00"})
	future := m.sessions.add(model.BatchSession{BatchID: "b1", SequenceNo: 4, Date: mustDate("2025-07-03"), StartTime: "10:00:00", EndTime: "11:00:00"})
	cancelled := m.sessions.add(model.BatchSession{BatchID: "b1", SequenceNo: 5, Date: mustDate("2025-06-30"), StartTime: "10:00:00", EndTime: "11:00:00", Status: model.SessionStatusCancelled})

	// clockAt 固定在当天 12:00
	sweeper := newTestSweeper(m, config.SweeperConfig{Enabled: true, Spec: "@every 15m"}, "2025-07-02")

	n, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("巡检失败: %v", err)
	}
	if n != 2 {
		t.Fatalf("期望 2 个课次被置为完成，实际 %d", n)
	}

	want := map[string]string{
		past.BatchSessionID:       model.SessionStatusCompleted,
		endedToday.BatchSessionID: model.SessionStatusCompleted,
		laterToday.BatchSessionID: model.SessionStatusScheduled,
		future.BatchSessionID:     model.SessionStatusScheduled,
		cancelled.BatchSessionID:  model.SessionStatusCancelled,
	}
	for id, status := range want {
		if got := m.sessions.sessions[id].Status; got != status {
			t.Errorf("课次 %s 期望状态 %q，实际 %q", id, status, got)
		}
	}

	n, err = sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("第二次巡检失败: %v", err)
	}
	if n != 0 {
		t.Errorf("重复巡检不应再更新课次，实际 %d", n)
	}
}

func TestSessionSweeper_StartDisabled(t *testing.T) {
	sweeper := newTestSweeper(newMockRepos(), config.SweeperConfig{Enabled: false, Spec: "@every 15m"}, "2025-07-02")

	if err := sweeper.Start(); err != nil {
		t.Fatalf("未启用时不应返回错误: %v", err)
	}
	if len(sweeper.cron.Entries()) != 0 {
		t.Errorf("未启用时不应注册任务")
	}
}

func TestSessionSweeper_StartInvalidSpec(t *testing.T) {
	sweeper := newTestSweeper(newMockRepos(), config.SweeperConfig{Enabled: true, Spec: "every now and then"}, "2025-07-02")

	if err := sweeper.Start(); err == nil {
		t.Fatal("非法 cron 表达式应返回错误")
	}
}

func TestSessionSweeper_StartAndStop(t *testing.T) {
	sweeper := newTestSweeper(newMockRepos(), config.SweeperConfig{Enabled: true, Spec: "@every 1h"}, "2025-07-02")

	if err := sweeper.Start(); err != nil {
		t.Fatalf("启动失败: %v", err)
	}
	if len(sweeper.cron.Entries()) != 1 {
		t.Errorf("期望注册 1 个任务，实际 %d", len(sweeper.cron.Entries()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sweeper.Stop(ctx)
}

func TestCronLogger_WritesToZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	cronLogger{logger: logger, verbose: true}.Info("skip", "entry", 1)
	cronLogger{logger: logger}.Info("wake", "now", "2025-07-02")
	cronLogger{logger: logger}.Error(errors.New("boom"), "panic", "entry", 1)

	entries := logs.AllUntimed()
	if len(entries) != 3 {
		t.Fatalf("期望 3 条日志，实际 %d", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel || entries[0].Message != "skip" {
		t.Errorf("跳过执行应以 Info 输出: %+v", entries[0])
	}
	if entries[1].Level != zapcore.DebugLevel {
		t.Errorf("调度器内部日志应降为 Debug，实际 %s", entries[1].Level)
	}
	if entries[2].Level != zapcore.ErrorLevel || entries[2].ContextMap()["error"] != "boom" {
		t.Errorf("错误日志应携带 error 字段: %+v", entries[2].ContextMap())
	}
}
