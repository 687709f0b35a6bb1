package service

import (
	"context"

	"go.uber.org/zap"

	"coach-center/internal/dto"
	"coach-center/internal/model"
	"coach-center/internal/repository"
)

// ActivityEntry 一条待记录的操作日志
type ActivityEntry struct {
	ActorID     string
	Action      string
	SubjectType string
	SubjectID   string
	Description string
	Old         map[string]interface{}
	New         map[string]interface{}
}

// ActivityRecorder 操作日志写入方
// 在主事务提交后调用；写入失败只记日志，不影响主流程
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry)
}

// ActivityLogService 操作日志业务接口
type ActivityLogService interface {
	ActivityRecorder
	List(ctx context.Context, req *dto.ActivityLogListRequest) ([]dto.ActivityLogResponse, int64, error)
}

type activityLogService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewActivityLogService 创建 ActivityLogService 实例
func NewActivityLogService(repo *repository.Repository, logger *zap.Logger) ActivityLogService {
	return &activityLogService{repo: repo, logger: logger}
}

func (s *activityLogService) Record(ctx context.Context, entry ActivityEntry) {
	log := &model.ActivityLog{
		Action:      entry.Action,
		SubjectType: entry.SubjectType,
		SubjectID:   entry.SubjectID,
		Description: entry.Description,
		OldValues:   entry.Old,
		NewValues:   entry.New,
	}
	if entry.ActorID != "" {
		actor := entry.ActorID
		log.ActorID = &actor
	}

	// 请求已结束或被取消时仍需落库
	if err := s.repo.ActivityLog.Create(context.WithoutCancel(ctx), log); err != nil {
		s.logger.Warn("写入操作日志失败",
			zap.String("action", entry.Action),
			zap.String("subject_type", entry.SubjectType),
			zap.String("subject_id", entry.SubjectID),
			zap.Error(err),
		)
	}
}

func (s *activityLogService) List(ctx context.Context, req *dto.ActivityLogListRequest) ([]dto.ActivityLogResponse, int64, error) {
	logs, total, err := s.repo.ActivityLog.List(ctx, repository.ActivityLogFilter{
		SubjectType: req.SubjectType,
		SubjectID:   req.SubjectID,
		ActorID:     req.ActorID,
		Offset:      req.GetOffset(),
		Limit:       req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("查询操作日志失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ActivityLogResponse, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		result = append(result, dto.ActivityLogResponse{
			ID:          l.ActivityLogID,
			ActorID:     l.ActorID,
			Action:      l.Action,
			SubjectType: l.SubjectType,
			SubjectID:   l.SubjectID,
			Description: l.Description,
			OldValues:   l.OldValues,
			NewValues:   l.NewValues,
			CreatedAt:   formatTimestamp(l.CreatedAt),
		})
	}
	return result, total, nil
}
