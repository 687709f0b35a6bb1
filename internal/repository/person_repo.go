package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coach-center/internal/model"
)

// PersonListFilter 人员列表筛选条件
type PersonListFilter struct {
	Status  string
	Keyword string
	Offset  int
	Limit   int
}

// PersonRepository 学员 / 教练数据访问接口，按 PersonType 分派到对应表
type PersonRepository interface {
	Create(ctx context.Context, person model.AttendanceSubject) error
	GetByID(ctx context.Context, pt model.PersonType, id string) (model.AttendanceSubject, error)
	List(ctx context.Context, pt model.PersonType, filter PersonListFilter) ([]model.AttendanceSubject, int64, error)
	Update(ctx context.Context, person model.AttendanceSubject, updatedBy string) error
	Delete(ctx context.Context, pt model.PersonType, id string, deletedBy string) error
	// CountByIDs 统计存在的人员数（用于名单校验）
	CountByIDs(ctx context.Context, pt model.PersonType, ids []string) (int64, error)

	// ── 班级名单 ──

	// ListActiveByBatch 班级名单中 status=active 的人员，按姓名排序
	ListActiveByBatch(ctx context.Context, pt model.PersonType, batchID string) ([]model.AttendanceSubject, error)
	// IsActiveOnBatch 人员是否在班级名单中且 status=active
	IsActiveOnBatch(ctx context.Context, pt model.PersonType, batchID, personID string) (bool, error)
	// ListActiveByBatches 批量查询多个班级的 active 人员，key 为 batch_id
	ListActiveByBatches(ctx context.Context, pt model.PersonType, batchIDs []string) (map[string][]model.AttendanceSubject, error)
	// ReplaceRoster 以 personIDs 整体替换班级名单
	ReplaceRoster(ctx context.Context, pt model.PersonType, batchID string, personIDs []string) error
}

type personRepo struct {
	db *gorm.DB
}

// NewPersonRepo 创建 PersonRepository 实例
func NewPersonRepo(db *gorm.DB) PersonRepository {
	return &personRepo{db: db}
}

func (r *personRepo) Create(ctx context.Context, person model.AttendanceSubject) error {
	return r.db.WithContext(ctx).Create(person).Error
}

func (r *personRepo) GetByID(ctx context.Context, pt model.PersonType, id string) (model.AttendanceSubject, error) {
	person := model.NewSubject(pt, "", model.PersonProfile{})
	err := r.db.WithContext(ctx).
		Where(pt.IDColumn()+" = ?", id).
		First(person).Error
	if err != nil {
		return nil, err
	}
	return person, nil
}

func (r *personRepo) List(ctx context.Context, pt model.PersonType, filter PersonListFilter) ([]model.AttendanceSubject, int64, error) {
	var total int64

	db := r.db.WithContext(ctx).Table(pt.PersonTable()).Where("deleted_at IS NULL")
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		db = db.Where("name ILIKE ? OR email ILIKE ?", like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order("name ASC").Offset(filter.Offset).Limit(filter.Limit)
	people, err := findSubjects(db, pt)
	return people, total, err
}

func (r *personRepo) Update(ctx context.Context, person model.AttendanceSubject, updatedBy string) error {
	p := person.Profile()
	pt := person.Kind()
	return r.db.WithContext(ctx).
		Table(pt.PersonTable()).
		Where(pt.IDColumn()+" = ?", person.SubjectID()).
		Updates(map[string]interface{}{
			"name":          p.Name,
			"email":         p.Email,
			"phone":         p.Phone,
			"status":        p.Status,
			"excused_until": p.ExcusedUntil,
			"excuse_reason": p.ExcuseReason,
			"updated_by":    updatedBy,
			"updated_at":    gorm.Expr("NOW()"),
		}).Error
}

func (r *personRepo) Delete(ctx context.Context, pt model.PersonType, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Table(pt.PersonTable()).
		Where(pt.IDColumn()+" = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *personRepo) CountByIDs(ctx context.Context, pt model.PersonType, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Table(pt.PersonTable()).
		Where(pt.IDColumn()+" IN ? AND deleted_at IS NULL", ids).
		Count(&count).Error
	return count, err
}

// ── 班级名单 ──

func (r *personRepo) ListActiveByBatch(ctx context.Context, pt model.PersonType, batchID string) ([]model.AttendanceSubject, error) {
	table, idCol := pt.PersonTable(), pt.IDColumn()
	db := r.db.WithContext(ctx).
		Table(table).
		Joins(fmt.Sprintf("JOIN %s r ON r.%s = %s.%s", pt.RosterTable(), idCol, table, idCol)).
		Where("r.batch_id = ?", batchID).
		Where(table+".status = ? AND "+table+".deleted_at IS NULL", model.PersonStatusActive).
		Order(table + ".name ASC").
		Select(table + ".*")
	return findSubjects(db, pt)
}

func (r *personRepo) IsActiveOnBatch(ctx context.Context, pt model.PersonType, batchID, personID string) (bool, error) {
	table, idCol := pt.PersonTable(), pt.IDColumn()
	var count int64
	err := r.db.WithContext(ctx).
		Table(table).
		Joins(fmt.Sprintf("JOIN %s r ON r.%s = %s.%s", pt.RosterTable(), idCol, table, idCol)).
		Where("r.batch_id = ? AND "+table+"."+idCol+" = ?", batchID, personID).
		Where(table+".status = ? AND "+table+".deleted_at IS NULL", model.PersonStatusActive).
		Count(&count).Error
	return count > 0, err
}

func (r *personRepo) ListActiveByBatches(ctx context.Context, pt model.PersonType, batchIDs []string) (map[string][]model.AttendanceSubject, error) {
	result := make(map[string][]model.AttendanceSubject, len(batchIDs))
	if len(batchIDs) == 0 {
		return result, nil
	}

	var links []struct {
		BatchID  string
		PersonID string
	}
	err := r.db.WithContext(ctx).
		Table(pt.RosterTable()).
		Select("batch_id, "+pt.IDColumn()+" AS person_id").
		Where("batch_id IN ?", batchIDs).
		Scan(&links).Error
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return result, nil
	}

	personIDs := make([]string, 0, len(links))
	for _, l := range links {
		personIDs = append(personIDs, l.PersonID)
	}

	db := r.db.WithContext(ctx).
		Table(pt.PersonTable()).
		Where(pt.IDColumn()+" IN ?", personIDs).
		Where("status = ? AND deleted_at IS NULL", model.PersonStatusActive).
		Order("name ASC")
	people, err := findSubjects(db, pt)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.AttendanceSubject, len(people))
	for _, p := range people {
		byID[p.SubjectID()] = p
	}
	for _, l := range links {
		if p, ok := byID[l.PersonID]; ok {
			result[l.BatchID] = append(result[l.BatchID], p)
		}
	}
	return result, nil
}

func (r *personRepo) ReplaceRoster(ctx context.Context, pt model.PersonType, batchID string, personIDs []string) error {
	db := r.db.WithContext(ctx)
	if err := db.Exec("DELETE FROM "+pt.RosterTable()+" WHERE batch_id = ?", batchID).Error; err != nil {
		return err
	}
	if len(personIDs) == 0 {
		return nil
	}

	rows := make([]map[string]interface{}, 0, len(personIDs))
	for _, id := range personIDs {
		rows = append(rows, map[string]interface{}{
			"batch_id":    batchID,
			pt.IDColumn(): id,
		})
	}
	return db.Table(pt.RosterTable()).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rows).Error
}

// findSubjects 按类型扫描到具体切片后转换为 AttendanceSubject
func findSubjects(db *gorm.DB, pt model.PersonType) ([]model.AttendanceSubject, error) {
	if pt == model.PersonTypePartner {
		var partners []model.Partner
		if err := db.Find(&partners).Error; err != nil {
			return nil, err
		}
		out := make([]model.AttendanceSubject, len(partners))
		for i := range partners {
			out[i] = &partners[i]
		}
		return out, nil
	}

	var members []model.Member
	if err := db.Find(&members).Error; err != nil {
		return nil, err
	}
	out := make([]model.AttendanceSubject, len(members))
	for i := range members {
		out[i] = &members[i]
	}
	return out, nil
}
