package model

import "time"

// PersonType 考勤对象类型（学员 / 教练）
type PersonType string

const (
	PersonTypeMember  PersonType = "member"
	PersonTypePartner PersonType = "partner"
)

// 人员状态；仅 active 参与考勤
const (
	PersonStatusActive   = "active"
	PersonStatusInactive = "inactive"
)

// ParsePersonType 解析请求中的 type 参数
func ParsePersonType(s string) (PersonType, bool) {
	switch PersonType(s) {
	case PersonTypeMember, PersonTypePartner:
		return PersonType(s), true
	}
	return "", false
}

// PersonTable 人员表名
func (t PersonType) PersonTable() string {
	if t == PersonTypePartner {
		return "partners"
	}
	return "members"
}

// IDColumn 人员主键列
func (t PersonType) IDColumn() string {
	if t == PersonTypePartner {
		return "partner_id"
	}
	return "member_id"
}

// RosterTable 班级名单表
func (t PersonType) RosterTable() string {
	if t == PersonTypePartner {
		return "batch_partners"
	}
	return "batch_members"
}

// AttendanceTable 考勤表
func (t PersonType) AttendanceTable() string {
	if t == PersonTypePartner {
		return "partner_attendances"
	}
	return "member_attendances"
}

// PersonProfile 学员与教练共有的字段
type PersonProfile struct {
	Name         string     `gorm:"type:varchar(100);not null"                 json:"name"`
	Email        string     `gorm:"type:varchar(150);not null"                 json:"email"`
	Phone        string     `gorm:"type:varchar(30)"                           json:"phone,omitempty"`
	Status       string     `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	ExcusedUntil *time.Time `gorm:"type:date"                                  json:"excused_until,omitempty"`
	ExcuseReason *string    `gorm:"type:varchar(500)"                          json:"excuse_reason,omitempty"`
}

// Profile 返回共有字段
func (p *PersonProfile) Profile() *PersonProfile { return p }

// IsActive 是否参与考勤
func (p *PersonProfile) IsActive() bool { return p.Status == PersonStatusActive }

// ExcusedOn excused_until 不早于给定日期时返回 true
func (p *PersonProfile) ExcusedOn(date time.Time) bool {
	if p.ExcusedUntil == nil {
		return false
	}
	return !DateOf(*p.ExcusedUntil).Before(DateOf(date))
}

// AttendanceSubject 考勤对象
type AttendanceSubject interface {
	Kind() PersonType
	SubjectID() string
	Profile() *PersonProfile
	Audit() *BaseModel
}

// Member 学员表 — 对应 members
type Member struct {
	MemberID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"member_id"`
	PersonProfile
	SoftDeleteModel
}

// TableName 指定表名
func (Member) TableName() string { return "members" }

func (m *Member) Kind() PersonType  { return PersonTypeMember }
func (m *Member) SubjectID() string { return m.MemberID }

// Partner 教练表 — 对应 partners
type Partner struct {
	PartnerID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"partner_id"`
	PersonProfile
	SoftDeleteModel
}

// TableName 指定表名
func (Partner) TableName() string { return "partners" }

func (p *Partner) Kind() PersonType  { return PersonTypePartner }
func (p *Partner) SubjectID() string { return p.PartnerID }

// NewSubject 按类型构造空的考勤对象
func NewSubject(t PersonType, id string, profile PersonProfile) AttendanceSubject {
	if t == PersonTypePartner {
		return &Partner{PartnerID: id, PersonProfile: profile}
	}
	return &Member{MemberID: id, PersonProfile: profile}
}

// BatchMember 班级学员名单 — 对应 batch_members
type BatchMember struct {
	BatchID   string    `gorm:"type:uuid;primaryKey"               json:"batch_id"`
	MemberID  string    `gorm:"type:uuid;primaryKey"               json:"member_id"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (BatchMember) TableName() string { return "batch_members" }

// BatchPartner 班级教练名单 — 对应 batch_partners
type BatchPartner struct {
	BatchID   string    `gorm:"type:uuid;primaryKey"               json:"batch_id"`
	PartnerID string    `gorm:"type:uuid;primaryKey"               json:"partner_id"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (BatchPartner) TableName() string { return "batch_partners" }
