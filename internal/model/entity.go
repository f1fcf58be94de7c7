package model

import (
	"time"
)

// User 사용자
type User struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Nickname   string    `gorm:"type:varchar(100);not null" json:"nickname"`
	ProfileImg *string   `gorm:"type:text" json:"profile_img,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Classes []ClassMember `gorm:"foreignKey:UserID" json:"classes,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// Class is a class-kind room's owning entity. The teacher moderates the
// board; membership grants draw access. Class lifecycle (creation,
// enrollment) is managed elsewhere; this service only reads it.
type Class struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	TeacherID int64     `gorm:"not null" json:"teacher_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Teacher User          `gorm:"foreignKey:TeacherID" json:"teacher,omitempty"`
	Members []ClassMember `gorm:"foreignKey:ClassID" json:"members,omitempty"`
}

func (Class) TableName() string {
	return "classes"
}

// ClassMember 클래스 멤버
type ClassMember struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ClassID  int64     `gorm:"not null;index" json:"class_id"`
	UserID   int64     `gorm:"not null;index" json:"user_id"`
	Status   string    `gorm:"type:varchar(20);default:'ACTIVE'" json:"status"` // PENDING, ACTIVE, LEFT
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	// Relations
	Class Class `gorm:"foreignKey:ClassID" json:"class,omitempty"`
	User  User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ClassMember) TableName() string {
	return "class_members"
}

// LiveSession is a session-kind room's owning entity: an ephemeral
// meeting joined by code. Its policy module governs access; this service
// only checks participation.
type LiveSession struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code      string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	HostID    int64      `gorm:"not null" json:"host_id"`
	Status    string     `gorm:"type:varchar(20);default:'OPEN'" json:"status"` // OPEN, ENDED
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Host         User                 `gorm:"foreignKey:HostID" json:"host,omitempty"`
	Participants []SessionParticipant `gorm:"foreignKey:SessionID" json:"participants,omitempty"`
}

func (LiveSession) TableName() string {
	return "live_sessions"
}

// SessionParticipant 세션 참가자
type SessionParticipant struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID int64      `gorm:"not null;index" json:"session_id"`
	UserID    int64      `gorm:"not null;index" json:"user_id"`
	JoinedAt  time.Time  `gorm:"autoCreateTime" json:"joined_at"`
	LeftAt    *time.Time `json:"left_at,omitempty"`

	// Relations
	Session LiveSession `gorm:"foreignKey:SessionID" json:"session,omitempty"`
	User    User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (SessionParticipant) TableName() string {
	return "session_participants"
}
