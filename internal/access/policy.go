package access

import (
	"context"

	"gorm.io/gorm"

	"whiteboard-backend/internal/model"
)

// Policy answers room-scoped authorization questions. Every mutating or
// state-reading board operation consults it before touching the board.
type Policy struct {
	db *gorm.DB
}

// NewPolicy Policy 생성
func NewPolicy(db *gorm.DB) *Policy {
	return &Policy{db: db}
}

// CanAccess reports whether the user may read and draw in the room.
// Class rooms: active members and the teacher. Session rooms: anyone
// with a participant row who has not left.
func (p *Policy) CanAccess(ctx context.Context, room model.RoomRef, userID int64) (bool, error) {
	switch room.Kind {
	case model.RoomKindClass:
		teacher, err := p.isClassTeacher(ctx, room.ID, userID)
		if err != nil {
			return false, err
		}
		if teacher {
			return true, nil
		}
		return p.isClassMember(ctx, room.ID, userID)

	case model.RoomKindSession:
		return p.isSessionParticipant(ctx, room.ID, userID)
	}

	return false, nil
}

// CanModerate reports whether the user may erase other users' strokes
// and clear the room. Class rooms: teacher only. Session rooms: always
// denied; session moderation belongs to the session module, which does
// not expose a host check here yet.
func (p *Policy) CanModerate(ctx context.Context, room model.RoomRef, userID int64) (bool, error) {
	switch room.Kind {
	case model.RoomKindClass:
		return p.isClassTeacher(ctx, room.ID, userID)

	case model.RoomKindSession:
		return false, nil
	}

	return false, nil
}

// isClassTeacher 클래스 담당 교사 여부 확인
func (p *Policy) isClassTeacher(ctx context.Context, classID, userID int64) (bool, error) {
	var teacherID int64
	err := p.db.WithContext(ctx).
		Table("classes").
		Where("id = ?", classID).
		Select("teacher_id").
		Scan(&teacherID).Error
	if err != nil {
		return false, err
	}
	return teacherID != 0 && teacherID == userID, nil
}

// isClassMember 클래스 멤버 여부 확인 (ACTIVE 상태만)
func (p *Policy) isClassMember(ctx context.Context, classID, userID int64) (bool, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Model(&model.ClassMember{}).
		Where("class_id = ? AND user_id = ? AND status = ?", classID, userID, model.MemberStatusActive.String()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// isSessionParticipant 세션 참가자 여부 확인
func (p *Policy) isSessionParticipant(ctx context.Context, sessionID, userID int64) (bool, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Model(&model.SessionParticipant{}).
		Where("session_id = ? AND user_id = ? AND left_at IS NULL", sessionID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
