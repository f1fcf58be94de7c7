package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"whiteboard-backend/internal/model"
)

// StrokeStore is the durable side of the whiteboard: finalized strokes
// only, soft-deleted rather than removed so history survives for audit.
type StrokeStore struct {
	db *gorm.DB
}

// NewStrokeStore StrokeStore 생성
func NewStrokeStore(db *gorm.DB) *StrokeStore {
	return &StrokeStore{db: db}
}

// Append persists a finalized stroke and fills in its id and creation
// timestamp. Callers must not append the same stroke token twice.
func (s *StrokeStore) Append(ctx context.Context, stroke *model.WhiteboardStroke) error {
	return s.db.WithContext(ctx).Create(stroke).Error
}

// SoftDelete marks the matching non-deleted stroke as deleted. Returns
// false when no such stroke exists.
func (s *StrokeStore) SoftDelete(ctx context.Context, room model.RoomRef, token string) (bool, error) {
	now := time.Now()
	res := s.db.WithContext(ctx).
		Model(&model.WhiteboardStroke{}).
		Where("room_kind = ? AND room_id = ? AND stroke_token = ? AND is_deleted = ?", room.Kind, room.ID, token, false).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SoftDeleteAll marks every non-deleted stroke in the room as deleted
// and returns the number of rows affected.
func (s *StrokeStore) SoftDeleteAll(ctx context.Context, room model.RoomRef) (int64, error) {
	now := time.Now()
	res := s.db.WithContext(ctx).
		Model(&model.WhiteboardStroke{}).
		Where("room_kind = ? AND room_id = ? AND is_deleted = ?", room.Kind, room.ID, false).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// FindByToken returns the non-deleted stroke with the given token, or
// nil when none exists.
func (s *StrokeStore) FindByToken(ctx context.Context, room model.RoomRef, token string) (*model.WhiteboardStroke, error) {
	var stroke model.WhiteboardStroke
	err := s.db.WithContext(ctx).
		Where("room_kind = ? AND room_id = ? AND stroke_token = ? AND is_deleted = ?", room.Kind, room.ID, token, false).
		First(&stroke).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &stroke, nil
}

// FindLatestByAuthor returns the author's most recent non-deleted stroke
// in the room, or nil when the author has none left.
func (s *StrokeStore) FindLatestByAuthor(ctx context.Context, room model.RoomRef, authorID int64) (*model.WhiteboardStroke, error) {
	var stroke model.WhiteboardStroke
	err := s.db.WithContext(ctx).
		Where("room_kind = ? AND room_id = ? AND author_id = ? AND is_deleted = ?", room.Kind, room.ID, authorID, false).
		Order("created_at DESC, id DESC").
		First(&stroke).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &stroke, nil
}

// ListActive returns all non-deleted strokes for the room ordered by
// creation time ascending, so replaying them reconstructs the board.
func (s *StrokeStore) ListActive(ctx context.Context, room model.RoomRef) ([]model.WhiteboardStroke, error) {
	var strokes []model.WhiteboardStroke
	err := s.db.WithContext(ctx).
		Where("room_kind = ? AND room_id = ? AND is_deleted = ?", room.Kind, room.ID, false).
		Order("created_at ASC, id ASC").
		Find(&strokes).Error
	if err != nil {
		return nil, err
	}
	return strokes, nil
}

// CountActive returns the number of non-deleted strokes in the room.
func (s *StrokeStore) CountActive(ctx context.Context, room model.RoomRef) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.WhiteboardStroke{}).
		Where("room_kind = ? AND room_id = ? AND is_deleted = ?", room.Kind, room.ID, false).
		Count(&count).Error
	return count, err
}
