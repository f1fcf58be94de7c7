package cache

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"whiteboard-backend/internal/model"
)

// RedisClient wraps the Redis client for room roster tracking. The
// roster mirrors who is currently joined to each room so the membership
// view survives a process restart and can be shared once the engine is
// deployed across processes.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a new Redis client
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Printf("[Redis] Connected to %s", addr)
	return &RedisClient{client: client}, nil
}

func rosterKey(room model.RoomRef) string {
	return "board:room:" + room.Key() + ":members"
}

// AddRoomMember records a user as joined to the room's board.
func (r *RedisClient) AddRoomMember(ctx context.Context, room model.RoomRef, userID int64, nickname string) error {
	key := rosterKey(room)

	if err := r.client.HSet(ctx, key, strconv.FormatInt(userID, 10), nickname).Err(); err != nil {
		log.Printf("[Redis] Failed to add room member: %v", err)
		return err
	}

	// Roster entries for dead rooms expire on their own (24 hours)
	r.client.Expire(ctx, key, 24*time.Hour)

	return nil
}

// RemoveRoomMember removes a user from the room's roster.
func (r *RedisClient) RemoveRoomMember(ctx context.Context, room model.RoomRef, userID int64) error {
	return r.client.HDel(ctx, rosterKey(room), strconv.FormatInt(userID, 10)).Err()
}

// RoomMembers returns the current roster as userID → nickname.
func (r *RedisClient) RoomMembers(ctx context.Context, room model.RoomRef) (map[int64]string, error) {
	fields, err := r.client.HGetAll(ctx, rosterKey(room)).Result()
	if err != nil {
		return nil, err
	}

	members := make(map[int64]string, len(fields))
	for field, nickname := range fields {
		userID, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		members[userID] = nickname
	}

	return members, nil
}

// RoomMemberCount returns the number of users on the room's roster.
func (r *RedisClient) RoomMemberCount(ctx context.Context, room model.RoomRef) (int64, error) {
	return r.client.HLen(ctx, rosterKey(room)).Result()
}

// ClearRoom removes the room's roster entirely.
func (r *RedisClient) ClearRoom(ctx context.Context, room model.RoomRef) error {
	return r.client.Del(ctx, rosterKey(room)).Err()
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Health checks if Redis is healthy
func (r *RedisClient) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
