package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/inin7674/lol-team/internal/auction"
)

const roomKeyPrefix = "room:"

// Redis stores each room as one JSON blob under room:<code>.
type Redis struct {
	client *redis.Client
}

func NewRedis(ctx context.Context, client *redis.Client) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Save(ctx context.Context, room *auction.Room) error {
	data, err := encodeRoom(room)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, roomKeyPrefix+room.RoomCode, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save room %s: %w", room.RoomCode, err)
	}
	return nil
}

func (r *Redis) Load(ctx context.Context, code string) (*auction.Room, error) {
	data, err := r.client.Get(ctx, roomKeyPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load room %s: %w", code, err)
	}
	return decodeRoom(data)
}

func (r *Redis) Delete(ctx context.Context, code string) error {
	return r.client.Del(ctx, roomKeyPrefix+code).Err()
}

func encodeRoom(room *auction.Room) ([]byte, error) {
	data, err := json.Marshal(room)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal room: %w", err)
	}
	return data, nil
}

func decodeRoom(data []byte) (*auction.Room, error) {
	var room auction.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}
	return &room, nil
}
