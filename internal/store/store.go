package store

import (
	"context"
	"errors"
	"sync"

	"github.com/inin7674/lol-team/internal/auction"
)

// ErrRoomNotFound is returned when no room is persisted under a code.
var ErrRoomNotFound = errors.New("room not found")

// Store persists the full Room aggregate. Every successful mutating
// command writes the whole room before the caller acknowledges success,
// so a revived process can pick up exactly where the last committed
// command left off.
type Store interface {
	Save(ctx context.Context, room *auction.Room) error
	Load(ctx context.Context, code string) (*auction.Room, error)
	Delete(ctx context.Context, code string) error
}

// Memory is a process-local Store for tests and single-node dev runs.
type Memory struct {
	mu    sync.RWMutex
	rooms map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{rooms: make(map[string][]byte)}
}

func (m *Memory) Save(ctx context.Context, room *auction.Room) error {
	data, err := encodeRoom(room)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.RoomCode] = data
	return nil
}

func (m *Memory) Load(ctx context.Context, code string) (*auction.Room, error) {
	m.mu.RLock()
	data, ok := m.rooms[code]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrRoomNotFound
	}
	return decodeRoom(data)
}

func (m *Memory) Delete(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, code)
	return nil
}
