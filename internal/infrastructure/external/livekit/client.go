package livekit

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	livekit "github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
)

// Client wraps LiveKit operations
type Client interface {
	ListRooms(ctx context.Context, names []string) ([]*RoomInfo, error)
	ListParticipants(ctx context.Context, roomName string) ([]*ParticipantInfo, error)
}

// RoomInfo holds room information
type RoomInfo struct {
	Name            string
	SID             string
	CreationTime    time.Time
	MaxParticipants int32
	NumParticipants int32
	Metadata        string
}

// ParticipantInfo holds participant information
type ParticipantInfo struct {
	SID        string
	Identity   string
	Name       string
	Metadata   string
	Attributes map[string]string
	JoinedAt   time.Time
}

// realClient is the real LiveKit client implementation
type realClient struct {
	roomClient *lksdk.RoomServiceClient
	url        string
}

// NewClient creates a new LiveKit client
func NewClient(url, apiKey, apiSecret string, useMock bool) Client {
	if useMock {
		return NewMockClient(true)
	}

	roomClient := lksdk.NewRoomServiceClient(url, apiKey, apiSecret)
	return &realClient{
		roomClient: roomClient,
		url:        url,
	}
}

// ListRooms lists the rooms with the given names
func (c *realClient) ListRooms(ctx context.Context, names []string) ([]*RoomInfo, error) {
	resp, err := c.roomClient.ListRooms(ctx, &livekit.ListRoomsRequest{
		Names: names,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	rooms := make([]*RoomInfo, 0, len(resp.Rooms))
	for _, room := range resp.Rooms {
		rooms = append(rooms, &RoomInfo{
			Name:            room.Name,
			SID:             room.Sid,
			CreationTime:    time.Unix(room.CreationTime, 0),
			MaxParticipants: int32(room.MaxParticipants),
			NumParticipants: int32(room.NumParticipants),
			Metadata:        room.Metadata,
		})
	}
	return rooms, nil
}

// ListParticipants lists all participants in a room
func (c *realClient) ListParticipants(ctx context.Context, roomName string) ([]*ParticipantInfo, error) {
	resp, err := c.roomClient.ListParticipants(ctx, &livekit.ListParticipantsRequest{
		Room: roomName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	participants := make([]*ParticipantInfo, 0, len(resp.Participants))
	for _, p := range resp.Participants {
		participants = append(participants, &ParticipantInfo{
			SID:        p.Sid,
			Identity:   p.Identity,
			Name:       p.Name,
			Metadata:   p.Metadata,
			Attributes: p.Attributes,
			JoinedAt:   time.Unix(p.JoinedAt, 0),
		})
	}

	return participants, nil
}

// MockClient is an in-memory Client for local runs and tests
type MockClient struct {
	mu           sync.Mutex
	autoCreate   bool
	rooms        map[string]*RoomInfo
	participants map[string][]*ParticipantInfo
	err          error
}

// NewMockClient creates a mock. With autoCreate every requested room
// is reported as existing.
func NewMockClient(autoCreate bool) *MockClient {
	return &MockClient{
		autoCreate:   autoCreate,
		rooms:        make(map[string]*RoomInfo),
		participants: make(map[string][]*ParticipantInfo),
	}
}

// AddRoom (mock) registers a room
func (m *MockClient) AddRoom(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addRoomLocked(name)
}

// SetParticipants (mock) replaces the roster of a room
func (m *MockClient) SetParticipants(roomName string, participants ...*ParticipantInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addRoomLocked(roomName)
	m.participants[roomName] = participants
}

// FailWith (mock) makes every call return err until reset with nil
func (m *MockClient) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// ListRooms (mock) returns the known rooms among names
func (m *MockClient) ListRooms(ctx context.Context, names []string) ([]*RoomInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	rooms := make([]*RoomInfo, 0, len(names))
	for _, name := range names {
		if _, ok := m.rooms[name]; !ok && m.autoCreate {
			m.addRoomLocked(name)
		}
		if room, ok := m.rooms[name]; ok {
			rooms = append(rooms, room)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms, nil
}

// ListParticipants (mock) returns a copy of the configured roster
func (m *MockClient) ListParticipants(ctx context.Context, roomName string) ([]*ParticipantInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	out := make([]*ParticipantInfo, 0, len(m.participants[roomName]))
	for _, p := range m.participants[roomName] {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockClient) addRoomLocked(name string) {
	if _, ok := m.rooms[name]; ok {
		return
	}
	m.rooms[name] = &RoomInfo{
		Name:         name,
		SID:          "mock-sid-" + uuid.New().String(),
		CreationTime: time.Now(),
	}
}
