package livekit

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/meeting-roster/internal/usecase/errors"
	"github.com/johnquangdev/meeting-roster/internal/usecase/roster"
	"github.com/johnquangdev/meeting-roster/pkg/passcontext"
)

// Participant attributes set by the meeting client
const (
	AttributeRole     = "role"
	AttributeSpeaking = "speaking"
)

// egressPrefix marks recorder participants, which are not people
const egressPrefix = "EG_"

// RosterProvider reads the roster of one LiveKit room
type RosterProvider struct {
	client Client
	room   string
	logger *zap.Logger
}

var (
	_ roster.SnapshotProvider = (*RosterProvider)(nil)
	_ roster.Initializer      = (*RosterProvider)(nil)
)

// NewRosterProvider creates a provider for room
func NewRosterProvider(client Client, room string, logger *zap.Logger) *RosterProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterProvider{
		client: client,
		room:   room,
		logger: logger.With(zap.String("room", room)),
	}
}

// Init verifies that the room exists and the credentials are accepted
func (p *RosterProvider) Init(ctx context.Context) error {
	rooms, err := p.client.ListRooms(ctx, []string{p.room})
	if err != nil {
		return err
	}
	for _, r := range rooms {
		if r.Name == p.room {
			p.logger.Info("livekit.room.found", zap.String("sid", r.SID), zap.Int32("participants", r.NumParticipants))
			return nil
		}
	}
	return fmt.Errorf("%w: %s", usecaseErrors.ErrRoomNotFound, p.room)
}

// FetchParticipants returns the room roster as raw records
func (p *RosterProvider) FetchParticipants(ctx context.Context) ([]entities.RawRecord, error) {
	participants, err := p.client.ListParticipants(ctx, p.room)
	if err != nil {
		p.logger.Debug("livekit.participants.failed", append(passcontext.Fields(ctx), zap.Error(err))...)
		return nil, err
	}

	records := make([]entities.RawRecord, 0, len(participants))
	for _, info := range participants {
		rec, ok := ToRawRecord(info)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// ToRawRecord converts a LiveKit participant. Egress participants and
// participants without identity are skipped.
func ToRawRecord(info *ParticipantInfo) (entities.RawRecord, bool) {
	if info == nil || info.Identity == "" || strings.HasPrefix(info.Identity, egressPrefix) {
		return entities.RawRecord{}, false
	}

	name := info.Name
	if name == "" {
		name = info.Identity
	}

	code, _ := entities.ParseRoleCode(info.Attributes[AttributeRole])
	speaking, _ := strconv.ParseBool(info.Attributes[AttributeSpeaking])

	return entities.RawRecord{
		ID:          info.Identity,
		DisplayName: name,
		RoleCode:    code,
		IsSpeaking:  speaking,
	}, true
}
