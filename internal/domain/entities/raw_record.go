package entities

import "strings"

// RawRecord is the canonical shape of one participant as reported by a
// snapshot source. Adapters normalize provider payloads into it.
type RawRecord struct {
	ID          string `json:"id" validate:"required"`
	DisplayName string `json:"display_name"`
	RoleCode    int    `json:"role_code" validate:"gte=0"`
	IsSpeaking  bool   `json:"is_speaking"`
}

// Role returns the role the record maps to
func (r RawRecord) Role() ParticipantRole {
	return RoleFromCode(r.RoleCode)
}

// ParseRoleCode maps a textual or numeric role as sent by meeting
// clients ("host", "cohost", "co-host", "attendee", "1", ...) to a role
// code. Unknown values map to RoleCodeParticipant and ok=false.
func ParseRoleCode(s string) (code int, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "host", "1":
		return RoleCodeHost, true
	case "cohost", "co_host", "co-host", "2":
		return RoleCodeCoHost, true
	case "participant", "attendee", "guest", "0", "":
		return RoleCodeParticipant, true
	default:
		return RoleCodeParticipant, false
	}
}
