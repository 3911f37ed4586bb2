package gateway

import "runtime"

const clientName = "shardkit"

// maxLargeThreshold is the highest large_threshold the gateway accepts.
const maxLargeThreshold = 250

// outboundFrame is the generic {"op": ..., "d": ...} shape every client-sent
// payload shares; the concrete type of Data depends on the opcode.
type outboundFrame struct {
	Op   Opcode `json:"op"`
	Data any    `json:"d"`
}

// IdentifyProperties describes the connecting client, as required by the
// Identify payload.
type IdentifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

// IdentifyPayload is the payload for Opcode 2 (Identify): starts a fresh
// session.
type IdentifyPayload struct {
	Token          string              `json:"token"`
	Properties     IdentifyProperties  `json:"properties"`
	Compress       bool                `json:"compress"`
	LargeThreshold int                 `json:"large_threshold,omitempty"`
	Shard          [2]int              `json:"shard"`
	Intents        uint64              `json:"intents"`
	Presence       *PresenceUpdateData `json:"presence,omitempty"`
}

// ResumePayload is the payload for Opcode 6 (Resume): continues an existing
// session at the last observed sequence number.
type ResumePayload struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Seq       uint64 `json:"seq"`
}

// PresenceUpdateData is the payload for Opcode 3 (Presence Update).
type PresenceUpdateData struct {
	Since      *int64     `json:"since"`
	Activities []Activity `json:"activities"`
	Status     string     `json:"status"`
	AFK        bool       `json:"afk"`
}

// Activity describes a single entry of a presence's activities list.
type Activity struct {
	Name string `json:"name"`
	Type int    `json:"type"`
}

// VoiceStateUpdateData is the payload for Opcode 4 (Voice State Update).
type VoiceStateUpdateData struct {
	GuildID   string  `json:"guild_id"`
	ChannelID *string `json:"channel_id"`
	SelfMute  bool    `json:"self_mute"`
	SelfDeaf  bool    `json:"self_deaf"`
}

func defaultIdentifyProperties() IdentifyProperties {
	return IdentifyProperties{OS: runtime.GOOS, Browser: clientName, Device: clientName}
}
