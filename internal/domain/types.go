package domain

import "time"

type SessionID string
type MessageID string
type AimID string
type TrackedItemID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMode selects the prompt-construction and persistence rules for a turn.
type ChatMode string

const (
	ModeCheckIn ChatMode = "checkin" // morning check-in, persisted history
	ModeMidday  ChatMode = "midday"  // ephemeral, one short paragraph
	ModeReflect ChatMode = "reflect" // ephemeral, open-ended
	ModeEvening ChatMode = "evening" // evening review, persisted history
)

// ScorePhase says when in the day a life wheel entry was recorded.
type ScorePhase string

const (
	PhaseMorning ScorePhase = "morning"
	PhaseEvening ScorePhase = "evening"
)

type Timestamp = time.Time

// DateFormat is the canonical session-day key layout (home timezone).
const DateFormat = "2006-01-02"
