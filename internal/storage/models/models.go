package models

import "time"

// Session severity tags, ranked emergency > serious > moderate > mild.
const (
	SeverityMild      = "mild"
	SeverityModerate  = "moderate"
	SeveritySerious   = "serious"
	SeverityEmergency = "emergency"
)

type Session struct {
	ID            string
	SessionType   string
	StartedAt     time.Time
	LastActivity  time.Time
	TotalMessages int
}

// Turn is one user query plus its generated response. Append-only per session.
type Turn struct {
	ID              int64
	SessionID       string
	UserMessage     string
	AssistantReply  string
	Confidence      float64
	DisclaimerShown bool
	CreatedAt       time.Time
}

// ResponseMeta records per-generation metadata alongside a turn.
type ResponseMeta struct {
	ID             int64
	TurnID         int64
	Model          string
	Temperature    float64
	ResponseTimeMS int
	ErrorOccurred  bool
	ErrorMessage   string
	CreatedAt      time.Time
}

type Condition struct {
	ID          string
	Name        string
	Description string
	Severity    string
	Symptoms    string
	Causes      string
	Treatments  string
}

type DrugInteraction struct {
	ID            int64
	DrugA         string
	DrugB         string
	Type          string
	Description   string
	SeverityScore int
}

type Term struct {
	ID            int64
	Term          string
	Definition    string
	Category      string
	Pronunciation string
}

type Preference struct {
	Key         string
	Value       string
	DataType    string
	Description string
}

type Stats struct {
	Sessions     int64
	Turns        int64
	Conditions   int64
	Interactions int64
	Terms        int64
	DatabaseSize int64
}
