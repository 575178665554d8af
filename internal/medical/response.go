package medical

// QueryResponse is the shaped payload for one processed query. Fields vary by
// branch; absent ones are omitted from the JSON.
type QueryResponse struct {
	Response           string              `json:"response"`
	Confidence         float64             `json:"confidence"`
	SessionID          string              `json:"session_id,omitempty"`
	ConversationID     int64               `json:"conversation_id"`
	QueryType          string              `json:"query_type"`
	Timestamp          string              `json:"timestamp"`
	EmergencyDetected  bool                `json:"emergency_detected,omitempty"`
	ImmediateAction    string              `json:"immediate_action,omitempty"`
	MedicalGuidance    *SymptomGuidance    `json:"medical_guidance,omitempty"`
	RelatedConditions  []ConditionRecord   `json:"related_conditions,omitempty"`
	PotentialDrugs     []string            `json:"potential_drugs,omitempty"`
	KnownInteractions  []InteractionRecord `json:"known_interactions,omitempty"`
	DrugSafetyGuidance *DrugGuidance       `json:"drug_safety_guidance,omitempty"`
	TermDefinitions    []TermRecord        `json:"term_definitions,omitempty"`
	Error              string              `json:"error,omitempty"`
}

type ConditionRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

type InteractionRecord struct {
	DrugA         string `json:"drug_a"`
	DrugB         string `json:"drug_b"`
	Type          string `json:"interaction_type"`
	Description   string `json:"description"`
	SeverityScore int    `json:"severity_score"`
}

type TermRecord struct {
	Term          string `json:"term"`
	Definition    string `json:"definition"`
	Category      string `json:"category"`
	Pronunciation string `json:"pronunciation"`
}

type HistoryResponse struct {
	SessionID          string        `json:"session_id"`
	SessionInfo        SessionInfo   `json:"session_info"`
	Conversations      []HistoryTurn `json:"conversations"`
	TotalConversations int           `json:"total_conversations"`
}

type SessionInfo struct {
	SessionType   string `json:"session_type"`
	StartedAt     string `json:"started_at"`
	TotalMessages int    `json:"total_messages"`
}

type HistoryTurn struct {
	UserMessage string  `json:"user_message"`
	AIResponse  string  `json:"ai_response"`
	Confidence  float64 `json:"confidence"`
	Timestamp   string  `json:"timestamp"`
}
