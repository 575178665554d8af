package medical

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medassist/backend/internal/llm"
	"github.com/medassist/backend/internal/metrics"
	"github.com/medassist/backend/internal/storage/models"
	"github.com/medassist/backend/internal/storage/sqlite"
	"github.com/medassist/backend/pkg/config"
	"github.com/medassist/backend/pkg/logger"
)

const (
	QueryTypeSymptoms        = "symptoms"
	QueryTypeDrugInteraction = "drug_interaction"
	QueryTypeMedicalTerm     = "medical_term"
	QueryTypeGeneral         = "general"
	QueryTypeEmergency       = "emergency"

	contextTurnLimit     = 5
	conditionsPerKeyword = 3
	conditionKeywords    = 3
	maxRelatedConditions = 5
	termsPerKeyword      = 5
)

const errorResponseText = "I'm sorry, I encountered an issue processing your request. " +
	"For medical concerns, please consult with a healthcare professional. " +
	"You can also try rephrasing your question and asking again."

// ContextCache is the optional session-context cache in front of the store.
type ContextCache interface {
	GetContext(ctx context.Context, sessionID string) ([]llm.ContextTurn, bool, error)
	SetContext(ctx context.Context, sessionID string, turns []llm.ContextTurn) error
	InvalidateContext(ctx context.Context, sessionID string) error
}

// Engine runs the medical query pipeline: emergency scan, context fetch,
// type dispatch, model call, persistence, response shaping.
type Engine struct {
	db                *sqlite.Client
	llm               *llm.Client
	cache             ContextCache
	emergencyKeywords []string
	drugLexicon       []string
}

func NewEngine(db *sqlite.Client, llmClient *llm.Client, cache ContextCache, safety config.SafetyConfig) *Engine {
	return &Engine{
		db:                db,
		llm:               llmClient,
		cache:             cache,
		emergencyKeywords: safety.EmergencyKeywords,
		drugLexicon:       safety.DrugLexicon,
	}
}

func (e *Engine) CreateSession(ctx context.Context, sessionType string) (string, error) {
	sessionID := uuid.New().String()
	if err := e.db.CreateSession(ctx, sessionID, sessionType); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return sessionID, nil
}

// ProcessQuery never returns an error: every internal failure degrades to the
// fixed error response with confidence 0 and the cause embedded.
func (e *Engine) ProcessQuery(ctx context.Context, sessionID, query, queryType string) *QueryResponse {
	start := time.Now()
	defer func() {
		metrics.QueryDuration.WithLabelValues(queryType).Observe(time.Since(start).Seconds())
	}()

	if DetectEmergency(query, e.emergencyKeywords) {
		return e.handleEmergency(ctx, sessionID, query)
	}

	history := e.conversationContext(ctx, sessionID)

	var resp *QueryResponse
	switch queryType {
	case QueryTypeSymptoms:
		resp = e.processSymptoms(ctx, sessionID, query, history)
	case QueryTypeDrugInteraction:
		resp = e.processDrugInteraction(ctx, sessionID, query, history)
	case QueryTypeMedicalTerm:
		resp = e.processMedicalTerm(ctx, sessionID, query, history)
	default:
		resp = e.processGeneral(ctx, sessionID, query, history)
	}

	metrics.ConfidenceScore.Observe(resp.Confidence)
	return resp
}

func (e *Engine) processSymptoms(ctx context.Context, sessionID, query string, history []llm.ContextTurn) *QueryResponse {
	prompt := fmt.Sprintf(`The user is describing symptoms. Please analyze them and provide:
1. Possible common causes (educational information only)
2. General recommendations for care
3. When to seek medical attention
4. Important red flags to watch for

Remember: This is educational information only, not a diagnosis.

User's symptoms: %s`, query)

	res := e.llm.GenerateMedical(ctx, prompt, history, true)

	related, err := e.relatedConditions(ctx, query)
	if err != nil {
		logger.Error("Related condition lookup failed", zap.Error(err))
		return e.errorResponse(err)
	}

	turnID := e.persistTurn(ctx, sessionID, query, QueryTypeSymptoms, res)

	resp := e.baseResponse(sessionID, turnID, QueryTypeSymptoms, res)
	resp.RelatedConditions = related
	resp.MedicalGuidance = symptomGuidance()
	return resp
}

func (e *Engine) processDrugInteraction(ctx context.Context, sessionID, query string, history []llm.ContextTurn) *QueryResponse {
	drugs := ExtractDrugs(query, e.drugLexicon)

	var interactions []InteractionRecord
	if len(drugs) >= 2 {
		var err error
		interactions, err = e.knownInteractions(ctx, drugs)
		if err != nil {
			logger.Error("Drug interaction lookup failed", zap.Error(err))
			return e.errorResponse(err)
		}
	}

	prompt := fmt.Sprintf(`The user is asking about medications or drug interactions. Please provide:
1. General information about the mentioned medications (if any)
2. Important safety considerations
3. The importance of consulting healthcare providers about medications
4. Never provide specific dosing or prescribing advice

User's question: %s`, query)

	res := e.llm.GenerateMedical(ctx, prompt, history, true)
	turnID := e.persistTurn(ctx, sessionID, query, QueryTypeDrugInteraction, res)

	resp := e.baseResponse(sessionID, turnID, QueryTypeDrugInteraction, res)
	resp.PotentialDrugs = drugs
	resp.KnownInteractions = interactions
	resp.DrugSafetyGuidance = drugGuidance()
	return resp
}

func (e *Engine) processMedicalTerm(ctx context.Context, sessionID, query string, history []llm.ContextTurn) *QueryResponse {
	terms, err := e.termDefinitions(ctx, query)
	if err != nil {
		logger.Error("Term lookup failed", zap.Error(err))
		return e.errorResponse(err)
	}

	prompt := fmt.Sprintf(`The user is asking about medical terminology. Please provide:
1. Clear, simple explanations of medical terms
2. Pronunciation help if relevant
3. Context for when these terms are used
4. Related terms that might be helpful

User's question: %s`, query)

	// Terminology answers carry no medical disclaimer.
	res := e.llm.GenerateMedical(ctx, prompt, history, false)
	turnID := e.persistTurn(ctx, sessionID, query, QueryTypeMedicalTerm, res)

	resp := e.baseResponse(sessionID, turnID, QueryTypeMedicalTerm, res)
	resp.TermDefinitions = terms
	return resp
}

func (e *Engine) processGeneral(ctx context.Context, sessionID, query string, history []llm.ContextTurn) *QueryResponse {
	res := e.llm.GenerateMedical(ctx, query, history, true)
	turnID := e.persistTurn(ctx, sessionID, query, QueryTypeGeneral, res)
	return e.baseResponse(sessionID, turnID, QueryTypeGeneral, res)
}

// handleEmergency short-circuits before any model call. The canned alert is
// persisted like any other turn, with confidence exactly 1.0.
func (e *Engine) handleEmergency(ctx context.Context, sessionID, query string) *QueryResponse {
	metrics.EmergencyDetected.Inc()
	metrics.QueryTotal.WithLabelValues(QueryTypeEmergency, "ok").Inc()

	logger.Warn("Emergency keywords detected", zap.String("session_id", sessionID))

	turnID := e.saveTurn(ctx, sessionID, query, emergencyResponse, 1.0, true)

	return &QueryResponse{
		Response:          emergencyResponse,
		Confidence:        1.0,
		SessionID:         sessionID,
		ConversationID:    turnID,
		QueryType:         QueryTypeEmergency,
		Timestamp:         time.Now().Format(time.RFC3339),
		EmergencyDetected: true,
		ImmediateAction:   immediateActionEmergency,
	}
}

// conversationContext reads the five most-recent turns, oldest first, going
// through the cache when one is configured. Failures yield empty context, not
// a failed request.
func (e *Engine) conversationContext(ctx context.Context, sessionID string) []llm.ContextTurn {
	if e.cache != nil {
		turns, hit, err := e.cache.GetContext(ctx, sessionID)
		if err != nil {
			logger.Warn("Context cache read failed", zap.Error(err))
		} else if hit {
			return turns
		}
	}

	stored, err := e.db.RecentTurns(ctx, sessionID, contextTurnLimit)
	if err != nil {
		logger.Error("Failed to get conversation context", zap.Error(err))
		return nil
	}

	turns := make([]llm.ContextTurn, 0, len(stored))
	for _, t := range stored {
		turns = append(turns, llm.ContextTurn{User: t.UserMessage, Assistant: t.AssistantReply})
	}

	if e.cache != nil && len(turns) > 0 {
		if err := e.cache.SetContext(ctx, sessionID, turns); err != nil {
			logger.Warn("Context cache write failed", zap.Error(err))
		}
	}

	return turns
}

func (e *Engine) relatedConditions(ctx context.Context, query string) ([]ConditionRecord, error) {
	keywords := Keywords(query, conditionKeywords)
	if len(keywords) == 0 {
		return nil, nil
	}

	conditions, err := e.db.ConditionsByKeywords(ctx, keywords, conditionsPerKeyword, maxRelatedConditions)
	if err != nil {
		return nil, err
	}

	records := make([]ConditionRecord, 0, len(conditions))
	for _, c := range conditions {
		records = append(records, ConditionRecord{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Severity:    c.Severity,
		})
	}

	return records, nil
}

// knownInteractions checks every unordered pair among the extracted drugs.
func (e *Engine) knownInteractions(ctx context.Context, drugs []string) ([]InteractionRecord, error) {
	var records []InteractionRecord

	for i, drugA := range drugs {
		for _, drugB := range drugs[i+1:] {
			interactions, err := e.db.InteractionsBetween(ctx, drugA, drugB)
			if err != nil {
				return nil, err
			}
			for _, di := range interactions {
				records = append(records, InteractionRecord{
					DrugA:         di.DrugA,
					DrugB:         di.DrugB,
					Type:          di.Type,
					Description:   di.Description,
					SeverityScore: di.SeverityScore,
				})
			}
		}
	}

	return records, nil
}

func (e *Engine) termDefinitions(ctx context.Context, query string) ([]TermRecord, error) {
	keywords := Keywords(query, 0)
	if len(keywords) == 0 {
		return nil, nil
	}

	terms, err := e.db.SearchTerms(ctx, keywords, termsPerKeyword)
	if err != nil {
		return nil, err
	}

	records := make([]TermRecord, 0, len(terms))
	for _, t := range terms {
		records = append(records, TermRecord{
			Term:          t.Term,
			Definition:    t.Definition,
			Category:      t.Category,
			Pronunciation: t.Pronunciation,
		})
	}

	return records, nil
}

// persistTurn writes the turn plus generation metadata and refreshes the cache.
// A persistence failure is logged and reported as conversation id 0; the caller
// still receives the generated response.
func (e *Engine) persistTurn(ctx context.Context, sessionID, query, queryType string, res *llm.Result) int64 {
	turnID := e.saveTurn(ctx, sessionID, query, res.Response, res.Confidence, res.DisclaimerIncluded)

	if res.Overridden {
		metrics.SafetyOverrides.Inc()
	}
	if res.Model != "fallback" {
		metrics.ModelCallDuration.WithLabelValues(res.Model).Observe(float64(res.ResponseTimeMS) / 1000)
	}

	status := "ok"
	if res.Err != "" {
		status = "degraded"
	}
	metrics.QueryTotal.WithLabelValues(queryType, status).Inc()

	if turnID != 0 {
		meta := &models.ResponseMeta{
			TurnID:         turnID,
			Model:          res.Model,
			Temperature:    res.Temperature,
			ResponseTimeMS: res.ResponseTimeMS,
			ErrorOccurred:  res.Err != "",
			ErrorMessage:   res.Err,
		}
		if err := e.db.SaveResponseMeta(ctx, meta); err != nil {
			logger.Warn("Failed to save response metadata", zap.Error(err))
		}
	}

	return turnID
}

func (e *Engine) saveTurn(ctx context.Context, sessionID, userText, replyText string, confidence float64, disclaimer bool) int64 {
	turnID, err := e.db.SaveTurn(ctx, &models.Turn{
		SessionID:       sessionID,
		UserMessage:     userText,
		AssistantReply:  replyText,
		Confidence:      confidence,
		DisclaimerShown: disclaimer,
	})
	if err != nil {
		logger.Error("Failed to persist turn", zap.Error(err), zap.String("session_id", sessionID))
		return 0
	}

	if e.cache != nil {
		if err := e.cache.InvalidateContext(ctx, sessionID); err != nil {
			logger.Warn("Context cache invalidation failed", zap.Error(err))
		}
	}

	return turnID
}

func (e *Engine) baseResponse(sessionID string, turnID int64, queryType string, res *llm.Result) *QueryResponse {
	return &QueryResponse{
		Response:       res.Response,
		Confidence:     res.Confidence,
		SessionID:      sessionID,
		ConversationID: turnID,
		QueryType:      queryType,
		Timestamp:      time.Now().Format(time.RFC3339),
	}
}

func (e *Engine) errorResponse(cause error) *QueryResponse {
	metrics.QueryTotal.WithLabelValues("error", "error").Inc()
	return &QueryResponse{
		Response:   errorResponseText,
		Confidence: 0.0,
		QueryType:  "error",
		Timestamp:  time.Now().Format(time.RFC3339),
		Error:      cause.Error(),
	}
}

// History returns the session row and every turn in insertion order.
func (e *Engine) History(ctx context.Context, sessionID string) (*HistoryResponse, error) {
	session, turns, err := e.db.SessionHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	history := make([]HistoryTurn, 0, len(turns))
	for _, t := range turns {
		history = append(history, HistoryTurn{
			UserMessage: t.UserMessage,
			AIResponse:  t.AssistantReply,
			Confidence:  t.Confidence,
			Timestamp:   t.CreatedAt.Format(time.RFC3339),
		})
	}

	return &HistoryResponse{
		SessionID: sessionID,
		SessionInfo: SessionInfo{
			SessionType:   session.SessionType,
			StartedAt:     session.StartedAt.Format(time.RFC3339),
			TotalMessages: session.TotalMessages,
		},
		Conversations:      history,
		TotalConversations: len(history),
	}, nil
}
