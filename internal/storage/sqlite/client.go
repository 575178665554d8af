package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/medassist/backend/internal/storage/models"
	"github.com/medassist/backend/pkg/logger"
)

// ErrSessionNotFound is returned when a session id has no row. Handlers map it to 404.
var ErrSessionNotFound = errors.New("session not found")

const maxSearchLimit = 50

type Client struct {
	db   *sql.DB
	path string
}

func NewClient(dbPath string) (*Client, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 30000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db, path: dbPath}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) InitSchema() error {
	// conversations carries no foreign key on session_id: a turn is written even
	// when its session row is absent.
	schema := `
	CREATE TABLE IF NOT EXISTS medical_conditions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		severity TEXT,
		symptoms TEXT,
		causes TEXT,
		treatments TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conditions_severity ON medical_conditions(severity);

	CREATE TABLE IF NOT EXISTS user_sessions (
		id TEXT PRIMARY KEY,
		session_type TEXT,
		started_at INTEGER NOT NULL,
		last_activity INTEGER NOT NULL,
		total_messages INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		user_message TEXT NOT NULL,
		ai_response TEXT NOT NULL,
		confidence_score REAL,
		medical_disclaimer_shown INTEGER DEFAULT 1,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_session ON conversations(session_id);
	CREATE INDEX IF NOT EXISTS idx_conversations_created ON conversations(created_at);

	CREATE TABLE IF NOT EXISTS ai_responses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id INTEGER,
		model_name TEXT,
		temperature REAL,
		response_time_ms INTEGER,
		error_occurred INTEGER DEFAULT 0,
		error_message TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_responses_conversation ON ai_responses(conversation_id);

	CREATE TABLE IF NOT EXISTS drug_interactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		drug_a TEXT NOT NULL,
		drug_b TEXT NOT NULL,
		interaction_type TEXT,
		description TEXT,
		severity_score INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_interactions_drugs ON drug_interactions(drug_a, drug_b);

	CREATE TABLE IF NOT EXISTS medical_terms (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		term TEXT NOT NULL UNIQUE,
		definition TEXT NOT NULL,
		category TEXT,
		pronunciation TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_terms_term ON medical_terms(term);
	CREATE INDEX IF NOT EXISTS idx_terms_category ON medical_terms(category);

	CREATE TABLE IF NOT EXISTS user_preferences (
		preference_key TEXT PRIMARY KEY,
		preference_value TEXT,
		data_type TEXT,
		description TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) CreateSession(ctx context.Context, id, sessionType string) error {
	now := time.Now().Unix()
	query := `INSERT INTO user_sessions (id, session_type, started_at, last_activity, total_messages) VALUES (?, ?, ?, ?, 0)`

	_, err := c.db.ExecContext(ctx, query, id, sessionType, now, now)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	logger.Info("Session created", zap.String("session_id", id), zap.String("session_type", sessionType))
	return nil
}

func (c *Client) GetSession(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT id, session_type, started_at, last_activity, total_messages FROM user_sessions WHERE id = ?`

	var s models.Session
	var startedAt, lastActivity int64

	err := c.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.SessionType, &startedAt, &lastActivity, &s.TotalMessages)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	s.StartedAt = time.Unix(startedAt, 0)
	s.LastActivity = time.Unix(lastActivity, 0)

	return &s, nil
}

// SaveTurn writes the turn and bumps the session's activity timestamp and message
// counter in a single transaction. A missing session row is tolerated: the turn is
// still written and the session update simply affects zero rows.
func (c *Client) SaveTurn(ctx context.Context, turn *models.Turn) (int64, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	disclaimer := 0
	if turn.DisclaimerShown {
		disclaimer = 1
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO conversations (session_id, user_message, ai_response, confidence_score, medical_disclaimer_shown, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		turn.SessionID, turn.UserMessage, turn.AssistantReply, turn.Confidence, disclaimer, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert turn: %w", err)
	}

	turnID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read turn id: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE user_sessions SET last_activity = ?, total_messages = total_messages + 1 WHERE id = ?`,
		now, turn.SessionID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update session activity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit turn: %w", err)
	}

	logger.Debug("Turn saved",
		zap.Int64("turn_id", turnID),
		zap.String("session_id", turn.SessionID),
		zap.Float64("confidence", turn.Confidence),
	)

	return turnID, nil
}

func (c *Client) SaveResponseMeta(ctx context.Context, meta *models.ResponseMeta) error {
	errorOccurred := 0
	if meta.ErrorOccurred {
		errorOccurred = 1
	}

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO ai_responses (conversation_id, model_name, temperature, response_time_ms, error_occurred, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		meta.TurnID, meta.Model, meta.Temperature, meta.ResponseTimeMS, errorOccurred, meta.ErrorMessage, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save response metadata: %w", err)
	}

	return nil
}

// RecentTurns returns up to limit most-recent turns for the session, oldest first.
func (c *Client) RecentTurns(ctx context.Context, sessionID string, limit int) ([]models.Turn, error) {
	query := `
		SELECT id, session_id, user_message, ai_response, confidence_score, medical_disclaimer_shown, created_at
		FROM conversations
		WHERE session_id = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent turns: %w", err)
	}
	defer rows.Close()

	turns, err := scanTurns(rows)
	if err != nil {
		return nil, err
	}

	// Reverse into chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	return turns, nil
}

// SessionHistory returns the session row and all of its turns in insertion order.
func (c *Client) SessionHistory(ctx context.Context, sessionID string) (*models.Session, []models.Turn, error) {
	session, err := c.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	query := `
		SELECT id, session_id, user_message, ai_response, confidence_score, medical_disclaimer_shown, created_at
		FROM conversations
		WHERE session_id = ?
		ORDER BY id
	`

	rows, err := c.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session history: %w", err)
	}
	defer rows.Close()

	turns, err := scanTurns(rows)
	if err != nil {
		return nil, nil, err
	}

	return session, turns, nil
}

func scanTurns(rows *sql.Rows) ([]models.Turn, error) {
	var turns []models.Turn
	for rows.Next() {
		var t models.Turn
		var disclaimer int
		var createdAt int64

		err := rows.Scan(&t.ID, &t.SessionID, &t.UserMessage, &t.AssistantReply, &t.Confidence, &disclaimer, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		t.DisclaimerShown = disclaimer != 0
		t.CreatedAt = time.Unix(createdAt, 0)
		turns = append(turns, t)
	}

	return turns, rows.Err()
}

// SearchConditions matches q against condition names and descriptions, optionally
// filtered by severity. LIKE patterns and the limit are bound as parameters; the
// limit is clamped server-side.
func (c *Client) SearchConditions(ctx context.Context, q, severity string, limit int) ([]models.Condition, error) {
	if limit <= 0 || limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	query := `
		SELECT id, name, description, severity, symptoms, causes, treatments
		FROM medical_conditions
		WHERE (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)
	`
	pattern := "%" + strings.ToLower(q) + "%"
	args := []interface{}{pattern, pattern}

	if severity != "" {
		query += " AND severity = ?"
		args = append(args, severity)
	}

	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search conditions: %w", err)
	}
	defer rows.Close()

	return scanConditions(rows)
}

// ConditionsByKeywords looks up conditions whose symptom or description text
// contains any keyword, perKeyword rows each, deduplicated by id and capped at max.
func (c *Client) ConditionsByKeywords(ctx context.Context, keywords []string, perKeyword, max int) ([]models.Condition, error) {
	seen := make(map[string]bool)
	var results []models.Condition

	for _, keyword := range keywords {
		pattern := "%" + strings.ToLower(keyword) + "%"

		rows, err := c.db.QueryContext(ctx,
			`SELECT id, name, description, severity, symptoms, causes, treatments
			 FROM medical_conditions
			 WHERE LOWER(symptoms) LIKE ? OR LOWER(description) LIKE ?
			 LIMIT ?`,
			pattern, pattern, perKeyword,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to match conditions: %w", err)
		}

		conditions, err := scanConditions(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}

		for _, cond := range conditions {
			if seen[cond.ID] {
				continue
			}
			seen[cond.ID] = true
			results = append(results, cond)
			if len(results) >= max {
				return results, nil
			}
		}
	}

	return results, nil
}

func scanConditions(rows *sql.Rows) ([]models.Condition, error) {
	var conditions []models.Condition
	for rows.Next() {
		var cond models.Condition
		err := rows.Scan(&cond.ID, &cond.Name, &cond.Description, &cond.Severity, &cond.Symptoms, &cond.Causes, &cond.Treatments)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		conditions = append(conditions, cond)
	}
	return conditions, rows.Err()
}

// InteractionsBetween looks up stored interactions for a drug pair in either order.
func (c *Client) InteractionsBetween(ctx context.Context, drugA, drugB string) ([]models.DrugInteraction, error) {
	query := `
		SELECT id, drug_a, drug_b, interaction_type, description, severity_score
		FROM drug_interactions
		WHERE (drug_a = ? AND drug_b = ?) OR (drug_a = ? AND drug_b = ?)
	`

	rows, err := c.db.QueryContext(ctx, query, drugA, drugB, drugB, drugA)
	if err != nil {
		return nil, fmt.Errorf("failed to get drug interactions: %w", err)
	}
	defer rows.Close()

	var interactions []models.DrugInteraction
	for rows.Next() {
		var di models.DrugInteraction
		err := rows.Scan(&di.ID, &di.DrugA, &di.DrugB, &di.Type, &di.Description, &di.SeverityScore)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		interactions = append(interactions, di)
	}

	return interactions, rows.Err()
}

// SearchTerms matches each keyword against the term dictionary, perKeyword rows each.
func (c *Client) SearchTerms(ctx context.Context, keywords []string, perKeyword int) ([]models.Term, error) {
	var terms []models.Term

	for _, keyword := range keywords {
		pattern := "%" + strings.ToLower(keyword) + "%"

		rows, err := c.db.QueryContext(ctx,
			`SELECT id, term, definition, category, pronunciation
			 FROM medical_terms
			 WHERE LOWER(term) LIKE ?
			 LIMIT ?`,
			pattern, perKeyword,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to search terms: %w", err)
		}

		for rows.Next() {
			var t models.Term
			err := rows.Scan(&t.ID, &t.Term, &t.Definition, &t.Category, &t.Pronunciation)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan row: %w", err)
			}
			terms = append(terms, t)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	return terms, nil
}

func (c *Client) GetPreference(ctx context.Context, key string) (*models.Preference, error) {
	query := `SELECT preference_key, preference_value, data_type, description FROM user_preferences WHERE preference_key = ?`

	var p models.Preference
	err := c.db.QueryRowContext(ctx, query, key).Scan(&p.Key, &p.Value, &p.DataType, &p.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}

	return &p, nil
}

func (c *Client) SetPreference(ctx context.Context, p *models.Preference) error {
	now := time.Now().Unix()
	query := `
		INSERT INTO user_preferences (preference_key, preference_value, data_type, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(preference_key) DO UPDATE SET
			preference_value = excluded.preference_value,
			data_type = excluded.data_type,
			updated_at = excluded.updated_at
	`

	_, err := c.db.ExecContext(ctx, query, p.Key, p.Value, p.DataType, p.Description, now, now)
	if err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}

	return nil
}

func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats

	counts := []struct {
		table string
		dest  *int64
	}{
		{"user_sessions", &stats.Sessions},
		{"conversations", &stats.Turns},
		{"medical_conditions", &stats.Conditions},
		{"drug_interactions", &stats.Interactions},
		{"medical_terms", &stats.Terms},
	}

	for _, c2 := range counts {
		err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c2.table).Scan(c2.dest)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c2.table, err)
		}
	}

	if info, err := os.Stat(c.path); err == nil {
		stats.DatabaseSize = info.Size()
	}

	return &stats, nil
}

// Backup writes a consistent copy of the database to path via VACUUM INTO.
func (c *Client) Backup(ctx context.Context, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create backup directory: %w", err)
		}
	}

	_, err := c.db.ExecContext(ctx, "VACUUM INTO ?", path)
	if err != nil {
		return fmt.Errorf("failed to back up database: %w", err)
	}

	logger.Info("Database backed up", zap.String("path", path))
	return nil
}
