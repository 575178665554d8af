package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/medassist/backend/internal/llm"
	"github.com/medassist/backend/internal/medical"
	"github.com/medassist/backend/internal/storage/sqlite"
	"github.com/medassist/backend/pkg/config"
)

type testEnv struct {
	app       *fiber.App
	db        *sqlite.Client
	backupDir string
}

func testSafety() config.SafetyConfig {
	return config.SafetyConfig{
		EmergencyKeywords: []string{"chest pain", "stroke"},
		ForbiddenPhrases:  []string{"you definitely have"},
		DrugLexicon:       []string{"aspirin", "ibuprofen"},
	}
}

// newTestEnv wires the full route surface against a file-backed store and the
// given inference endpoint. An unreachable endpoint leaves the gateway degraded.
func newTestEnv(t *testing.T, ollamaURL string) *testEnv {
	t.Helper()

	db, err := sqlite.NewClient(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.InitSchema(); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}
	if err := db.Seed(); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	llmClient := llm.NewClient(config.OllamaConfig{
		URL:                ollamaURL,
		DefaultModel:       "llama3.1:8b",
		PreferredModels:    []string{"llama3.1:8b"},
		MedicalTemperature: 0.2,
		GeneralTemperature: 0.7,
		MaxTokens:          2048,
		TimeoutSec:         5,
		PullTimeoutSec:     5,
	}, testSafety())
	_ = llmClient.Initialize(context.Background())

	engine := medical.NewEngine(db, llmClient, nil, testSafety())

	backupDir := t.TempDir()

	medicalHandler := NewMedicalHandler(engine, db)
	aiHandler := NewAIHandler(llmClient)
	systemHandler := NewSystemHandler(db, llmClient, backupDir)

	app := fiber.New()
	api := app.Group("/api")
	api.Post("/medical/session", medicalHandler.CreateSession)
	api.Post("/medical/query", medicalHandler.ProcessQuery)
	api.Get("/medical/session/:id/history", medicalHandler.SessionHistory)
	api.Get("/medical/conditions/search", medicalHandler.SearchConditions)
	api.Get("/ai/models", aiHandler.Models)
	api.Post("/ai/general", aiHandler.GeneralQuery)
	api.Get("/system/health", systemHandler.Health)
	api.Get("/system/stats", systemHandler.Stats)
	api.Post("/system/backup", systemHandler.Backup)

	return &testEnv{app: app, db: db, backupDir: backupDir}
}

func fakeOllama(t *testing.T, reply string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"models": []map[string]string{{"name": "llama3.1:8b"}},
			})
		case "/api/generate":
			json.NewEncoder(w).Encode(map[string]interface{}{"response": reply, "done": true})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	resp.Body.Close()
	return body
}

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1")

	req := httptest.NewRequest(http.MethodPost, "/api/medical/session?session_type=symptoms", nil)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	sessionID, _ := body["session_id"].(string)
	if sessionID == "" {
		t.Fatal("response missing session_id")
	}
	if body["session_type"] != "symptoms" {
		t.Errorf("session_type = %v", body["session_type"])
	}

	session, err := env.db.GetSession(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("session row not created: %v", err)
	}
	if session.SessionType != "symptoms" {
		t.Errorf("stored session type = %q", session.SessionType)
	}
}

func TestProcessQueryValidation(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1")

	req := httptest.NewRequest(http.MethodPost, "/api/medical/query", strings.NewReader(`{"query": ""}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty query: status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	req = httptest.NewRequest(http.MethodPost, "/api/medical/query", strings.NewReader(`not json`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestProcessQueryCreatesSessionWhenAbsent(t *testing.T) {
	server := fakeOllama(t, "Plenty of rest helps. Consult a provider if it persists.")
	env := newTestEnv(t, server.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/medical/query",
		strings.NewReader(`{"query": "what helps with a sore throat?", "query_type": "general"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["session_id"] == "" || body["session_id"] == nil {
		t.Error("response missing generated session_id")
	}
	if body["response"] == "" {
		t.Error("response missing generated text")
	}
	if body["query_type"] != "general" {
		t.Errorf("query_type = %v", body["query_type"])
	}
}

func TestProcessQueryDegradedStillReturns200(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1")

	req := httptest.NewRequest(http.MethodPost, "/api/medical/query",
		strings.NewReader(`{"query": "what helps with a sore throat?"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["confidence"] != 0.0 {
		t.Errorf("degraded confidence = %v, want 0", body["confidence"])
	}
	text, _ := body["response"].(string)
	if !strings.Contains(text, "unable to process your request") {
		t.Errorf("degraded response missing fallback text: %q", text)
	}
}

func TestSessionHistoryNotFound(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1")

	req := httptest.NewRequest(http.MethodGet, "/api/medical/session/no-such-id/history", nil)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSearchConditions(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1")

	req := httptest.NewRequest(http.MethodGet, "/api/medical/conditions/search", nil)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing q: status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	req = httptest.NewRequest(http.MethodGet, "/api/medical/conditions/search?q=viral", nil)
	resp, err = env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["total"] != 2.0 {
		t.Errorf("total = %v, want 2", body["total"])
	}
	if disclaimer, _ := body["disclaimer"].(string); disclaimer == "" {
		t.Error("search results missing disclaimer")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/medical/conditions/search?q=viral&severity=mild", nil)
	resp, err = env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body = decodeBody(t, resp)
	if body["total"] != 1.0 {
		t.Errorf("filtered total = %v, want 1", body["total"])
	}
}

func TestModels(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1")

	req := httptest.NewRequest(http.MethodGet, "/api/ai/models", nil)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["available"] != false {
		t.Errorf("available = %v, want false", body["available"])
	}
}

func TestGeneralQueryUnavailable(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1")

	req := httptest.NewRequest(http.MethodPost, "/api/ai/general?query=hello", nil)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
	resp.Body.Close()

	req = httptest.NewRequest(http.MethodPost, "/api/ai/general", nil)
	resp, err = env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing query: status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestGeneralQuery(t *testing.T) {
	server := fakeOllama(t, "Go is a programming language designed at Google.")
	env := newTestEnv(t, server.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/general?query=what+is+Go", nil)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["response"] == "" || body["response"] == nil {
		t.Error("missing response text")
	}
	if body["model"] != "llama3.1:8b" {
		t.Errorf("model = %v", body["model"])
	}
}

func TestHealthDegraded(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1")

	req := httptest.NewRequest(http.MethodGet, "/api/system/health", nil)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 even when degraded", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", body["status"])
	}
	if body["database"] != "connected" {
		t.Errorf("database = %v, want connected", body["database"])
	}
	if body["ai_service"] != "unavailable" {
		t.Errorf("ai_service = %v, want unavailable", body["ai_service"])
	}
}

func TestHealthHealthy(t *testing.T) {
	server := fakeOllama(t, "ok")
	env := newTestEnv(t, server.URL)

	req := httptest.NewRequest(http.MethodGet, "/api/system/health", nil)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	body := decodeBody(t, resp)
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1")

	req := httptest.NewRequest(http.MethodGet, "/api/system/stats", nil)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	dbStats, ok := body["database_stats"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing database_stats: %v", body)
	}
	if dbStats["medical_conditions"] != 5.0 {
		t.Errorf("medical_conditions = %v, want 5", dbStats["medical_conditions"])
	}
	if dbStats["medical_terms"] != 5.0 {
		t.Errorf("medical_terms = %v, want 5", dbStats["medical_terms"])
	}
}

func TestBackup(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1")

	req := httptest.NewRequest(http.MethodPost, "/api/system/backup",
		strings.NewReader(`{"backup_name": "named.db"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	if body["backup_name"] != "named.db" {
		t.Errorf("backup_name = %v", body["backup_name"])
	}

	if _, err := os.Stat(filepath.Join(env.backupDir, "named.db")); err != nil {
		t.Errorf("backup file missing: %v", err)
	}
}

func TestBackupStripsDirectoryTraversal(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1")

	req := httptest.NewRequest(http.MethodPost, "/api/system/backup",
		strings.NewReader(`{"backup_name": "../../escape.db"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["backup_name"] != "escape.db" {
		t.Errorf("backup_name = %v, want escape.db", body["backup_name"])
	}

	if _, err := os.Stat(filepath.Join(env.backupDir, "escape.db")); err != nil {
		t.Errorf("backup file not inside the backup directory: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.backupDir, "..", "..", "escape.db")); err == nil {
		t.Error("backup file escaped the backup directory")
	}
}
