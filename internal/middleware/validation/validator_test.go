package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func testApp(maxLen int) *fiber.App {
	app := fiber.New()
	app.Use(Middleware(Config{MaxQueryLength: maxLen}))
	app.Post("/api/medical/query", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Post("/api/medical/session", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	return app
}

func post(t *testing.T, app *fiber.App, path, contentType, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	return resp
}

func TestRejectsUnsupportedContentType(t *testing.T) {
	app := testApp(100)

	resp := post(t, app, "/api/medical/query", "text/xml", `<query/>`)
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", resp.StatusCode)
	}
}

func TestRejectsMissingQuery(t *testing.T) {
	app := testApp(100)

	for _, body := range []string{`{}`, `{"query": "   "}`, `{"query": 42}`, `broken`} {
		resp := post(t, app, "/api/medical/query", "application/json", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestRejectsOversizedQuery(t *testing.T) {
	app := testApp(20)

	resp := post(t, app, "/api/medical/query", "application/json",
		`{"query": "this question is far too long for the configured limit"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRejectsMarkupQuery(t *testing.T) {
	app := testApp(200)

	resp := post(t, app, "/api/medical/query", "application/json",
		`{"query": "<script>alert(1)</script>"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAcceptsPlainMedicalQuery(t *testing.T) {
	app := testApp(200)

	resp := post(t, app, "/api/medical/query", "application/json",
		`{"query": "I dropped my medication, is a missed dose a problem?"}`)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestSkipsOtherRoutes(t *testing.T) {
	app := testApp(10)

	resp := post(t, app, "/api/medical/session", "application/json", `{}`)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
