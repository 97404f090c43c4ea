package api_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/jobboard/api"
	"github.com/Skryldev/jobboard/db"
	"github.com/Skryldev/jobboard/migrations"
)

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	stats := db.NewQueryStats()
	d, err := db.OpenWithDriver("sqlite3", db.DriverOptions{Database: ":memory:"}, db.Config{
		MaxOpenConns: 1,
		Hooks:        []db.Hook{db.NewMetricsHook(stats)},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, migrations.Up(d))

	return api.New(api.Config{DB: d, Stats: stats, Logger: quietLogger()})
}

type response struct {
	status int
	header http.Header
	body   map[string]any
}

func do(t *testing.T, app *fiber.App, method, target, body string) response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := response{status: resp.StatusCode, header: resp.Header}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out.body), "body: %s", raw)
	}
	return out
}

func errorMessage(t *testing.T, r response) string {
	t.Helper()
	e, ok := r.body["error"].(map[string]any)
	require.True(t, ok, "no error object in %v", r.body)
	assert.EqualValues(t, r.status, e["status"])
	msg, _ := e["message"].(string)
	return msg
}

func seedCompany(t *testing.T, app *fiber.App, handle string) {
	t.Helper()
	r := do(t, app, http.MethodPost, "/companies", fmt.Sprintf(
		`{"handle":%q,"name":"Co %s","description":"About %s","numEmployees":10,"logoUrl":"http://logo/%s.png"}`,
		handle, handle, handle, handle))
	require.Equal(t, http.StatusCreated, r.status, "%v", r.body)
}

func seedJob(t *testing.T, app *fiber.App, body string) float64 {
	t.Helper()
	r := do(t, app, http.MethodPost, "/jobs", body)
	require.Equal(t, http.StatusCreated, r.status, "%v", r.body)
	return r.body["job"].(map[string]any)["id"].(float64)
}

// ─────────────────────────────────────────────────────────────────────────────
// Jobs
// ─────────────────────────────────────────────────────────────────────────────

func TestJobs_CreateThenGet(t *testing.T) {
	app := newApp(t)
	seedCompany(t, app, "c1")
	id := seedJob(t, app, `{"title":"Engineer","salary":100000,"equity":0.25,"companyHandle":"c1"}`)

	r := do(t, app, http.MethodGet, fmt.Sprintf("/jobs/%d", int64(id)), "")
	require.Equal(t, http.StatusOK, r.status)
	job := r.body["job"].(map[string]any)
	assert.Equal(t, "Engineer", job["title"])
	assert.EqualValues(t, 100000, job["salary"])
	assert.EqualValues(t, 0.25, job["equity"])
	assert.Equal(t, "c1", job["companyHandle"])
	assert.Equal(t, map[string]any{
		"handle":       "c1",
		"name":         "Co c1",
		"description":  "About c1",
		"numEmployees": float64(10),
		"logoUrl":      "http://logo/c1.png",
	}, job["company"])
}

func TestJobs_CreateValidation(t *testing.T) {
	app := newApp(t)
	seedCompany(t, app, "c1")

	r := do(t, app, http.MethodPost, "/jobs", `{"title":"Engineer"}`)
	assert.Equal(t, http.StatusBadRequest, r.status)

	r = do(t, app, http.MethodPost, "/jobs", `{"title":"Engineer","companyHandle":"ghost"}`)
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "Unknown company: ghost", errorMessage(t, r))
}

func TestJobs_List(t *testing.T) {
	app := newApp(t)
	seedCompany(t, app, "c1")
	seedJob(t, app, `{"title":"Engineer","salary":100000,"equity":0.1,"companyHandle":"c1"}`)
	seedJob(t, app, `{"title":"Engineering Lead","salary":50000,"companyHandle":"c1"}`)
	seedJob(t, app, `{"title":"Designer","salary":120000,"equity":0,"companyHandle":"c1"}`)

	count := func(target string) int {
		r := do(t, app, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, r.status, "%v", r.body)
		return len(r.body["jobs"].([]any))
	}

	assert.Equal(t, 3, count("/jobs"))
	assert.Equal(t, 2, count("/jobs?title=engineer"))
	assert.Equal(t, 1, count("/jobs?title=eng&minSalary=60000"))
	assert.Equal(t, 1, count("/jobs?hasEquity=true"))
	assert.Equal(t, 3, count("/jobs?hasEquity=false"))
	assert.Equal(t, 3, count("/jobs?minSalary=0"))

	r := do(t, app, http.MethodGet, "/jobs", "")
	first := r.body["jobs"].([]any)[0].(map[string]any)
	assert.Equal(t, "Co c1", first["companyName"])
}

func TestJobs_ListBadQuery(t *testing.T) {
	app := newApp(t)
	for _, target := range []string{
		"/jobs?minSalary=lots",
		"/jobs?minSalary=-5",
		"/jobs?color=blue",
		"/jobs?hasEquity=maybe",
	} {
		r := do(t, app, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, r.status, target)
	}
}

func TestJobs_Update(t *testing.T) {
	app := newApp(t)
	seedCompany(t, app, "c1")
	id := int64(seedJob(t, app, `{"title":"Engineer","salary":1,"equity":0.5,"companyHandle":"c1"}`))
	target := fmt.Sprintf("/jobs/%d", id)

	r := do(t, app, http.MethodPatch, target, `{"salary":2,"equity":null}`)
	require.Equal(t, http.StatusOK, r.status, "%v", r.body)
	job := r.body["job"].(map[string]any)
	assert.EqualValues(t, 2, job["salary"])
	assert.Nil(t, job["equity"])
	assert.Equal(t, "Engineer", job["title"])

	r = do(t, app, http.MethodPatch, target, `{}`)
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "No data", errorMessage(t, r))

	r = do(t, app, http.MethodPatch, target, `{"companyHandle":"c2"}`)
	assert.Equal(t, http.StatusBadRequest, r.status)

	r = do(t, app, http.MethodPatch, "/jobs/999", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, r.status)
	assert.Equal(t, "No job: 999", errorMessage(t, r))
}

func TestJobs_Remove(t *testing.T) {
	app := newApp(t)
	seedCompany(t, app, "c1")
	id := int64(seedJob(t, app, `{"title":"Engineer","companyHandle":"c1"}`))

	r := do(t, app, http.MethodDelete, fmt.Sprintf("/jobs/%d", id), "")
	require.Equal(t, http.StatusOK, r.status)
	assert.EqualValues(t, id, r.body["deleted"])

	r = do(t, app, http.MethodDelete, fmt.Sprintf("/jobs/%d", id), "")
	assert.Equal(t, http.StatusNotFound, r.status)

	r = do(t, app, http.MethodGet, "/jobs/not-a-number", "")
	assert.Equal(t, http.StatusNotFound, r.status)
}

// ─────────────────────────────────────────────────────────────────────────────
// Companies
// ─────────────────────────────────────────────────────────────────────────────

func TestCompanies_Lifecycle(t *testing.T) {
	app := newApp(t)
	seedCompany(t, app, "c1")
	seedCompany(t, app, "c2")
	seedJob(t, app, `{"title":"Engineer","companyHandle":"c1"}`)

	r := do(t, app, http.MethodPost, "/companies", `{"handle":"c1","name":"Other","description":"d"}`)
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "Duplicate company: c1", errorMessage(t, r))

	r = do(t, app, http.MethodGet, "/companies?minEmployees=5&maxEmployees=20", "")
	require.Equal(t, http.StatusOK, r.status)
	assert.Len(t, r.body["companies"], 2)

	r = do(t, app, http.MethodGet, "/companies?minEmployees=20&maxEmployees=5", "")
	assert.Equal(t, http.StatusBadRequest, r.status)

	r = do(t, app, http.MethodGet, "/companies/c1", "")
	require.Equal(t, http.StatusOK, r.status)
	assert.Len(t, r.body["company"].(map[string]any)["jobs"], 1)

	r = do(t, app, http.MethodPatch, "/companies/c1", `{"numEmployees":99,"logoUrl":null}`)
	require.Equal(t, http.StatusOK, r.status, "%v", r.body)
	company := r.body["company"].(map[string]any)
	assert.EqualValues(t, 99, company["numEmployees"])
	assert.Nil(t, company["logoUrl"])

	r = do(t, app, http.MethodPatch, "/companies/c1", `{"handle":"new"}`)
	assert.Equal(t, http.StatusBadRequest, r.status)

	r = do(t, app, http.MethodDelete, "/companies/c1", "")
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "c1", r.body["deleted"])

	r = do(t, app, http.MethodGet, "/companies/c1", "")
	assert.Equal(t, http.StatusNotFound, r.status)
	assert.Equal(t, "No company: c1", errorMessage(t, r))
}

// ─────────────────────────────────────────────────────────────────────────────
// Plumbing
// ─────────────────────────────────────────────────────────────────────────────

func TestHealthz(t *testing.T) {
	app := newApp(t)

	r := do(t, app, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "ok", r.body["status"])
	assert.Contains(t, r.body, "pool")
	// migrations and pings bypass the hooks
	assert.EqualValues(t, 0, r.body["queries"].(map[string]any)["total"])

	require.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/jobs", "").status)

	r = do(t, app, http.MethodGet, "/healthz", "")
	queries := r.body["queries"].(map[string]any)
	assert.EqualValues(t, 1, queries["total"])
	assert.EqualValues(t, 1, queries["perVerb"].(map[string]any)["SELECT"])
}

func TestRequestID(t *testing.T) {
	app := newApp(t)

	r := do(t, app, http.MethodGet, "/healthz", "")
	assert.Len(t, r.header.Get(api.HeaderRequestID), 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(api.HeaderRequestID, "abc-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(api.HeaderRequestID))
}

func TestUnknownRoute(t *testing.T) {
	app := newApp(t)
	r := do(t, app, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, r.status)
	assert.Equal(t, "Not Found", errorMessage(t, r))
}

func TestErrorHandler_PanicHidesCause(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: api.ErrorHandler(quietLogger())})
	app.Use(api.RequestLogger(quietLogger()))
	app.Use(recover.New())
	app.Get("/boom", func(*fiber.Ctx) error { panic("secret detail") })

	r := do(t, app, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, r.status)
	assert.Equal(t, "Internal Server Error", errorMessage(t, r))
}
