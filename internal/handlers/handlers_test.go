package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trentd187/league-scoring/internal/config"
	"github.com/trentd187/league-scoring/internal/database"
	"github.com/trentd187/league-scoring/internal/league"
	"github.com/trentd187/league-scoring/internal/metrics"
	"github.com/trentd187/league-scoring/internal/middleware"
	"github.com/trentd187/league-scoring/internal/models"
	"github.com/trentd187/league-scoring/internal/notify"
	"github.com/trentd187/league-scoring/internal/store"
)

type testApp struct {
	app    *fiber.App
	svc    *league.Service
	cfg    *config.Config
	token  string
	season *models.Season
	t      *testing.T
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{Env: "test", AdminSecret: "test-secret", AdminPassword: "hunter2"}
	m := metrics.New()
	svc := league.New(league.Options{
		Store:   store.NewGormStore(db),
		Logger:  logger,
		Metrics: m,
	})

	app := fiber.New()
	Register(app, Deps{Config: cfg, DB: db, Service: svc, Metrics: m, Logger: logger})

	token, err := middleware.IssueToken(cfg, time.Now())
	require.NoError(t, err)

	season, err := svc.CreateSeason(context.Background(), league.CreateSeasonInput{Name: "2026"})
	require.NoError(t, err)
	require.NoError(t, svc.SetCurrentSeason(context.Background(), season.ID))

	return &testApp{app: app, svc: svc, cfg: cfg, token: token, season: season, t: t}
}

// do sends a request and decodes a JSON response into out (when non-nil).
func (a *testApp) do(method, path string, body any, admin bool, out any) int {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *testApp) player(name string, hcp float64) string {
	a.t.Helper()
	var p PlayerResponse
	status := a.do(http.MethodPost, "/api/v1/admin/seasons/"+a.season.ID.String()+"/players",
		PlayerRequest{Name: name, Hcp: hcp}, true, &p)
	require.Equal(a.t, fiber.StatusCreated, status)
	return p.ID
}

func (a *testApp) event(category string) string {
	a.t.Helper()
	var e EventResponse
	status := a.do(http.MethodPost, "/api/v1/admin/seasons/"+a.season.ID.String()+"/events",
		CreateEventRequest{Name: "Round", Category: category}, true, &e)
	require.Equal(a.t, fiber.StatusCreated, status)
	return e.ID
}

func intp(v int) *int { return &v }

func TestHealth(t *testing.T) {
	a := newTestApp(t)
	var body map[string]string
	assert.Equal(t, fiber.StatusOK, a.do(http.MethodGet, "/health", nil, false, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestAdminRoutesRequireToken(t *testing.T) {
	a := newTestApp(t)
	eventPath := "/api/v1/admin/events/" + uuid.NewString() + "/save"

	var body map[string]string
	assert.Equal(t, fiber.StatusUnauthorized, a.do(http.MethodPost, eventPath, SaveEventRequest{}, false, &body))
	assert.Equal(t, "missing admin token", body["error"])

	req := httptest.NewRequest(http.MethodPost, eventPath, nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// A token signed with another secret is rejected.
	other, err := middleware.IssueToken(&config.Config{AdminSecret: "other"}, time.Now())
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, eventPath, nil)
	req.Header.Set("Authorization", "Bearer "+other)
	resp, err = a.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	a := newTestApp(t)

	var failed map[string]string
	assert.Equal(t, fiber.StatusUnauthorized,
		a.do(http.MethodPost, "/api/v1/auth/login", LoginRequest{Password: "wrong"}, false, &failed))

	raw, _ := json.Marshal(LoginRequest{Password: "hunter2"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var cookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == middleware.CookieName {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	// The cookie alone authorises admin routes.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/seasons/"+a.season.ID.String()+"/copy-roster", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: cookie.Value})
	resp, err = a.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSaveEventAndReadResults(t *testing.T) {
	a := newTestApp(t)
	ann := a.player("Ann", 8)
	bo := a.player("Bo", 20)
	eventID := a.event("regular")

	var saved map[string]any
	status := a.do(http.MethodPost, "/api/v1/admin/events/"+eventID+"/save", SaveEventRequest{
		Entries: []EntryRequest{
			{SeasonPlayerID: ann, GrossStrokes: intp(80)},
			{SeasonPlayerID: bo, GrossStrokes: intp(82)},
		},
		Lock: true,
	}, true, &saved)
	require.Equal(t, fiber.StatusOK, status, saved)
	assert.Equal(t, true, saved["locked_now"])

	var got struct {
		Event   EventResponse    `json:"event"`
		Results []ResultResponse `json:"results"`
	}
	require.Equal(t, fiber.StatusOK, a.do(http.MethodGet, "/api/v1/events/"+eventID+"/results", nil, false, &got))
	assert.True(t, got.Event.Locked)
	require.Len(t, got.Results, 2)
	// Bo plays off 4 strokes: 78 net beats Ann's 80.
	assert.Equal(t, "Bo", got.Results[0].Name)
	assert.Equal(t, 1, *got.Results[0].Placing)
	assert.Equal(t, 78, *got.Results[0].NetStrokes)
	assert.Equal(t, "Ann", got.Results[1].Name)

	var standings struct {
		Standings []StandingResponse `json:"standings"`
	}
	require.Equal(t, fiber.StatusOK, a.do(http.MethodGet, "/api/v1/seasons/current/standings", nil, false, &standings))
	require.Len(t, standings.Standings, 2)
	assert.Equal(t, "Bo", standings.Standings[0].Name)
	assert.Equal(t, 1, standings.Standings[0].Position)
}

func TestSaveEventFormEncoding(t *testing.T) {
	a := newTestApp(t)
	ann := a.player("Ann", 0)
	eventID := a.event("regular")

	entries, _ := json.Marshal([]EntryRequest{{SeasonPlayerID: ann, GrossStrokes: intp(70)}})
	form := url.Values{"entries": {string(entries)}, "lock": {"true"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/events/"+eventID+"/save", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+a.token)
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	event, rows, err := a.svc.EventResults(context.Background(), uuid.MustParse(eventID))
	require.NoError(t, err)
	assert.True(t, event.Locked)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, *rows[0].Placing)
}

func TestErrorStatuses(t *testing.T) {
	a := newTestApp(t)
	ann := a.player("Ann", 0)
	eventID := a.event("regular")
	save := "/api/v1/admin/events/" + eventID + "/save"

	var body map[string]any
	assert.Equal(t, fiber.StatusBadRequest,
		a.do(http.MethodPost, "/api/v1/admin/events/not-a-uuid/save", SaveEventRequest{}, true, &body))
	assert.Equal(t, fiber.StatusNotFound,
		a.do(http.MethodPost, "/api/v1/admin/events/"+uuid.NewString()+"/save", SaveEventRequest{}, true, &body))
	assert.Equal(t, fiber.StatusNotFound, a.do(http.MethodPost, save, SaveEventRequest{
		Entries: []EntryRequest{{SeasonPlayerID: uuid.NewString(), GrossStrokes: intp(70)}},
	}, true, &body))
	assert.Equal(t, fiber.StatusBadRequest, a.do(http.MethodPost, save, SaveEventRequest{
		Entries: []EntryRequest{{SeasonPlayerID: ann, GrossStrokes: intp(70)}, {SeasonPlayerID: ann, GrossStrokes: intp(71)}},
	}, true, &body))

	// The event is at version 0; claiming version 5 is a conflict.
	assert.Equal(t, fiber.StatusConflict, a.do(http.MethodPost, save, SaveEventRequest{
		Entries:         []EntryRequest{{SeasonPlayerID: ann, GrossStrokes: intp(70)}},
		ExpectedVersion: intp(5),
	}, true, &body))

	assert.Equal(t, fiber.StatusBadRequest,
		a.do(http.MethodGet, "/api/v1/seasons/current/standings?exclude=bogus", nil, false, &body))
	assert.Equal(t, fiber.StatusBadRequest,
		a.do(http.MethodGet, "/api/v1/seasons/current/standings?format=csv", nil, false, &body))
}

func TestSaveTeamsAndToggleLock(t *testing.T) {
	a := newTestApp(t)
	ann, bo, cy, di := a.player("Ann", 0), a.player("Bo", 0), a.player("Cy", 0), a.player("Di", 0)
	eventID := a.event("team")

	lock := true
	var saved map[string]any
	status := a.do(http.MethodPost, "/api/v1/admin/events/"+eventID+"/save-team", SaveTeamsRequest{
		Teams: []TeamRequest{
			{Number: 1, PlayerA: &ann, PlayerB: &bo, Score: intp(64)},
			{Number: 2, PlayerA: &cy, PlayerB: &di, Score: intp(66)},
		},
		LockState: &lock,
	}, true, &saved)
	require.Equal(t, fiber.StatusOK, status, saved)

	var toggled map[string]bool
	require.Equal(t, fiber.StatusOK,
		a.do(http.MethodPost, "/api/v1/admin/events/"+eventID+"/toggle-lock", nil, true, &toggled))
	assert.Equal(t, map[string]bool{"ok": true, "before": true, "after": false}, toggled)

	require.Equal(t, fiber.StatusOK,
		a.do(http.MethodPost, "/api/v1/admin/events/"+eventID+"/toggle-lock", nil, true, &toggled))
	assert.Equal(t, map[string]bool{"ok": true, "before": false, "after": true}, toggled)

	// Team sheets on a regular event are rejected.
	regular := a.event("regular")
	assert.Equal(t, fiber.StatusBadRequest, a.do(http.MethodPost, "/api/v1/admin/events/"+regular+"/save-team",
		SaveTeamsRequest{Teams: []TeamRequest{{Number: 1, PlayerA: &ann, Score: intp(70)}}}, true, &saved))
}

func TestSeasonAdminRoutes(t *testing.T) {
	a := newTestApp(t)
	id := a.season.ID.String()

	var rules RulesResponse
	require.Equal(t, fiber.StatusOK, a.do(http.MethodPut, "/api/v1/admin/seasons/"+id+"/rules",
		RulesRequest{RegularBestOf: intp(6)}, true, &rules))
	assert.Equal(t, 6, rules.RegularBestOf)

	var read RulesResponse
	require.Equal(t, fiber.StatusOK, a.do(http.MethodGet, "/api/v1/seasons/"+id+"/rules", nil, false, &read))
	assert.Equal(t, rules, read)

	var saved map[string]any
	require.Equal(t, fiber.StatusOK, a.do(http.MethodPut, "/api/v1/admin/seasons/"+id+"/points/regular",
		PointsRequest{Points: map[int]int{1: 5000, 2: 4000}}, true, &saved))

	var points struct {
		Points []int `json:"points"`
	}
	require.Equal(t, fiber.StatusOK, a.do(http.MethodGet, "/api/v1/seasons/"+id+"/points/regular?n=2", nil, false, &points))
	assert.Equal(t, []int{5000, 4000}, points.Points)

	var body map[string]any
	assert.Equal(t, fiber.StatusBadRequest, a.do(http.MethodPut, "/api/v1/admin/seasons/"+id+"/points/bogus",
		PointsRequest{Points: map[int]int{1: 1}}, true, &body))

	pid := a.player("Ann", 10)
	require.Equal(t, fiber.StatusOK, a.do(http.MethodPut, "/api/v1/admin/players/"+pid+"/handicap",
		HandicapRequest{Hcp: ptrFloat(12.5)}, true, &body))
	var players []PlayerResponse
	require.Equal(t, fiber.StatusOK, a.do(http.MethodGet, "/api/v1/seasons/"+id+"/players", nil, false, &players))
	require.Len(t, players, 1)
	assert.Equal(t, 12.5, players[0].Hcp)

	var next SeasonResponse
	require.Equal(t, fiber.StatusCreated, a.do(http.MethodPost, "/api/v1/admin/seasons",
		CreateSeasonRequest{Name: "2027", CopyFrom: &id, CopyRules: true, CopyPlayers: true}, true, &next))
	require.Equal(t, fiber.StatusOK, a.do(http.MethodPost, "/api/v1/admin/seasons/"+next.ID+"/current", nil, true, &body))

	var current SeasonResponse
	require.Equal(t, fiber.StatusOK, a.do(http.MethodGet, "/api/v1/seasons/current", nil, false, &current))
	assert.Equal(t, "2027", current.Name)
	require.Equal(t, fiber.StatusOK, a.do(http.MethodGet, "/api/v1/seasons/current/rules", nil, false, &read))
	assert.Equal(t, 6, read.RegularBestOf)
}

func TestStandingsXLSX(t *testing.T) {
	a := newTestApp(t)
	a.player("Ann", 0)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/seasons/"+a.season.ID.String()+"/standings?format=xlsx", nil)
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "2026.xlsx")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("2026")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ann", rows[1][1])
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestApp(t)
	resp, err := a.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "league_")
}

func TestStreamNotificationsRejectsUnknownKind(t *testing.T) {
	hub := notify.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	app := fiber.New()
	app.Get("/stream", StreamNotifications(hub, slog.New(slog.NewTextHandler(io.Discard, nil))))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/stream?kind=bogus", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Once the hub has stopped, subscribing is refused.
	cancel()
	require.Eventually(t, func() bool { return !hub.Register(notify.NewClient("")) }, time.Second, 10*time.Millisecond)
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/stream", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func ptrFloat(v float64) *float64 { return &v }
