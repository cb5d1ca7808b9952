package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-training/photos-workshop/pkg/core"
	"github.com/go-training/photos-workshop/pkg/credential"
	"github.com/go-training/photos-workshop/pkg/export"
	"github.com/go-training/photos-workshop/pkg/googleapi"
	"github.com/go-training/photos-workshop/pkg/photos"
	"github.com/go-training/photos-workshop/pkg/picker"
	"github.com/go-training/photos-workshop/pkg/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	scopePhotos = "https://www.googleapis.com/auth/photoslibrary.readonly"
	scopePicker = "https://www.googleapis.com/auth/photospicker.mediaitems.readonly"
)

var required = []string{scopePhotos, scopePicker}

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeGoogle serves the token endpoint and the Photos, Picker, Docs and
// Sheets endpoints the server calls.
type fakeGoogle struct {
	*httptest.Server
	refreshCalls atomic.Int32
	pickerReady  atomic.Bool
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()
	g := &fakeGoogle{}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		switch r.PostForm.Get("grant_type") {
		case "refresh_token":
			g.refreshCalls.Add(1)
			if r.PostForm.Get("refresh_token") == "revoked" {
				writeJSON(w, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`)
				return
			}
			if r.PostForm.Get("refresh_token") == "rotate" {
				writeJSON(w, http.StatusOK, `{"access_token":"acc","refresh_token":"ref-2","token_type":"Bearer","expires_in":3600}`)
				return
			}
			writeJSON(w, http.StatusOK, `{"access_token":"refreshed","token_type":"Bearer","expires_in":3600}`)
		case "authorization_code":
			scope := strings.Join(required, " ")
			if r.PostForm.Get("code") == "narrow" {
				scope = scopePhotos
			}
			writeJSON(w, http.StatusOK, `{"access_token":"acc","refresh_token":"ref","token_type":"Bearer","expires_in":3600,"scope":"`+scope+`"}`)
		default:
			writeJSON(w, http.StatusBadRequest, `{"error":"unsupported_grant_type"}`)
		}
	})

	mux.HandleFunc("GET /photos/albums", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer bad" {
			writeJSON(w, http.StatusUnauthorized, `{"error":{"code":401,"message":"Request had invalid authentication credentials.","status":"UNAUTHENTICATED"}}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"albums":[{"id":"a1","title":"A","mediaItemsCount":"2"}]}`)
	})
	mux.HandleFunc("GET /photos/mediaItems/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"`+r.PathValue("id")+`","filename":"a.jpg"}`)
	})

	mux.HandleFunc("POST /picker/sessions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"ps-1","pickerUri":"https://photos.google.com/picker/ps-1","pollingConfig":{"pollInterval":"5s"}}`)
	})
	mux.HandleFunc("GET /picker/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		ready := "false"
		if g.pickerReady.Load() {
			ready = "true"
		}
		writeJSON(w, http.StatusOK, `{"id":"`+r.PathValue("id")+`","mediaItemsSet":`+ready+`}`)
	})
	mux.HandleFunc("GET /picker/mediaItems", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"mediaItems":[{"id":"p1","type":"PHOTO","mediaFile":{"filename":"p1.jpg"}}]}`)
	})
	mux.HandleFunc("DELETE /picker/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})

	mux.HandleFunc("POST /docs/v1/documents", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"documentId":"doc-1"}`)
	})
	mux.HandleFunc("POST /docs/v1/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})

	g.Server = httptest.NewServer(mux)
	t.Cleanup(g.Close)
	return g
}

type testEnv struct {
	google  *fakeGoogle
	store   *store.MemoryStore
	handler http.Handler
}

func newTestEnv(t *testing.T, withExport bool, mcp http.Handler) *testEnv {
	t.Helper()
	g := newFakeGoogle(t)
	st := store.NewMemoryStore()

	creds := credential.NewManager(&oauth2.Config{
		ClientID:     "cid",
		ClientSecret: "csecret",
		RedirectURL:  "http://127.0.0.1:8080/oauth2callback",
		Scopes:       required,
		Endpoint: oauth2.Endpoint{
			AuthURL:   g.URL + "/auth",
			TokenURL:  g.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, nil)

	pc := picker.NewClient(googleapi.New(g.URL+"/picker"),
		picker.WithSleep(func(context.Context, time.Duration) error { return nil }))

	opts := Options{
		Credentials: creds,
		Photos:      photos.NewClient(googleapi.New(g.URL + "/photos")),
		Picker:      pc,
		Flow:        picker.NewFlow(pc, 3, time.Second),
		Store:       st,
		MCP:         mcp,
		SessionTTL:  time.Hour,
	}
	if withExport {
		opts.Exporter = export.New(g.URL+"/docs/", g.URL+"/sheets/")
	}

	return &testEnv{google: g, store: st, handler: New(opts).Router()}
}

// seed stores a session holding a valid credential record, adjusted by mutate.
func (e *testEnv) seed(t *testing.T, mutate func(*core.Session)) string {
	t.Helper()
	s := core.NewSession(uuid.NewString(), time.Hour)
	s.Token = "acc"
	s.RefreshToken = "ref"
	s.TokenURI = e.google.URL + "/token"
	s.ClientID = "cid"
	s.ClientSecret = "csecret"
	s.Scopes = append([]string(nil), required...)
	s.Expiry = time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	if mutate != nil {
		mutate(s)
	}
	if err := e.store.SaveSession(context.Background(), s); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	return s.ID
}

func (e *testEnv) do(method, target, sessionID string, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	if sessionID != "" {
		r.AddCookie(&http.Cookie{Name: "photos_session", Value: sessionID})
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)
	return w
}

func (e *testEnv) session(t *testing.T, id string) *core.Session {
	t.Helper()
	s, err := e.store.GetSession(context.Background(), id)
	if err != nil {
		t.Fatalf("GetSession(%s) error = %v", id, err)
	}
	return s
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
	}
	return out
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "photos_session" {
			return c
		}
	}
	return nil
}

func expired(s *core.Session) {
	s.Expiry = time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, false, nil)
	w := env.do(http.MethodGet, "/healthz", "", "")
	if w.Code != http.StatusOK || decode(t, w)["status"] != "ok" {
		t.Errorf("healthz = %d %s", w.Code, w.Body)
	}
	if sessionCookie(w) != nil {
		t.Error("healthz should not create a session")
	}
}

func TestIndex(t *testing.T) {
	env := newTestEnv(t, false, nil)

	w := env.do(http.MethodGet, "/", "", "")
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/authorize" {
		t.Errorf("anonymous index = %d %s", w.Code, w.Header().Get("Location"))
	}
	c := sessionCookie(w)
	if c == nil || c.Value == "" || !c.HttpOnly {
		t.Errorf("session cookie = %+v", c)
	}

	id := env.seed(t, nil)
	w = env.do(http.MethodGet, "/", id, "")
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/albums" {
		t.Errorf("authorized index = %d %s", w.Code, w.Header().Get("Location"))
	}
}

func TestUnknownSessionGetsNewID(t *testing.T) {
	env := newTestEnv(t, false, nil)
	w := env.do(http.MethodGet, "/authorize", "forged-id", "")
	c := sessionCookie(w)
	if c == nil || c.Value == "forged-id" {
		t.Errorf("cookie = %+v, want a fresh session id", c)
	}
}

func TestAuthorizeAndCallback(t *testing.T) {
	env := newTestEnv(t, false, nil)

	w := env.do(http.MethodGet, "/authorize", "", "")
	if w.Code != http.StatusFound {
		t.Fatalf("authorize status = %d", w.Code)
	}
	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatal(err)
	}
	q := loc.Query()
	if q.Get("access_type") != "offline" || q.Get("prompt") != "consent" || q.Get("include_granted_scopes") != "true" {
		t.Errorf("authorization URL = %s", loc)
	}
	if q.Get("scope") != strings.Join(required, " ") {
		t.Errorf("scope = %q", q.Get("scope"))
	}

	id := sessionCookie(w).Value
	state := q.Get("state")
	if got := env.session(t, id).OAuthState; got == "" || got != state {
		t.Fatalf("stored state = %q, redirect state = %q", got, state)
	}

	w = env.do(http.MethodGet, "/oauth2callback?state="+url.QueryEscape(state)+"&code=good", id, "")
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/albums" {
		t.Fatalf("callback = %d %s %s", w.Code, w.Header().Get("Location"), w.Body)
	}

	s := env.session(t, id)
	if s.Token != "acc" || s.RefreshToken != "ref" || s.OAuthState != "" || s.Expiry == "" {
		t.Errorf("session after callback = %+v", s)
	}
	if s.TokenURI != env.google.URL+"/token" || s.ClientID != "cid" {
		t.Errorf("session client fields = %+v", s)
	}
}

func TestCallback_Failures(t *testing.T) {
	tests := []struct {
		name      string
		query     func(state string) string
		wantCode  int
		wantError string
	}{
		{
			name:      "state mismatch",
			query:     func(string) string { return "state=other&code=good" },
			wantCode:  http.StatusBadRequest,
			wantError: "invalid_state",
		},
		{
			name:      "user denied",
			query:     func(string) string { return "error=access_denied" },
			wantCode:  http.StatusUnauthorized,
			wantError: "access_denied",
		},
		{
			name:      "insufficient scope",
			query:     func(state string) string { return "state=" + url.QueryEscape(state) + "&code=narrow" },
			wantCode:  http.StatusForbidden,
			wantError: "insufficient_scope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, false, nil)
			w := env.do(http.MethodGet, "/authorize", "", "")
			id := sessionCookie(w).Value
			state := env.session(t, id).OAuthState

			w = env.do(http.MethodGet, "/oauth2callback?"+tt.query(state), id, "")
			if w.Code != tt.wantCode || decode(t, w)["error"] != tt.wantError {
				t.Errorf("callback = %d %s", w.Code, w.Body)
			}
			if s := env.session(t, id); s.HasCredentials() || s.OAuthState != "" {
				t.Errorf("session should hold no credentials or state: %+v", s)
			}
		})
	}
}

func TestAlbums(t *testing.T) {
	env := newTestEnv(t, false, nil)
	id := env.seed(t, nil)

	w := env.do(http.MethodGet, "/albums", id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("albums = %d %s", w.Code, w.Body)
	}
	albums := decode(t, w)["albums"].([]any)
	if len(albums) != 1 || albums[0].(map[string]any)["title"] != "A" {
		t.Errorf("albums = %v", albums)
	}
	if n := env.google.refreshCalls.Load(); n != 0 {
		t.Errorf("refresh calls = %d, want 0", n)
	}
}

func TestAlbums_RefreshesExpiredToken(t *testing.T) {
	env := newTestEnv(t, false, nil)
	id := env.seed(t, expired)

	w := env.do(http.MethodGet, "/albums", id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("albums = %d %s", w.Code, w.Body)
	}
	if n := env.google.refreshCalls.Load(); n != 1 {
		t.Errorf("refresh calls = %d, want 1", n)
	}

	s := env.session(t, id)
	if s.Token != "refreshed" {
		t.Errorf("stored token = %q, want refreshed", s.Token)
	}
	exp, err := time.Parse(time.RFC3339, s.Expiry)
	if err != nil || !exp.After(time.Now()) {
		t.Errorf("stored expiry = %q", s.Expiry)
	}
}

func TestAlbums_CredentialFailures(t *testing.T) {
	tests := []struct {
		name         string
		seed         bool
		mutate       func(*core.Session)
		wantCode     int
		wantLocation string
		wantError    string
	}{
		{name: "no session", wantCode: http.StatusFound, wantLocation: "/authorize"},
		{
			name:         "expired without refresh token",
			seed:         true,
			mutate:       func(s *core.Session) { expired(s); s.RefreshToken = "" },
			wantCode:     http.StatusFound,
			wantLocation: "/authorize",
		},
		{
			name:      "missing scope",
			seed:      true,
			mutate:    func(s *core.Session) { s.Scopes = []string{scopePhotos} },
			wantCode:  http.StatusForbidden,
			wantError: "insufficient_scope",
		},
		{
			name:      "revoked refresh token",
			seed:      true,
			mutate:    func(s *core.Session) { expired(s); s.RefreshToken = "revoked" },
			wantCode:  http.StatusUnauthorized,
			wantError: "token_refresh_failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, false, nil)
			id := ""
			if tt.seed {
				id = env.seed(t, tt.mutate)
			}

			w := env.do(http.MethodGet, "/albums", id, "")
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantCode, w.Body)
			}
			if tt.wantLocation != "" && w.Header().Get("Location") != tt.wantLocation {
				t.Errorf("Location = %q", w.Header().Get("Location"))
			}
			if tt.wantError != "" {
				body := decode(t, w)
				if body["error"] != tt.wantError || body["authUrl"] != "/authorize" {
					t.Errorf("body = %v", body)
				}
			}
			if tt.seed && env.session(t, id).HasCredentials() {
				t.Error("credentials should be cleared")
			}
		})
	}
}

func TestAlbums_ProviderErrorVerbatim(t *testing.T) {
	env := newTestEnv(t, false, nil)
	id := env.seed(t, func(s *core.Session) { s.Token = "bad" })

	w := env.do(http.MethodGet, "/albums", id, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	if msg := decode(t, w)["error"]; msg != "Request had invalid authentication credentials." {
		t.Errorf("error = %v", msg)
	}
}

func TestAlbums_InvalidPageSize(t *testing.T) {
	env := newTestEnv(t, false, nil)
	id := env.seed(t, nil)
	if w := env.do(http.MethodGet, "/albums?pageSize=500", id, ""); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestMediaItem(t *testing.T) {
	env := newTestEnv(t, false, nil)
	id := env.seed(t, nil)

	w := env.do(http.MethodGet, "/media/m-9", id, "")
	if w.Code != http.StatusOK || decode(t, w)["id"] != "m-9" {
		t.Errorf("media = %d %s", w.Code, w.Body)
	}
}

func TestToken(t *testing.T) {
	tests := []struct {
		name     string
		seed     bool
		mutate   func(*core.Session)
		wantCode string
	}{
		{name: "valid", seed: true},
		{name: "refreshed", seed: true, mutate: expired},
		{name: "no session", wantCode: "NO_SESSION"},
		{name: "no refresh token", seed: true, mutate: func(s *core.Session) { expired(s); s.RefreshToken = "" }, wantCode: "NO_REFRESH_TOKEN"},
		{name: "refresh failed", seed: true, mutate: func(s *core.Session) { expired(s); s.RefreshToken = "revoked" }, wantCode: "TOKEN_REFRESH_FAILED"},
		{name: "insufficient scope", seed: true, mutate: func(s *core.Session) { s.Scopes = nil }, wantCode: "INSUFFICIENT_SCOPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, false, nil)
			id := ""
			if tt.seed {
				id = env.seed(t, tt.mutate)
			}

			w := env.do(http.MethodGet, "/token", id, "")
			body := decode(t, w)
			if tt.wantCode != "" {
				if w.Code != http.StatusUnauthorized || body["code"] != tt.wantCode {
					t.Errorf("token = %d %v, want 401 %s", w.Code, body, tt.wantCode)
				}
				return
			}

			if w.Code != http.StatusOK {
				t.Fatalf("token = %d %v", w.Code, body)
			}
			if body["access_token"] == "" || body["expires_in"].(float64) <= 0 {
				t.Errorf("body = %v", body)
			}
			if got := env.session(t, id).Token; got != body["access_token"] {
				t.Errorf("stored token %q differs from returned %v", got, body["access_token"])
			}
		})
	}
}

func TestToken_PersistsRotatedRefreshToken(t *testing.T) {
	env := newTestEnv(t, false, nil)
	id := env.seed(t, func(s *core.Session) { expired(s); s.RefreshToken = "rotate" })

	w := env.do(http.MethodGet, "/token", id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("token = %d %s", w.Code, w.Body)
	}

	s := env.session(t, id)
	if s.Token != "acc" || s.RefreshToken != "ref-2" {
		t.Errorf("stored token = %q, refresh token = %q", s.Token, s.RefreshToken)
	}
	exp, err := time.Parse(time.RFC3339, s.Expiry)
	if err != nil || !exp.After(time.Now()) {
		t.Errorf("stored expiry = %q, %v", s.Expiry, err)
	}
}

func TestPickerFlow(t *testing.T) {
	env := newTestEnv(t, false, nil)
	id := env.seed(t, nil)

	w := env.do(http.MethodPost, "/picker/sessions", id, `{"maxItemCount":5}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body)
	}
	body := decode(t, w)
	if body["id"] != "ps-1" || body["state"] != "CREATED" || body["pickerUri"] == "" {
		t.Errorf("create body = %v", body)
	}
	if s := env.session(t, id); s.PickerSessionID != "ps-1" || s.PickerURI == "" {
		t.Errorf("session picker fields = %+v", s)
	}

	w = env.do(http.MethodGet, "/picker/items", id, "")
	if w.Code != http.StatusRequestTimeout {
		t.Fatalf("not ready = %d %s", w.Code, w.Body)
	}
	if body := decode(t, w); body["restart"] == nil || body["error"] != "picker_timeout" {
		t.Errorf("timeout body = %v", body)
	}
	if env.session(t, id).PickerSessionID != "" {
		t.Error("timed out picker session should be forgotten")
	}

	env.google.pickerReady.Store(true)
	w = env.do(http.MethodGet, "/picker/items?sessionId=ps-1", id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("ready = %d %s", w.Code, w.Body)
	}
	body = decode(t, w)
	items := body["items"].([]any)
	if body["state"] != "READY" || len(items) != 1 {
		t.Errorf("items body = %v", body)
	}
}

func TestPickerItems_NoSession(t *testing.T) {
	env := newTestEnv(t, false, nil)
	id := env.seed(t, nil)

	w := env.do(http.MethodGet, "/picker/items", id, "")
	if w.Code != http.StatusBadRequest || decode(t, w)["error"] != "no_picker_session" {
		t.Errorf("status = %d %s", w.Code, w.Body)
	}
}

func TestPicker_RequiresCredentials(t *testing.T) {
	env := newTestEnv(t, false, nil)
	w := env.do(http.MethodPost, "/picker/sessions", "", "")
	if w.Code != http.StatusUnauthorized || decode(t, w)["error"] != "not_authenticated" {
		t.Errorf("status = %d %s", w.Code, w.Body)
	}
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, false, nil)
	id := env.seed(t, nil)
	if w := env.do(http.MethodPost, "/export/document", id, ""); w.Code != http.StatusNotFound {
		t.Errorf("disabled export = %d", w.Code)
	}

	env = newTestEnv(t, true, nil)
	id = env.seed(t, nil)
	w := env.do(http.MethodPost, "/export/document", id, `{"title":"My albums"}`)
	if w.Code != http.StatusCreated || decode(t, w)["documentId"] != "doc-1" {
		t.Errorf("export = %d %s", w.Code, w.Body)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, false, nil)
	id := env.seed(t, nil)

	w := env.do(http.MethodGet, "/logout", id, "")
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
		t.Errorf("logout = %d %s", w.Code, w.Header().Get("Location"))
	}
	if _, err := env.store.GetSession(context.Background(), id); !errors.Is(err, store.ErrSessionNotFound) {
		t.Errorf("GetSession() error = %v, want ErrSessionNotFound", err)
	}
	if c := sessionCookie(w); c == nil || c.MaxAge >= 0 {
		t.Errorf("cookie = %+v, want deletion", c)
	}
}

func TestMCPRoute(t *testing.T) {
	var called atomic.Bool
	stub := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
		w.WriteHeader(http.StatusAccepted)
	})
	env := newTestEnv(t, false, stub)

	w := env.do(http.MethodPost, "/mcp", "", `{}`)
	if w.Code != http.StatusUnauthorized || called.Load() {
		t.Errorf("unauthenticated MCP = %d, called = %v", w.Code, called.Load())
	}

	r := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{}`))
	r.Header.Set("Authorization", "Bearer acc")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusAccepted || !called.Load() {
		t.Errorf("MCP = %d, called = %v", rec.Code, called.Load())
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}

	r = httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight = %d", rec.Code)
	}
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, false, nil)
	w := env.do(http.MethodGet, "/no/such/page", "", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	body := decode(t, w)
	if body["error"] != "not_found" || body["path"] != "/no/such/page" {
		t.Errorf("body = %v", body)
	}
}
