package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"HeatX/internal/repo"

	"golang.org/x/crypto/bcrypt"
)

type memRepo struct {
	users map[string]struct {
		id   int
		hash string
	}
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[string]struct {
		id   int
		hash string
	})}
}

func (m *memRepo) CreateUser(_ context.Context, login, _, hash string) (int, error) {
	if _, ok := m.users[login]; ok {
		return 0, errors.New("duplicate login")
	}
	id := len(m.users) + 1
	m.users[login] = struct {
		id   int
		hash string
	}{id, hash}
	return id, nil
}

func (m *memRepo) GetByLogin(_ context.Context, login string) (int, string, error) {
	u, ok := m.users[login]
	if !ok {
		return 0, "", repo.ErrNotFound
	}
	return u.id, u.hash, nil
}

func newEnv() *Authenv {
	return &Authenv{JWTkey: []byte("test-key"), Repo: newMemRepo(), Cost: bcrypt.MinCost}
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	return w
}

func TestRegisterAndLogin(t *testing.T) {
	env := newEnv()

	w := post(env.RegisterHandler, `{"login":"lab","email":"lab@example.com","password":"secret1"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: got %d %s", w.Code, w.Body.String())
	}
	if len(w.Result().Cookies()) != 1 {
		t.Error("register should set a session cookie")
	}

	if w := post(env.RegisterHandler, `{"login":"lab","email":"lab@example.com","password":"secret1"}`); w.Code != http.StatusConflict {
		t.Errorf("duplicate register: got %d", w.Code)
	}
	if w := post(env.RegisterHandler, `{"login":"x","email":"x@example.com","password":"123"}`); w.Code != http.StatusBadRequest {
		t.Errorf("short password: got %d", w.Code)
	}

	w = post(env.AuthHandler, `{"login":"lab","password":"secret1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login: got %d", w.Code)
	}
	var tok tokenResponse
	if err := json.NewDecoder(w.Body).Decode(&tok); err != nil || tok.Token == "" {
		t.Fatalf("login token: %v %q", err, tok.Token)
	}

	if w := post(env.AuthHandler, `{"login":"lab","password":"wrong!"}`); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: got %d", w.Code)
	}
	if w := post(env.AuthHandler, `{"login":"ghost","password":"secret1"}`); w.Code != http.StatusUnauthorized {
		t.Errorf("unknown login: got %d", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	env := newEnv()
	var gotID int
	var gotLogin string
	protected := env.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = UserID(r.Context())
		gotLogin = UserLogin(r.Context())
	}))

	token, err := env.issueToken(7, "lab", time.Now())
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, req)
	if w.Code != http.StatusOK || gotID != 7 || gotLogin != "lab" {
		t.Errorf("bearer: code %d id %d login %q", w.Code, gotID, gotLogin)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	w = httptest.NewRecorder()
	protected.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("cookie: code %d", w.Code)
	}

	expired, _ := env.issueToken(7, "lab", time.Now().Add(-2*tokenTTL))
	foreign, _ := (&Authenv{JWTkey: []byte("other")}).issueToken(7, "lab", time.Now())
	for name, raw := range map[string]string{"none": "", "expired": expired, "foreign key": foreign, "garbage": "abc"} {
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		if raw != "" {
			req.Header.Set("Authorization", "Bearer "+raw)
		}
		w = httptest.NewRecorder()
		protected.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: got %d, want 401", name, w.Code)
		}
	}
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(0.001, 2)
	h := l.LimitMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes: %v", codes)
	}

	// a different port from the same host shares the bucket
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:6000"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("same host, new port: got %d", w.Code)
	}

	req.RemoteAddr = "10.0.0.2:5000"
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("other host: got %d", w.Code)
	}
}
