package authapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"budgetly/cmd/identity"
	"budgetly/cmd/internal/auth/session"
	"budgetly/cmd/security/password"

	"golang.org/x/crypto/bcrypt"
)

// memUsers is an in-memory identity.Store with fault injection for tests.
type memUsers struct {
	mu         sync.Mutex
	seq        int
	byEmail    map[string]identity.User
	byID       map[string]identity.User
	categories map[string][]string

	lookupErr error
}

func newMemUsers() *memUsers {
	return &memUsers{
		byEmail:    make(map[string]identity.User),
		byID:       make(map[string]identity.User),
		categories: make(map[string][]string),
	}
}

func (m *memUsers) CreateUser(_ context.Context, in identity.CreateUserInput) (identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.TrimSpace(in.Email)
	if _, ok := m.byEmail[email]; ok {
		return identity.User{}, identity.ConflictError{Op: "identity.CreateUser", Field: "email"}
	}

	m.seq++
	u := identity.User{
		ID:           fmt.Sprintf("user-%d", m.seq),
		Email:        email,
		PasswordHash: in.PasswordHash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		CreatedAt:    in.Now,
	}
	m.byEmail[email] = u
	m.byID[u.ID] = u
	m.categories[u.ID] = append([]string(nil), in.Categories...)
	return u, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return identity.User{}, m.lookupErr
	}
	u, ok := m.byEmail[strings.TrimSpace(email)]
	if !ok {
		return identity.User{}, identity.NotFoundError{Op: "identity.GetUserByEmail", Resource: "user"}
	}
	return u, nil
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return identity.User{}, identity.NotFoundError{Op: "identity.GetUserByID", Resource: "user"}
	}
	return u, nil
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// memSessions is an in-memory session.Store with fault injection for tests.
type memSessions struct {
	mu   sync.Mutex
	rows map[string]session.Row

	createErr error
	getErr    error
	deleteErr error
}

func newMemSessions() *memSessions {
	return &memSessions{rows: make(map[string]session.Row)}
}

func (m *memSessions) failWith(create, get, del error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createErr, m.getErr, m.deleteErr = create, get, del
}

func (m *memSessions) Create(_ context.Context, now time.Time, userID, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.rows[tokenHash] = session.Row{TokenHash: tokenHash, UserID: userID, CreatedAt: now, ExpiresAt: expiresAt}
	return nil
}

func (m *memSessions) GetByTokenHash(_ context.Context, tokenHash string) (session.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return session.Row{}, m.getErr
	}
	row, ok := m.rows[tokenHash]
	if !ok {
		return session.Row{}, session.ErrSessionNotFound
	}
	return row, nil
}

func (m *memSessions) Delete(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.rows, tokenHash)
	return nil
}

func (m *memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, row := range m.rows {
		if !row.ExpiresAt.After(now) {
			delete(m.rows, k)
			n++
		}
	}
	return n, nil
}

func newTestServer(t *testing.T, users *memUsers) *httptest.Server {
	t.Helper()
	return newFaultableServer(t, users, newMemSessions())
}

func newFaultableServer(t *testing.T, users *memUsers, sessions *memSessions) *httptest.Server {
	t.Helper()

	svc := session.NewService(session.DefaultConfig(), sessions)

	h, err := NewHandler(nil, LoadConfigFromEnv(), users, svc, password.Config{Cost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	mux := http.NewServeMux()
	h.Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url, body string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(raw)
}

func getURL(t *testing.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(raw)
}

const registerBody = `{"email":"a@x.com","password":"abc","firstName":"Jo","lastName":"Do"}`

func TestRegisterCreatesUserAndDefaultCategories(t *testing.T) {
	users := newMemUsers()
	srv := newTestServer(t, users)
	client := newClient(t)

	resp, body := postJSON(t, client, srv.URL+"/api/register", registerBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register status = %d, body %s", resp.StatusCode, body)
	}

	var out registerResponse
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.UserID == "" {
		t.Fatalf("expected userId in response, got %s", body)
	}

	cats := users.categories[out.UserID]
	want := []string{"Products", "Entertainment", "Bills"}
	if len(cats) != len(want) {
		t.Fatalf("categories = %v, want %v", cats, want)
	}
	for i := range want {
		if cats[i] != want[i] {
			t.Fatalf("categories = %v, want %v", cats, want)
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t, newMemUsers())
	client := newClient(t)

	resp, body := postJSON(t, client, srv.URL+"/api/register",
		`{"email":"nope","password":"ab","firstName":"J","lastName":"D"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var out validationResponse
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out.Errors) != 4 {
		t.Fatalf("expected 4 field errors, got %d (%s)", len(out.Errors), body)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := newMemUsers()
	srv := newTestServer(t, users)
	client := newClient(t)

	if resp, body := postJSON(t, client, srv.URL+"/api/register", registerBody); resp.StatusCode != http.StatusOK {
		t.Fatalf("first register status = %d, body %s", resp.StatusCode, body)
	}

	resp, body := postJSON(t, client, srv.URL+"/api/register", registerBody)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want 409 (%s)", resp.StatusCode, body)
	}
	if users.count() != 1 {
		t.Fatalf("user count = %d after duplicate registration, want 1", users.count())
	}
}

func TestRegisterHaltsOnLookupFailure(t *testing.T) {
	users := newMemUsers()
	users.lookupErr = fmt.Errorf("connection reset")
	srv := newTestServer(t, users)
	client := newClient(t)

	resp, _ := postJSON(t, client, srv.URL+"/api/register", registerBody)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	if users.count() != 0 {
		t.Fatalf("lookup failure must not create a user")
	}
}

func TestLoginAndCurrentUser(t *testing.T) {
	users := newMemUsers()
	srv := newTestServer(t, users)
	client := newClient(t)

	postJSON(t, client, srv.URL+"/api/register", registerBody)

	resp, body := postJSON(t, client, srv.URL+"/api/login", `{"email":"a@x.com","password":"abc"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, body %s", resp.StatusCode, body)
	}
	if body != "Authed" {
		t.Fatalf("login body = %q, want Authed", body)
	}

	resp, body = getURL(t, client, srv.URL+"/api/currentUser")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("currentUser status = %d, body %s", resp.StatusCode, body)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("decode currentUser: %v", err)
	}
	for _, k := range []string{"email", "userId", "firstName", "lastName"} {
		if _, ok := payload[k]; !ok {
			t.Fatalf("currentUser missing %q: %s", k, body)
		}
	}
	if len(payload) != 4 {
		t.Fatalf("currentUser payload has extra fields: %s", body)
	}
	if strings.Contains(body, "$2") || strings.Contains(strings.ToLower(body), "password") {
		t.Fatalf("currentUser leaked credential material: %s", body)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	users := newMemUsers()
	srv := newTestServer(t, users)
	client := newClient(t)

	postJSON(t, client, srv.URL+"/api/register", registerBody)

	respWrongPw, bodyWrongPw := postJSON(t, client, srv.URL+"/api/login", `{"email":"a@x.com","password":"wrong"}`)
	respNoUser, bodyNoUser := postJSON(t, client, srv.URL+"/api/login", `{"email":"ghost@x.com","password":"abc"}`)

	if respWrongPw.StatusCode != http.StatusBadRequest || respNoUser.StatusCode != http.StatusBadRequest {
		t.Fatalf("statuses = %d/%d, want 400/400", respWrongPw.StatusCode, respNoUser.StatusCode)
	}
	if bodyWrongPw != bodyNoUser {
		t.Fatalf("failure bodies differ: %q vs %q", bodyWrongPw, bodyNoUser)
	}
}

func TestLoginMissingFields(t *testing.T) {
	srv := newTestServer(t, newMemUsers())
	client := newClient(t)

	resp, body := postJSON(t, client, srv.URL+"/api/login", `{"email":"a@x.com"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if !strings.Contains(body, "Fields Missing") {
		t.Fatalf("body = %s, want Fields Missing", body)
	}
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	users := newMemUsers()
	srv := newTestServer(t, users)

	// Without any session.
	client := newClient(t)
	resp, body := postJSON(t, client, srv.URL+"/api/logout", ``)
	if resp.StatusCode != http.StatusOK || body != "Deleted" {
		t.Fatalf("logout without session: status %d body %q", resp.StatusCode, body)
	}

	// With a live session; afterwards the session no longer resolves.
	postJSON(t, client, srv.URL+"/api/register", registerBody)
	postJSON(t, client, srv.URL+"/api/login", `{"email":"a@x.com","password":"abc"}`)

	resp, body = postJSON(t, client, srv.URL+"/api/logout", ``)
	if resp.StatusCode != http.StatusOK || body != "Deleted" {
		t.Fatalf("logout with session: status %d body %q", resp.StatusCode, body)
	}

	resp, _ = getURL(t, client, srv.URL+"/api/currentUser")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("currentUser after logout = %d, want 401", resp.StatusCode)
	}
}

func TestLoginFailsWhenSessionCannotBePersisted(t *testing.T) {
	users := newMemUsers()
	sessions := newMemSessions()
	srv := newFaultableServer(t, users, sessions)
	client := newClient(t)

	postJSON(t, client, srv.URL+"/api/register", registerBody)

	sessions.failWith(fmt.Errorf("insert timeout"), nil, nil)

	resp, body := postJSON(t, client, srv.URL+"/api/login", `{"email":"a@x.com","password":"abc"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 (%s)", resp.StatusCode, body)
	}
	if !strings.Contains(body, "Something went wrong") {
		t.Fatalf("body = %s, want Something went wrong", body)
	}
	if len(resp.Cookies()) != 0 {
		t.Fatalf("no cookie may be set when the session was not persisted: %v", resp.Cookies())
	}
}

func TestLogoutReportsStorageFailure(t *testing.T) {
	users := newMemUsers()
	sessions := newMemSessions()
	srv := newFaultableServer(t, users, sessions)
	client := newClient(t)

	postJSON(t, client, srv.URL+"/api/register", registerBody)
	postJSON(t, client, srv.URL+"/api/login", `{"email":"a@x.com","password":"abc"}`)

	sessions.failWith(nil, nil, fmt.Errorf("delete timeout"))

	resp, body := postJSON(t, client, srv.URL+"/api/logout", ``)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 (%s)", resp.StatusCode, body)
	}
	if body != "Cannot destroy session" {
		t.Fatalf("body = %q, want Cannot destroy session", body)
	}

	// Once storage recovers, the session is still there and logout succeeds.
	sessions.failWith(nil, nil, nil)
	resp, body = postJSON(t, client, srv.URL+"/api/logout", ``)
	if resp.StatusCode != http.StatusOK || body != "Deleted" {
		t.Fatalf("logout after recovery: status %d body %q", resp.StatusCode, body)
	}
}

func TestCurrentUserStorageFault(t *testing.T) {
	users := newMemUsers()
	sessions := newMemSessions()
	srv := newFaultableServer(t, users, sessions)
	client := newClient(t)

	postJSON(t, client, srv.URL+"/api/register", registerBody)
	postJSON(t, client, srv.URL+"/api/login", `{"email":"a@x.com","password":"abc"}`)

	sessions.failWith(nil, fmt.Errorf("read timeout"), nil)

	resp, body := getURL(t, client, srv.URL+"/api/currentUser")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 (%s)", resp.StatusCode, body)
	}
	if !strings.Contains(body, "Something went wrong") {
		t.Fatalf("body = %s, want Something went wrong", body)
	}

	// A storage fault is not an auth verdict; the session resolves again
	// once reads recover.
	sessions.failWith(nil, nil, nil)
	resp, _ = getURL(t, client, srv.URL+"/api/currentUser")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("currentUser after recovery = %d, want 200", resp.StatusCode)
	}
}

func TestCurrentUserUnauthenticated(t *testing.T) {
	srv := newTestServer(t, newMemUsers())
	client := newClient(t)

	resp, _ := getURL(t, client, srv.URL+"/api/currentUser")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}
