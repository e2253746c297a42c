package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"parlor/internal/config"
	"parlor/internal/db"
	"parlor/internal/notify"
	"parlor/internal/service"
)

type testServer struct {
	*httptest.Server
	users *service.UsersService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	txManager := db.NewStore(database)
	users, err := service.NewUsersService(txManager, service.AuthParams{
		TokenTTL:                  720 * time.Hour,
		TokenRollingTTL:           168 * time.Hour,
		MaxTokensPerUser:          3,
		RegistrationInvitationTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewUsersService() error = %v", err)
	}

	hub := notify.NewHub()
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	channels := service.NewChannelsService(txManager, hub)

	cfg := &config.Config{}
	server := NewServer(cfg, database, users, channels, hub)

	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)

	return &testServer{Server: ts, users: users}
}

// inviteCode mints a registration invitation the way an operator would
// seed the first one.
func (ts *testServer) inviteCode(t *testing.T) string {
	t.Helper()

	code, err := ts.users.CreateRegistrationInvitation(context.Background(), nil)
	if err != nil {
		t.Fatalf("CreateRegistrationInvitation() error = %v", err)
	}
	return code
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	return resp, data
}

func decodeBody[T any](t *testing.T, data []byte) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decoding response %q: %v", data, err)
	}
	return v
}

// registerAndLogin walks the public endpoints and returns an auth token.
func (ts *testServer) registerAndLogin(t *testing.T, username, password string) string {
	t.Helper()

	resp, body := ts.do(t, http.MethodPost, "/api/v1/users", "", RegisterRequest{
		InvitationCode: ts.inviteCode(t),
		Username:       username,
		Password:       password,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", resp.StatusCode, body)
	}

	resp, body = ts.do(t, http.MethodPost, "/api/v1/login", "", LoginRequest{
		Username: username,
		Password: password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", resp.StatusCode, body)
	}
	return decodeBody[LoginResponse](t, body).AuthToken
}

func TestRegisterEndpoint(t *testing.T) {
	ts := newTestServer(t)

	code := ts.inviteCode(t)
	resp, body := ts.do(t, http.MethodPost, "/api/v1/users", "", RegisterRequest{
		InvitationCode: code,
		Username:       "alice",
		Password:       "password1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	if decodeBody[RegisterResponse](t, body).UserID == "" {
		t.Error("empty userId in response")
	}

	// reusing the code is rejected
	resp, _ = ts.do(t, http.MethodPost, "/api/v1/users", "", RegisterRequest{
		InvitationCode: code,
		Username:       "bobby",
		Password:       "password1",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("reused code status = %d, want 400", resp.StatusCode)
	}
}

func TestRegisterEndpointRejectsUnknownFields(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodPost, "/api/v1/users", "", map[string]string{
		"invitationCode": ts.inviteCode(t),
		"username":       "alice",
		"password":       "password1",
		"isAdmin":        "true",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestLoginEndpointInvalidCredentials(t *testing.T) {
	ts := newTestServer(t)
	ts.registerAndLogin(t, "alice", "password1")

	resp, _ := ts.do(t, http.MethodPost, "/api/v1/login", "", LoginRequest{
		Username: "alice",
		Password: "wrongpass1",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAuthMiddleware(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "alice", "password1")

	// no credentials
	resp, _ := ts.do(t, http.MethodGet, "/api/v1/channels/", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no-auth status = %d, want 401", resp.StatusCode)
	}

	// garbage bearer token
	resp, _ = ts.do(t, http.MethodGet, "/api/v1/channels/", "tok_bogus", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bogus token status = %d, want 401", resp.StatusCode)
	}

	// valid bearer token
	resp, _ = ts.do(t, http.MethodGet, "/api/v1/channels/", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("bearer status = %d, want 200", resp.StatusCode)
	}

	// same token via cookie
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/channels/", nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: "authToken", Value: token})
	cookieResp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("cookie request: %v", err)
	}
	defer cookieResp.Body.Close()
	if cookieResp.StatusCode != http.StatusOK {
		t.Errorf("cookie status = %d, want 200", cookieResp.StatusCode)
	}
}

func TestLogoutEndpointInvalidatesToken(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "alice", "password1")

	resp, _ := ts.do(t, http.MethodPost, "/api/v1/logout", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}

	resp, _ = ts.do(t, http.MethodGet, "/api/v1/channels/", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("post-logout status = %d, want 401", resp.StatusCode)
	}
}

func TestInviteEndpointRequiresAuth(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "alice", "password1")

	resp, _ := ts.do(t, http.MethodPost, "/api/v1/invite", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated invite status = %d, want 401", resp.StatusCode)
	}

	resp, body := ts.do(t, http.MethodPost, "/api/v1/invite", token, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("invite status = %d, body = %s", resp.StatusCode, body)
	}
	code := decodeBody[InviteResponse](t, body).InvitationCode
	if code == "" {
		t.Fatal("empty invitation code")
	}

	// the minted code registers a new user
	resp, _ = ts.do(t, http.MethodPost, "/api/v1/users", "", RegisterRequest{
		InvitationCode: code,
		Username:       "bobby",
		Password:       "password1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("register with minted code status = %d", resp.StatusCode)
	}
}

func TestChannelFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	aliceToken := ts.registerAndLogin(t, "alice", "password1")
	bobToken := ts.registerAndLogin(t, "bobby", "password1")

	// alice creates a public channel
	resp, body := ts.do(t, http.MethodPost, "/api/v1/channels/", aliceToken, CreateChannelRequest{
		Name:     "general",
		IsPublic: true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create channel status = %d, body = %s", resp.StatusCode, body)
	}
	channelID := decodeBody[CreateChannelResponse](t, body).ChannelID

	// duplicate name conflicts
	resp, _ = ts.do(t, http.MethodPost, "/api/v1/channels/", aliceToken, CreateChannelRequest{Name: "general", IsPublic: true})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate channel status = %d, want 409", resp.StatusCode)
	}

	// bob finds it by search and joins
	resp, body = ts.do(t, http.MethodGet, "/api/v1/channels/search?name=gen", bobToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search status = %d", resp.StatusCode)
	}
	found := decodeBody[[]map[string]any](t, body)
	if len(found) != 1 {
		t.Fatalf("search returned %d channels, want 1", len(found))
	}

	resp, _ = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/channels/%s/join", channelID), bobToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join status = %d", resp.StatusCode)
	}
	resp, _ = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/channels/%s/join", channelID), bobToken, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second join status = %d, want 409", resp.StatusCode)
	}

	// alice posts, bob reads
	resp, body = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/channels/%s/messages", channelID), aliceToken, CreateMessageRequest{
		Content: "welcome!",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("post message status = %d, body = %s", resp.StatusCode, body)
	}

	resp, body = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/channels/%s/messages", channelID), bobToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list messages status = %d", resp.StatusCode)
	}
	messages := decodeBody[[]map[string]any](t, body)
	if len(messages) != 1 || messages[0]["content"] != "welcome!" {
		t.Fatalf("messages = %v, want the welcome message", messages)
	}

	// bob leaves, then can no longer read
	resp, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/channels/%s/members", channelID), bobToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leave status = %d", resp.StatusCode)
	}
	resp, _ = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/channels/%s/messages", channelID), bobToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("post-leave list status = %d, want 403", resp.StatusCode)
	}

	// the owner cannot leave
	resp, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/channels/%s/members", channelID), aliceToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("owner leave status = %d, want 403", resp.StatusCode)
	}
}

func TestInvitationFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	aliceToken := ts.registerAndLogin(t, "alice", "password1")
	bobToken := ts.registerAndLogin(t, "bobby", "password1")

	resp, body := ts.do(t, http.MethodPost, "/api/v1/channels/", aliceToken, CreateChannelRequest{
		Name:     "secretclub",
		IsPublic: false,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create channel status = %d", resp.StatusCode)
	}
	channelID := decodeBody[CreateChannelResponse](t, body).ChannelID

	// bob cannot join a private channel directly
	resp, _ = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/channels/%s/join", channelID), bobToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("private join status = %d, want 403", resp.StatusCode)
	}

	// owner role cannot be granted
	resp, _ = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/channels/%s/invitations", channelID), aliceToken, CreateInvitationRequest{
		Username: "bobby",
		Role:     "owner",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("owner invitation status = %d, want 403", resp.StatusCode)
	}

	// unknown role is an input error
	resp, _ = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/channels/%s/invitations", channelID), aliceToken, CreateInvitationRequest{
		Username: "bobby",
		Role:     "admin",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown role status = %d, want 400", resp.StatusCode)
	}

	resp, body = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/channels/%s/invitations", channelID), aliceToken, CreateInvitationRequest{
		Username: "bobby",
		Role:     "member",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("invitation status = %d, body = %s", resp.StatusCode, body)
	}

	// bob sees it, accepts it, and can post
	resp, body = ts.do(t, http.MethodGet, "/api/v1/invitations", bobToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list invitations status = %d", resp.StatusCode)
	}
	if invitations := decodeBody[[]map[string]any](t, body); len(invitations) != 1 {
		t.Fatalf("got %d invitations, want 1", len(invitations))
	}

	resp, _ = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/channels/%s/invitations/accept", channelID), bobToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("accept status = %d", resp.StatusCode)
	}

	resp, _ = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/channels/%s/messages", channelID), bobToken, CreateMessageRequest{
		Content: "made it in",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("post after accept status = %d, want 201", resp.StatusCode)
	}

	// accepting again finds nothing to consume
	resp, _ = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/channels/%s/invitations/accept", channelID), bobToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second accept status = %d, want 404", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodGet, "/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d, want 200", resp.StatusCode)
	}
}
