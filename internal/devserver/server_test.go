package devserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protocol-cli/cmd/utils"
	"protocol-cli/internal/api"
	"protocol-cli/internal/chat"
	"protocol-cli/internal/mock"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "devserver-test")
	if err != nil {
		panic(err)
	}
	os.Setenv(utils.DataDirEnv, dir)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func newMockServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := mock.New(mock.WithLatency(0), mock.WithClock(func() time.Time { return fixedNow }))
	srv := httptest.NewServer(New(svc, svc, "/api"))
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, method, url, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestHealth(t *testing.T) {
	srv := newMockServer(t)
	status, body := doRequest(t, http.MethodGet, srv.URL+"/api/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestCORSPreflight(t *testing.T) {
	srv := newMockServer(t)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/chats", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestDiagnoseEndpoint(t *testing.T) {
	srv := newMockServer(t)

	status, body := doRequest(t, http.MethodPost, srv.URL+"/api/diagnose", `{"symptoms":"dry cough"}`)
	require.Equal(t, http.StatusOK, status)
	var resp api.DiagnoseResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	require.Len(t, resp.Diagnoses, 3)
	assert.Equal(t, "J20.9", resp.Diagnoses[0].ICD10Code)

	status, body = doRequest(t, http.MethodPost, srv.URL+"/api/diagnose", `{"symptoms":"itchy elbow"}`)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"diagnoses":[]}`, body)
}

func TestBadRequests(t *testing.T) {
	srv := newMockServer(t)
	tests := []struct {
		name, method, path, body string
	}{
		{"blank symptoms", http.MethodPost, "/api/diagnose", `{"symptoms":"  "}`},
		{"malformed json", http.MethodPost, "/api/diagnose", `{`},
		{"missing code", http.MethodPost, "/api/diagnose/details", `{"symptoms":"cough"}`},
		{"bad role", http.MethodPost, "/api/chats/1/messages", `{"role":"system","content":"x"}`},
		{"empty patch", http.MethodPatch, "/api/chats/1", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := doRequest(t, tt.method, srv.URL+tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
		})
	}
}

func TestUnknownChatIs404(t *testing.T) {
	srv := newMockServer(t)
	status, body := doRequest(t, http.MethodDelete, srv.URL+"/api/chats/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "chat not found", strings.TrimSpace(body))
}

func TestCustomAPIBase(t *testing.T) {
	svc := mock.New(mock.WithLatency(0))
	srv := httptest.NewServer(New(svc, svc, "v1/"))
	defer srv.Close()

	status, _ := doRequest(t, http.MethodGet, srv.URL+"/v1/health", "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = doRequest(t, http.MethodGet, srv.URL+"/api/health", "")
	assert.Equal(t, http.StatusNotFound, status)
}

// The client and server agree on the wire format for every call.
func TestClientRoundTrip(t *testing.T) {
	repo := newGormRepo(t)
	diag := mock.New(mock.WithLatency(0), mock.WithoutSeed())
	srv := httptest.NewServer(New(repo, diag, "/api"))
	defer srv.Close()

	c := api.NewClient(srv.URL+"/api", api.WithHTTPClient(srv.Client()))
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	created, err := c.CreateChat(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, chat.DefaultTitle, created.Title)

	items, err := c.Diagnose(ctx, "chest pain and cough")
	require.NoError(t, err)
	require.Len(t, items, 3)

	sections, err := c.Details(ctx, "chest pain and cough", items[0].ICD10Code)
	require.NoError(t, err)
	require.Len(t, sections, 3)
	assert.Equal(t, "Recommended specialists", sections[0].Title)

	require.NoError(t, c.AddMessage(ctx, created.ID, chat.Message{Role: chat.RoleUser, Content: "chest pain and cough"}))
	require.NoError(t, c.AddMessage(ctx, created.ID, chat.Message{
		Role:      chat.RoleAssistant,
		Content:   "found",
		Diagnosis: &chat.DiagnosisData{Diagnoses: items, DetailsSections: sections},
	}))
	require.NoError(t, c.UpdateTitle(ctx, created.ID, items[0].Diagnosis))
	require.NoError(t, c.SetPinned(ctx, created.ID, true))

	chats, err := c.ListChats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	got := chats[0]
	assert.Equal(t, "Острый бронхит", got.Title)
	assert.True(t, got.Pinned)
	require.Len(t, got.Messages, 2)
	assert.WithinDuration(t, fixedNow, got.Messages[0].Timestamp, time.Millisecond)
	primary, ok := got.Messages[1].Diagnosis.Primary()
	require.True(t, ok)
	assert.Equal(t, "J20.9", primary.ICD10Code)
	assert.True(t, got.Messages[1].Diagnosis.HasDetails())

	require.NoError(t, c.DeleteChat(ctx, created.ID))
	err = c.DeleteChat(ctx, created.ID)
	require.Error(t, err)
	var reqErr *api.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ListenAndServe(ctx, "127.0.0.1:0", http.NotFoundHandler()) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
