package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"protocol-cli/cmd/utils"
	"protocol-cli/internal/chat"
)

const (
	DefaultDiagnoseTimeout = 2 * time.Minute
	DefaultRequestTimeout  = 60 * time.Second
)

// Client talks to the diagnosis backend over HTTP/JSON. BaseURL already
// includes the API prefix, e.g. http://localhost:8080/api.
type Client struct {
	BaseURL string

	diagnoseTimeout time.Duration
	requestTimeout  time.Duration
	httpClient      utils.HTTPClient
	diagnoseClient  utils.HTTPClient
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient routes every call through hc, bypassing the timeout-specific
// clients.
func WithHTTPClient(hc utils.HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = hc
		c.diagnoseClient = hc
	}
}

// WithTimeouts sets the diagnose and chat-history timeouts. Zero keeps the
// default.
func WithTimeouts(diagnose, request time.Duration) Option {
	return func(c *Client) {
		if diagnose > 0 {
			c.diagnoseTimeout = diagnose
		}
		if request > 0 {
			c.requestTimeout = request
		}
	}
}

// NewClient builds a client for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL:         strings.TrimRight(baseURL, "/"),
		diagnoseTimeout: DefaultDiagnoseTimeout,
		requestTimeout:  DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = utils.GetHTTPClientWithTimeout(c.requestTimeout)
	}
	if c.diagnoseClient == nil {
		c.diagnoseClient = utils.GetHTTPClientWithTimeout(c.diagnoseTimeout)
	}
	return c
}

var _ Backend = (*Client)(nil)
var _ Pinger = (*Client)(nil)

func (c *Client) Diagnose(ctx context.Context, symptoms string) ([]chat.DiagnosisItem, error) {
	ctx, cancel := context.WithTimeout(ctx, c.diagnoseTimeout)
	defer cancel()
	var out DiagnoseResponse
	if err := c.do(ctx, c.diagnoseClient, http.MethodPost, "/diagnose", DiagnoseRequest{Symptoms: symptoms}, &out); err != nil {
		return nil, err
	}
	return out.Diagnoses, nil
}

func (c *Client) Details(ctx context.Context, symptoms, icd10Code string) ([]chat.DetailSection, error) {
	ctx, cancel := context.WithTimeout(ctx, c.diagnoseTimeout)
	defer cancel()
	var out DetailsResponse
	req := DetailsRequest{Symptoms: symptoms, ICD10Code: icd10Code}
	if err := c.do(ctx, c.diagnoseClient, http.MethodPost, "/diagnose/details", req, &out); err != nil {
		return nil, err
	}
	return out.Sections, nil
}

func (c *Client) ListChats(ctx context.Context) ([]chat.Chat, error) {
	var out ChatsResponse
	if err := c.do(ctx, c.httpClient, http.MethodGet, "/chats", nil, &out); err != nil {
		return nil, err
	}
	chats := make([]chat.Chat, 0, len(out.Chats))
	for _, dto := range out.Chats {
		chats = append(chats, ToChat(dto))
	}
	return chats, nil
}

func (c *Client) CreateChat(ctx context.Context, title string) (chat.Chat, error) {
	if title == "" {
		title = chat.DefaultTitle
	}
	var out ChatDTO
	if err := c.do(ctx, c.httpClient, http.MethodPost, "/chats", CreateChatRequest{Title: title}, &out); err != nil {
		return chat.Chat{}, err
	}
	return ToChat(out), nil
}

func (c *Client) AddMessage(ctx context.Context, chatID string, msg chat.Message) error {
	body := AddMessageRequest{Role: msg.Role, Content: msg.Content, DiagnosisData: msg.Diagnosis}
	return c.do(ctx, c.httpClient, http.MethodPost, chatPath(chatID)+"/messages", body, nil)
}

func (c *Client) DeleteChat(ctx context.Context, id string) error {
	return c.do(ctx, c.httpClient, http.MethodDelete, chatPath(id), nil, nil)
}

func (c *Client) SetPinned(ctx context.Context, id string, pinned bool) error {
	return c.do(ctx, c.httpClient, http.MethodPatch, chatPath(id), PatchChatRequest{Pinned: &pinned}, nil)
}

func (c *Client) UpdateTitle(ctx context.Context, id, title string) error {
	return c.do(ctx, c.httpClient, http.MethodPatch, chatPath(id), PatchChatRequest{Title: &title}, nil)
}

// Ping checks GET <base>/health.
func (c *Client) Ping(ctx context.Context) error {
	return utils.PingAPI(ctx, c.BaseURL)
}

// DiagnoseCurl renders the diagnose call as a curl command for --dry-run.
func (c *Client) DiagnoseCurl(symptoms string) (string, error) {
	data, err := json.Marshal(DiagnoseRequest{Symptoms: symptoms})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")
	return CurlCommand(http.MethodPost, c.BaseURL+"/diagnose", data, headers), nil
}

func (c *Client) do(ctx context.Context, hc utils.HTTPClient, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return &RequestError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    utils.ServerErrorText(resp, data),
		}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func chatPath(id string) string {
	return "/chats/" + url.PathEscape(id)
}

// CurlCommand formats an HTTP call as a copy-pasteable curl invocation.
func CurlCommand(method, rawURL string, body []byte, headers http.Header) string {
	var b strings.Builder
	b.WriteString("curl -sS -X ")
	b.WriteString(method)
	b.WriteString(" ")
	b.WriteString(shellQuote(rawURL))

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range headers.Values(k) {
			b.WriteString(" \\\n  -H ")
			b.WriteString(shellQuote(k + ": " + v))
		}
	}
	if len(body) > 0 {
		b.WriteString(" \\\n  --data-raw ")
		b.WriteString(shellQuote(string(body)))
	}
	return b.String()
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
