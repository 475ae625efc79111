package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rskariadi-dev/manrura/internal/domain"
)

const DefaultTimeout = 30 * time.Second

// TokenSource supplies the bearer token sent with every action.
type TokenSource interface {
	Token() string
}

type request struct {
	Action  string `json:"action"`
	Payload any    `json:"payload"`
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client talks to the single action endpoint of the MANRURA API.
type Client struct {
	endpoint   string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a client for endpoint, the full URL of the action route. An empty endpoint is
// accepted; every call then fails with ErrConfigMissing.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   strings.TrimSpace(endpoint),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Configured() bool {
	return c.endpoint != ""
}

func (c *Client) call(ctx context.Context, action string, payload any, out any) error {
	if !c.Configured() {
		return ErrConfigMissing
	}

	body, err := json.Marshal(request{Action: action, Payload: payload})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &NetworkError{Action: action, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("action failed", "action", action, "error", err)
		return &NetworkError{Action: action, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Action: action, Err: err}
	}
	c.logger.Debug("action done", "action", action, "status", resp.StatusCode, "duration", time.Since(start))

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = fmt.Sprintf("server responded with %s", resp.Status)
		}
		return &APIError{Action: action, StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return &APIError{Action: action, StatusCode: resp.StatusCode, Message: "malformed response: " + decodeErr.Error()}
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request was rejected by the server"
		}
		return &APIError{Action: action, StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &APIError{Action: action, StatusCode: resp.StatusCode, Message: "malformed response data: " + err.Error()}
	}
	return nil
}

// Login checks credentials and returns the user together with the signed token.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	var out struct {
		User  domain.User `json:"user"`
		Token string      `json:"token"`
	}
	payload := map[string]string{"email": email, "password": password}
	if err := c.call(ctx, "login", payload, &out); err != nil {
		return nil, "", err
	}
	return &out.User, out.Token, nil
}

func (c *Client) GetAllData(ctx context.Context) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := c.call(ctx, "getAllData", struct{}{}, &snap); err != nil {
		return nil, err
	}
	if snap.AllAssessments == nil {
		snap.AllAssessments = make(domain.AllAssessments)
	}
	return &snap, nil
}

func (c *Client) AddUser(ctx context.Context, user domain.User) (*domain.User, error) {
	var out domain.User
	if err := c.call(ctx, "addUser", user, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddWard(ctx context.Context, ward domain.Ward) (*domain.Ward, error) {
	var out domain.Ward
	if err := c.call(ctx, "addWard", ward, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddAssessmentPeriod(ctx context.Context, period domain.AssessmentPeriod) (*domain.AssessmentPeriod, error) {
	payload := map[string]string{
		"name":      period.Name,
		"startDate": period.StartDate.Format(time.DateOnly),
		"endDate":   period.EndDate.Format(time.DateOnly),
	}
	var out domain.AssessmentPeriod
	if err := c.call(ctx, "addAssessmentPeriod", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAssessment sends a partial score update. The wire field is spelled poinId.
func (c *Client) UpdateAssessment(ctx context.Context, wardID, pointID string, slot domain.ScoreSlot, update domain.ScoreUpdate) error {
	payload := struct {
		WardID  string             `json:"wardId"`
		PoinID  string             `json:"poinId"`
		Role    domain.ScoreSlot   `json:"role"`
		Updates domain.ScoreUpdate `json:"updates"`
	}{wardID, pointID, slot, update}
	return c.call(ctx, "updateAssessment", payload, nil)
}

// UploadFile sends the file inline as a base64 data URL and returns the stored reference.
func (c *Client) UploadFile(ctx context.Context, fileName, mimeType string, content []byte) (*domain.Evidence, error) {
	payload := map[string]string{
		"fileData": domain.EncodeDataURL(mimeType, content),
		"fileName": fileName,
		"mimeType": mimeType,
	}
	var out domain.Evidence
	if err := c.call(ctx, "uploadFile", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the signed-in user as the server currently knows it.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var out domain.User
	if err := c.call(ctx, "getMyInfo", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	payload := map[string]string{"oldPassword": oldPassword, "newPassword": newPassword}
	return c.call(ctx, "changePassword", payload, nil)
}
