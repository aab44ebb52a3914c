package vivint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	defaultBaseURL = "https://www.vivintsky.com/api"

	loginPath        = "/login"
	refreshPath      = "/session/refresh"
	mfaPath          = "/session/mfa"
	logoutPath       = "/logout"
	authUserPath     = "/authuser"
	systemPath       = "/systems/%d"
	armedStatePath   = "/systems/%d/armedstate"
	alarmTriggerPath = "/systems/%d/alarm"
	lockPath         = "/systems/%d/locks/%d"
	switchPath       = "/systems/%d/switches/%d"
	garageDoorPath   = "/systems/%d/doors/%d"
	cameraPath       = "/systems/%d/cameras/%d"
	panelRebootPath  = "/systems/%d/reboot"
	cameraRebootPath = "/systems/%d/cameras/%d/reboot"
)

// Instrument allows callers to observe API calls without coupling this
// package to any metrics library.
type Instrument struct {
	RecordTime func(op string, elapsed time.Duration)
}

func RecordTimer(op string, instrument []Instrument) func() {
	start := time.Now()
	return func() {
		if instrument == nil {
			return
		}
		elapsed := time.Since(start)
		for _, in := range instrument {
			if in.RecordTime != nil {
				in.RecordTime(op, elapsed)
			}
		}
	}
}

type restClient struct {
	baseURL       string
	httpClient    *http.Client
	instrument    []Instrument
	onTokenRotate func(token string)

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	mfaPending   bool
}

func newRestClient(baseURL string, httpClient *http.Client, instrument []Instrument) *restClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &restClient{baseURL: baseURL, httpClient: httpClient, instrument: instrument}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type mfaRequest struct {
	Code string `json:"code"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	MfaPending   bool   `json:"mfa_pending"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// login establishes a session from username and password. When the cloud
// answers with a pending MFA challenge the partial session is kept so
// verifyMfa can complete it, and ErrMfaRequired is returned.
func (c *restClient) login(ctx context.Context, username, password string) error {
	var resp tokenResponse
	err := c.doJSON(ctx, http.MethodPost, loginPath, loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return err
	}
	c.setSession(resp)
	if resp.MfaPending {
		return ErrMfaRequired
	}
	return nil
}

// refreshSession resumes a session from a persisted refresh token.
func (c *restClient) refreshSession(ctx context.Context, refreshToken string) error {
	var resp tokenResponse
	err := c.doJSON(ctx, http.MethodPost, refreshPath, refreshRequest{RefreshToken: refreshToken}, &resp)
	if err != nil {
		return err
	}
	c.setSession(resp)
	if resp.MfaPending {
		return ErrMfaRequired
	}
	return nil
}

func (c *restClient) verifyMfa(ctx context.Context, code string) error {
	var resp tokenResponse
	err := c.doJSON(ctx, http.MethodPost, mfaPath, mfaRequest{Code: code}, &resp)
	if err != nil {
		return err
	}
	c.setSession(resp)
	return nil
}

func (c *restClient) logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, logoutPath, nil, nil)
	c.mu.Lock()
	c.accessToken = ""
	c.mfaPending = false
	c.mu.Unlock()
	return err
}

func (c *restClient) setSession(resp tokenResponse) {
	c.mu.Lock()
	c.accessToken = resp.AccessToken
	c.mfaPending = resp.MfaPending
	rotated := resp.RefreshToken != "" && resp.RefreshToken != c.refreshToken
	if resp.RefreshToken != "" {
		c.refreshToken = resp.RefreshToken
	}
	c.mu.Unlock()

	if rotated && c.onTokenRotate != nil {
		c.onTokenRotate(resp.RefreshToken)
	}
}

func (c *restClient) currentRefreshToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshToken
}

func (c *restClient) hasSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken != "" && !c.mfaPending
}

func (c *restClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	defer RecordTimer(method+" "+path, c.instrument)()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &APIError{Message: fmt.Sprintf("encode request: %s", err), Err: err}
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &APIError{Message: fmt.Sprintf("build request: %s", err), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.Lock()
	token := c.accessToken
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Message: err.Error(), Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("read response: %s", err), Err: err}
	}
	if err := statusToError(resp.StatusCode, data); err != nil {
		return err
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("decode response: %s", err), Err: err}
		}
	}
	return nil
}

// statusToError maps a non-2xx response to the error taxonomy. A pending
// MFA challenge is reported as 412 or as an error code in the body.
func statusToError(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	var envelope errorResponse
	_ = json.Unmarshal(body, &envelope)
	switch {
	case status == http.StatusPreconditionRequired || envelope.Code == "mfa_required":
		return ErrMfaRequired
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthenticationError{Reason: envelope.Message}
	default:
		return &APIError{StatusCode: status, Message: envelope.Message}
	}
}
