package banking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/choiwab/banking-client/internal/auth"
	"github.com/choiwab/banking-client/internal/httpclient"
	"github.com/choiwab/banking-client/internal/rate"
	"github.com/choiwab/banking-client/pkg/utils"
)

// Config holds the per-client settings for talking to one banking API host.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	MaxAttempts  int           // total attempts per request, including the first
	RetryBackoff time.Duration // first retry delay; doubles per retry

	PoolConnections int // idle connections kept per host
	PoolMaxSize     int // idle connections kept across the transport

	Credentials auth.Credentials
}

// Client is the single point of contact with the banking API. It owns one
// pooled HTTP transport and one session token; every scoped operation funnels
// through the session guard so callers never handle tokens directly.
type Client struct {
	logger    *zap.Logger
	baseURL   string
	exec      *httpclient.Executor
	session   *auth.Session
	transport *http.Transport
}

// NewClient constructs a banking client. rateMgr may be nil to disable
// client-side rate limiting.
func NewClient(logger *zap.Logger, rateMgr *rate.Manager, cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	logger = logger.With(
		zap.String("client_id", uuid.NewString()[:8]),
		zap.String("base_url", baseURL))

	transport := &http.Transport{
		MaxIdleConns:        cfg.PoolMaxSize,
		MaxIdleConnsPerHost: cfg.PoolConnections,
		IdleConnTimeout:     90 * time.Second,
	}
	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}

	retryMax := cfg.MaxAttempts - 1
	if retryMax < 0 {
		retryMax = 0
	}

	exec := httpclient.New(logger, rateMgr, httpClient, retryMax, "banking", cfg.RetryBackoff,
		func(status int, body []byte) error {
			var errResp apiError
			_ = json.Unmarshal(body, &errResp)

			msg := errResp.Message
			if msg == "" {
				msg = errResp.Error
			}
			if msg == "" {
				msg = string(body)
			}
			if status == 0 && msg == "" {
				msg = "no response received"
			}
			return &RemoteError{Status: status, Message: msg}
		})

	c := &Client{
		logger:    logger,
		baseURL:   baseURL,
		exec:      exec,
		transport: transport,
	}
	c.session = auth.NewSession(logger, cfg.Credentials, c.login)
	return c
}

// Authenticate performs an explicit login with the given credentials and
// scope. The issued token becomes the client's session token; the credentials
// become the default for transparent re-authentication.
func (c *Client) Authenticate(ctx context.Context, username, password string, scope auth.Scope) (auth.Grant, error) {
	return c.session.Authenticate(ctx, auth.Credentials{Username: username, Password: password}, scope)
}

// login is the session's LoginFunc: POST /authToken?claim={scope}.
func (c *Client) login(ctx context.Context, creds auth.Credentials, scope auth.Scope) (auth.Grant, error) {
	endpoint := fmt.Sprintf("%s/authToken?claim=%s", c.baseURL, url.QueryEscape(string(scope)))

	data, err := json.Marshal(creds)
	if err != nil {
		return auth.Grant{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return auth.Grant{}, err
	}
	setHeaders(req, "")

	var resp tokenResponse
	if err := c.exec.DoJSON(ctx, req, c.baseURL, &resp); err != nil {
		// A 4xx from the token endpoint is a credential/scope rejection;
		// transport failures and exhausted 5xx stay RemoteError.
		var rerr *RemoteError
		if errors.As(err, &rerr) && rerr.Status >= 400 && rerr.Status < 500 {
			return auth.Grant{}, &AuthenticationError{Status: rerr.Status, Message: rerr.Message}
		}
		return auth.Grant{}, err
	}
	if resp.Token == "" {
		return auth.Grant{}, &AuthenticationError{Status: http.StatusOK, Message: "token endpoint returned no token"}
	}

	c.logger.Debug("banking.token_issued",
		zap.String("token", utils.MaskSecret(resp.Token)),
		zap.String("scope", string(scope)))

	return auth.Grant{
		Token:  resp.Token,
		Scope:  scope,
		Expiry: auth.ExpiryFrom(resp.Token, resp.ExpiresIn),
	}, nil
}

// Transfer moves funds between two accounts. The request is validated locally
// first; a malformed request never reaches the network. With useAuth set, a
// transfer-scope token is ensured and attached.
func (c *Client) Transfer(ctx context.Context, from, to string, amount float64, useAuth bool) (*TransferResult, error) {
	treq := TransferRequest{FromAccount: from, ToAccount: to, Amount: amount}
	if err := treq.Validate(); err != nil {
		return nil, err
	}

	token := ""
	if useAuth {
		t, err := c.session.EnsureScope(ctx, auth.ScopeTransfer)
		if err != nil {
			return nil, err
		}
		token = t
	}

	c.logger.Info("banking.transfer_start",
		zap.String("from", from),
		zap.String("to", to),
		zap.Float64("amount", amount),
		zap.Bool("authenticated", useAuth))

	var res TransferResult
	if err := c.postJSON(ctx, "/transfer", token, treq, &res); err != nil {
		return nil, err
	}

	c.logger.Info("banking.transfer_done",
		zap.String("transaction_id", res.TransactionID),
		zap.String("status", res.Status))
	return &res, nil
}

// ValidateAccount asks the server whether an account exists and is active.
// Only emptiness is checked locally; format judgments belong to the server.
func (c *Client) ValidateAccount(ctx context.Context, accountID string) (*AccountValidation, error) {
	if accountID == "" {
		return nil, &ValidationError{Field: "accountId", Reason: "must not be empty"}
	}
	var res AccountValidation
	if err := c.getJSON(ctx, "/accounts/validate/"+url.PathEscape(accountID), "", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetBalance returns the balance of one account (unauthenticated read).
func (c *Client) GetBalance(ctx context.Context, accountID string) (*Balance, error) {
	if accountID == "" {
		return nil, &ValidationError{Field: "accountId", Reason: "must not be empty"}
	}
	var res Balance
	if err := c.getJSON(ctx, "/accounts/balance/"+url.PathEscape(accountID), "", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListAccounts returns all accounts known to the server (unauthenticated read).
func (c *Client) ListAccounts(ctx context.Context) (*AccountList, error) {
	var res AccountList
	if err := c.getJSON(ctx, "/accounts", "", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetTransactionHistory returns the transaction log. Any valid token
// suffices; an enquiry-scope grant is ensured transparently.
func (c *Client) GetTransactionHistory(ctx context.Context) (*TransactionHistory, error) {
	token, err := c.session.EnsureScope(ctx, auth.ScopeEnquiry)
	if err != nil {
		return nil, err
	}
	var res TransactionHistory
	if err := c.getJSON(ctx, "/transactions/history", token, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Close releases the pooled connections. The client must not be used after.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
	c.logger.Debug("banking.client_closed")
}

// getJSON performs a GET request and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	setHeaders(req, token)
	return c.exec.DoJSON(ctx, req, c.baseURL, out)
}

// postJSON performs a POST request with a JSON body.
func (c *Client) postJSON(ctx context.Context, path, token string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	setHeaders(req, token)
	return c.exec.DoJSON(ctx, req, c.baseURL, out)
}

// setHeaders sets the standard headers, attaching a Bearer token when given.
func setHeaders(req *http.Request, token string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
