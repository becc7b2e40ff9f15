// Package line verifies LINE Login id tokens against the LINE verify endpoint.
package line

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"school/config"
	"school/internal/domain/service"

	"github.com/pkg/errors"
	"github.com/sethvargo/go-retry"
)

const (
	providerName     = "line"
	defaultBaseDelay = 100 * time.Millisecond
	maxErrorBodySize = 4 << 10
)

var (
	// ErrTokenRejected is returned when LINE answers that the id token is not valid.
	ErrTokenRejected = errors.New("line rejected the id token")
	// ErrMissingSubject is returned when a successful response carries no subject.
	ErrMissingSubject = errors.New("line verify response has no subject")
)

// verifyResponse is the subset of the verify endpoint payload the service needs.
type verifyResponse struct {
	Iss     string `json:"iss"`
	Sub     string `json:"sub"`
	Aud     string `json:"aud"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Verifier calls the LINE verify endpoint. Transport failures and 5xx answers are retried
// with exponential backoff; any other non-200 answer is a final rejection.
type Verifier struct {
	client     *http.Client
	verifyURL  string
	clientID   string
	timeout    time.Duration
	maxRetries uint64
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewVerifier creates a LINE verifier from the federated login configuration.
func NewVerifier(cfg *config.Config, logger *slog.Logger) *Verifier {
	return &Verifier{
		client:     &http.Client{},
		verifyURL:  cfg.Federated.VerifyURL,
		clientID:   cfg.Federated.ClientID,
		timeout:    cfg.Federated.Timeout,
		maxRetries: cfg.Federated.MaxRetries,
		baseDelay:  defaultBaseDelay,
		logger:     logger,
	}
}

// Provider implements service.ExternalIdentityVerifier.
func (v *Verifier) Provider() string {
	return providerName
}

// VerifyExternalToken implements service.ExternalIdentityVerifier.
func (v *Verifier) VerifyExternalToken(ctx context.Context, idToken string) (*service.ExternalIdentity, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, errors.Wrap(ErrTokenRejected, "empty id token")
	}

	backoff := retry.WithMaxRetries(v.maxRetries, retry.NewExponential(v.baseDelay))

	var result *verifyResponse
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		resp, err := v.verifyOnce(ctx, idToken)
		if err != nil {
			if !isTransient(err) {
				return err
			}
			v.logger.WarnContext(ctx, "LINE verify attempt failed",
				slog.Int("attempt", attempt),
				slog.Any("error", err))

			return retry.RetryableError(err)
		}
		result = resp

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "line verify failed")
	}

	return &service.ExternalIdentity{
		Subject: result.Sub,
		Name:    result.Name,
		Email:   result.Email,
	}, nil
}

// retryableStatusError marks upstream answers worth retrying (5xx and 429).
type retryableStatusError struct {
	status int
}

func (e *retryableStatusError) Error() string {
	return fmt.Sprintf("line verify endpoint answered %d", e.status)
}

// isTransient reports whether a failed attempt may succeed when repeated.
func isTransient(err error) bool {
	var status *retryableStatusError
	if errors.As(err, &status) {
		return true
	}

	return !errors.Is(err, ErrTokenRejected) && !errors.Is(err, ErrMissingSubject)
}

func (v *Verifier) verifyOnce(ctx context.Context, idToken string) (*verifyResponse, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	form := url.Values{}
	form.Set("id_token", idToken)
	form.Set("client_id", v.clientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "build verify request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call verify endpoint")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))

		return nil, &retryableStatusError{status: resp.StatusCode}
	default:
		var body errorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorBodySize)).Decode(&body)

		return nil, errors.Wrapf(ErrTokenRejected, "status %d: %s %s", resp.StatusCode, body.Error, body.ErrorDescription)
	}

	var payload verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(ErrTokenRejected, "decode verify response: "+err.Error())
	}
	if payload.Sub == "" {
		return nil, ErrMissingSubject
	}

	return &payload, nil
}
