package token

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voxform/voxform/pkg/errorsx"
	"github.com/voxform/voxform/pkg/resilience"
)

// HTTPProvider fetches ephemeral tokens from a backend endpoint. Transient
// failures are retried with a bounded policy before the error is surfaced
// as fatal.
type HTTPProvider struct {
	URL    string
	APIKey string
	Client *http.Client
	Retry  resilience.RetryPolicy
}

func NewHTTPProvider(url, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		URL:    url,
		APIKey: apiKey,
		Client: &http.Client{Timeout: 10 * time.Second},
		Retry:  resilience.NewRetryPolicy(2, 300*time.Millisecond),
	}
}

func (p *HTTPProvider) EphemeralToken(ctx context.Context) (Token, error) {
	var tok Token
	err := p.Retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, nil)
		if err != nil {
			return err
		}
		if p.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+p.APIKey)
		}
		req.Header.Set("Accept", "application/json")
		resp, err := p.Client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
		}
		var payload struct {
			Value     string    `json:"value"`
			ExpiresAt time.Time `json:"expires_at"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return fmt.Errorf("decode token response: %w", err)
		}
		if payload.Value == "" {
			return fmt.Errorf("token endpoint returned empty value")
		}
		tok = Token{Value: payload.Value, ExpiresAt: payload.ExpiresAt}
		return nil
	})
	if err != nil {
		return Token{}, errorsx.Wrap(err, errorsx.ReasonTokenAcquire)
	}
	if tok.Expired(time.Now()) {
		return Token{}, errorsx.Wrap(fmt.Errorf("token expired at %s", tok.ExpiresAt), errorsx.ReasonTokenExpired)
	}
	return tok, nil
}
