// Package providers implements remote catalog providers for the resolver.
//
// [JamendoProvider] queries the Jamendo v3 API with a client id and returns full-length MP3 streams.
// [SpotifyProvider] searches the Spotify Web API with client-credentials tokens and returns preview clips.
// Both throttle outgoing requests with a [rate.Limiter] that waits on the request context.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/spotifycc/internal/resolver"
	"github.com/desertthunder/spotifycc/internal/shared"
)

// Options tunes a provider's HTTP behaviour. Zero values select the defaults.
type Options struct {
	BaseURL    string
	TokenURL   string
	Timeout    time.Duration
	RateLimit  float64
	HTTPClient *http.Client
}

func (o Options) client() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func (o Options) limiter() *rate.Limiter {
	if o.RateLimit <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(o.RateLimit), 1)
}

// New builds the provider selected by cfg.Provider.Kind.
//
// It returns a nil provider for kind "none" and when credentials are missing; the resolver then
// serves every request from the local catalog.
func New(cfg *shared.Config, logger *log.Logger) (resolver.Provider, error) {
	opts := Options{
		BaseURL:   cfg.Provider.BaseURL,
		Timeout:   cfg.Provider.Timeout(),
		RateLimit: cfg.Provider.RateLimit,
	}

	switch cfg.Provider.Kind {
	case "none":
		return nil, nil
	case "jamendo":
		p, err := NewJamendoProvider(cfg.Credentials.Jamendo.ClientID, opts)
		if err != nil {
			logger.Warn("jamendo disabled, serving local tracks only", "error", err)
			return nil, nil
		}
		return p, nil
	case "spotify":
		p, err := NewSpotifyProvider(cfg.Credentials.Spotify.ClientID, cfg.Credentials.Spotify.ClientSecret, opts)
		if err != nil {
			logger.Warn("spotify disabled, serving local tracks only", "error", err)
			return nil, nil
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider kind %q", shared.ErrInvalidConfig, cfg.Provider.Kind)
	}
}

// getJSON waits for the limiter, performs a GET and decodes a 2xx JSON body into result.
func getJSON(ctx context.Context, client *http.Client, limiter *rate.Limiter, name, endpoint string, result any) error {
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s request failed: %w", shared.ErrAPIRequest, name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s status %d", shared.ErrAPIRequest, name, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", name, err)
	}
	return nil
}
