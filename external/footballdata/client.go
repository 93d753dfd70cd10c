// Package footballdata wraps the football-data.org v4 REST API behind
// the feed provider contract. The token travels in the X-Auth-Token
// header and must never appear in logs or error text.
package footballdata

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/Diego23-co/GoPredict/internal/platform/logging"
	"github.com/Diego23-co/GoPredict/internal/platform/resilience"
	"github.com/Diego23-co/GoPredict/internal/usecase"
)

const (
	defaultBaseURL = "https://api.football-data.org/v4"

	statusScheduled = "SCHEDULED"
	statusFinished  = "FINISHED"
	statusLive      = "LIVE"

	maxResponseBytes = 6 << 20
)

var errFeedTransient = crerr.New("football data transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenProbes),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) FetchScheduledMatches(ctx context.Context, competitionID int64) ([]usecase.ExternalMatch, error) {
	return c.fetchCompetitionMatches(ctx, competitionID, statusScheduled)
}

func (c *Client) FetchFinishedMatches(ctx context.Context, competitionID int64) ([]usecase.ExternalMatch, error) {
	return c.fetchCompetitionMatches(ctx, competitionID, statusFinished)
}

func (c *Client) FetchLiveMatches(ctx context.Context, competitionID int64) ([]usecase.ExternalMatch, error) {
	return c.fetchCompetitionMatches(ctx, competitionID, statusLive)
}

// FetchCurrentMatches pulls the provider's cross-competition list of
// matches for the current day.
func (c *Client) FetchCurrentMatches(ctx context.Context) ([]usecase.ExternalMatch, error) {
	var envelope matchesEnvelope
	if err := c.doJSON(ctx, "/matches", nil, &envelope); err != nil {
		return nil, fmt.Errorf("fetch current matches: %w", err)
	}
	return c.mapMatches(ctx, envelope.Matches), nil
}

func (c *Client) fetchCompetitionMatches(ctx context.Context, competitionID int64, status string) ([]usecase.ExternalMatch, error) {
	if competitionID <= 0 {
		return nil, fmt.Errorf("competition id must be greater than zero")
	}

	path := fmt.Sprintf("/competitions/%d/matches", competitionID)
	query := map[string]string{"status": status}

	var envelope matchesEnvelope
	if err := c.doJSON(ctx, path, query, &envelope); err != nil {
		return nil, fmt.Errorf("fetch %s matches competition_id=%d: %w", strings.ToLower(status), competitionID, err)
	}
	return c.mapMatches(ctx, envelope.Matches), nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "football data circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: fixture feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	// Concurrent pulls for the same path and query collapse into one
	// provider request; the daily free-tier quota is tight.
	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && stderrors.Is(reqErr, errFeedTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		if c.token != "" {
			req.Header.Set("X-Auth-Token", c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errFeedTransient, c.redactToken(err.Error()))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errFeedTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errFeedTransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "football data request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) mapMatches(ctx context.Context, records []matchRecord) []usecase.ExternalMatch {
	out := make([]usecase.ExternalMatch, 0, len(records))
	for _, record := range records {
		kickoff, err := time.Parse(time.RFC3339, record.UTCDate)
		if err != nil {
			c.logger.WarnContext(ctx, "skip provider record with unparseable kickoff",
				"utc_date", record.UTCDate,
				"home", record.HomeTeam.Name,
				"away", record.AwayTeam.Name,
			)
			continue
		}
		if record.HomeTeam.Name == "" || record.AwayTeam.Name == "" {
			continue
		}

		out = append(out, usecase.ExternalMatch{
			Competition:  record.Competition.Name,
			HomeTeam:     record.HomeTeam.Name,
			AwayTeam:     record.AwayTeam.Name,
			HomeCrest:    record.HomeTeam.Crest,
			AwayCrest:    record.AwayTeam.Crest,
			KickoffUTC:   kickoff.UTC(),
			Status:       record.Status,
			FullTimeHome: record.Score.FullTime.Home,
			FullTimeAway: record.Score.FullTime.Away,
			RegularHome:  record.Score.RegularTime.Home,
			RegularAway:  record.Score.RegularTime.Away,
			LiveHome:     record.Score.Live.Home,
			LiveAway:     record.Score.Live.Away,
		})
	}
	return out
}

func (c *Client) redactToken(text string) string {
	if c.token == "" {
		return text
	}
	return strings.ReplaceAll(text, c.token, "REDACTED")
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}

type matchesEnvelope struct {
	Matches []matchRecord `json:"matches"`
}

type matchRecord struct {
	UTCDate     string            `json:"utcDate"`
	Status      string            `json:"status"`
	HomeTeam    teamRecord        `json:"homeTeam"`
	AwayTeam    teamRecord        `json:"awayTeam"`
	Competition competitionRecord `json:"competition"`
	Score       scoreRecord       `json:"score"`
}

type teamRecord struct {
	Name  string `json:"name"`
	Crest string `json:"crest"`
}

type competitionRecord struct {
	Name string `json:"name"`
}

type scoreRecord struct {
	FullTime    scorePair `json:"fullTime"`
	RegularTime scorePair `json:"regularTime"`
	Live        scorePair `json:"live"`
}

type scorePair struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}
