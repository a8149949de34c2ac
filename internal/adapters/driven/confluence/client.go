package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

const (
	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// MaxRetries is the maximum number of retries for transient errors.
	MaxRetries = 3

	// RetryDelay is the initial delay between retries.
	RetryDelay = time.Second

	// ProactiveRate throttles requests below the Cloud API ceiling.
	ProactiveRate = 5.0

	// PageLimit is the page size for content listings.
	PageLimit = 50
)

// Config holds the connection settings for one Confluence site.
type Config struct {
	// BaseURL is the site root, e.g. https://example.atlassian.net/wiki.
	BaseURL string

	// Email is the account email for basic auth.
	Email string

	// APIToken is the Atlassian API token paired with Email.
	APIToken string

	// Team labels every document fetched from this site.
	Team string
}

// client is a thin Confluence REST client with throttling and retries.
type client struct {
	baseURL string
	email   string
	token   string
	http    *http.Client
	bucket  *rate.Limiter
}

func newClient(cfg Config) *client {
	return &client{
		baseURL: cfg.BaseURL,
		email:   cfg.Email,
		token:   cfg.APIToken,
		http:    &http.Client{Timeout: DefaultTimeout},
		bucket:  rate.NewLimiter(rate.Limit(ProactiveRate), 1),
	}
}

// contentPage is one page of a content search response.
type contentPage struct {
	Results []contentResult `json:"results"`
	Start   int             `json:"start"`
	Limit   int             `json:"limit"`
	Size    int             `json:"size"`
}

type contentResult struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
	Version struct {
		When time.Time `json:"when"`
	} `json:"version"`
	Metadata struct {
		Labels struct {
			Results []struct {
				Name string `json:"name"`
			} `json:"results"`
		} `json:"labels"`
	} `json:"metadata"`
	Links struct {
		WebUI string `json:"webui"`
	} `json:"_links"`
}

// search runs a CQL content search and returns one result page.
func (c *client) search(ctx context.Context, cql string, start, limit int, expand string) (*contentPage, error) {
	q := url.Values{}
	q.Set("cql", cql)
	q.Set("start", strconv.Itoa(start))
	q.Set("limit", strconv.Itoa(limit))
	if expand != "" {
		q.Set("expand", expand)
	}

	var page contentPage
	if err := c.getJSON(ctx, "/rest/api/content/search?"+q.Encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// currentUser checks credentials with the cheapest authenticated call.
func (c *client) currentUser(ctx context.Context) error {
	var out struct {
		AccountID string `json:"accountId"`
	}
	return c.getJSON(ctx, "/rest/api/user/current", &out)
}

// getJSON performs a GET with auth, throttling and retry on 429/5xx.
func (c *client) getJSON(ctx context.Context, path string, out any) error {
	var lastErr error
	delay := RetryDelay

	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		if err := c.bucket.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.SetBasicAuth(c.email, c.token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			err = json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return nil

		case resp.StatusCode == http.StatusTooManyRequests:
			if after := resp.Header.Get("Retry-After"); after != "" {
				if seconds, perr := strconv.Atoi(after); perr == nil {
					delay = time.Duration(seconds) * time.Second
				}
			}
			drain(resp)
			lastErr = fmt.Errorf("%w: rate limited", domain.ErrSourceUnavailable)

		case resp.StatusCode >= 500:
			drain(resp)
			lastErr = fmt.Errorf("%w: server error %d", domain.ErrSourceUnavailable, resp.StatusCode)

		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			drain(resp)
			return fmt.Errorf("%w: authentication failed (%d)", domain.ErrSourceUnavailable, resp.StatusCode)

		default:
			drain(resp)
			return fmt.Errorf("%w: unexpected status %d for %s", domain.ErrSourceUnavailable, resp.StatusCode, path)
		}
	}

	return lastErr
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
