// Package yahoo implements a scraper for Yahoo Finance intraday bar data.
// It uses the v8 chart API with cookie + crumb authentication, matching the
// approach used by the yfinance Python library.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mertkaradayi/tickerd/internal/scraper"
)

const (
	defaultChartEndpoint = "https://query2.finance.yahoo.com/v8/finance/chart"
	defaultCookieURL     = "https://fc.yahoo.com"
	defaultCrumbURL      = "https://query1.finance.yahoo.com/v1/test/getcrumb"
	defaultInterval      = "5m"
	defaultLookback      = "2d"
	userAgent            = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// Scraper fetches recent intraday bars from Yahoo Finance, including
// pre-market and after-hours trading.
type Scraper struct {
	client        *http.Client
	chartEndpoint string
	cookieURL     string
	crumbURL      string
	interval      string
	lookback      string

	mu    sync.Mutex
	crumb string
}

// New creates a Scraper with the given options applied.
func New(opts ...Option) *Scraper {
	jar, _ := cookiejar.New(nil)
	s := &Scraper{
		client:        &http.Client{Jar: jar},
		chartEndpoint: defaultChartEndpoint,
		cookieURL:     defaultCookieURL,
		crumbURL:      defaultCrumbURL,
		interval:      defaultInterval,
		lookback:      defaultLookback,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithClient sets the HTTP client. The client should have a cookie jar.
func WithClient(c *http.Client) Option {
	return func(s *Scraper) { s.client = c }
}

// WithChartEndpoint overrides the default chart API endpoint.
func WithChartEndpoint(ep string) Option {
	return func(s *Scraper) { s.chartEndpoint = ep }
}

// WithCookieURL overrides the URL used to obtain the session cookie.
func WithCookieURL(u string) Option {
	return func(s *Scraper) { s.cookieURL = u }
}

// WithCrumbURL overrides the URL used to obtain the crumb token.
func WithCrumbURL(u string) Option {
	return func(s *Scraper) { s.crumbURL = u }
}

// WithInterval sets the bar interval (e.g. "1m", "5m").
func WithInterval(interval string) Option {
	return func(s *Scraper) { s.interval = interval }
}

// WithLookback sets the chart range (e.g. "1d", "2d", "5d").
func WithLookback(lookback string) Option {
	return func(s *Scraper) { s.lookback = lookback }
}

// Source returns the scraper identifier.
func (s *Scraper) Source() string { return "yahoo" }

// chartResponse represents the Yahoo Finance v8 chart API response.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []any `json:"open"`
					High   []any `json:"high"`
					Low    []any `json:"low"`
					Close  []any `json:"close"`
					Volume []any `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Scrape fetches the recent intraday bars for the given symbol. Bars with
// any missing field (Yahoo uses null for data points it has not settled)
// are dropped.
func (s *Scraper) Scrape(ctx context.Context, symbol string) ([]scraper.Bar, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol cannot be empty")
	}

	if err := s.ensureCrumb(ctx); err != nil {
		return nil, fmt.Errorf("yahoo auth: %w", err)
	}

	bars, err := s.fetchChart(ctx, symbol)
	if err != nil {
		return nil, err
	}

	slog.Info("retrieved yahoo data", "symbol", symbol,
		"interval", s.interval, "range", s.lookback, "bars", len(bars))
	return bars, nil
}

// ensureCrumb fetches a session cookie and crumb token if not already cached.
func (s *Scraper) ensureCrumb(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.crumb != "" {
		return nil
	}

	// Step 1: GET fc.yahoo.com to obtain a session cookie.
	cookieReq, err := http.NewRequestWithContext(ctx, "GET", s.cookieURL, nil)
	if err != nil {
		return fmt.Errorf("build cookie request: %w", err)
	}
	cookieReq.Header.Set("User-Agent", userAgent)

	cookieRes, err := s.client.Do(cookieReq)
	if err != nil {
		return fmt.Errorf("fetch cookie: %w", err)
	}
	_ = cookieRes.Body.Close()

	// Step 2: GET crumb endpoint (cookie is sent automatically via jar).
	crumbReq, err := http.NewRequestWithContext(ctx, "GET", s.crumbURL, nil)
	if err != nil {
		return fmt.Errorf("build crumb request: %w", err)
	}
	crumbReq.Header.Set("User-Agent", userAgent)

	crumbRes, err := s.client.Do(crumbReq)
	if err != nil {
		return fmt.Errorf("fetch crumb: %w", err)
	}
	defer func() { _ = crumbRes.Body.Close() }()

	if crumbRes.StatusCode != http.StatusOK {
		return fmt.Errorf("crumb endpoint returned HTTP %d", crumbRes.StatusCode)
	}

	body, err := io.ReadAll(crumbRes.Body)
	if err != nil {
		return fmt.Errorf("read crumb: %w", err)
	}

	crumb := strings.TrimSpace(string(body))
	if crumb == "" {
		return fmt.Errorf("empty crumb received")
	}

	s.crumb = crumb
	slog.Info("yahoo: obtained crumb", "crumb_len", len(crumb))
	return nil
}

// fetchChart fetches and parses a single chart request.
func (s *Scraper) fetchChart(ctx context.Context, symbol string) ([]scraper.Bar, error) {
	s.mu.Lock()
	crumb := s.crumb
	s.mu.Unlock()

	params := url.Values{}
	params.Set("interval", s.interval)
	params.Set("range", s.lookback)
	params.Set("includePrePost", "true")
	params.Set("crumb", crumb)
	reqURL := fmt.Sprintf("%s/%s?%s", s.chartEndpoint, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		// Invalidate crumb on auth errors so the next Scrape retries auth.
		if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
			s.mu.Lock()
			s.crumb = ""
			s.mu.Unlock()
		}
		return nil, fmt.Errorf("yahoo returned HTTP %d for %s", res.StatusCode, symbol)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse yahoo response: %w", err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error: %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}

	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}

	q := result.Indicators.Quote[0]
	bars := make([]scraper.Bar, 0, len(result.Timestamp))
	for i := range result.Timestamp {
		open, ok1 := at(q.Open, i)
		high, ok2 := at(q.High, i)
		low, ok3 := at(q.Low, i)
		closeVal, ok4 := at(q.Close, i)
		volume, ok5 := at(q.Volume, i)
		if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
			continue
		}
		bars = append(bars, scraper.Bar{
			Timestamp: time.Unix(result.Timestamp[i], 0).UTC(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closeVal,
			Volume:    int64(volume),
		})
	}

	return bars, nil
}

// at reads index i of a JSON number array, tolerating short arrays and the
// nulls Yahoo uses for missing data points.
func at(vals []any, i int) (float64, bool) {
	if i >= len(vals) {
		return 0, false
	}
	v, ok := vals[i].(float64)
	if !ok {
		return 0, false
	}
	return v, true
}
