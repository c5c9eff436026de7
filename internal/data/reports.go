package data

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultReportsURL is the public IESO reports site.
const DefaultReportsURL = "http://reports.ieso.ca"

// ReportClient downloads the yearly HOEP/predispatch report from the IESO public site.
type ReportClient struct {
	BaseURL string
	Client  *http.Client
	Cache   *ReportCache // optional
	Log     zerolog.Logger
}

// NewReportClient creates a client. If baseURL is empty, DefaultReportsURL is used.
func NewReportClient(baseURL string, log zerolog.Logger) *ReportClient {
	if baseURL == "" {
		baseURL = DefaultReportsURL
	}
	return &ReportClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
		Cache: NewReportCache(8, time.Hour),
		Log:   log.With().Str("component", "data.reports").Logger(),
	}
}

// FetchError represents a non-200 answer from the reports site.
type FetchError struct {
	StatusCode int
	URL        string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// ReportFileName is the file name IESO publishes for a year.
func ReportFileName(year int) string {
	return fmt.Sprintf("PUB_PriceHOEPPredispOR_%d.csv", year)
}

// ReportURL builds the download URL for a year.
func (c *ReportClient) ReportURL(year int) string {
	return c.BaseURL + "/public/PriceHOEPPredispOR/" + ReportFileName(year)
}

// FetchYear returns the raw CSV bytes for a year, serving repeats from the cache.
func (c *ReportClient) FetchYear(ctx context.Context, year int) ([]byte, error) {
	if year < 2002 {
		return nil, fmt.Errorf("year %d predates the HOEP market", year)
	}
	u := c.ReportURL(year)
	if body, ok := c.Cache.Get(u); ok {
		c.Log.Debug().Int("year", year).Int("bytes", len(body)).Msg("report cache hit")
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	start := time.Now()
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	c.Log.Info().
		Str("url", u).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("report response")

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{StatusCode: resp.StatusCode, URL: u}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u, err)
	}
	c.Cache.Set(u, body)
	return body, nil
}

// Download writes the report for year into dir and returns the file path.
func (c *ReportClient) Download(ctx context.Context, year int, dir string) (string, error) {
	body, err := c.FetchYear(ctx, year)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	path := filepath.Join(dir, ReportFileName(year))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
