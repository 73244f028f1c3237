// Package edgar fetches company facts and filing submissions from the SEC
// EDGAR JSON APIs and extracts per-statement XBRL figures keyed by the same
// canonical vocabulary the PDF path produces, so the two sources reconcile
// cell for cell.
package edgar

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	companyFactsURL = "https://data.sec.gov/api/xbrl/companyfacts/CIK%s.json"
	submissionsURL  = "https://data.sec.gov/submissions/CIK%s.json"

	// SEC fair-access policy: identify yourself and stay under 10 req/s.
	requestInterval = 100 * time.Millisecond
	requestTimeout  = 30 * time.Second
)

// FetchError marks EDGAR retrieval failures so callers can degrade to the
// PDF-only path instead of aborting.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("EDGAR fetch failed for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client talks to the EDGAR JSON APIs. Responses are cached per client, so
// one client per pipeline run keeps repeated statement lookups to a single
// fetch per CIK.
type Client struct {
	http      *http.Client
	userAgent string

	mu       sync.Mutex
	lastReq  time.Time
	cache    map[string][]byte
}

// NewClient builds a client identified by the SEC_EDGAR_EMAIL environment
// variable. The SEC rejects anonymous user agents, so an empty email is an
// error rather than a degraded mode.
func NewClient() (*Client, error) {
	email := strings.TrimSpace(os.Getenv("SEC_EDGAR_EMAIL"))
	if email == "" {
		return nil, fmt.Errorf("SEC_EDGAR_EMAIL is not set; EDGAR requires an identifying user agent")
	}
	return NewClientWithEmail(email), nil
}

// NewClientWithEmail builds a client with an explicit contact email.
func NewClientWithEmail(email string) *Client {
	return &Client{
		http:      &http.Client{Timeout: requestTimeout},
		userAgent: fmt.Sprintf("secparse/1.0 (%s)", email),
		cache:     map[string][]byte{},
	}
}

// PadCIK normalizes a CIK to the 10-digit zero-padded form the APIs expect.
func PadCIK(cik string) string {
	cik = strings.TrimLeft(strings.TrimSpace(cik), "0")
	return fmt.Sprintf("%010s", cik)
}

// fetch performs a rate-limited GET, serving repeats from the run cache.
func (c *Client) fetch(url string) ([]byte, error) {
	c.mu.Lock()
	if body, ok := c.cache[url]; ok {
		c.mu.Unlock()
		return body, nil
	}
	if wait := requestInterval - time.Since(c.lastReq); wait > 0 {
		time.Sleep(wait)
	}
	c.lastReq = time.Now()
	c.mu.Unlock()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{url, err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{url, err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{url, fmt.Errorf("HTTP %d", resp.StatusCode)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{url, err}
	}

	c.mu.Lock()
	c.cache[url] = body
	c.mu.Unlock()
	return body, nil
}

// ClearCache drops all cached responses.
func (c *Client) ClearCache() {
	c.mu.Lock()
	c.cache = map[string][]byte{}
	c.mu.Unlock()
}

// CompanyFacts is the companyfacts API response, trimmed to the us-gaap
// facts this pipeline reads.
type CompanyFacts struct {
	CIK        json.Number                `json:"cik"`
	EntityName string                     `json:"entityName"`
	Facts      map[string]map[string]Fact `json:"facts"` // taxonomy -> concept -> fact
}

// Fact holds one concept's values across units and periods.
type Fact struct {
	Label string                `json:"label"`
	Units map[string][]FactItem `json:"units"` // "USD", "shares", "pure", ...
}

// FactItem is a single reported value.
type FactItem struct {
	Start    string  `json:"start,omitempty"`
	End      string  `json:"end"`
	Value    float64 `json:"val"`
	Accn     string  `json:"accn"`
	FY       int     `json:"fy"`
	FP       string  `json:"fp"`
	Form     string  `json:"form"`
	Frame    string  `json:"frame,omitempty"`
	Segments any     `json:"segments,omitempty"`
}

// GetCompanyFacts fetches and decodes the full facts document for a CIK.
func (c *Client) GetCompanyFacts(cik string) (*CompanyFacts, error) {
	url := fmt.Sprintf(companyFactsURL, PadCIK(cik))
	body, err := c.fetch(url)
	if err != nil {
		return nil, err
	}
	var facts CompanyFacts
	if err := json.Unmarshal(body, &facts); err != nil {
		return nil, &FetchError{url, fmt.Errorf("decode: %w", err)}
	}
	return &facts, nil
}

// Submissions is the submissions API response, trimmed to the recent
// filings table.
type Submissions struct {
	CIK     json.Number `json:"cik"`
	Name    string      `json:"name"`
	Tickers []string    `json:"tickers"`
	Filings struct {
		Recent RecentFilings `json:"recent"`
	} `json:"filings"`
}

// RecentFilings holds the parallel filing arrays EDGAR returns.
type RecentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	Form            []string `json:"form"`
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"`
	PrimaryDocument []string `json:"primaryDocument"`
}

// GetSubmissions fetches the filings index for a CIK.
func (c *Client) GetSubmissions(cik string) (*Submissions, error) {
	url := fmt.Sprintf(submissionsURL, PadCIK(cik))
	body, err := c.fetch(url)
	if err != nil {
		return nil, err
	}
	var subs Submissions
	if err := json.Unmarshal(body, &subs); err != nil {
		return nil, &FetchError{url, fmt.Errorf("decode: %w", err)}
	}
	return &subs, nil
}

// FindFilingAccession locates the accession number of the filing whose form
// matches (amendments tolerated: "10-K/A" matches "10-K") and whose report
// date equals the period end (YYYY-MM-DD).
func FindFilingAccession(subs *Submissions, form, periodEnd string) (string, bool) {
	recent := subs.Filings.Recent
	for i, f := range recent.Form {
		base := strings.TrimSuffix(f, "/A")
		if !strings.EqualFold(base, form) {
			continue
		}
		if i < len(recent.ReportDate) && recent.ReportDate[i] == periodEnd {
			return recent.AccessionNumber[i], true
		}
	}
	return "", false
}
