// Package hh wraps the HeadHunter vacancy search API.
//
// The client never propagates transport failures: network errors, timeouts,
// non-2xx statuses and malformed bodies all degrade to an empty result with
// a log line, so a broken API round never aborts a scheduler pass.
package hh

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/BarIlya77/job-search-bot-v2/internal/model"
)

const (
	defaultBaseURL     = "https://api.hh.ru"
	userAgent          = "JobSearchBot/1.0"
	requestTimeout     = 30 * time.Second
	backgroundPageSize = 10
	defaultArea        = "1" // Москва
)

// Client fetches vacancies from the HH API.
type Client struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// NewClient constructs a Client with a shared HTTP client. An empty baseURL
// selects the production API.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: requestTimeout},
		log:     logger.With("component", "hh"),
	}
}

// searchResponse mirrors the top-level HH JSON response.
type searchResponse struct {
	Items []vacancyItem `json:"items"`
	Found int           `json:"found"`
	Pages int           `json:"pages"`
}

// vacancyItem mirrors a single HH vacancy listing.
type vacancyItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Employer struct {
		Name string `json:"name"`
	} `json:"employer"`
	Salary *struct {
		From     *int   `json:"from"`
		To       *int   `json:"to"`
		Currency string `json:"currency"`
	} `json:"salary"`
	Area struct {
		Name string `json:"name"`
	} `json:"area"`
	Experience struct {
		Name string `json:"name"`
	} `json:"experience"`
	Schedule struct {
		Name string `json:"name"`
	} `json:"schedule"`
	Employment struct {
		Name string `json:"name"`
	} `json:"employment"`
	Snippet struct {
		Requirement string `json:"requirement"`
	} `json:"snippet"`
	AlternateURL string `json:"alternate_url"`
	PublishedAt  string `json:"published_at"`
}

func (v vacancyItem) toModel() model.Vacancy {
	out := model.Vacancy{
		ID:          v.ID,
		Name:        v.Name,
		Employer:    v.Employer.Name,
		Area:        v.Area.Name,
		Experience:  v.Experience.Name,
		Schedule:    v.Schedule.Name,
		Employment:  v.Employment.Name,
		Requirement: v.Snippet.Requirement,
		PublishedAt: v.PublishedAt,
		URL:         v.AlternateURL,
	}
	if v.Salary != nil {
		out.Salary = &model.Salary{
			From:     v.Salary.From,
			To:       v.Salary.To,
			Currency: v.Salary.Currency,
		}
	}
	return out
}

// Search runs a vacancy search. It never returns an error: any failure is
// logged and yields an empty slice.
func (c *Client) Search(ctx context.Context, q Query) []model.Vacancy {
	reqURL := c.baseURL + "/vacancies?" + q.values().Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		c.log.Error("build search request", "err", err)
		return nil
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error("vacancy search request failed", "err", err)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Error("read search response", "err", err)
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Error("vacancy search returned non-OK status",
			"status", resp.StatusCode, "body", truncate(string(body), 200))
		return nil
	}

	var apiResp searchResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		c.log.Error("decode search response", "err", err)
		return nil
	}

	vacancies := make([]model.Vacancy, 0, len(apiResp.Items))
	for _, item := range apiResp.Items {
		vacancies = append(vacancies, item.toModel())
	}

	c.log.Info("vacancy search complete", "found", apiResp.Found, "returned", len(vacancies))
	return vacancies
}

// Vacancy fetches the details of a single vacancy by id.
// Returns (nil, nil) when the vacancy does not exist.
func (c *Client) Vacancy(ctx context.Context, id string) (*model.Vacancy, error) {
	reqURL := fmt.Sprintf("%s/vacancies/%s", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.log.Warn("vacancy not found", "id", id)
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vacancy %s: status %d", id, resp.StatusCode)
	}

	var item vacancyItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("decode vacancy %s: %w", id, err)
	}

	v := item.toModel()
	return &v, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
