// Package courtlistener talks to the CourtListener REST API v4 and
// materializes opinions as raw case files the ingest pipeline consumes.
package courtlistener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"caselaw-rag/internal/infra/httpclient"
)

const (
	// DefaultBaseURL is the public CourtListener API root.
	DefaultBaseURL = "https://www.courtlistener.com/api/rest/v4"

	userAgent = "caselaw-rag/1.0"

	// The public API throttles aggressively; stay near 3 requests/second.
	requestsPerSecond = 3
)

// Opinion is the subset of the opinions endpoint we request.
type Opinion struct {
	ID                int64  `json:"id"`
	Cluster           string `json:"cluster"`
	Type              string `json:"type"`
	HTMLWithCitations string `json:"html_with_citations"`
	PlainText         string `json:"plain_text"`
}

// Cluster carries case-level metadata for an opinion.
type Cluster struct {
	CaseName      string `json:"case_name"`
	CaseNameShort string `json:"case_name_short"`
	Docket        string `json:"docket"`
	DateFiled     string `json:"date_filed"`
	Citations     []struct {
		Cite string `json:"cite"`
	} `json:"citations"`
}

// Docket resolves the court an opinion belongs to.
type Docket struct {
	CourtID string `json:"court_id"`
}

// Client is a rate-limited CourtListener API client.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  httpclient.NewPooledClient(30 * time.Second),
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:  logger,
	}
}

// OpinionsByCourt fetches one page of opinions filed in the given court.
func (c *Client) OpinionsByCourt(ctx context.Context, court string, pageSize int) ([]Opinion, error) {
	params := url.Values{}
	params.Set("cluster__docket__court", court)
	params.Set("fields", "id,cluster,type,html_with_citations,plain_text")
	params.Set("page_size", strconv.Itoa(pageSize))

	var page struct {
		Results []Opinion `json:"results"`
	}
	endpoint := fmt.Sprintf("%s/opinions/?%s", c.baseURL, params.Encode())
	if err := c.getJSON(ctx, endpoint, &page); err != nil {
		return nil, fmt.Errorf("failed to fetch opinions for court %s: %w", court, err)
	}
	return page.Results, nil
}

// ClusterDetails resolves a cluster URL returned by the opinions endpoint.
func (c *Client) ClusterDetails(ctx context.Context, clusterURL string) (*Cluster, error) {
	var cluster Cluster
	if err := c.getJSON(ctx, clusterURL, &cluster); err != nil {
		return nil, fmt.Errorf("failed to fetch cluster: %w", err)
	}
	return &cluster, nil
}

// DocketDetails resolves a docket URL returned by the clusters endpoint.
func (c *Client) DocketDetails(ctx context.Context, docketURL string) (*Docket, error) {
	var docket Docket
	if err := c.getJSON(ctx, docketURL, &docket); err != nil {
		return nil, fmt.Errorf("failed to fetch docket: %w", err)
	}
	return &docket, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call courtlistener: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("courtlistener_bad_status",
			slog.Int("status", resp.StatusCode),
			slog.String("endpoint", endpoint),
		)
		return fmt.Errorf("courtlistener returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
