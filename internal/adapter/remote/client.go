package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Default resource paths on the remote backend.
const (
	DefaultBanksPath    = "/api/contas"
	DefaultEntitiesPath = "/api/empresas"
)

var (
	// ErrResponseTooLarge is returned when a response body exceeds the limit.
	ErrResponseTooLarge = errors.New("remote response too large")
	// ErrBadPagination is returned when the first page reports an unusable page count.
	ErrBadPagination = errors.New("remote pagination out of range")
)

// Limits applied to what the remote backend sends.
const (
	DefaultMaxPages     = 1000
	DefaultMaxBodyBytes = 4 << 20
)

// Client reads paginated listings from the remote REST backend.
type Client struct {
	baseURL      string
	token        string
	pageSize     int
	workers      int
	maxPages     int
	maxBodyBytes int64
	banksPath    string
	entitiesPath string
	httpClient   *http.Client
}

// Config for Client.
type Config struct {
	BaseURL      string
	Token        string
	PageSize     int
	Workers      int
	MaxPages     int
	MaxBodyBytes int64
	Timeout      time.Duration
	BanksPath    string
	EntitiesPath string
}

// New creates a Client.
func New(cfg Config) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.BanksPath == "" {
		cfg.BanksPath = DefaultBanksPath
	}
	if cfg.EntitiesPath == "" {
		cfg.EntitiesPath = DefaultEntitiesPath
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		token:        cfg.Token,
		pageSize:     cfg.PageSize,
		workers:      cfg.Workers,
		maxPages:     cfg.MaxPages,
		maxBodyBytes: cfg.MaxBodyBytes,
		banksPath:    cfg.BanksPath,
		entitiesPath: cfg.EntitiesPath,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// fetchPage reads one page of path.
func (c *Client) fetchPage(ctx context.Context, path string, number int) (*page, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(number))
	params.Set("size", strconv.Itoa(c.pageSize))

	var result page
	if err := c.get(ctx, path+"?"+params.Encode(), &result); err != nil {
		return nil, fmt.Errorf("fetch %s page %d: %w", path, number, err)
	}
	return &result, nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.doRequest(req, result)
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) doRequest(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if int64(len(bodyBytes)) > c.maxBodyBytes {
		return fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, c.maxBodyBytes)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(bodyBytes, &apiErr) == nil {
			if apiErr.Message != "" {
				return fmt.Errorf("server error (%d): %s", resp.StatusCode, apiErr.Message)
			}
			if apiErr.Error != "" {
				return fmt.Errorf("server error (%d): %s", resp.StatusCode, apiErr.Error)
			}
		}
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, string(bodyBytes))
	}

	if result != nil {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
