package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the default GitHub API base URL
	DefaultBaseURL = "https://api.github.com"

	// DefaultTimeout is the default HTTP timeout
	DefaultTimeout = 30 * time.Second
)

// ClientOption configures a Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL for the GitHub API (e.g. GitHub Enterprise)
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets a custom HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client. Its transport is used underneath
// the token authentication.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// Client is a GitHub API client exposing the git data operations gitsup
// needs: branch heads, trees, commits and references.
//
// Example:
//
//	client := github.NewClient(token,
//	    github.WithBaseURL("https://github.example.com/api/v3"),
//	    github.WithTimeout(10*time.Second),
//	)
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration

	mu           sync.Mutex
	githubClient *github.Client // Lazy-loaded go-github client
}

// NewClient creates a new GitHub API client with the given token
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.httpClient.Timeout = c.timeout

	return c
}

// GitHubClient returns the underlying go-github client (lazy-loaded).
// It is safe for concurrent use.
func (c *Client) GitHubClient() (*github.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.githubClient != nil {
		return c.githubClient, nil
	}

	httpClient := c.httpClient
	if c.token != "" {
		// oauth2 wraps the transport of the client stored in the context
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.httpClient)
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token})
		httpClient = oauth2.NewClient(ctx, ts)
		httpClient.Timeout = c.timeout
	}
	gh := github.NewClient(httpClient)

	if c.baseURL != DefaultBaseURL && c.baseURL != "" {
		baseURL := c.baseURL
		// go-github requires a trailing slash
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		parsedURL, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API base URL %q: %w", c.baseURL, err)
		}
		gh.BaseURL = parsedURL
	}

	c.githubClient = gh
	return gh, nil
}
