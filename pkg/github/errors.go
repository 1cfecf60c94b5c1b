package github

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v68/github"
)

// ErrRefMoved is returned by UpdateRef when the branch no longer points at
// the commit the update was computed from.
var ErrRefMoved = errors.New("branch reference moved since it was read")

// APIError represents a GitHub API error response
type APIError struct {
	StatusCode int
	Message    string
	Errors     []APIErrorDetail `json:"errors,omitempty"`
	// Rate limit information when rate limited
	RateLimit *RateLimitInfo

	err error
}

// APIErrorDetail represents individual error details from GitHub
type APIErrorDetail struct {
	Resource string `json:"resource"`
	Field    string `json:"field"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// RateLimitInfo contains rate limit information from response headers
type RateLimitInfo struct {
	Limit     int
	Remaining int
	Reset     int64 // Unix timestamp
}

// Error returns the error message
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("GitHub API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("GitHub API error (status %d)", e.StatusCode)
}

// Unwrap returns the underlying go-github error, if any
func (e *APIError) Unwrap() error {
	return e.err
}

// IsRateLimitError returns true if the error is a rate limit error
func IsRateLimitError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			return true
		}
		if apiErr.StatusCode == http.StatusForbidden && apiErr.RateLimit != nil {
			return true
		}
	}
	return false
}

// IsNotFoundError returns true if the error is a not found error
func IsNotFoundError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsAuthenticationError returns true if the error is an authentication error
func IsAuthenticationError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		// Exclude rate limit errors (they're not auth errors)
		if IsRateLimitError(err) {
			return false
		}
		return apiErr.StatusCode == http.StatusUnauthorized ||
			apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// convertError turns go-github error types into *APIError. Other errors
// (transport failures, context cancellation) are returned unchanged.
func convertError(err error) error {
	if err == nil {
		return nil
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		apiErr := &APIError{
			StatusCode: statusCode(rateErr.Response),
			Message:    rateErr.Message,
			RateLimit: &RateLimitInfo{
				Limit:     rateErr.Rate.Limit,
				Remaining: rateErr.Rate.Remaining,
				Reset:     rateErr.Rate.Reset.Unix(),
			},
			err: err,
		}
		return apiErr
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &APIError{
			StatusCode: statusCode(abuseErr.Response),
			Message:    abuseErr.Message,
			RateLimit:  &RateLimitInfo{},
			err:        err,
		}
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) {
		apiErr := &APIError{
			StatusCode: statusCode(respErr.Response),
			Message:    respErr.Message,
			err:        err,
		}
		for _, e := range respErr.Errors {
			apiErr.Errors = append(apiErr.Errors, APIErrorDetail{
				Resource: e.Resource,
				Field:    e.Field,
				Code:     e.Code,
				Message:  e.Message,
			})
		}
		return apiErr
	}

	return err
}

// describeError adds a hint for the common failure modes of a call.
func describeError(err error) string {
	switch {
	case IsAuthenticationError(err):
		return "invalid GitHub personal access token or missing permissions"
	case IsRateLimitError(err):
		return "GitHub API rate limit exceeded"
	case IsNotFoundError(err):
		return "not found; check that owner, repository and branch exist and the token has 'repo' scope"
	}
	return ""
}

func statusCode(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
