package reddit

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"time"

	"rdscraper/pkg/errors"
	"rdscraper/pkg/listing"
	"rdscraper/pkg/logger"
	"rdscraper/pkg/ratelimit"
)

// DefaultUserAgent is sent when Options.UserAgent is empty. Reddit rejects
// requests without a User-Agent.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// Options configures a Client
type Options struct {
	BaseURL   string
	UserAgent string
	// Cookie is sent verbatim as the Cookie header when set
	Cookie  string
	Timeout time.Duration
	Limiter ratelimit.Limiter
	// HTTPClient overrides the default client; Timeout is ignored when set
	HTTPClient *http.Client
}

// Client talks to Reddit over HTTP. It implements listing.Driver.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

var _ listing.Driver = (*Client)(nil)

// NewClient creates a new Reddit client
func NewClient(opts Options, log logger.Logger) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.Unlimited()
	}

	c := &Client{
		httpClient: httpClient,
		headers: map[string]string{
			"User-Agent":      userAgent,
			"Accept":          "application/json, image/*;q=0.9, */*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
		baseURL: baseURL,
		limiter: limiter,
		logger:  logger.OrDefault(log),
	}
	if opts.Cookie != "" {
		c.headers["Cookie"] = opts.Cookie
	}
	return c
}

// SetHeaders sets multiple headers at once
func (c *Client) SetHeaders(headers map[string]string) {
	for key, value := range headers {
		c.headers[key] = value
	}
}

// FetchPage returns one page of an account's submissions
func (c *Client) FetchPage(ctx context.Context, account, cursor string, limit int) (*listing.Page, error) {
	url := SubmittedURL(c.baseURL, account, cursor, limit)

	var resp listingResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	page := &listing.Page{
		Locators:   make([]string, 0, len(resp.Data.Children)),
		NextCursor: resp.Data.After,
	}
	for _, child := range resp.Data.Children {
		page.Locators = append(page.Locators, child.Data.URL)
	}

	c.logger.DebugWithFields("fetched listing page", map[string]interface{}{
		"account": account,
		"after":   cursor,
		"entries": len(page.Locators),
		"next":    page.NextCursor,
	})

	return page, nil
}

// FetchBytes downloads the raw content at locator
func (c *Client) FetchBytes(ctx context.Context, locator string) ([]byte, error) {
	resp, err := c.get(ctx, locator)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(err, "failed to read item body")
	}

	c.logger.DebugWithFields("downloaded item", map[string]interface{}{
		"url":  locator,
		"size": len(data),
	})

	return data, nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, classify(err, "rate limiter wait aborted")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeUnknown, "failed to create request")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, classify(err, "request failed")
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return classify(err, "failed to read response body")
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: "failed to parse listing JSON",
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	return nil
}

// checkResponseStatus maps non-2xx responses to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	apiErr := errors.FromStatus(resp.StatusCode)
	if apiErr == nil {
		return nil
	}

	fields := map[string]interface{}{
		"status": resp.StatusCode,
		"url":    resp.Request.URL.String(),
	}
	if apiErr.Type == errors.ErrorTypeServerError {
		c.logger.ErrorWithFields("server error", fields)
	} else {
		c.logger.WarnWithFields(apiErr.Message, fields)
	}
	return apiErr
}

// classify turns a transport-level failure into a typed error
func classify(err error, message string) *errors.Error {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return errors.Wrap(err, errors.ErrorTypeTimeout, message)
	}
	return errors.Wrap(err, errors.ErrorTypeNetwork, message)
}
