package bkfc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

const (
	// BaseURL of the promotion site
	BaseURL = "https://www.bkfc.com"

	// UserAgent for requests
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// MinRequestInterval to prevent rate limiting
	MinRequestInterval = 2 * time.Second
)

// Client fetches BKFC pages through a headless browser. The event pages are
// JS-rendered, so a plain GET returns an empty shell.
type Client struct {
	lastRequest time.Time
	interval    time.Duration

	// Chromedp context for headless browser
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewClient creates a new BKFC page client
func NewClient() (*Client, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(UserAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Client{
		interval: MinRequestInterval,
		allocCtx: allocCtx,
		cancel:   cancel,
	}, nil
}

// Close releases browser resources
func (c *Client) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

// FetchPage loads a page and returns its rendered HTML. Requests are spaced
// by the client's minimum interval.
func (c *Client) FetchPage(ctx context.Context, url string) (string, error) {
	if !c.lastRequest.IsZero() {
		elapsed := time.Since(c.lastRequest)
		if elapsed < c.interval {
			wait := c.interval - elapsed
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}
	}

	html, err := c.fetch(ctx, url)
	c.lastRequest = time.Now()

	return html, err
}

func (c *Client) fetch(ctx context.Context, url string) (string, error) {
	browserCtx, cancel := chromedp.NewContext(c.allocCtx)
	defer cancel()

	// Inherit the caller's deadline; the page task loop sets one per page.
	if deadline, ok := ctx.Deadline(); ok {
		browserCtx, cancel = context.WithDeadline(browserCtx, deadline)
		defer cancel()
	}

	var htmlContent string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(`body`, chromedp.ByQuery),
		chromedp.Sleep(1*time.Second), // Allow JS to render
		chromedp.OuterHTML(`html`, &htmlContent, chromedp.ByQuery),
	)

	if err != nil {
		return "", fmt.Errorf("chromedp error: %w", err)
	}

	if htmlContent == "" {
		return "", fmt.Errorf("empty HTML content returned")
	}

	return htmlContent, nil
}

// ParseHTML converts raw HTML to a goquery Document for parsing
func ParseHTML(htmlContent string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}
