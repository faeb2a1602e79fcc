package scraper

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"stry/utils"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

// Fetcher downloads a page and returns its html.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// StatusError is returned for any response other than 200 OK.
type StatusError struct {
	Url  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to get %s: status %d", e.Url, e.Code)
}

type HTTPFetcher struct {
	client  *utils.RestyClient
	headers map[string]string
}

func NewHTTPFetcher(client *utils.RestyClient, headers map[string]string) *HTTPFetcher {
	return &HTTPFetcher{client: client, headers: headers}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := f.client.R().SetContext(ctx).SetHeaders(f.headers).Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to get %s: %w", url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", &StatusError{Url: url, Code: resp.StatusCode(), Body: resp.String()}
	}
	return resp.String(), nil
}

// BrowserFetcher loads pages in a shared headless Chrome, for sites that
// only serve their content to browsers.
type BrowserFetcher struct {
	headers network.Headers
	timeout time.Duration

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

func NewBrowserFetcher(headers map[string]string) (*BrowserFetcher, error) {
	b := &BrowserFetcher{
		headers: network.Headers{},
		timeout: 60 * time.Second,
	}
	for k, v := range headers {
		b.headers[k] = v
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(utils.UserAgent),
	)

	b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	b.browserCtx, b.browserCancel = chromedp.NewContext(b.allocCtx)

	if err := chromedp.Run(b.browserCtx, chromedp.Navigate("about:blank")); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	logrus.Debug("browser started")
	return b, nil
}

func (b *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)
	defer tabCancel()
	tabCtx, cancel := context.WithTimeout(tabCtx, b.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var status atomic.Int64
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if ev, ok := ev.(*network.EventResponseReceived); ok && ev.Type == network.ResourceTypeDocument {
			status.CompareAndSwap(0, ev.Response.Status)
		}
	})

	var html string
	err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(b.headers),
		chromedp.Navigate(url),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", url, err)
	}
	if code := int(status.Load()); code != 0 && code != http.StatusOK {
		return "", &StatusError{Url: url, Code: code, Body: html}
	}
	return html, nil
}

func (b *BrowserFetcher) Close() error {
	if b.browserCancel != nil {
		b.browserCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	return nil
}
