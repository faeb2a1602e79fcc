package utils

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const UserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:133.0) Gecko/20100101 Firefox/133.0"

type RestyClient struct {
	client *resty.Client
}

// NewRestyClient returns a client that retries failed requests and 429
// responses, honouring Retry-After.
func NewRestyClient(retries int) *RestyClient {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetRetryCount(retries).
		SetRetryWaitTime(3 * time.Second).
		SetRetryAfter(func(client *resty.Client, resp *resty.Response) (time.Duration, error) {
			if resp.StatusCode() == http.StatusTooManyRequests {
				if retryAfter := resp.Header().Get("Retry-After"); retryAfter != "" {
					if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
						return seconds, nil
					}
					if t, err := http.ParseTime(retryAfter); err == nil {
						return time.Until(t), nil
					}
				}
				return 3 * time.Second, nil
			}
			return 0, nil
		}).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests
		})
	client.SetLogger(disableLogger{})
	client.SetHeader("Accept-Charset", "utf-8").SetHeader("User-Agent", UserAgent)

	return &RestyClient{client: client}
}

func (c *RestyClient) SetBaseURL(url string) *RestyClient {
	c.client.SetBaseURL(url)
	return c
}

func (c *RestyClient) SetRetryWaitTime(d time.Duration) *RestyClient {
	c.client.SetRetryWaitTime(d).SetRetryMaxWaitTime(d)
	return c
}

func (c *RestyClient) R() *resty.Request {
	return c.client.R()
}

type disableLogger struct{}

func (d disableLogger) Errorf(string, ...interface{}) {}
func (d disableLogger) Warnf(string, ...interface{})  {}
func (d disableLogger) Debugf(string, ...interface{}) {}
