// Package client reads stories from a remote stry API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"stry/model"
	"stry/search"
	"stry/utils"

	"github.com/go-resty/resty/v2"
)

// Client implements the same read operations as the store over the REST
// API.
type Client struct {
	rest *utils.RestyClient
}

func New(baseURL string, retries int) *Client {
	rest := utils.NewRestyClient(retries).SetBaseURL(strings.TrimSuffix(baseURL, "/"))
	return &Client{rest: rest}
}

// APIError is a non-2xx API answer. It unwraps to the matching model
// sentinel error.
type APIError struct {
	Code     int
	Messages []string
	err      error
}

func (e *APIError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("api error %d: %s", e.Code, strings.Join(e.Messages, ", "))
	}
	return fmt.Sprintf("api error %d", e.Code)
}

func (e *APIError) Unwrap() error {
	return e.err
}

func decode[T any](resp *resty.Response, badRequest error) (T, error) {
	var envelope model.Response[T]
	body := resp.Body()

	if resp.StatusCode() != http.StatusOK {
		apiErr := &APIError{Code: resp.StatusCode()}
		var failed model.Response[json.RawMessage]
		if json.Unmarshal(body, &failed) == nil {
			apiErr.Messages = failed.Messages
		}
		switch resp.StatusCode() {
		case http.StatusNotFound:
			apiErr.err = model.ErrNotFound
		case http.StatusBadRequest:
			apiErr.err = badRequest
		}
		return envelope.Data, apiErr
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		return envelope.Data, fmt.Errorf("failed to decode response: %w", err)
	}
	if envelope.IsError() {
		return envelope.Data, &APIError{Code: envelope.Code, Messages: envelope.Messages}
	}
	return envelope.Data, nil
}

func get[T any](ctx context.Context, c *Client, path string, badRequest error) (T, error) {
	resp, err := c.rest.R().SetContext(ctx).SetHeader("Accept", "application/json").Get(path)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to get %s: %w", path, err)
	}
	return decode[T](resp, badRequest)
}

func (c *Client) Stories(ctx context.Context, page int) (*model.StoryPage, error) {
	data, err := get[model.StoryPage](ctx, c, fmt.Sprintf("/api/stories/%d", page), model.ErrBadRequest)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) StoriesOf(ctx context.Context, kind model.Kind, id string, page int) (*model.StoryPage, error) {
	data, err := get[model.StoryPage](ctx, c, fmt.Sprintf("/api/%s/%s/%d", kind, id, page), model.ErrBadRequest)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) Story(ctx context.Context, id string) (*model.Story, error) {
	data, err := get[model.Story](ctx, c, "/api/story/"+id, model.ErrBadRequest)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) Chapter(ctx context.Context, storyId string, n int) (*model.ChapterPage, error) {
	data, err := get[model.ChapterPage](ctx, c, fmt.Sprintf("/api/story/%s/chapter/%d", storyId, n), model.ErrChapterOutOfRange)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) Entity(ctx context.Context, kind model.Kind, id string) (*model.Entity, error) {
	data, err := get[model.Entity](ctx, c, fmt.Sprintf("/api/%s/%s", kind, id), model.ErrBadRequest)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) Entities(ctx context.Context, list model.List, page int) (*model.EntityPage, error) {
	data, err := get[model.EntityPage](ctx, c, fmt.Sprintf("/api/%s/%d", list, page), model.ErrBadRequest)
	if err != nil {
		return nil, err
	}
	data.List = list
	return &data, nil
}

func (c *Client) Search(ctx context.Context, q search.Query, page int) (*model.StoryPage, error) {
	if q.Empty() {
		return nil, fmt.Errorf("empty search: %w", model.ErrBadRequest)
	}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetBody(model.SearchRequest{Page: page, Search: q.String()}).
		Post("/api/search")
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	data, err := decode[model.StoryPage](resp, model.ErrBadRequest)
	if err != nil {
		return nil, err
	}
	return &data, nil
}
