// Package client is a Go client for the confession server HTTP surface.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/hushtape/confessionserver/pkg/confession"
	"github.com/hushtape/confessionserver/requests"
	"github.com/hushtape/confessionserver/responses"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	// Client a confession server client.
	// Caution: the provided endpoint url is not validated!
	Client struct {
		endpoint   string
		httpClient *http.Client
	}
	Option func(*Client)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(endpoint string, opts ...Option) *Client {
	inst := &Client{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithHTTPClient(v *http.Client) Option {
	return func(o *Client) {
		o.httpClient = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Upload sends a new confession. The returned reply carries the deletion
// code, the only time the server ever exposes it.
func (c *Client) Upload(ctx context.Context, audio []byte, name, description, tags string) (*responses.Upload, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("audio", "audio"+confession.AudioExt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create multipart file")
	}
	if _, err := fw.Write(audio); err != nil {
		return nil, errors.Wrap(err, "failed to write audio part")
	}
	for field, value := range map[string]string{
		"confession_name": name,
		"description":     description,
		"tags":            tags,
	} {
		if err := mw.WriteField(field, value); err != nil {
			return nil, errors.Wrap(err, "failed to write form field")
		}
	}
	if err := mw.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to finalize multipart form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/confessions", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	reply := &responses.Upload{}
	if err := c.do(req, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// List returns one page of confessions, newest first.
func (c *Client) List(ctx context.Context, page, limit int) ([]confession.Confession, error) {
	u := fmt.Sprintf("%s/confessions?page=%d&limit=%d", c.endpoint, page, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	reply := &responses.Confessions{}
	if err := c.do(req, reply); err != nil {
		return nil, err
	}
	return reply.Confessions, nil
}

// Delete removes the confession authorized by code. An unknown code yields
// confession.ErrNotFound.
func (c *Client) Delete(ctx context.Context, code string) error {
	body, err := json.Marshal(&requests.Delete{DeletionCode: code})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint+"/confessions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	return c.do(req, &responses.Message{})
}

// Play counts one playback of the confession with the given id.
func (c *Client) Play(ctx context.Context, id int64) error {
	body, err := json.Marshal(&requests.Play{ID: id})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/confessions/play", bytes.NewReader(body))
	if err != nil {
		return err
	}
	return c.do(req, &responses.Message{})
}

// Popular returns the top confessions by daily plays.
func (c *Client) Popular(ctx context.Context) ([]confession.Confession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/confessions/popular", nil)
	if err != nil {
		return nil, err
	}
	reply := &responses.Confessions{}
	if err := c.do(req, reply); err != nil {
		return nil, err
	}
	return reply.Confessions, nil
}

// Search returns all confessions whose name contains fragment.
func (c *Client) Search(ctx context.Context, fragment string) ([]confession.Confession, error) {
	u := c.endpoint + "/confessions/search/" + url.PathEscape(fragment)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	reply := &responses.Results{}
	if err := c.do(req, reply); err != nil {
		return nil, err
	}
	return reply.Results, nil
}

// Audio fetches the stored audio bytes for a confession's audio key.
func (c *Client) Audio(ctx context.Context, key string) ([]byte, error) {
	u := c.endpoint + "/confessions/audio/" + url.PathEscape(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if err := responseError(res); err != nil {
		return nil, err
	}
	return io.ReadAll(res.Body)
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (c *Client) do(req *http.Request, reply interface{}) error {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if err := responseError(res); err != nil {
		return err
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}
	return json.Unmarshal(body, reply)
}

// responseError turns non-2xx replies into errors, mapping 404 onto
// confession.ErrNotFound so callers can test for it.
func responseError(res *http.Response) error {
	if res.StatusCode < http.StatusBadRequest {
		return nil
	}
	if res.StatusCode == http.StatusNotFound {
		return confession.ErrNotFound
	}
	body, _ := io.ReadAll(res.Body)
	reply := &responses.Error{Status: res.StatusCode}
	if err := json.Unmarshal(body, reply); err != nil || reply.Message == "" {
		reply.Message = res.Status
	}
	return reply
}
