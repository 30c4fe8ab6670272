package metatft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/wonny/compsync/internal/contracts"
	"github.com/wonny/compsync/pkg/httputil"
	"github.com/wonny/compsync/pkg/logger"
)

const stageFetch = "fetch"

// Client handles communication with the MetaTFT comps API
// ⭐ SSOT: MetaTFT API calls only happen in this client
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	queue      string
}

// NewClient creates a new MetaTFT client.
// queue selects the game mode; "1100" is ranked.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL, queue string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("client", "metatft"),
		baseURL:    baseURL,
		queue:      queue,
	}
}

// FetchComps downloads every composition for the configured queue.
// One attempt only: a non-200 status or transport problem is returned as a *contracts.Failure.
func (c *Client) FetchComps(ctx context.Context) (*contracts.CompsResponse, error) {
	params := url.Values{}
	params.Set("queue", c.queue)

	resp, err := c.httpClient.GetWithParams(ctx, c.baseURL, params)
	if err != nil {
		c.logger.WithError(err).Error("Download failed")
		return nil, contracts.NewFailure(stageFetch, contracts.KindTransport, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)

		c.logger.WithField("status_code", resp.StatusCode).Errorf("Error: HTTP %d", resp.StatusCode)
		f := contracts.NewFailure(stageFetch, contracts.KindHTTP, fmt.Sprintf("HTTP %d", resp.StatusCode), nil)
		f.StatusCode = resp.StatusCode
		return nil, f
	}

	var payload contracts.CompsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.WithError(err).Error("Failed to decode comps payload")

		// Valid JSON whose outer levels have the wrong type is a shape problem
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, contracts.NewFailure(stageFetch, contracts.KindSchema, "unexpected response shape", err)
		}
		return nil, contracts.NewFailure(stageFetch, contracts.KindTransport, "malformed response body", err)
	}

	c.logger.WithField("queue", c.queue).Info("Download successful")
	return &payload, nil
}
