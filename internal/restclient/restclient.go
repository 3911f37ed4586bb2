// Package restclient covers the one REST call a shard needs before it can
// connect: GET /gateway/bot, which returns the websocket URL and the
// recommended shard count.
package restclient

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/singleflight"
)

const (
	baseURL        = "https://discord.com/api/v10"
	requestTimeout = 10 * time.Second
)

// GatewayBot is the response of GET /gateway/bot.
type GatewayBot struct {
	URL               string `json:"url"`
	Shards            int    `json:"shards"`
	SessionStartLimit struct {
		Total          int `json:"total"`
		Remaining      int `json:"remaining"`
		ResetAfter     int `json:"reset_after"`
		MaxConcurrency int `json:"max_concurrency"`
	} `json:"session_start_limit"`
}

// Client performs authenticated REST calls against the platform API.
// Concurrent GatewayBot lookups are coalesced into a single request, since
// every shard in a process asks the same question at startup.
type Client struct {
	token string
	http  *fasthttp.Client
	group singleflight.Group
}

// New creates a REST client authenticating with the given bot token.
func New(token string) *Client {
	return &Client{
		token: token,
		http:  &fasthttp.Client{ReadTimeout: requestTimeout, WriteTimeout: requestTimeout},
	}
}

// GatewayBot fetches the gateway connection info for this bot.
func (c *Client) GatewayBot() (*GatewayBot, error) {
	v, err, _ := c.group.Do("gateway-bot", func() (any, error) {
		return c.fetchGatewayBot()
	})
	if err != nil {
		return nil, err
	}
	return v.(*GatewayBot), nil
}

func (c *Client) fetchGatewayBot() (*GatewayBot, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(baseURL + "/gateway/bot")
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAuthorization, "Bot "+c.token)

	if err := c.http.DoTimeout(req, resp, requestTimeout); err != nil {
		return nil, fmt.Errorf("restclient: gateway/bot: %w", err)
	}
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		return nil, fmt.Errorf("restclient: gateway/bot returned status %d", code)
	}

	var gb GatewayBot
	if err := json.Unmarshal(resp.Body(), &gb); err != nil {
		return nil, fmt.Errorf("restclient: decoding gateway/bot response: %w", err)
	}
	return &gb, nil
}
