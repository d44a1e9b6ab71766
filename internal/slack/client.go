// Package slack fetches users, channels and channel history from the Slack
// Web API using the desktop app's session cookie.
package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rneatherway/slack"

	"github.com/solvaholic/teampulse/internal/normalize"
)

// ErrRateLimited is returned when the local safety limit or Slack itself
// refuses a request.
var ErrRateLimited = errors.New("rate limit exceeded")

// PageSize is the page size requested from paginated endpoints.
const PageSize = 200

// Caller performs one GET against a Web API method and returns the body.
type Caller interface {
	Call(ctx context.Context, method string, params map[string]string) ([]byte, error)
}

// Limiter tracks request budgets per endpoint. *db.DB satisfies it.
type Limiter interface {
	CheckRateLimit(sourceType, workspaceID, endpoint string) (bool, error)
	RecordRequest(sourceType, workspaceID, endpoint string) error
}

// cookieCaller adapts the cookie-authenticated client.
type cookieCaller struct {
	client *slack.Client
}

func (c cookieCaller) Call(ctx context.Context, method string, params map[string]string) ([]byte, error) {
	return c.client.API(ctx, "GET", method, params, nil)
}

// Client wraps the Slack API client
type Client struct {
	caller  Caller
	teamID  string
	limiter Limiter

	// Backoff is how long to wait when the limiter refuses a request
	// before asking again. Zero fails immediately with ErrRateLimited.
	Backoff time.Duration
	// MaxWaits bounds how many times one request waits on the limiter.
	MaxWaits int
}

// NewClient wraps caller for workspace teamID.
func NewClient(caller Caller, teamID string) *Client {
	return &Client{caller: caller, teamID: teamID, MaxWaits: 6}
}

// WithLimiter applies local rate limiting to every request.
func (c *Client) WithLimiter(l Limiter) *Client {
	c.limiter = l
	return c
}

// TeamID returns the workspace id the client is bound to.
func (c *Client) TeamID() string {
	return c.teamID
}

// AuthResult contains authentication information
type AuthResult struct {
	TeamName      string  `json:"teamName"`
	TeamID        string  `json:"teamId"`
	UserID        string  `json:"userId"`
	UserName      string  `json:"userName"`
	Authenticated bool    `json:"authenticated"`
	Client        *Client `json:"-"`
}

// Authenticate establishes a connection to Slack using cookies from the local Slack app
func Authenticate(ctx context.Context, team string) (*AuthResult, error) {
	client := slack.NewClient(team)

	if err := client.WithCookieAuth(); err != nil {
		return nil, formatAuthError(err)
	}

	return NewClient(cookieCaller{client: client}, "").AuthTest(ctx)
}

// AuthTest validates the session with auth.test and binds the client to
// the reported team.
func (c *Client) AuthTest(ctx context.Context) (*AuthResult, error) {
	var resp struct {
		Team   string `json:"team"`
		TeamID string `json:"team_id"`
		User   string `json:"user"`
		UserID string `json:"user_id"`
	}
	if _, err := c.call(ctx, "auth.test", nil, &resp); err != nil {
		return nil, fmt.Errorf("authentication validation failed: %w", err)
	}

	c.teamID = resp.TeamID
	return &AuthResult{
		TeamName:      resp.Team,
		TeamID:        resp.TeamID,
		UserID:        resp.UserID,
		UserName:      resp.User,
		Authenticated: true,
		Client:        c,
	}, nil
}

// ListUsers fetches every workspace member, following pagination
func (c *Client) ListUsers(ctx context.Context) ([]normalize.SlackUser, error) {
	var users []normalize.SlackUser
	err := c.paginate(ctx, "users.list", map[string]string{}, func(body []byte) error {
		var page struct {
			Members []normalize.SlackUser `json:"members"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("failed to parse users list: %w", err)
		}
		users = append(users, page.Members...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ListChannels fetches public channels, following pagination. Archived
// channels are included so their history can be attributed.
func (c *Client) ListChannels(ctx context.Context, includeArchived bool) ([]normalize.SlackChannel, error) {
	params := map[string]string{
		"types":            "public_channel",
		"exclude_archived": strconv.FormatBool(!includeArchived),
	}
	var channels []normalize.SlackChannel
	err := c.paginate(ctx, "conversations.list", params, func(body []byte) error {
		var page struct {
			Channels []normalize.SlackChannel `json:"channels"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("failed to parse channels list: %w", err)
		}
		channels = append(channels, page.Channels...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	return channels, nil
}

// FetchHistory retrieves a channel's messages posted after oldest (a Slack
// ts, "" for all history), oldest first.
func (c *Client) FetchHistory(ctx context.Context, channelID, oldest string) ([]normalize.SlackMessage, error) {
	params := map[string]string{"channel": channelID}
	if oldest != "" {
		params["oldest"] = oldest
	}

	var messages []normalize.SlackMessage
	err := c.paginate(ctx, "conversations.history", params, func(body []byte) error {
		var page struct {
			Messages []normalize.SlackMessage `json:"messages"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("failed to parse messages: %w", err)
		}
		messages = append(messages, page.Messages...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	// The API pages newest first
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// SinceTS formats t as a Slack ts for use as oldest.
func SinceTS(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d.000000", t.Unix())
}

// envelope is the part of every Web API response the client inspects.
type envelope struct {
	OK               bool   `json:"ok"`
	Error            string `json:"error"`
	ResponseMetadata struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

// paginate calls method until the cursor runs out, handing each page body
// to handle.
func (c *Client) paginate(ctx context.Context, method string, params map[string]string, handle func([]byte) error) error {
	params["limit"] = strconv.Itoa(PageSize)
	cursor := ""
	for {
		if cursor != "" {
			params["cursor"] = cursor
		}
		var body json.RawMessage
		next, err := c.call(ctx, method, params, &body)
		if err != nil {
			return err
		}
		if err := handle(body); err != nil {
			return err
		}
		if next == "" {
			return nil
		}
		cursor = next
	}
}

// call performs one rate-limited request, checks the envelope and decodes
// the body into out. It returns the next pagination cursor.
func (c *Client) call(ctx context.Context, method string, params map[string]string, out any) (string, error) {
	if err := c.acquire(ctx, method); err != nil {
		return "", err
	}

	bs, err := c.caller.Call(ctx, method, params)
	if err != nil {
		return "", err
	}
	if c.limiter != nil {
		if err := c.limiter.RecordRequest("slack", c.teamID, method); err != nil {
			return "", err
		}
	}

	var env envelope
	if err := json.Unmarshal(bs, &env); err != nil {
		return "", fmt.Errorf("failed to parse %s response: %w", method, err)
	}
	if !env.OK {
		if env.Error == "ratelimited" {
			return "", fmt.Errorf("%w: slack refused %s", ErrRateLimited, method)
		}
		return "", fmt.Errorf("Slack API error: %s", env.Error)
	}

	if raw, ok := out.(*json.RawMessage); ok {
		*raw = bs
	} else if err := json.Unmarshal(bs, out); err != nil {
		return "", fmt.Errorf("failed to parse %s response: %w", method, err)
	}
	return env.ResponseMetadata.NextCursor, nil
}

// acquire waits for the limiter to allow a request to method.
func (c *Client) acquire(ctx context.Context, method string) error {
	if c.limiter == nil {
		return ctx.Err()
	}
	for waits := 0; ; waits++ {
		ok, err := c.limiter.CheckRateLimit("slack", c.teamID, method)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if c.Backoff <= 0 || waits >= c.MaxWaits {
			return fmt.Errorf("%w for %s, please wait before retrying", ErrRateLimited, method)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.Backoff):
		}
	}
}

// formatAuthError provides user-friendly error messages for common authentication failures
func formatAuthError(err error) error {
	errMsg := err.Error()

	switch {
	case strings.Contains(errMsg, "no Slack cookie database found") || strings.Contains(errMsg, "could not access Slack cookie database"):
		return fmt.Errorf("Slack cookie database not found. Are you logged into the Slack desktop app?\n  Original error: %w", err)
	case strings.Contains(errMsg, "no matching unlocked items found"):
		return fmt.Errorf("Slack cookie not found in keychain. Try logging out and back into the Slack desktop app.\n  Original error: %w", err)
	case strings.Contains(errMsg, "failed to get cookie password"):
		return fmt.Errorf("could not retrieve Slack cookie password from keychain. Check that the Slack app has keychain access.\n  Original error: %w", err)
	case strings.Contains(errMsg, "status code"):
		return fmt.Errorf("failed to authenticate with Slack (network or server error). Check your internet connection.\n  Original error: %w", err)
	}

	return fmt.Errorf("Slack authentication failed: %w", err)
}
