package discordclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/vikingheim/odin-rewards/internal/clients/client"
	"github.com/vikingheim/odin-rewards/internal/config"
)

const (
	tokenEndpoint       = "/api/oauth2/token"
	currentUserEndpoint = "/api/users/@me"
	guildMemberEndpoint = "/api/guilds/%s/members/%s"
)

const defaultMaxRetryTimes = 3
const defaultRetryInterval = 5 * time.Second
const defaultTimeout = 15 * time.Second

// Verification outcomes the caller maps to user-facing rejections.
var (
	ErrInvalidCode    = errors.New("invalid authorization code")
	ErrNotGuildMember = errors.New("not a member of the required guild")
	ErrMissingRole    = errors.New("missing the required guild role")
)

const defaultBaseURL = "https://discord.com"

type Client struct {
	httpClient *http.Client
	cfg        *config.DiscordConfig
	baseURL    string
}

func (c *Client) GetBaseURL() string {
	return c.baseURL
}

func (c *Client) GetDefaultRequestTimeout() time.Duration {
	return defaultTimeout
}

func (c *Client) GetHttpClient() *http.Client {
	return c.httpClient
}

func NewClient(cfg *config.DiscordConfig) *Client {
	if cfg == nil {
		return nil
	}

	return &Client{
		httpClient: &http.Client{},
		cfg:        cfg,
		baseURL:    defaultBaseURL,
	}
}

func (c *Client) Verify(ctx context.Context, code string) (*Identity, error) {
	if code == "" {
		return nil, ErrInvalidCode
	}

	accessToken, err := c.exchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	user, err := c.currentUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	if c.cfg.GuildID != "" {
		if err := c.checkGuildMembership(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	return &Identity{
		SubjectID:   user.ID,
		DisplayName: user.Username,
	}, nil
}

func (c *Client) exchangeCode(ctx context.Context, code string) (string, error) {
	type empty struct{}
	type tokenResponse struct {
		AccessToken string `json:"access_token"`
	}

	form := url.Values{}
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.cfg.RedirectURI)

	callForToken := func() (string, error) {
		opts := &client.HttpClientOptions{
			Path:         tokenEndpoint,
			TemplatePath: tokenEndpoint,
			Form:         form,
		}

		resp, err := client.SendRequest[empty, tokenResponse](ctx, c, http.MethodPost, opts, nil)
		if err != nil {
			var respErr *client.HttpResponseError
			if errors.As(err, &respErr) && respErr.StatusCode == http.StatusBadRequest {
				return "", ErrInvalidCode
			}
			return "", err
		}
		if resp.AccessToken == "" {
			return "", fmt.Errorf("token exchange returned no access token")
		}
		return resp.AccessToken, nil
	}

	return clientCallWithRetry(ctx, callForToken)
}

type discordUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (c *Client) currentUser(ctx context.Context, accessToken string) (*discordUser, error) {
	type empty struct{}

	callForUser := func() (*discordUser, error) {
		opts := &client.HttpClientOptions{
			Path:         currentUserEndpoint,
			TemplatePath: currentUserEndpoint,
			Headers:      map[string]string{"Authorization": "Bearer " + accessToken},
		}

		return client.SendRequest[empty, discordUser](ctx, c, http.MethodGet, opts, nil)
	}

	user, err := clientCallWithRetry(ctx, callForUser)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve discord user: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("discord user lookup returned no id")
	}

	return user, nil
}

func (c *Client) checkGuildMembership(ctx context.Context, userID string) error {
	type empty struct{}
	type memberResponse struct {
		Roles []string `json:"roles"`
	}

	callForMember := func() (*memberResponse, error) {
		path := fmt.Sprintf(guildMemberEndpoint, c.cfg.GuildID, userID)
		opts := &client.HttpClientOptions{
			Path:         path,
			TemplatePath: guildMemberEndpoint,
			Headers:      map[string]string{"Authorization": "Bot " + c.cfg.BotToken},
		}

		return client.SendRequest[empty, memberResponse](ctx, c, http.MethodGet, opts, nil)
	}

	member, err := clientCallWithRetry(ctx, callForMember)
	if err != nil {
		var respErr *client.HttpResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return ErrNotGuildMember
		}
		return fmt.Errorf("failed to check guild membership: %w", err)
	}

	if c.cfg.RoleID != "" && !slices.Contains(member.Roles, c.cfg.RoleID) {
		return ErrMissingRole
	}

	return nil
}

func clientCallWithRetry[T any](
	ctx context.Context,
	call retry.RetryableFuncWithData[T],
) (T, error) {
	result, err := retry.DoWithData(call,
		retry.Context(ctx),
		retry.Attempts(defaultMaxRetryTimes),
		retry.Delay(defaultRetryInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			// Only retry on Discord rate limiting (429)
			shouldRetry := err != nil && strings.Contains(err.Error(), "rate limit exceeded")
			return shouldRetry
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Debug().
				Uint("attempt", n+1).
				Uint("max_attempts", defaultMaxRetryTimes).
				Err(err).
				Msg("rate limit exceeded, retrying with exponential backoff")
		}))
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
