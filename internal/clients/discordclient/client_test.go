package discordclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vikingheim/odin-rewards/internal/config"
)

func newTestClient(serverURL string, cfg *config.DiscordConfig) *Client {
	return &Client{
		httpClient: &http.Client{},
		cfg:        cfg,
		baseURL:    serverURL,
	}
}

func discordStub(t *testing.T, roles []string, memberStatus int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		json.NewEncoder(w).Encode(map[string]string{"access_token": "token-123"})
	})
	mux.HandleFunc("GET /api/users/@me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{"id": "user-1", "username": "odinfan"})
	})
	mux.HandleFunc("GET /api/guilds/{guild}/members/{user}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bot bot-token", r.Header.Get("Authorization"))
		if memberStatus != http.StatusOK {
			w.WriteHeader(memberStatus)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"roles": roles})
	})

	return httptest.NewServer(mux)
}

func TestVerify(t *testing.T) {
	server := discordStub(t, nil, http.StatusOK)
	defer server.Close()

	client := newTestClient(server.URL, &config.DiscordConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost/callback",
	})

	identity, err := client.Verify(t.Context(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.SubjectID)
	assert.Equal(t, "odinfan", identity.DisplayName)
}

func TestVerify_InvalidCode(t *testing.T) {
	server := discordStub(t, nil, http.StatusOK)
	defer server.Close()

	client := newTestClient(server.URL, &config.DiscordConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost/callback",
	})

	t.Run("empty code", func(t *testing.T) {
		_, err := client.Verify(t.Context(), "")
		require.ErrorIs(t, err, ErrInvalidCode)
	})

	t.Run("rejected code", func(t *testing.T) {
		_, err := client.Verify(t.Context(), "bad-code")
		require.ErrorIs(t, err, ErrInvalidCode)
	})
}

func TestVerify_GuildChecks(t *testing.T) {
	guildCfg := func() *config.DiscordConfig {
		return &config.DiscordConfig{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			RedirectURI:  "http://localhost/callback",
			GuildID:      "guild-1",
			BotToken:     "bot-token",
		}
	}

	t.Run("member with required role", func(t *testing.T) {
		server := discordStub(t, []string{"role-a", "role-b"}, http.StatusOK)
		defer server.Close()

		cfg := guildCfg()
		cfg.RoleID = "role-b"
		client := newTestClient(server.URL, cfg)

		identity, err := client.Verify(t.Context(), "good-code")
		require.NoError(t, err)
		assert.Equal(t, "user-1", identity.SubjectID)
	})

	t.Run("member without required role", func(t *testing.T) {
		server := discordStub(t, []string{"role-a"}, http.StatusOK)
		defer server.Close()

		cfg := guildCfg()
		cfg.RoleID = "role-b"
		client := newTestClient(server.URL, cfg)

		_, err := client.Verify(t.Context(), "good-code")
		require.ErrorIs(t, err, ErrMissingRole)
	})

	t.Run("not a guild member", func(t *testing.T) {
		server := discordStub(t, nil, http.StatusNotFound)
		defer server.Close()

		client := newTestClient(server.URL, guildCfg())

		_, err := client.Verify(t.Context(), "good-code")
		require.ErrorIs(t, err, ErrNotGuildMember)
	})

	t.Run("membership not checked without guild config", func(t *testing.T) {
		server := discordStub(t, nil, http.StatusInternalServerError)
		defer server.Close()

		cfg := guildCfg()
		cfg.GuildID = ""
		client := newTestClient(server.URL, cfg)

		_, err := client.Verify(t.Context(), "good-code")
		require.NoError(t, err)
	})
}
