package discordclient

import "context"

// Identity is the verified subject binding returned on success.
type Identity struct {
	SubjectID   string
	DisplayName string
}

type DiscordInterface interface {
	// Verify exchanges the OAuth authorization code, resolves the Discord user
	// behind it and, when a guild is configured, checks membership and role.
	Verify(ctx context.Context, code string) (*Identity, error)
}
