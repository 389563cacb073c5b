package config

import "fmt"

type DiscordConfig struct {
	ClientID     string `mapstructure:"client-id"`
	ClientSecret string `mapstructure:"client-secret"`
	RedirectURI  string `mapstructure:"redirect-uri"`
	// GuildID and BotToken enable the guild membership check. Both optional;
	// when unset, verification stops at the identity exchange.
	GuildID  string `mapstructure:"guild-id"`
	BotToken string `mapstructure:"bot-token"`
	// RoleID additionally requires the member to hold a specific guild role.
	RoleID string `mapstructure:"role-id"`
}

func (cfg *DiscordConfig) Validate() error {
	if cfg.ClientID == "" {
		return fmt.Errorf("discord client-id is required")
	}
	if cfg.ClientSecret == "" {
		return fmt.Errorf("discord client-secret is required")
	}
	if cfg.RedirectURI == "" {
		return fmt.Errorf("discord redirect-uri is required")
	}
	if cfg.RoleID != "" && cfg.GuildID == "" {
		return fmt.Errorf("discord role-id requires guild-id")
	}
	if cfg.GuildID != "" && cfg.BotToken == "" {
		return fmt.Errorf("discord guild-id requires bot-token")
	}

	return nil
}
