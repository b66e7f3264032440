package cli

import (
	"os"
)

// Config holds settings shared by all initctl commands. Values come from
// flags, with INITCTL_* environment variables as fallback defaults.
type Config struct {
	// ServerURL is the base URL of the tracker, e.g. http://localhost:8080.
	ServerURL string
	// Name identifies the caller as a player character.
	Name string
	// Token authenticates the caller as the GM.
	Token string
	// Output selects the output format ("text" or "json").
	Output string
}

func DefaultConfig() Config {
	cfg := Config{
		ServerURL: "http://localhost:8080",
		Output:    "text",
	}
	if v := os.Getenv("INITCTL_SERVER"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("INITCTL_NAME"); v != "" {
		cfg.Name = v
	}
	if v := os.Getenv("INITCTL_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("INITCTL_OUTPUT"); v != "" {
		cfg.Output = v
	}
	return cfg
}
