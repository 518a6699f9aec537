package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mcoot/handgame/internal/model"
)

// ErrNotLoggedIn is returned by commands that need a saved identity
var ErrNotLoggedIn = errors.New("not logged in: run 'handgame login --name <name>' first")

// Config holds CLI configuration
type Config struct {
	ServerURL      string
	UserServiceURL string
	RoomServiceURL string
	GameServiceURL string
	IdentityFile   string
	Output         string
	Verbose        bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:      getEnvOrDefault("HANDGAME_SERVER", "http://localhost:8080"),
		UserServiceURL: os.Getenv("HANDGAME_USER_SERVICE"),
		RoomServiceURL: os.Getenv("HANDGAME_ROOM_SERVICE"),
		GameServiceURL: os.Getenv("HANDGAME_GAME_SERVICE"),
		IdentityFile:   getEnvOrDefault("HANDGAME_IDENTITY_FILE", defaultIdentityFile()),
		Output:         "text",
		Verbose:        false,
	}
}

// Resolve fills unset service URLs from ServerURL and checks the output format
func (c *Config) Resolve() error {
	if c.UserServiceURL == "" {
		c.UserServiceURL = c.ServerURL
	}
	if c.RoomServiceURL == "" {
		c.RoomServiceURL = c.ServerURL
	}
	if c.GameServiceURL == "" {
		c.GameServiceURL = c.ServerURL
	}
	if c.Output != "text" && c.Output != "json" {
		return fmt.Errorf("invalid output format %q: must be text or json", c.Output)
	}
	return nil
}

// LoadIdentity reads the identity saved by the last login
func (c *Config) LoadIdentity() (model.PlayerIdentity, error) {
	data, err := os.ReadFile(c.IdentityFile)
	if err != nil {
		if os.IsNotExist(err) {
			return model.PlayerIdentity{}, ErrNotLoggedIn
		}
		return model.PlayerIdentity{}, err
	}

	var id model.PlayerIdentity
	if err := json.Unmarshal(data, &id); err != nil {
		return model.PlayerIdentity{}, fmt.Errorf("corrupt identity file %s: %w", c.IdentityFile, err)
	}
	if id.UserID == "" {
		return model.PlayerIdentity{}, ErrNotLoggedIn
	}
	return id, nil
}

// SaveIdentity saves the identity to the identity file
func (c *Config) SaveIdentity(id model.PlayerIdentity) error {
	dir := filepath.Dir(c.IdentityFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return os.WriteFile(c.IdentityFile, data, 0600)
}

func defaultIdentityFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".handgame/identity.json"
	}
	return filepath.Join(home, ".handgame", "identity.json")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
