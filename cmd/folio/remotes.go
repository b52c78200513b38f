package main

import (
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/BurntSushi/toml"
)

// RemotesConfig holds all named remotes and tracks which one is active.
type RemotesConfig struct {
	Active  string            `toml:"active"`
	Remotes map[string]Remote `toml:"remotes"`
}

// Remote is a named server profile.
type Remote struct {
	URL      string `toml:"url"`
	GRPCAddr string `toml:"grpc_addr,omitempty"`
	Token    string `toml:"token,omitempty"`
	NATSURL  string `toml:"nats_url,omitempty"`
}

func remoteConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".local", "state", "folio")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "remotes.toml"), nil
}

func loadRemotesConfig() (RemotesConfig, error) {
	path, err := remoteConfigPath()
	if err != nil {
		return RemotesConfig{}, err
	}
	var cfg RemotesConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return RemotesConfig{Remotes: map[string]Remote{}}, nil
		}
		return RemotesConfig{}, err
	}
	if cfg.Remotes == nil {
		cfg.Remotes = map[string]Remote{}
	}
	return cfg, nil
}

func saveRemotesConfig(cfg RemotesConfig) error {
	path, err := remoteConfigPath()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// storeToken records token on the remote whose URL is url, preferring the
// active remote and creating "default" when none matches. That remote
// becomes active.
func storeToken(url, token string) (name string, err error) {
	err = editRemotes(func(cfg *RemotesConfig) error {
		if cfg.Remotes[cfg.Active].URL == url && cfg.Active != "" {
			name = cfg.Active
		}
		for _, n := range slices.Sorted(maps.Keys(cfg.Remotes)) {
			if name == "" && cfg.Remotes[n].URL == url {
				name = n
			}
		}
		if name == "" {
			name = "default"
		}
		r := cfg.Remotes[name]
		r.URL, r.Token = url, token
		cfg.Remotes[name] = r
		cfg.Active = name
		return nil
	})
	return name, err
}

// activeRemote returns the active remote from the remotes file, read once
// per process. A missing or unreadable file means no remote.
var activeRemote = sync.OnceValue(func() Remote {
	cfg, err := loadRemotesConfig()
	if err != nil {
		return Remote{}
	}
	return cfg.Remotes[cfg.Active]
})
