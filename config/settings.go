package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Settings represents the application configuration persisted to disk.
// Secrets may also be supplied through the environment; env values win
// over the file so deployments never need credentials on disk.
type Settings struct {
	Server     ServerSettings     `json:"server"`
	Metadata   MetadataSettings   `json:"metadata"`
	Search     SearchSettings     `json:"search"`
	Extraction ExtractionSettings `json:"extraction"`
	Chat       ChatSettings       `json:"chat"`
	Log        LogConfig          `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// MetadataSettings configures the TMDB lookup client.
type MetadataSettings struct {
	TMDBAPIKey string   `json:"tmdbApiKey"`
	Locales    []string `json:"locales"` // lookup order, e.g. ["ja-JP", "en-US"]
	Region     string   `json:"region"`  // watch-provider region, e.g. "JP"
}

// SearchSettings configures the Google Custom Search client.
type SearchSettings struct {
	APIKey         string   `json:"apiKey"`
	EngineID       string   `json:"engineId"`
	TrustedDomains []string `json:"trustedDomains"`
}

// ExtractionSettings configures the LLM title-extraction endpoint.
type ExtractionSettings struct {
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseUrl"`
	Model   string `json:"model"`
}

// ChatSettings configures the hosted document store backing movie chat.
type ChatSettings struct {
	MongoURI string `json:"mongoUri"`
	Database string `json:"database"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns settings suitable for a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{Host: "0.0.0.0", Port: 8080},
		Metadata: MetadataSettings{
			Locales: []string{"ja-JP", "en-US"},
			Region:  "JP",
		},
		Search: SearchSettings{
			TrustedDomains: []string{
				"filmarks.com",
				"eiga.com",
				"movies.yahoo.co.jp",
				"ja.wikipedia.org",
				"en.wikipedia.org",
				"imdb.com",
			},
		},
		Extraction: ExtractionSettings{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		Chat: ChatSettings{Database: "dokomiru"},
		Log: LogConfig{
			File:       "cache/dokomiru.log",
			MaxSize:    20,
			MaxAge:     14,
			MaxBackups: 3,
		},
	}
}

// Manager loads and persists settings. Filesystem access goes through
// afero so tests can run against an in-memory fs.
type Manager struct {
	path string
	fs   afero.Fs
}

func NewManager(path string) *Manager {
	return &Manager{path: path, fs: afero.NewOsFs()}
}

// NewManagerWithFs is used by tests to run the manager on a fake filesystem.
func NewManagerWithFs(path string, fsys afero.Fs) *Manager {
	return &Manager{path: path, fs: fsys}
}

// EnsureDir ensures the settings file's parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return m.fs.MkdirAll(dir, 0o755)
}

// Load reads the settings file or creates defaults if missing, then
// backfills missing fields and applies environment overrides.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := m.fs.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		applyEnvOverrides(&defaults)
		return defaults, nil
	}

	data, err := afero.ReadFile(m.fs, m.path)
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, err
	}

	// Backfill defaults when the file predates newer settings
	if strings.TrimSpace(s.Server.Host) == "" {
		s.Server.Host = "0.0.0.0"
	}
	if s.Server.Port == 0 {
		s.Server.Port = 8080
	}
	if len(s.Metadata.Locales) == 0 {
		s.Metadata.Locales = []string{"ja-JP", "en-US"}
	}
	if strings.TrimSpace(s.Metadata.Region) == "" {
		s.Metadata.Region = "JP"
	}
	if len(s.Search.TrustedDomains) == 0 {
		s.Search.TrustedDomains = DefaultSettings().Search.TrustedDomains
	}
	if strings.TrimSpace(s.Extraction.BaseURL) == "" {
		s.Extraction.BaseURL = "https://api.openai.com/v1"
	}
	if strings.TrimSpace(s.Extraction.Model) == "" {
		s.Extraction.Model = "gpt-4o-mini"
	}
	if strings.TrimSpace(s.Chat.Database) == "" {
		s.Chat.Database = "dokomiru"
	}

	applyEnvOverrides(&s)
	return s, nil
}

// Save writes settings to disk as indented JSON.
func (m *Manager) Save(s Settings) error {
	if err := m.EnsureDir(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(m.fs, m.path, data, 0o644)
}

// applyEnvOverrides lets credentials come from the process environment.
func applyEnvOverrides(s *Settings) {
	if v := strings.TrimSpace(os.Getenv("TMDB_API_KEY")); v != "" {
		s.Metadata.TMDBAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("GOOGLE_SEARCH_API_KEY")); v != "" {
		s.Search.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("GOOGLE_SEARCH_CX")); v != "" {
		s.Search.EngineID = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		s.Extraction.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("MONGO_URI")); v != "" {
		s.Chat.MongoURI = v
	}
}
