package config

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaults(t *testing.T) {
	fsys := afero.NewMemMapFs()
	mgr := NewManagerWithFs("cache/settings.json", fsys)

	settings, err := mgr.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, settings.Server.Port)
	assert.Equal(t, []string{"ja-JP", "en-US"}, settings.Metadata.Locales)
	assert.Equal(t, "JP", settings.Metadata.Region)
	assert.Equal(t, "gpt-4o-mini", settings.Extraction.Model)
	assert.Contains(t, settings.Search.TrustedDomains, "filmarks.com")

	// The defaults file must have been written.
	exists, err := afero.Exists(fsys, "cache/settings.json")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLoadBackfillsMissingFields(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "settings.json",
		[]byte(`{"server": {"port": 9999}, "metadata": {"tmdbApiKey": "file-key"}}`), 0o644))

	mgr := NewManagerWithFs("settings.json", fsys)
	settings, err := mgr.Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, settings.Server.Port)
	assert.Equal(t, "file-key", settings.Metadata.TMDBAPIKey)
	assert.Equal(t, []string{"ja-JP", "en-US"}, settings.Metadata.Locales)
	assert.Equal(t, "https://api.openai.com/v1", settings.Extraction.BaseURL)
	assert.Equal(t, "dokomiru", settings.Chat.Database)
}

func TestLoadEnvOverridesWin(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "env-key")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "settings.json",
		[]byte(`{"metadata": {"tmdbApiKey": "file-key"}}`), 0o644))

	mgr := NewManagerWithFs("settings.json", fsys)
	settings, err := mgr.Load()
	require.NoError(t, err)

	assert.Equal(t, "env-key", settings.Metadata.TMDBAPIKey)
	assert.Equal(t, "mongodb://localhost:27017", settings.Chat.MongoURI)
}

func TestSaveRoundTrip(t *testing.T) {
	fsys := afero.NewMemMapFs()
	mgr := NewManagerWithFs("cache/settings.json", fsys)

	settings := DefaultSettings()
	settings.Metadata.TMDBAPIKey = "key"
	settings.Search.TrustedDomains = []string{"example.com"}
	require.NoError(t, mgr.Save(settings))

	data, err := afero.ReadFile(fsys, "cache/settings.json")
	require.NoError(t, err)

	var loaded Settings
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.True(t, reflect.DeepEqual(settings, loaded))
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "settings.json", []byte(`{broken`), 0o644))

	mgr := NewManagerWithFs("settings.json", fsys)
	_, err := mgr.Load()
	assert.Error(t, err)
}

func TestLoadWithoutPath(t *testing.T) {
	mgr := NewManagerWithFs("", afero.NewMemMapFs())
	_, err := mgr.Load()
	assert.Error(t, err)
}
