package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/rssfilter/pkg/filter"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load("testdata/config.json")
	require.NoError(t, err)

	require.Len(t, cfg.MasterRules, 2)
	assert.Equal(t, filter.Keyword{Value: "golang"}, cfg.MasterRules[0])
	p, ok := cfg.MasterRules[1].(filter.Pattern)
	require.True(t, ok)
	assert.Equal(t, `release\s+v\d+`, p.Value)
	assert.True(t, p.CaseInsensitive)
	assert.False(t, p.Multiline)
	assert.False(t, p.DotAll)

	require.Len(t, cfg.Feeds, 2)
	assert.Equal(t, 1, cfg.Feeds[0].ID)
	assert.Equal(t, "https://example.com/blog/rss", cfg.Feeds[0].URL)
	assert.Equal(t, []filter.Rule{filter.Keyword{Value: "announce"}}, cfg.Feeds[0].Filters)
	assert.Equal(t, 2, cfg.Feeds[1].ID)
	assert.Empty(t, cfg.Feeds[1].Filters)
}

func TestLoad_YAML(t *testing.T) {
	cfg, err := Load("testdata/config.yml")
	require.NoError(t, err)
	require.Len(t, cfg.MasterRules, 1)
	assert.Equal(t, "regex:/^go/ms", cfg.MasterRules[0].String())
	require.Len(t, cfg.Feeds, 1)
	assert.Equal(t, 10, cfg.Feeds[0].ID)
}

func TestLoad_JSONOnlySyntax(t *testing.T) {
	t.Run("escaped slashes", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `{"master_patterns": [], "urls": [{"id": 1, "url": "http:\/\/example.com\/rss"}]}`))
		require.NoError(t, err)
		require.Len(t, cfg.Feeds, 1)
		assert.Equal(t, "http://example.com/rss", cfg.Feeds[0].URL)
	})

	t.Run("duplicate keys, last wins", func(t *testing.T) {
		body := `{"master_patterns": [{"type": "keyword", "keyword": "old"}],
			"master_patterns": [{"type": "keyword", "keyword": "new"}]}`
		cfg, err := Load(writeConfig(t, body))
		require.NoError(t, err)
		assert.Equal(t, []filter.Rule{filter.Keyword{Value: "new"}}, cfg.MasterRules)
	})

	t.Run("unicode escapes and tabs", func(t *testing.T) {
		body := "{\n\t\"master_patterns\": [{\"type\": \"keyword\", \"keyword\": \"\\u00e9t\u00e9\"}]\n}"
		cfg, err := Load(writeConfig(t, body))
		require.NoError(t, err)
		assert.Equal(t, []filter.Rule{filter.Keyword{Value: "été"}}, cfg.MasterRules)
	})
}

func TestLoad_YAMLExtensionOnly(t *testing.T) {
	// yaml syntax in a .json file is rejected
	_, err := Load(writeConfig(t, "urls:\n  - id: 1\n    url: http://a\n"))
	require.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "parse config: json")

	path := filepath.Join(t.TempDir(), "rules.YAML")
	require.NoError(t, os.WriteFile(path, []byte("urls:\n  - id: 1\n    url: http://a\n"), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Feeds, 1)
	assert.Equal(t, "http://a", cfg.Feeds[0].URL)
}

func TestLoad_Empty(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)
	assert.Empty(t, cfg.MasterRules)
	assert.Empty(t, cfg.Feeds)
}

func TestLoad_CompiledPatternsMatch(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"master_patterns":[{"type":"REGEX","pattern":"start.end","flags":"S"}]}`))
	require.NoError(t, err)
	ok, err := filter.MatchesAny("start\nend", cfg.MasterRules)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		errMsg string
	}{
		{name: "invalid json", body: `{"urls": [`, errMsg: "parse config"},
		{name: "wrong shape", body: `[1, 2]`, errMsg: "parse config"},
		{name: "unknown rule type", body: `{"master_patterns":[{"type":"glob","pattern":"*"}]}`, errMsg: `invalid rule type "glob"`},
		{name: "missing rule type", body: `{"master_patterns":[{"keyword":"go"}]}`, errMsg: "invalid rule type"},
		{name: "empty keyword", body: `{"master_patterns":[{"type":"keyword","keyword":"   "}]}`, errMsg: "non-empty keyword"},
		{name: "empty pattern", body: `{"urls":[{"id":1,"url":"http://a","filters":[{"type":"regex"}]}]}`, errMsg: "non-empty pattern"},
		{name: "bad flag", body: `{"master_patterns":[{"type":"regex","pattern":"go","flags":"ix"}]}`, errMsg: "unsupported regex flag"},
		{name: "bad pattern", body: `{"master_patterns":[{"type":"regex","pattern":"(go"}]}`, errMsg: "compile pattern"},
		{name: "missing id", body: `{"urls":[{"url":"http://a"}]}`, errMsg: "urls[0]: id is required"},
		{name: "missing url", body: `{"urls":[{"id":1}]}`, errMsg: "urls[0]: url is required"},
		{name: "duplicate ids", body: `{"urls":[{"id":1,"url":"http://a"},{"id":1,"url":"http://b"}]}`, errMsg: "duplicate feed ids"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			require.ErrorIs(t, err, ErrConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestParseFlags(t *testing.T) {
	ci, ml, ds, err := parseFlags(" iMs ")
	require.NoError(t, err)
	assert.True(t, ci)
	assert.True(t, ml)
	assert.True(t, ds)

	ci, ml, ds, err = parseFlags("")
	require.NoError(t, err)
	assert.False(t, ci || ml || ds)
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema()
	require.NotNil(t, schema)
	require.NotNil(t, schema.Properties)

	_, ok := schema.Properties.Get("master_patterns")
	assert.True(t, ok)
	urls, ok := schema.Properties.Get("urls")
	require.True(t, ok)
	require.NotNil(t, urls.Items)
	assert.Contains(t, urls.Items.Required, "id")
	assert.Contains(t, urls.Items.Required, "url")
}
