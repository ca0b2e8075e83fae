package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/umputun/rssfilter/pkg/domain"
	"github.com/umputun/rssfilter/pkg/filter"
)

// ErrConfig is wrapped by every error returned from Load
var ErrConfig = errors.New("invalid config")

// File is the rule file layout. JSON is the documented format, files with .yml or .yaml
// extension are read as YAML.
type File struct {
	MasterPatterns []Rule `yaml:"master_patterns" json:"master_patterns" jsonschema:"description=Rules every item must match (any of them)"`
	URLs           []Feed `yaml:"urls" json:"urls" jsonschema:"description=Feeds in refresh order"`
}

// Feed is a single feed entry of the rule file
type Feed struct {
	ID      *int   `yaml:"id" json:"id" jsonschema:"required,description=Feed identifier used in logs and status"`
	URL     string `yaml:"url" json:"url" jsonschema:"required,description=Feed URL"`
	Filters []Rule `yaml:"filters" json:"filters" jsonschema:"description=Per-feed rules (any of them)"`
}

// Rule is a filter rule of the rule file
type Rule struct {
	Type    string `yaml:"type" json:"type" jsonschema:"required,enum=keyword,enum=regex,description=Rule type"`
	Keyword string `yaml:"keyword,omitempty" json:"keyword,omitempty" jsonschema:"description=Case-insensitive substring for keyword rules"`
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty" jsonschema:"description=Regular expression for regex rules"`
	Flags   string `yaml:"flags,omitempty" json:"flags,omitempty" jsonschema:"pattern=^[imsIMS]*$,description=Any of i (ignore case) m (multiline) s (dot matches newline)"`
}

// Load reads the rule file, validates it and compiles all patterns
func Load(path string) (domain.AggregationConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.AggregationConfig{}, fmt.Errorf("%w: config file not found: %s", ErrConfig, path)
		}
		return domain.AggregationConfig{}, fmt.Errorf("%w: read config file: %w", ErrConfig, err)
	}

	raw, err := decode(path, data)
	if err != nil {
		return domain.AggregationConfig{}, fmt.Errorf("%w: parse config: %w", ErrConfig, err)
	}

	res, err := raw.Aggregation()
	if err != nil {
		return domain.AggregationConfig{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return res, nil
}

// decode picks the decoder by file extension, anything but yaml is treated as json
func decode(path string, data []byte) (File, error) {
	var res File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &res); err != nil {
			return File{}, fmt.Errorf("yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &res); err != nil {
			return File{}, fmt.Errorf("json: %w", err)
		}
	}
	return res, nil
}

// Aggregation converts the file layout into the aggregation config
func (f File) Aggregation() (domain.AggregationConfig, error) {
	master, err := buildRules(f.MasterPatterns)
	if err != nil {
		return domain.AggregationConfig{}, fmt.Errorf("master_patterns: %w", err)
	}

	feeds := make([]domain.FeedSource, 0, len(f.URLs))
	for i, fd := range f.URLs {
		if fd.ID == nil {
			return domain.AggregationConfig{}, fmt.Errorf("urls[%d]: id is required", i)
		}
		url := strings.TrimSpace(fd.URL)
		if url == "" {
			return domain.AggregationConfig{}, fmt.Errorf("urls[%d]: url is required", i)
		}
		rules, err := buildRules(fd.Filters)
		if err != nil {
			return domain.AggregationConfig{}, fmt.Errorf("urls[%d]: filters: %w", i, err)
		}
		feeds = append(feeds, domain.FeedSource{ID: *fd.ID, URL: url, Filters: rules})
	}

	dups := lo.FindDuplicates(lo.Map(feeds, func(fs domain.FeedSource, _ int) int { return fs.ID }))
	if len(dups) > 0 {
		return domain.AggregationConfig{}, fmt.Errorf("duplicate feed ids: %v", dups)
	}

	return domain.AggregationConfig{MasterRules: master, Feeds: feeds}, nil
}

func buildRules(raw []Rule) ([]filter.Rule, error) {
	res := make([]filter.Rule, 0, len(raw))
	for i, r := range raw {
		rule, err := r.build()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		res = append(res, rule)
	}
	return res, nil
}

func (r Rule) build() (filter.Rule, error) {
	switch strings.ToLower(strings.TrimSpace(r.Type)) {
	case "keyword":
		kw := strings.TrimSpace(r.Keyword)
		if kw == "" {
			return nil, errors.New("keyword rule requires non-empty keyword")
		}
		return filter.Keyword{Value: kw}, nil
	case "regex":
		// pattern is kept verbatim, whitespace may be significant
		if strings.TrimSpace(r.Pattern) == "" {
			return nil, errors.New("regex rule requires non-empty pattern")
		}
		ci, ml, ds, err := parseFlags(r.Flags)
		if err != nil {
			return nil, err
		}
		return filter.NewPattern(r.Pattern, ci, ml, ds)
	default:
		return nil, fmt.Errorf("invalid rule type %q", r.Type)
	}
}

// parseFlags maps a flags string like "im" to regex options
func parseFlags(flags string) (ci, ml, ds bool, err error) {
	for _, c := range strings.ToLower(strings.TrimSpace(flags)) {
		switch c {
		case 'i':
			ci = true
		case 'm':
			ml = true
		case 's':
			ds = true
		default:
			return false, false, false, fmt.Errorf("unsupported regex flag %q", c)
		}
	}
	return ci, ml, ds, nil
}
