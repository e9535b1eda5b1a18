package variational

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"

	defaultPollInterval = time.Second
	defaultPollAttempts = 10
)

// Config holds one or more named API profiles.
type Config struct {
	Default  string                    `yaml:"default"`
	Profiles map[string]*ProfileConfig `yaml:"profiles"`
}

// ProfileConfig describes how to construct a client for one API key.
type ProfileConfig struct {
	Network    string `yaml:"network"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	APISecret  string `yaml:"api_secret"`
	PrivateKey string `yaml:"private_key"`

	TimeoutRaw string        `yaml:"timeout"`
	Timeout    time.Duration `yaml:"-"`

	RetryRateLimits     *bool  `yaml:"retry_rate_limits"`
	RateLimitHeader     string `yaml:"rate_limit_header"`
	RateLimitAbsolute   bool   `yaml:"rate_limit_absolute"`
	MaxRateLimitRetries int    `yaml:"max_rate_limit_retries"`

	Backoff BackoffYAML `yaml:"backoff"`
	Poll    PollYAML    `yaml:"poll"`
}

type BackoffYAML struct {
	BaseRaw   string        `yaml:"base"`
	Base      time.Duration `yaml:"-"`
	Factor    float64       `yaml:"factor"`
	Randomize float64       `yaml:"randomize"`
}

type PollYAML struct {
	IntervalRaw string        `yaml:"interval"`
	Interval    time.Duration `yaml:"-"`
	Attempts    int           `yaml:"attempts"`
}

// LoadConfig reads profile configuration from disk.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open variational config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader constructs a Config from an io.Reader. ${VAR}
// references are expanded from the environment.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read variational config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal variational config: %w", err)
	}
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() error {
	if c.Profiles == nil {
		c.Profiles = make(map[string]*ProfileConfig)
	}
	c.Default = strings.TrimSpace(os.ExpandEnv(c.Default))
	for name, profile := range c.Profiles {
		if profile == nil {
			profile = &ProfileConfig{}
			c.Profiles[name] = profile
		}
		profile.expandEnv()
		if err := profile.parseDurations(name); err != nil {
			return err
		}
	}
	return nil
}

func (p *ProfileConfig) expandEnv() {
	p.Network = strings.ToLower(strings.TrimSpace(os.ExpandEnv(p.Network)))
	p.BaseURL = strings.TrimSpace(os.ExpandEnv(p.BaseURL))
	p.APIKey = strings.TrimSpace(os.ExpandEnv(p.APIKey))
	p.APISecret = strings.TrimSpace(os.ExpandEnv(p.APISecret))
	p.PrivateKey = strings.TrimSpace(os.ExpandEnv(p.PrivateKey))
	p.TimeoutRaw = strings.TrimSpace(os.ExpandEnv(p.TimeoutRaw))
	p.RateLimitHeader = strings.TrimSpace(os.ExpandEnv(p.RateLimitHeader))
	p.Backoff.BaseRaw = strings.TrimSpace(os.ExpandEnv(p.Backoff.BaseRaw))
	p.Poll.IntervalRaw = strings.TrimSpace(os.ExpandEnv(p.Poll.IntervalRaw))
}

func parsePositiveDuration(profile, field, raw string, allowZero bool) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("variational profile %s: invalid %s %q: %w", profile, field, raw, err)
	}
	if d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("variational profile %s: %s must be positive, got %s", profile, field, d)
	}
	return d, nil
}

func (p *ProfileConfig) parseDurations(name string) error {
	var err error
	if p.Timeout, err = parsePositiveDuration(name, "timeout", p.TimeoutRaw, false); err != nil {
		return err
	}
	if p.Backoff.Base, err = parsePositiveDuration(name, "backoff.base", p.Backoff.BaseRaw, false); err != nil {
		return err
	}
	if p.Poll.Interval, err = parsePositiveDuration(name, "poll.interval", p.Poll.IntervalRaw, true); err != nil {
		return err
	}
	return nil
}

// Validate ensures every profile can build a client.
func (c *Config) Validate() error {
	if len(c.Profiles) == 0 {
		return fmt.Errorf("variational config: profiles cannot be empty")
	}
	if c.Default != "" {
		if _, ok := c.Profiles[c.Default]; !ok {
			return fmt.Errorf("variational config: default profile %q not defined", c.Default)
		}
	}
	for name, profile := range c.Profiles {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("variational config: profile name cannot be empty")
		}
		if err := profile.validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (p *ProfileConfig) validate(name string) error {
	if p == nil {
		return fmt.Errorf("variational config: profile %s is nil", name)
	}
	switch p.Network {
	case "", NetworkMainnet, NetworkTestnet:
	default:
		return fmt.Errorf("variational config: profile %s: %w %q", name, ErrUnsupportedNetwork, p.Network)
	}
	if p.APIKey == "" || p.APISecret == "" {
		return fmt.Errorf("variational config: profile %s requires api_key and api_secret", name)
	}
	if p.MaxRateLimitRetries < 0 {
		return fmt.Errorf("variational config: profile %s: max_rate_limit_retries cannot be negative", name)
	}
	if p.Backoff.Factor != 0 && p.Backoff.Factor <= 1 {
		return fmt.Errorf("variational config: profile %s: backoff.factor must be > 1", name)
	}
	if p.Backoff.Randomize < 0 || p.Backoff.Randomize >= 1 {
		return fmt.Errorf("variational config: profile %s: backoff.randomize must be within [0, 1)", name)
	}
	if p.Poll.Attempts < 0 {
		return fmt.Errorf("variational config: profile %s: poll.attempts cannot be negative", name)
	}
	return nil
}

// ClientOptions translates the profile into client options.
func (p *ProfileConfig) ClientOptions() []ClientOption {
	opts := []ClientOption{WithTestnet(p.Network == NetworkTestnet)}
	if p.BaseURL != "" {
		opts = append(opts, WithBaseURL(p.BaseURL))
	}
	if p.Timeout > 0 {
		opts = append(opts, WithRequestTimeout(p.Timeout))
	}
	if p.RetryRateLimits != nil {
		opts = append(opts, WithRateLimitRetries(*p.RetryRateLimits))
	}
	if p.RateLimitHeader != "" {
		opts = append(opts, WithRateLimitSignal(RateLimitSignal{Header: p.RateLimitHeader, Absolute: p.RateLimitAbsolute}))
	}
	if p.MaxRateLimitRetries > 0 {
		opts = append(opts, WithMaxRateLimitRetries(p.MaxRateLimitRetries))
	}
	if p.Backoff != (BackoffYAML{}) {
		opts = append(opts, WithBackoff(BackoffConfig{
			Base:      p.Backoff.Base,
			Factor:    p.Backoff.Factor,
			Randomize: p.Backoff.Randomize,
		}))
	}
	return opts
}

// PollSettings returns the interval and attempt budget for the polling helpers.
func (p *ProfileConfig) PollSettings() (time.Duration, int) {
	interval := defaultPollInterval
	if p.Poll.IntervalRaw != "" {
		interval = p.Poll.Interval
	}
	attempts := defaultPollAttempts
	if p.Poll.Attempts > 0 {
		attempts = p.Poll.Attempts
	}
	return interval, attempts
}

// BuildClient constructs a client for one profile; extra options are applied last.
func (p *ProfileConfig) BuildClient(extra ...ClientOption) (*Client, error) {
	opts := append(p.ClientOptions(), extra...)
	return NewClient(p.APIKey, p.APISecret, opts...)
}

// BuildClients instantiates every configured profile.
func (c *Config) BuildClients(extra ...ClientOption) (map[string]*Client, error) {
	result := make(map[string]*Client, len(c.Profiles))
	for name, profile := range c.Profiles {
		client, err := profile.BuildClient(extra...)
		if err != nil {
			return nil, fmt.Errorf("variational profile %s: %w", name, err)
		}
		result[name] = client
	}
	return result, nil
}

// Profile returns the named profile, falling back to Default when name is empty.
func (c *Config) Profile(name string) (*ProfileConfig, error) {
	if name == "" {
		name = c.Default
	}
	if name == "" && len(c.Profiles) == 1 {
		for only := range c.Profiles {
			name = only
		}
	}
	profile, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("variational config: profile %q not defined (have %s)", name, strings.Join(c.ProfileNames(), ", "))
	}
	return profile, nil
}

// ProfileNames lists configured profiles in sorted order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
