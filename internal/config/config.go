package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	FallbackOnRateLimit = "rate_limit"
	FallbackOnAny       = "any"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	APIGemini = "gemini"
	APIOpenAI = "openai-completions"
)

type Config struct {
	Assistant AssistantConfig `yaml:"assistant"`
	Monitors  MonitorsConfig  `yaml:"monitors"`
	Search    SearchConfig    `yaml:"search"`
	Social    SocialConfig    `yaml:"social"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Server    ServerConfig    `yaml:"server"`
	State     StateConfig     `yaml:"state"`
	Log       LogConfig       `yaml:"log"`
}

type AssistantConfig struct {
	SystemInstruction string        `yaml:"system_instruction"`
	Primary           BackendConfig `yaml:"primary"`
	Fallback          BackendConfig `yaml:"fallback"`
	// FallbackOn is "rate_limit" (default) or "any".
	FallbackOn string `yaml:"fallback_on"`
	// CapabilityTimeout bounds a single capability execution ("" = no limit).
	CapabilityTimeout string `yaml:"capability_timeout"`
	MaxParallelCalls  int    `yaml:"max_parallel_calls"`
}

type BackendConfig struct {
	Name string `yaml:"name"`
	// API selects the wire format: "gemini" or "openai-completions".
	API     string `yaml:"api"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type MonitorsConfig struct {
	GitHub GitHubConfig `yaml:"github"`
	Vercel VercelConfig `yaml:"vercel"`
	Render RenderConfig `yaml:"render"`
}

type GitHubConfig struct {
	Username string `yaml:"username"`
	Token    string `yaml:"token"`
	BaseURL  string `yaml:"base_url"`
}

type VercelConfig struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
}

type RenderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type SearchConfig struct {
	SerperAPIKey string `yaml:"serper_api_key"`
	BaseURL      string `yaml:"base_url"`
}

type SocialConfig struct {
	LinkedIn LinkedInConfig `yaml:"linkedin"`
	Twitter  TwitterConfig  `yaml:"twitter"`
}

type LinkedInConfig struct {
	AccessToken string `yaml:"access_token"`
	PersonURN   string `yaml:"person_urn"`
	BaseURL     string `yaml:"base_url"`
}

type TwitterConfig struct {
	APIKey       string `yaml:"api_key"`
	APISecret    string `yaml:"api_secret"`
	AccessToken  string `yaml:"access_token"`
	AccessSecret string `yaml:"access_secret"`
	BaseURL      string `yaml:"base_url"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
	BaseURL  string `yaml:"base_url"`
}

type SchedulerConfig struct {
	Cycle     string `yaml:"cycle"`
	KeepAlive string `yaml:"keepalive"`
	SelfURL   string `yaml:"self_url"`
	Timezone  string `yaml:"timezone"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type StateConfig struct {
	Driver   string `yaml:"driver"`
	DataDir  string `yaml:"data_dir"`
	DSN      string `yaml:"dsn"`
	RedisURL string `yaml:"redis_url"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const DefaultSystemInstruction = `You are OpenClaw, a personal dev assistant agent.
You help the user monitor their dev infrastructure, research prices, compare services, draft social content, and answer questions.
Always be concise since you reply via Telegram.
Use the available tools to fetch real-time data when needed.
If you need to search the web, use the web_search tool.
If you need to check dev activity, use the appropriate monitor tools.`

var envPattern = regexp.MustCompile(`\$\{([^}]+)}`)

func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// Load reads the YAML file at path. An empty path yields a config built
// from the environment and defaults alone.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	cfg.expandEnv()
	cfg.applyEnvDefaults()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandEnv resolves ${VAR} references in every string field that may carry a secret or URL.
func (c *Config) expandEnv() {
	for _, p := range c.stringFields() {
		*p = expandEnv(*p)
	}
}

func (c *Config) stringFields() []*string {
	return []*string{
		&c.Assistant.SystemInstruction,
		&c.Assistant.Primary.APIKey, &c.Assistant.Primary.Model, &c.Assistant.Primary.BaseURL,
		&c.Assistant.Fallback.APIKey, &c.Assistant.Fallback.Model, &c.Assistant.Fallback.BaseURL,
		&c.Monitors.GitHub.Username, &c.Monitors.GitHub.Token, &c.Monitors.GitHub.BaseURL,
		&c.Monitors.Vercel.Token, &c.Monitors.Vercel.BaseURL,
		&c.Monitors.Render.APIKey, &c.Monitors.Render.BaseURL,
		&c.Search.SerperAPIKey, &c.Search.BaseURL,
		&c.Social.LinkedIn.AccessToken, &c.Social.LinkedIn.PersonURN, &c.Social.LinkedIn.BaseURL,
		&c.Social.Twitter.APIKey, &c.Social.Twitter.APISecret,
		&c.Social.Twitter.AccessToken, &c.Social.Twitter.AccessSecret, &c.Social.Twitter.BaseURL,
		&c.Telegram.BotToken, &c.Telegram.ChatID, &c.Telegram.BaseURL,
		&c.Scheduler.SelfURL,
		&c.Server.Addr,
		&c.State.DataDir, &c.State.DSN, &c.State.RedisURL,
	}
}

// applyEnvDefaults fills fields left empty by the file from the well-known
// environment variables the agent has always been deployed with.
func (c *Config) applyEnvDefaults() {
	envs := []struct {
		dst *string
		key string
	}{
		{&c.Assistant.Primary.APIKey, "GOOGLE_API_KEY"},
		{&c.Assistant.Fallback.APIKey, "GROQ_API_KEY"},
		{&c.Monitors.GitHub.Username, "GITHUB_USERNAME"},
		{&c.Monitors.GitHub.Token, "GITHUB_TOKEN"},
		{&c.Monitors.Vercel.Token, "VERCEL_TOKEN"},
		{&c.Monitors.Render.APIKey, "RENDER_API_KEY"},
		{&c.Search.SerperAPIKey, "SERPER_API_KEY"},
		{&c.Social.LinkedIn.AccessToken, "LINKEDIN_ACCESS_TOKEN"},
		{&c.Social.LinkedIn.PersonURN, "LINKEDIN_PERSON_URN"},
		{&c.Social.Twitter.APIKey, "TWITTER_API_KEY"},
		{&c.Social.Twitter.APISecret, "TWITTER_API_SECRET"},
		{&c.Social.Twitter.AccessToken, "TWITTER_ACCESS_TOKEN"},
		{&c.Social.Twitter.AccessSecret, "TWITTER_ACCESS_SECRET"},
		{&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN"},
		{&c.Telegram.ChatID, "TELEGRAM_CHAT_ID"},
		{&c.Scheduler.SelfURL, "RENDER_URL"},
		{&c.State.DSN, "DATABASE_URL"},
		{&c.State.RedisURL, "REDIS_URL"},
	}
	for _, e := range envs {
		if *e.dst != "" {
			continue
		}
		if v, ok := os.LookupEnv(e.key); ok {
			*e.dst = v
		}
	}
	if c.Server.Addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			c.Server.Addr = ":" + port
		}
	}
}

func (c *Config) applyDefaults() {
	a := &c.Assistant
	if a.SystemInstruction == "" {
		a.SystemInstruction = DefaultSystemInstruction
	}
	if a.Primary.Name == "" {
		a.Primary.Name = "Gemini"
	}
	if a.Primary.API == "" {
		a.Primary.API = APIGemini
	}
	if a.Primary.Model == "" {
		a.Primary.Model = "gemini-2.0-flash"
	}
	if a.Fallback.Name == "" {
		a.Fallback.Name = "Groq"
	}
	if a.Fallback.API == "" {
		a.Fallback.API = APIOpenAI
	}
	if a.Fallback.Model == "" {
		a.Fallback.Model = "openai/gpt-oss-20b"
	}
	if a.Fallback.BaseURL == "" {
		a.Fallback.BaseURL = "https://api.groq.com/openai/v1"
	}
	if a.FallbackOn == "" {
		a.FallbackOn = FallbackOnRateLimit
	}
	if a.MaxParallelCalls <= 0 {
		a.MaxParallelCalls = 4
	}
	if c.Scheduler.Cycle == "" {
		c.Scheduler.Cycle = "0 18 * * *"
	}
	if c.Scheduler.KeepAlive == "" {
		c.Scheduler.KeepAlive = "*/14 * * * *"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.State.Driver == "" {
		c.State.Driver = DriverSQLite
	}
	if c.State.DataDir == "" {
		c.State.DataDir = "./data"
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Assistant.FallbackOn {
	case FallbackOnRateLimit, FallbackOnAny:
	default:
		return fmt.Errorf("assistant.fallback_on %q: expected %s or %s",
			c.Assistant.FallbackOn, FallbackOnRateLimit, FallbackOnAny)
	}
	for name, b := range map[string]BackendConfig{
		"assistant.primary":  c.Assistant.Primary,
		"assistant.fallback": c.Assistant.Fallback,
	} {
		if b.API != APIGemini && b.API != APIOpenAI {
			return fmt.Errorf("%s.api %q: expected %s or %s", name, b.API, APIGemini, APIOpenAI)
		}
	}
	if _, err := c.Assistant.Timeout(); err != nil {
		return err
	}
	if c.Scheduler.Timezone != "" {
		if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
			return fmt.Errorf("scheduler.timezone %q: %w", c.Scheduler.Timezone, err)
		}
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range map[string]string{
		"scheduler.cycle":     c.Scheduler.Cycle,
		"scheduler.keepalive": c.Scheduler.KeepAlive,
	} {
		if strings.EqualFold(spec, "off") {
			continue
		}
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s %q: %w", name, spec, err)
		}
	}
	switch c.State.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.State.DSN == "" {
			return fmt.Errorf("state.dsn is required for driver %q", DriverPostgres)
		}
	default:
		return fmt.Errorf("state.driver %q: expected %s or %s", c.State.Driver, DriverSQLite, DriverPostgres)
	}
	return nil
}

// Timeout returns the per-capability execution limit; zero means unbounded.
func (a AssistantConfig) Timeout() (time.Duration, error) {
	if a.CapabilityTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.CapabilityTimeout)
	if err != nil {
		return 0, fmt.Errorf("assistant.capability_timeout %q: %w", a.CapabilityTimeout, err)
	}
	return d, nil
}

// Location returns the scheduler time zone, defaulting to the local zone.
func (s SchedulerConfig) Location() *time.Location {
	if s.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
