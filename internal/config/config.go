package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration for the API process.
type Config struct {
	Port    string        `yaml:"port"`
	Env     string        `yaml:"env"`
	LogMode string        `yaml:"log_mode"`
	Probe   ProbeConfig   `yaml:"probe"`
	Enrich  EnrichConfig  `yaml:"enrich"`
	LLM     LLMConfig     `yaml:"llm"`
	Store   StoreConfig   `yaml:"store"`
	Cache   CacheConfig   `yaml:"cache"`
	Tracing TracingConfig `yaml:"tracing"`
	Server  ServerConfig  `yaml:"server"`
}

type ProbeConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	GitHubToken string        `yaml:"github_token"`
	UserAgent   string        `yaml:"user_agent"`
}

type EnrichConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// LLMConfig picks the verdict model. Provider "auto" uses Gemini when
// APIKey is set, then Groq when GroqAPIKey is set, then the offline fake.
type LLMConfig struct {
	Provider      string        `yaml:"provider"` // auto|gemini|groq|fake
	APIKey        string        `yaml:"api_key"`
	Model         string        `yaml:"model"`
	GroqAPIKey    string        `yaml:"groq_api_key"`
	GroqModel     string        `yaml:"groq_model"`
	Timeout       time.Duration `yaml:"timeout"`
	RPS           float64       `yaml:"rps"`
	Burst         int           `yaml:"burst"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryBase     time.Duration `yaml:"retry_base"`
}

// StoreConfig selects the verdict store backend and carries its settings.
type StoreConfig struct {
	Backend     string         `yaml:"backend"` // postgres|sqlite|redis|s3|bolt|memory
	DatabaseURL string         `yaml:"database_url"`
	SQLitePath  string         `yaml:"sqlite_path"`
	RedisAddr   string         `yaml:"redis_addr"`
	RedisDB     int            `yaml:"redis_db"`
	BoltPath    string         `yaml:"bolt_path"`
	Artifact    ArtifactConfig `yaml:"artifact"`
}

type ArtifactConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type CacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

type TracingConfig struct {
	Exporter string `yaml:"exporter"` // "" or "stdout"
}

// ServerConfig limits how fast clients may start checks. CheckRPS of zero
// disables the limiter.
type ServerConfig struct {
	CheckRPS   float64 `yaml:"check_rps"`
	CheckBurst int     `yaml:"check_burst"`
}

var backends = map[string]bool{
	"postgres": true,
	"sqlite":   true,
	"redis":    true,
	"s3":       true,
	"bolt":     true,
	"memory":   true,
}

func Default() Config {
	return Config{
		Port:    ":8080",
		Env:     "local",
		LogMode: "dev",
		Probe: ProbeConfig{
			Timeout:   8 * time.Second,
			UserAgent: "Mozilla/5.0 (compatible; Onomast/1.0; +https://onomast.app)",
		},
		Enrich: EnrichConfig{Timeout: 10 * time.Second},
		LLM: LLMConfig{
			Provider:      "auto",
			Model:         "gemini-2.5-flash",
			GroqModel:     "llama-3.3-70b-versatile",
			Timeout:       30 * time.Second,
			RPS:           2,
			Burst:         2,
			RetryAttempts: 2,
			RetryBase:     300 * time.Millisecond,
		},
		Store: StoreConfig{
			Backend:    "memory",
			SQLitePath: "onomast.db",
			RedisAddr:  "localhost:6379",
			BoltPath:   "onomast.bolt",
			Artifact: ArtifactConfig{
				Region: "us-east-1",
				Bucket: "onomast-verdicts",
			},
		},
		Cache: CacheConfig{
			Size: 1024,
			TTL:  10 * time.Minute,
		},
		Server: ServerConfig{CheckBurst: 5},
	}
}

// Load reads .env (if present), then the YAML file at path (missing file
// means defaults), then environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal([]byte(interpolateEnvVars(string(data))), &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if !backends[c.Store.Backend] {
		return fmt.Errorf("config: unknown verdict store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == "postgres" && strings.TrimSpace(c.Store.DatabaseURL) == "" {
		return fmt.Errorf("config: database_url is required for postgres backend")
	}
	if err := c.LLM.resolveProvider(); err != nil {
		return err
	}
	if c.Probe.Timeout <= 0 || c.LLM.Timeout <= 0 || c.Enrich.Timeout <= 0 {
		return fmt.Errorf("config: timeouts must be positive")
	}
	if !strings.HasPrefix(c.Port, ":") {
		c.Port = ":" + c.Port
	}
	return nil
}

func (l *LLMConfig) resolveProvider() error {
	l.Provider = strings.ToLower(strings.TrimSpace(l.Provider))
	switch l.Provider {
	case "", "auto":
		switch {
		case strings.TrimSpace(l.APIKey) != "":
			l.Provider = "gemini"
		case strings.TrimSpace(l.GroqAPIKey) != "":
			l.Provider = "groq"
		default:
			l.Provider = "fake"
		}
	case "gemini":
		if strings.TrimSpace(l.APIKey) == "" {
			return fmt.Errorf("config: gemini provider needs GEMINI_API_KEY")
		}
	case "groq":
		if strings.TrimSpace(l.GroqAPIKey) == "" {
			return fmt.Errorf("config: groq provider needs GROQ_API_KEY")
		}
	case "fake":
	default:
		return fmt.Errorf("config: unknown llm provider %q", l.Provider)
	}
	return nil
}

// VerdictModel is the model identifier that goes into every verdict digest.
// Each provider gets its own cache namespace, and the offline fake never
// shares one with a real model.
func (l LLMConfig) VerdictModel() string {
	switch l.Provider {
	case "groq":
		return l.GroqModel
	case "fake":
		return "fake"
	}
	return l.Model
}

func applyEnv(c *Config) error {
	if v := envString("PORT"); v != "" {
		c.Port = v
	}
	c.Env = firstNonEmpty(envString("APP_ENV"), c.Env)
	c.LogMode = firstNonEmpty(envString("LOG_MODE"), c.LogMode)

	c.Probe.GitHubToken = firstNonEmpty(envString("GITHUB_TOKEN"), c.Probe.GitHubToken)
	c.LLM.APIKey = firstNonEmpty(envString("GEMINI_API_KEY"), envString("GOOGLE_API_KEY"), c.LLM.APIKey)
	c.LLM.Model = firstNonEmpty(envString("GEMINI_MODEL"), c.LLM.Model)
	c.LLM.Provider = firstNonEmpty(envString("LLM_PROVIDER"), c.LLM.Provider)
	c.LLM.GroqAPIKey = firstNonEmpty(envString("GROQ_API_KEY"), c.LLM.GroqAPIKey)
	c.LLM.GroqModel = firstNonEmpty(envString("GROQ_MODEL"), c.LLM.GroqModel)

	c.Store.Backend = firstNonEmpty(envString("VERDICT_STORE"), c.Store.Backend)
	c.Store.DatabaseURL = firstNonEmpty(envString("DATABASE_URL"), c.Store.DatabaseURL)
	c.Store.SQLitePath = firstNonEmpty(envString("SQLITE_PATH"), c.Store.SQLitePath)
	c.Store.RedisAddr = firstNonEmpty(envString("REDIS_ADDR"), c.Store.RedisAddr)
	c.Store.BoltPath = firstNonEmpty(envString("BOLT_PATH"), c.Store.BoltPath)

	a := &c.Store.Artifact
	a.Endpoint = firstNonEmpty(envString("ARTIFACT_S3_ENDPOINT"), a.Endpoint)
	a.Region = firstNonEmpty(envString("ARTIFACT_S3_REGION"), a.Region)
	a.AccessKey = firstNonEmpty(envString("ARTIFACT_S3_ACCESS_KEY"), envString("MINIO_ROOT_USER"), a.AccessKey)
	a.SecretKey = firstNonEmpty(envString("ARTIFACT_S3_SECRET_KEY"), envString("MINIO_ROOT_PASSWORD"), a.SecretKey)
	a.Bucket = firstNonEmpty(envString("ARTIFACT_S3_BUCKET"), a.Bucket)
	if raw := envString("ARTIFACT_S3_USE_SSL"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("config: ARTIFACT_S3_USE_SSL: %w", err)
		}
		a.UseSSL = b
	}

	c.Tracing.Exporter = firstNonEmpty(envString("OTEL_EXPORTER"), c.Tracing.Exporter)

	var err error
	if c.Probe.Timeout, err = envDuration("PROBE_TIMEOUT", c.Probe.Timeout); err != nil {
		return err
	}
	if c.LLM.Timeout, err = envDuration("GENERATE_TIMEOUT", c.LLM.Timeout); err != nil {
		return err
	}
	if raw := envString("LLM_RPS"); raw != "" {
		f, perr := strconv.ParseFloat(raw, 64)
		if perr != nil {
			return fmt.Errorf("config: LLM_RPS: %w", perr)
		}
		c.LLM.RPS = f
	}
	if raw := envString("CHECK_RPS"); raw != "" {
		f, perr := strconv.ParseFloat(raw, 64)
		if perr != nil {
			return fmt.Errorf("config: CHECK_RPS: %w", perr)
		}
		c.Server.CheckRPS = f
	}
	if raw := envString("LLM_BURST"); raw != "" {
		n, perr := strconv.Atoi(raw)
		if perr != nil {
			return fmt.Errorf("config: LLM_BURST: %w", perr)
		}
		c.LLM.Burst = n
	}
	return nil
}

func envString(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := envString(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// interpolateEnvVars replaces ${VAR} with its value; unset variables are left as-is.
func interpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
