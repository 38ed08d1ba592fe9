package config

import (
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port" default:"8080"`
		Host         string        `yaml:"host" default:"0.0.0.0"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
		IdleTimeout  time.Duration `yaml:"idle_timeout" default:"60s"`
	} `yaml:"server"`

	Workers struct {
		PoolSize  int           `yaml:"pool_size" default:"4"`
		QueueSize int           `yaml:"queue_size" default:"50"`
		RateLimit int           `yaml:"rate_limit" default:"60"` // requests per minute per domain
		Timeout   time.Duration `yaml:"timeout" default:"300s"`
	} `yaml:"workers"`

	Scraper struct {
		UserAgent      string        `yaml:"user_agent"`
		DefaultEngine  string        `yaml:"default_engine" default:"headed"`
		RequestTimeout time.Duration `yaml:"request_timeout" default:"30s"`
		HeadlessMode   bool          `yaml:"headless_mode" default:"true"`
		StealthMode    bool          `yaml:"stealth_mode" default:"true"`
	} `yaml:"scraper"`

	Walker struct {
		PageSize     int           `yaml:"page_size" default:"30"`
		MaxPages     int           `yaml:"max_pages" default:"5"`
		DelayMin     time.Duration `yaml:"delay_min" default:"500ms"`
		DelayMax     time.Duration `yaml:"delay_max" default:"1700ms"`
		DisableDelay bool          `yaml:"disable_delay" default:"false"`
	} `yaml:"walker"`

	Enrich struct {
		Concurrency  int           `yaml:"concurrency" default:"4"`
		ItemTimeout  time.Duration `yaml:"item_timeout" default:"20s"`
		RetryBackoff time.Duration `yaml:"retry_backoff" default:"2s"`
	} `yaml:"enrich"`

	BrowserPool struct {
		MaxInstances       int           `yaml:"max_instances" default:"5"`
		AcquisitionTimeout time.Duration `yaml:"acquisition_timeout" default:"30s"`
	} `yaml:"browser_pool"`

	Cache struct {
		TTL             time.Duration `yaml:"ttl" default:"10m"`
		CleanupInterval time.Duration `yaml:"cleanup_interval" default:"5m"`
	} `yaml:"cache"`

	Jobs struct {
		TTL       time.Duration `yaml:"ttl" default:"1h"`
		QueueSize int           `yaml:"queue_size" default:"100"`
	} `yaml:"jobs"`

	Firecrawl struct {
		APIKey     string        `yaml:"api_key"`
		APIURL     string        `yaml:"api_url" default:"https://api.firecrawl.dev"`
		Timeout    time.Duration `yaml:"timeout" default:"60s"`
		MaxRetries int           `yaml:"max_retries" default:"3"`
	} `yaml:"firecrawl"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`

		Adapters []struct {
			Name    string                 `yaml:"name"`
			Type    string                 `yaml:"type"`
			Enabled bool                   `yaml:"enabled"`
			Options map[string]interface{} `yaml:"options"`
		} `yaml:"adapters"`
	} `yaml:"logging"`

	Redis struct {
		URL      string        `yaml:"url" default:"redis://localhost:6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db" default:"0"`
		Timeout  time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"redis"`
}

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return s
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := &Config{}

	// Set defaults
	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.IdleTimeout = 60 * time.Second

	config.Workers.PoolSize = 4
	config.Workers.QueueSize = 50
	config.Workers.RateLimit = 60
	config.Workers.Timeout = 300 * time.Second

	config.Scraper.DefaultEngine = "headed"
	config.Scraper.RequestTimeout = 30 * time.Second
	config.Scraper.HeadlessMode = true
	config.Scraper.StealthMode = true
	config.Scraper.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	config.Walker.PageSize = 30
	config.Walker.MaxPages = 5
	config.Walker.DelayMin = 500 * time.Millisecond
	config.Walker.DelayMax = 1700 * time.Millisecond

	config.Enrich.Concurrency = 4
	config.Enrich.ItemTimeout = 20 * time.Second
	config.Enrich.RetryBackoff = 2 * time.Second

	config.BrowserPool.MaxInstances = 5
	config.BrowserPool.AcquisitionTimeout = 30 * time.Second

	config.Cache.TTL = 10 * time.Minute
	config.Cache.CleanupInterval = 5 * time.Minute

	config.Jobs.TTL = 1 * time.Hour
	config.Jobs.QueueSize = 100

	config.Firecrawl.APIURL = "https://api.firecrawl.dev"
	config.Firecrawl.Timeout = 60 * time.Second
	config.Firecrawl.MaxRetries = 3

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.Output = "stdout"

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.DB = 0
	config.Redis.Timeout = 5 * time.Second

	// Load from YAML file if it exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			// Expand environment variables in the YAML content
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, err
			}
		}
	}

	// Override with environment variables
	config.loadFromEnv()

	return config, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	if engine := os.Getenv("SCRAPER_DEFAULT_ENGINE"); engine != "" {
		c.Scraper.DefaultEngine = engine
	}

	if userAgent := os.Getenv("SCRAPER_USER_AGENT"); userAgent != "" {
		c.Scraper.UserAgent = userAgent
	}

	if timeout := os.Getenv("SCRAPER_REQUEST_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Scraper.RequestTimeout = d
		}
	}

	if poolSize := os.Getenv("WORKER_POOL_SIZE"); poolSize != "" {
		if n, err := strconv.Atoi(poolSize); err == nil {
			c.Workers.PoolSize = n
		}
	}

	if pageSize := os.Getenv("WALKER_PAGE_SIZE"); pageSize != "" {
		if n, err := strconv.Atoi(pageSize); err == nil {
			c.Walker.PageSize = n
		}
	}

	if maxPages := os.Getenv("WALKER_MAX_PAGES"); maxPages != "" {
		if n, err := strconv.Atoi(maxPages); err == nil {
			c.Walker.MaxPages = n
		}
	}

	if disableDelay := os.Getenv("WALKER_DISABLE_DELAY"); disableDelay != "" {
		c.Walker.DisableDelay = disableDelay == "true" || disableDelay == "1"
	}

	if concurrency := os.Getenv("ENRICH_CONCURRENCY"); concurrency != "" {
		if n, err := strconv.Atoi(concurrency); err == nil {
			c.Enrich.Concurrency = n
		}
	}

	if itemTimeout := os.Getenv("ENRICH_ITEM_TIMEOUT"); itemTimeout != "" {
		if d, err := time.ParseDuration(itemTimeout); err == nil {
			c.Enrich.ItemTimeout = d
		}
	}

	if cacheTTL := os.Getenv("CACHE_TTL"); cacheTTL != "" {
		if d, err := time.ParseDuration(cacheTTL); err == nil {
			c.Cache.TTL = d
		}
	}

	if jobTTL := os.Getenv("JOB_TTL"); jobTTL != "" {
		if d, err := time.ParseDuration(jobTTL); err == nil {
			c.Jobs.TTL = d
		}
	}

	if firecrawlAPIKey := os.Getenv("FIRECRAWL_API_KEY"); firecrawlAPIKey != "" {
		c.Firecrawl.APIKey = firecrawlAPIKey
	}

	if firecrawlAPIURL := os.Getenv("FIRECRAWL_API_URL"); firecrawlAPIURL != "" {
		c.Firecrawl.APIURL = firecrawlAPIURL
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if redisTimeout := os.Getenv("REDIS_TIMEOUT"); redisTimeout != "" {
		if timeout, err := time.ParseDuration(redisTimeout); err == nil {
			c.Redis.Timeout = timeout
		}
	}

	if maxInstances := os.Getenv("BROWSER_POOL_MAX_INSTANCES"); maxInstances != "" {
		if instances, err := strconv.Atoi(maxInstances); err == nil {
			c.BrowserPool.MaxInstances = instances
		}
	}

	if acquisitionTimeout := os.Getenv("BROWSER_POOL_ACQUISITION_TIMEOUT"); acquisitionTimeout != "" {
		if duration, err := time.ParseDuration(acquisitionTimeout); err == nil {
			c.BrowserPool.AcquisitionTimeout = duration
		}
	}
}
