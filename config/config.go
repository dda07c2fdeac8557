package config

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/zjx20/gemini-relay/gemini"
)

const (
	BackendREST = "rest"
	BackendSDK  = "sdk"
)

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Backend string

	UpstreamTimeout      time.Duration
	UpstreamPingInterval time.Duration

	// EmptyText is returned to the caller when upstream produced no text.
	EmptyText string

	// Password, when set, must be passed as the "pass" query parameter.
	Password string

	LogLevel   log.Level
	IsDebug    bool
	ListenAddr string
}

var (
	current   atomic.Pointer[Config]
	initOnce  sync.Once
	cbMu      sync.Mutex
	callbacks []func()
)

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("gemini_model", "gemini-2.0-flash")
	v.SetDefault("gemini_base_url", gemini.DefaultBaseURL)
	v.SetDefault("gemini_backend", BackendREST)
	v.SetDefault("upstream_timeout", "60s")
	v.SetDefault("upstream_ping_interval", "15s")
	v.SetDefault("empty_text", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("debug", false)
	v.SetDefault("listen_addr", ":7458")
	return v
}

func fromViper(v *viper.Viper) *Config {
	level, err := log.ParseLevel(v.GetString("log_level"))
	if err != nil {
		log.Warnf("bad log level %q, fallback to info", v.GetString("log_level"))
		level = log.InfoLevel
	}
	backend := v.GetString("gemini_backend")
	if backend != BackendSDK {
		backend = BackendREST
	}
	return &Config{
		APIKey:               v.GetString("gemini_api_key"),
		Model:                v.GetString("gemini_model"),
		BaseURL:              v.GetString("gemini_base_url"),
		Backend:              backend,
		UpstreamTimeout:      v.GetDuration("upstream_timeout"),
		UpstreamPingInterval: v.GetDuration("upstream_ping_interval"),
		EmptyText:            v.GetString("empty_text"),
		Password:             v.GetString("password"),
		LogLevel:             level,
		IsDebug:              v.GetBool("debug"),
		ListenAddr:           v.GetString("listen_addr"),
	}
}

// Load reads the configuration from the environment (and a .env file in
// the working directory, if any) without touching the global snapshot.
func Load() (*Config, error) {
	_ = godotenv.Load()
	v := newViper()
	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	return fromViper(v), nil
}

// Init loads the configuration into the global snapshot. When CONFIG_FILE is
// set, the file is watched and every change replaces the snapshot and fires
// the registered callbacks. Init is idempotent.
func Init() {
	initOnce.Do(func() {
		_ = godotenv.Load()
		v := newViper()
		if file := v.GetString("config_file"); file != "" {
			v.SetConfigFile(file)
			if err := v.ReadInConfig(); err != nil {
				log.Errorf("read config file %s: %s", file, err)
			} else {
				v.OnConfigChange(func(e fsnotify.Event) {
					log.Infof("config file changed: %s", e.Name)
					store(fromViper(v))
				})
				v.WatchConfig()
			}
		}
		store(fromViper(v))
	})
}

func store(cfg *Config) {
	current.Store(cfg)
	cbMu.Lock()
	cbs := append([]func(){}, callbacks...)
	cbMu.Unlock()
	for _, cb := range cbs {
		cb()
	}
}

// ReadConfig returns the current snapshot. The returned value must not be
// modified.
func ReadConfig() *Config {
	if cfg := current.Load(); cfg != nil {
		return cfg
	}
	Init()
	return current.Load()
}

func GetIsDebug() bool {
	return ReadConfig().IsDebug
}

func GetLogLevel() log.Level {
	return ReadConfig().LogLevel
}

func AddConfigChangeCallback(cb func()) {
	cbMu.Lock()
	defer cbMu.Unlock()
	callbacks = append(callbacks, cb)
}
