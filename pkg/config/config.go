/*
Package config turns the viper settings into one immutable Config value that is
built once at start-up and handed to every component that needs it.
*/
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	AuthModeToken = "token"
	AuthModeJWT   = "jwt"

	BackendHTTP    = "http"
	BackendBrowser = "browser"
)

var (
	ErrMissingToken  = errors.New("AUTH_TOKEN is not set")
	ErrMissingNumber = errors.New("MY_NUMBER is not set")
)

/*
Config holds every setting the server reads. Fields are only written by Load.
*/
type Config struct {
	Auth   Auth
	Server Server
	Fetch  Fetch
	Search Search
	Resume Resume
	Log    Log
}

type Auth struct {
	Token     string
	Number    string
	Mode      string
	PublicKey string
	Issuer    string
	Audience  string
}

type Server struct {
	Host string
	Port int
}

// Addr is the host:port pair the HTTP listener binds to.
func (s Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type Fetch struct {
	UserAgent string
	Timeout   time.Duration
	Backend   string
}

type Search struct {
	Endpoint   string
	MaxResults int
}

/*
Resume configures the model behind the resume tools. They are only served
when APIKey is set.
*/
type Resume struct {
	APIKey  string
	Model   string
	BaseURL string
}

func (r Resume) Enabled() bool {
	return r.APIKey != ""
}

type Log struct {
	Level string
}

/*
SetDefaults registers the default value and environment binding of every key.
*/
func SetDefaults(v *viper.Viper) {
	v.SetDefault("auth.mode", AuthModeToken)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8086)
	v.SetDefault("fetch.user_agent", "Puch/1.0 (Autonomous)")
	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.backend", BackendHTTP)
	v.SetDefault("search.endpoint", "https://html.duckduckgo.com/html/")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("resume.model", "gemini-2.5-flash")
	v.SetDefault("log.level", "info")

	_ = v.BindEnv("auth.token", "AUTH_TOKEN")
	_ = v.BindEnv("auth.number", "MY_NUMBER")
	_ = v.BindEnv("auth.mode", "AUTH_MODE")
	_ = v.BindEnv("auth.public_key", "AUTH_PUBLIC_KEY")
	_ = v.BindEnv("resume.api_key", "GEMINI_API_KEY")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}

/*
Load reads v into a Config. A missing secret or caller number is an error,
as is any setting that is out of range.
*/
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Auth: Auth{
			Token:     v.GetString("auth.token"),
			Number:    v.GetString("auth.number"),
			Mode:      strings.ToLower(v.GetString("auth.mode")),
			PublicKey: v.GetString("auth.public_key"),
			Issuer:    v.GetString("auth.issuer"),
			Audience:  v.GetString("auth.audience"),
		},
		Server: Server{
			Host: v.GetString("server.host"),
			Port: v.GetInt("server.port"),
		},
		Fetch: Fetch{
			UserAgent: v.GetString("fetch.user_agent"),
			Timeout:   v.GetDuration("fetch.timeout"),
			Backend:   strings.ToLower(v.GetString("fetch.backend")),
		},
		Search: Search{
			Endpoint:   v.GetString("search.endpoint"),
			MaxResults: v.GetInt("search.max_results"),
		},
		Resume: Resume{
			APIKey:  v.GetString("resume.api_key"),
			Model:   v.GetString("resume.model"),
			BaseURL: v.GetString("resume.base_url"),
		},
		Log: Log{
			Level: v.GetString("log.level"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.Auth.Token == "" {
		return ErrMissingToken
	}

	if cfg.Auth.Number == "" {
		return ErrMissingNumber
	}

	switch cfg.Auth.Mode {
	case AuthModeToken:
	case AuthModeJWT:
		if cfg.Auth.PublicKey == "" {
			return fmt.Errorf("auth.public_key is required in %s mode", AuthModeJWT)
		}
	default:
		return fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}

	switch cfg.Fetch.Backend {
	case BackendHTTP, BackendBrowser:
	default:
		return fmt.Errorf("unknown fetch backend %q", cfg.Fetch.Backend)
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}

	if cfg.Fetch.Timeout <= 0 {
		return fmt.Errorf("invalid fetch timeout %s", cfg.Fetch.Timeout)
	}

	if cfg.Search.MaxResults <= 0 {
		return fmt.Errorf("invalid search.max_results %d", cfg.Search.MaxResults)
	}

	return nil
}
