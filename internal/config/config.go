package config

import (
	"time"

	"github.com/namsral/flag"
	log "github.com/sirupsen/logrus"
)

// Config stores all the config options relevant to tiny-pages.
type Config struct {
	General   General
	Script    Script
	RateLimit RateLimit
	Listeners Listeners
	Server    Server
	Log       Log
	Sentry    Sentry
}

// General groups settings that are general to tiny-pages and can not
// be categorized under other head.
type General struct {
	RootDir        string
	ConfineToRoot  bool
	StatusPath     string
	MetricsAddress string
	MaxConns       int
	MaxURILength   int
	HTTP2          bool

	DisableCrossOriginRequests bool
	PropagateCorrelationID     bool

	ShowVersion bool

	CustomHeaders []string
}

// Script groups settings related to running scripts
type Script struct {
	Interpreter string
	Extensions  []string
	Timeout     time.Duration
}

// RateLimit config struct
type RateLimit struct {
	SourceIPLimitPerSecond float64
	SourceIPBurst          int
}

// Listeners groups the addresses the server listens on
type Listeners struct {
	HTTP    []string
	Proxyv2 []string
}

// Server groups the net/http server settings
type Server struct {
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	ListenKeepAlive   time.Duration
	ShutdownTimeout   time.Duration
}

// Log groups settings related to configuring logging
type Log struct {
	Format  string
	Verbose bool
}

// Sentry groups settings related to configuring Sentry
type Sentry struct {
	DSN         string
	Environment string
}

func loadConfig() (*Config, error) {
	config := &Config{
		General: General{
			RootDir:                    *rootDir,
			ConfineToRoot:              *confineToRoot,
			StatusPath:                 *statusPath,
			MetricsAddress:             *metricsAddress,
			MaxConns:                   *maxConns,
			MaxURILength:               *maxURILength,
			HTTP2:                      *useHTTP2,
			DisableCrossOriginRequests: *disableCrossOriginRequests,
			PropagateCorrelationID:     *propagateCorrelationID,
			ShowVersion:                *showVersion,
			CustomHeaders:              header.Split(),
		},
		Script: Script{
			Interpreter: *scriptInterpreter,
			Extensions:  scriptExtensions.Split(),
			Timeout:     *scriptTimeout,
		},
		RateLimit: RateLimit{
			SourceIPLimitPerSecond: *rateLimitSourceIP,
			SourceIPBurst:          *rateLimitSourceIPBurst,
		},
		Listeners: Listeners{
			HTTP:    listenHTTP.Split(),
			Proxyv2: listenProxyv2.Split(),
		},
		Server: Server{
			ReadTimeout:       *serverReadTimeout,
			ReadHeaderTimeout: *serverReadHeaderTimeout,
			WriteTimeout:      *serverWriteTimeout,
			ListenKeepAlive:   *serverKeepAlive,
			ShutdownTimeout:   *serverShutdownTimeout,
		},
		Log: Log{
			Format:  *logFormat,
			Verbose: *logVerbose,
		},
		Sentry: Sentry{
			DSN:         *sentryDSN,
			Environment: *sentryEnvironment,
		},
	}

	// -version must work without any other setting
	if config.General.ShowVersion {
		return config, nil
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LogConfig logs the effective configuration at debug level
func LogConfig(config *Config) {
	log.WithFields(log.Fields{
		"default-config-filename":       flag.DefaultConfigFlagname,
		"root-dir":                      config.General.RootDir,
		"confine-to-root":               config.General.ConfineToRoot,
		"status-path":                   config.General.StatusPath,
		"metrics-address":               config.General.MetricsAddress,
		"max-conns":                     config.General.MaxConns,
		"max-uri-length":                config.General.MaxURILength,
		"use-http2":                     config.General.HTTP2,
		"disable-cross-origin-requests": config.General.DisableCrossOriginRequests,
		"propagate-correlation-id":      config.General.PropagateCorrelationID,
		"listen-http":                   config.Listeners.HTTP,
		"listen-proxyv2":                config.Listeners.Proxyv2,
		"script-interpreter":            config.Script.Interpreter,
		"script-extension":              config.Script.Extensions,
		"script-timeout":                config.Script.Timeout,
		"rate-limit-source-ip":          config.RateLimit.SourceIPLimitPerSecond,
		"rate-limit-source-ip-burst":    config.RateLimit.SourceIPBurst,
		"server-read-timeout":           config.Server.ReadTimeout,
		"server-read-header-timeout":    config.Server.ReadHeaderTimeout,
		"server-write-timeout":          config.Server.WriteTimeout,
		"server-keep-alive":             config.Server.ListenKeepAlive,
		"server-shutdown-timeout":       config.Server.ShutdownTimeout,
		"log-format":                    config.Log.Format,
		"log-verbose":                   config.Log.Verbose,
	}).Debug("Start daemon with configuration")
}

// LoadConfig parses configuration settings passed as command line arguments or
// via config file, and populates a Config object with those values
func LoadConfig() (*Config, error) {
	initFlags()

	return loadConfig()
}
