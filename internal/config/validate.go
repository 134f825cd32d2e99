package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	ErrNoListener             = errors.New("no listener defined, please specify at least one --listen-* flag")
	ErrRootDirNotDirectory    = errors.New("root-dir must be a directory")
	ErrInvalidScriptExtension = errors.New("script-extension must start with a dot")
	ErrNoScriptExtension      = errors.New("at least one script-extension must be defined")
	ErrNegativeScriptTimeout  = errors.New("script-timeout must not be negative")
	ErrNegativeMaxConns       = errors.New("max-conns must not be negative")
	ErrNegativeMaxURILength   = errors.New("max-uri-length must not be negative")
	ErrInvalidRateLimitBurst  = errors.New("rate-limit-source-ip-burst must be greater than 0 when rate limiting is enabled")
	ErrInvalidLogFormat       = errors.New("log-format must be either 'text' or 'json'")
)

func validateConfig(config *Config) error {
	var result *multierror.Error

	result = multierror.Append(result, validateListeners(config))
	result = multierror.Append(result, validateRootDir(config))
	result = multierror.Append(result, validateScript(config))
	result = multierror.Append(result, validateLimits(config))
	result = multierror.Append(result, validateLog(config))

	return result.ErrorOrNil()
}

func validateListeners(config *Config) error {
	if len(config.Listeners.HTTP)+len(config.Listeners.Proxyv2) == 0 {
		return ErrNoListener
	}

	return nil
}

func validateRootDir(config *Config) error {
	fi, err := os.Stat(config.General.RootDir)
	if err != nil {
		return fmt.Errorf("root-dir: %w", err)
	}

	if !fi.IsDir() {
		return ErrRootDirNotDirectory
	}

	return nil
}

func validateScript(config *Config) error {
	var result *multierror.Error

	if len(config.Script.Extensions) == 0 {
		result = multierror.Append(result, ErrNoScriptExtension)
	}

	for _, ext := range config.Script.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			result = multierror.Append(result, fmt.Errorf("%w: %q", ErrInvalidScriptExtension, ext))
		}
	}

	if config.Script.Timeout < 0 {
		result = multierror.Append(result, ErrNegativeScriptTimeout)
	}

	return result.ErrorOrNil()
}

func validateLimits(config *Config) error {
	var result *multierror.Error

	if config.General.MaxConns < 0 {
		result = multierror.Append(result, ErrNegativeMaxConns)
	}

	if config.General.MaxURILength < 0 {
		result = multierror.Append(result, ErrNegativeMaxURILength)
	}

	if config.RateLimit.SourceIPLimitPerSecond > 0 && config.RateLimit.SourceIPBurst <= 0 {
		result = multierror.Append(result, ErrInvalidRateLimitBurst)
	}

	return result.ErrorOrNil()
}

func validateLog(config *Config) error {
	switch config.Log.Format {
	case "text", "json", "":
		return nil
	}

	return ErrInvalidLogFormat
}
