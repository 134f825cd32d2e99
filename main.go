package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	cfg "gitlab.com/gitlab-org/tiny-pages/internal/config"
	"gitlab.com/gitlab-org/tiny-pages/internal/errortracking"
	"gitlab.com/gitlab-org/tiny-pages/internal/logging"
	"gitlab.com/gitlab-org/tiny-pages/metrics"
)

// VERSION stores the information about the semantic version of application
var VERSION = "dev"

// REVISION stores the information about the git revision of application
var REVISION = "HEAD"

func fullVersion() string {
	return fmt.Sprintf("%s-%s", VERSION, REVISION)
}

func appMain() {
	config, err := cfg.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}

	if config.General.ShowVersion {
		fmt.Fprintln(os.Stdout, fullVersion())
		os.Exit(0)
	}

	if err := logging.ConfigureLogging(config.Log.Format, config.Log.Verbose); err != nil {
		log.WithError(err).Fatal("Failed to initialize logging")
	}

	if err := errortracking.Initialize(config.Sentry.DSN, config.Sentry.Environment, fullVersion()); err != nil {
		log.WithError(err).Warn("Failed to initialize error tracking")
	}

	log.WithFields(log.Fields{
		"version":  VERSION,
		"revision": REVISION,
	}).Print("tiny-pages daemon")

	cfg.LogConfig(config)

	// scripts and files are resolved against the working directory
	if err := os.Chdir(config.General.RootDir); err != nil {
		fatal(err, "could not change directory into root-dir")
	}

	root, err := os.Getwd()
	if err != nil {
		fatal(err, "could not determine the root directory")
	}

	metrics.MustRegister()

	if err := runApp(config, root); err != nil {
		fatal(err, "could not run the daemon")
	}
}

func fatal(err error, message string) {
	errortracking.CaptureErrWithStackTrace(err)
	log.WithError(err).Fatal(message)
}

func main() {
	appMain()
}
