package oad

import (
	"fmt"
	"os"
	"sync"

	kitlog "github.com/go-kit/log"
	"github.com/spf13/viper"
)

var (
	cfgOnce sync.Once
	config  = oadSettings{outputDir: "."}
	logger  = kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
)

// oadSettings holds the process wide settings, just use `oadConfig()`.
type oadSettings struct {
	outputDir string
	verbose   bool
}

// oadConfig returns the global settings.
// They are read once from `$OAD_CONFIG/conf.(yaml|toml)`; if the variable is not set,
// recordings go to the working directory.
func oadConfig() oadSettings {
	cfgOnce.Do(func() {
		confPath := os.Getenv("OAD_CONFIG")
		if confPath == "" {
			return
		}
		v := viper.New()
		v.SetConfigName("conf")
		v.AddConfigPath(confPath)
		v.SetDefault("general.output_path", ".")
		if err := v.ReadInConfig(); err != nil {
			panic(fmt.Errorf("%s/conf.(yaml|toml) could not be read: %s", confPath, err))
		}
		config = oadSettings{outputDir: v.GetString("general.output_path"), verbose: v.GetBool("general.verbose")}
	})
	return config
}

// SetLogger replaces the logger used by the solvers, drivers and builders.
func SetLogger(l kitlog.Logger) {
	if l == nil {
		l = kitlog.NewNopLogger()
	}
	logger = l
}

// Logger returns the package logger, e.g. to derive component loggers with kitlog.With.
func Logger() kitlog.Logger {
	return logger
}
