package nyx

import (
	"os"

	"github.com/spf13/viper"
)

var (
	cfgLoaded = false
	config    = _nyxconfig{maxIterations: 50}
)

// _nyxconfig is a "hidden" struct, just use `nyxConfig`
type _nyxconfig struct {
	maxIterations int    // targeting iteration budget
	workers       int    // concurrent Jacobian trials, 0 means one per variable
	logLevel      string // passed as-is to the loggers
}

// nyxConfig returns the nyx configuration. The configuration file is optional:
// the defaults apply when NYX_CONFIG is unset or conf.toml is absent.
func nyxConfig() _nyxconfig {
	if cfgLoaded {
		return config
	}
	cfgLoaded = true
	confPath := os.Getenv("NYX_CONFIG")
	if confPath == "" {
		return config
	}
	viper.SetConfigName("conf")
	viper.AddConfigPath(confPath)
	if err := viper.ReadInConfig(); err != nil {
		return config
	}
	if its := viper.GetInt("targeting.max_iterations"); its > 0 {
		config.maxIterations = its
	}
	if workers := viper.GetInt("targeting.workers"); workers > 0 {
		config.workers = workers
	}
	if lvl := viper.GetString("general.log_level"); lvl != "" {
		config.logLevel = lvl
	}
	return config
}
