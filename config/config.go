package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Settings holds the process configuration. Values come from an optional
// yaml file, overridden by SEARCHLENS_* environment variables.
type Settings struct {
	Port             int    `mapstructure:"port"`
	FlightSQLPort    int    `mapstructure:"flightsql_port"`
	DataDir          string `mapstructure:"data_dir"`
	UIDir            string `mapstructure:"ui_dir"`
	DisableFlightSQL bool   `mapstructure:"disable_flightsql"`
}

var Config Settings

// InitConfig loads configuration. An empty path means env-and-defaults only.
func InitConfig(path string) error {
	v := viper.New()
	v.SetDefault("port", 8080)
	v.SetDefault("flightsql_port", 8082)
	v.SetDefault("data_dir", "./data")
	v.SetDefault("ui_dir", "")
	v.SetDefault("disable_flightsql", false)

	v.SetEnvPrefix("SEARCHLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	return v.Unmarshal(&Config)
}

// DataRoot resolves the dataset directory. The DATA_DIR environment variable
// wins over the configured value so container deployments can mount data
// anywhere without touching config files.
func DataRoot() string {
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		return dir
	}
	if Config.DataDir != "" {
		return Config.DataDir
	}
	return "./data"
}
