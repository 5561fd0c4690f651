package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load reads configuration from the environment. Every key has a
// default so a bare `beamer serve` works on a laptop.
func Load() *Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("service.name", "beamer-plus")
	v.SetDefault("service.env", "development")
	v.SetDefault("service.addr", ":5001")

	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.static_dir", "./static")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")

	v.SetDefault("tracer.address", "")

	v.SetDefault("survey.default_summary_count", 3)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")

	return &Config{
		Service: &ServiceConfig{
			Name: v.GetString("service.name"),
			Env:  v.GetString("service.env"),
			Addr: v.GetString("service.addr"),
		},
		Server: &ServerConfig{
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			StaticDir:       v.GetString("server.static_dir"),
		},
		Logger: &LoggerConfig{
			Level:  v.GetString("logger.level"),
			Format: v.GetString("logger.format"),
		},
		Tracer: &TracerConfig{
			Address: v.GetString("tracer.address"),
		},
		Survey: &SurveyConfig{
			DefaultSummaryCount: v.GetInt("survey.default_summary_count"),
		},
		OpenAI: &OpenAIConfig{
			APIKey:  v.GetString("openai.api_key"),
			Model:   v.GetString("openai.model"),
			BaseURL: v.GetString("openai.base_url"),
		},
	}
}
