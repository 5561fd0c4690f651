package config

import "time"

type Config struct {
	Service *ServiceConfig
	Server  *ServerConfig
	Logger  *LoggerConfig
	Tracer  *TracerConfig
	Survey  *SurveyConfig
	OpenAI  *OpenAIConfig
}

type ServiceConfig struct {
	Name string
	Env  string
	Addr string
}

type ServerConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	StaticDir       string
}

type LoggerConfig struct {
	Level  string
	Format string
}

type TracerConfig struct {
	// Address of the OTLP gRPC collector. Empty disables export.
	Address string
}

type SurveyConfig struct {
	DefaultSummaryCount int
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}
