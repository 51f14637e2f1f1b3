// config 包读取 websvcd 的配置。
//
// 配置依次来自：默认值、 YAML 配置文件（可选）、 .env 文件（可选）和 WEBSVC_ 开头的环境变量，后者覆盖前者。
// .env 文件中的值不会覆盖已存在的环境变量。
package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/cmstar/go-errx"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix 是环境变量的前缀，如 WEBSVC_LISTEN_ADDR 。
const EnvPrefix = "WEBSVC"

// Config 是 websvcd 的配置。
type Config struct {
	// Addr 是监听的地址，格式为 IP:PORT 或 :PORT 。
	Addr string `yaml:"addr" envconfig:"LISTEN_ADDR" validate:"required"`

	// Path 是服务的路由路径，使用 echo 的格式，可包含 :service 参数。
	Path string `yaml:"path" envconfig:"ROUTE_PATH" validate:"required,startswith=/"`

	// Name 是 ServicesManager 的名称，也是日志名称的前缀。
	Name string `yaml:"name" envconfig:"MANAGER_NAME" validate:"required"`

	// TrustForwardedFor 为 true 时，从 X-Forwarded-For 头获取客户端 IP 。
	TrustForwardedFor bool `yaml:"trust_forwarded_for" envconfig:"TRUST_FORWARDED_FOR"`

	// LogLevel 是日志级别： debug/info/warn/error/fatal 。
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error fatal"`

	// LogFormat 是日志格式： json 或 console 。
	LogFormat string `yaml:"log_format" envconfig:"LOG_FORMAT" validate:"oneof=json console"`

	// MetricsPath 是 Prometheus 指标的路径，为空时不提供指标。
	MetricsPath string `yaml:"metrics_path" envconfig:"METRICS_PATH" validate:"omitempty,startswith=/"`

	// ShutdownTimeout 是停止服务时，等待正在处理的请求的最长时间。
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`

	// AuthKeys 是签名校验使用的 key-secret 表。环境变量的格式为 key1:secret1,key2:secret2 。
	AuthKeys map[string]string `yaml:"auth_keys" envconfig:"AUTH_KEYS"`
}

// Default 返回默认的配置。
func Default() Config {
	return Config{
		Addr:            ":8080",
		Path:            "/api/:service",
		Name:            "websvc",
		LogLevel:        "info",
		LogFormat:       "json",
		MetricsPath:     "/metrics",
		ShutdownTimeout: 10 * time.Second,
	}
}

// Options 指定配置的来源。
type Options struct {
	// ConfigFile 是 YAML 配置文件的路径，为空时不读取。给定的文件不存在时返回 error 。
	ConfigFile string

	// EnvFile 是 .env 文件的路径，为空时不读取；文件不存在时忽略。
	EnvFile string
}

var validate = validator.New()

// Load 读取配置，并校验配置的值。
func Load(op Options) (*Config, error) {
	cfg := Default()

	if op.ConfigFile != "" {
		data, err := os.ReadFile(op.ConfigFile)
		if err != nil {
			return nil, errx.Wrap("read config file", err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errx.Wrap("parse config file", err)
		}
	}

	if op.EnvFile != "" {
		if err := godotenv.Load(op.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, errx.Wrap("load env file", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, errx.Wrap("read environment variables", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, errx.Wrap("invalid config", err)
	}
	return &cfg, nil
}
