package config

import (
	"fmt"

	"github.com/spf13/viper"
)

const (
	clientConfigKey   = "hostservices.client"
	adminConfigKey    = "hostservices.admin"
	executorConfigKey = "hostservices.executor"
)

const (
	DefaultClientHost = "127.0.0.1"
	DefaultClientPort = "54044"

	DefaultAdminHost = "127.0.0.1"
	DefaultAdminPort = "54045"

	DefaultExecutorHost = DefaultClientHost
	DefaultExecutorPort = DefaultClientPort
)

// ClientConfig points the command client at an execution endpoint.
type ClientConfig struct {
	ServerHost string `mapstructure:"server_host"`
	ServerPort string `mapstructure:"server_port"`
}

func (c ClientConfig) String() string {
	return fmt.Sprintf(`{
ServerHost: %s
ServerPort: %s
}`, c.ServerHost, c.ServerPort)
}

// WithDefaults fills every empty field with its default.
func (c ClientConfig) WithDefaults() ClientConfig {
	if c.ServerHost == "" {
		c.ServerHost = DefaultClientHost
	}
	if c.ServerPort == "" {
		c.ServerPort = DefaultClientPort
	}
	return c
}

type AdminConfig struct {
	Host  string `mapstructure:"host"`
	Port  string `mapstructure:"port"`
	Quiet bool   `mapstructure:"quiet"`
	// Overrides the bundled index page when set.
	AdminHTMLFile string `mapstructure:"admin_html_file"`
	// Overrides the bundled static assets when set.
	StaticDir string `mapstructure:"static_dir"`
}

func (c AdminConfig) String() string {
	return fmt.Sprintf(`{
Host: %s
Port: %s
Quiet: %t
AdminHTMLFile: %s
StaticDir: %s
}`,
		c.Host,
		c.Port,
		c.Quiet,
		c.AdminHTMLFile,
		c.StaticDir,
	)
}

func (c AdminConfig) WithDefaults() AdminConfig {
	if c.Host == "" {
		c.Host = DefaultAdminHost
	}
	if c.Port == "" {
		c.Port = DefaultAdminPort
	}
	return c
}

type ExecutorConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

func (c ExecutorConfig) String() string {
	return fmt.Sprintf(`{
Host: %s
Port: %s
}`, c.Host, c.Port)
}

func (c ExecutorConfig) WithDefaults() ExecutorConfig {
	if c.Host == "" {
		c.Host = DefaultExecutorHost
	}
	if c.Port == "" {
		c.Port = DefaultExecutorPort
	}
	return c
}

// readSection unmarshals the section under key into out. An empty configFile
// or a missing section leaves out untouched.
func readSection(configFile string, key string, out interface{}) error {
	if configFile == "" {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(configFile)
	err := v.ReadInConfig()
	if err != nil {
		return fmt.Errorf("failed to read config: %v", err)
	}

	sub := v.Sub(key)
	if sub == nil {
		return nil
	}

	if err := sub.Unmarshal(out); err != nil {
		return fmt.Errorf("error unmarshalling config: %v", err)
	}
	return nil
}

func GetClientConfig(configFile string) (*ClientConfig, error) {
	var result ClientConfig
	if err := readSection(configFile, clientConfigKey, &result); err != nil {
		return nil, err
	}
	result = result.WithDefaults()
	return &result, nil
}

func GetAdminConfig(configFile string) (*AdminConfig, error) {
	var result AdminConfig
	if err := readSection(configFile, adminConfigKey, &result); err != nil {
		return nil, err
	}
	result = result.WithDefaults()
	return &result, nil
}

func GetExecutorConfig(configFile string) (*ExecutorConfig, error) {
	var result ExecutorConfig
	if err := readSection(configFile, executorConfigKey, &result); err != nil {
		return nil, err
	}
	result = result.WithDefaults()
	return &result, nil
}
