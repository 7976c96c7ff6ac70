package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			Driver:     DriverBolt,
			Timeout:    2 * time.Second,
			MaxRetries: 1,
			AllowLocal: true,
		},
		Feed: FeedConfig{
			Collections:   map[string]string{},
			FetchTimeout:  5 * time.Second,
			MaxConcurrent: 2,
		},
		Log:  LogConfig{Level: "off"},
		UI:   defaultConfig().UI,
		Keys: defaultConfig().Keys,
	}
}
