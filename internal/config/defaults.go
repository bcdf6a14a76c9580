package config

// DefaultConfig returns a Config populated with all default values. The
// profiles point at Arc's Default and Profile 7 history files on macOS.
func DefaultConfig() *Config {
	return &Config{
		Profiles: []ProfileConfig{
			{
				Name:    "default",
				History: "~/Library/Application Support/Arc/User Data/Default/History",
			},
			{
				Name:    "profile7",
				History: "~/Library/Application Support/Arc/User Data/Profile 7/History",
			},
		},
		Snapshot: SnapshotConfig{
			Dir: "",
		},
		Search: SearchConfig{
			PerPage:             50,
			QueryTimeoutSeconds: 5,
			Parallelism:         4,
		},
		Server: ServerConfig{
			Host:                "localhost",
			Port:                8000,
			ReadTimeoutSeconds:  10,
			WriteTimeoutSeconds: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
