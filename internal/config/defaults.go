package config

const (
	defaultDataDir        = "~/.local/share/urlstash"
	defaultLogDir         = "~/.local/share/urlstash/logs"
	defaultStashURL       = "http://localhost:9999"
	defaultRequestTimeout = 15
	defaultBatchSize      = 10
	defaultRequestDelayMS = 200
	defaultScanTag        = "URLHistory"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

func defaultCleanseFilters() []string {
	return []string{"google.com", "localhost", "dinotube.com"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Stash: Stash{
			URL:            defaultStashURL,
			RequestTimeout: defaultRequestTimeout,
		},
		History: History{
			CleanseFilters: defaultCleanseFilters(),
			URLRewrites: map[string]string{
				"spankbang.party": "spankbang.com",
			},
		},
		Scan: Scan{
			BatchSize:      defaultBatchSize,
			SkipOrganized:  true,
			RequestDelayMS: defaultRequestDelayMS,
			Tag:            defaultScanTag,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
