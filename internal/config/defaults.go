package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendSQLite
	}
	if cfg.Storage.DatabasePath == "" && cfg.Storage.Backend == BackendSQLite {
		cfg.Storage.DatabasePath = "/usr/local/var/omoide/data/memories.db"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Ranking.KeywordWeight == 0 {
		cfg.Ranking.KeywordWeight = 0.7
	}
	if cfg.Ranking.NoiseFloor == 0 {
		cfg.Ranking.NoiseFloor = 0.01
	}
	if cfg.Ranking.HighRelevance == 0 {
		cfg.Ranking.HighRelevance = 0.1
	}
	if cfg.Ranking.DefaultLimit == 0 {
		cfg.Ranking.DefaultLimit = 10
	}
	if cfg.Ranking.MaxLimit == 0 {
		cfg.Ranking.MaxLimit = 100
	}
	if cfg.Ranking.ChatLimit == 0 {
		cfg.Ranking.ChatLimit = 5
	}
	if cfg.Ranking.MaxReferenced == 0 {
		cfg.Ranking.MaxReferenced = 2
	}
	if cfg.Chat.APIKeyEnv == "" {
		cfg.Chat.APIKeyEnv = "ANTHROPIC_API_KEY"
	}
	if cfg.Chat.Model == "" {
		cfg.Chat.Model = "claude-sonnet-4-20250514"
	}
	if cfg.Chat.MaxTokens == 0 {
		cfg.Chat.MaxTokens = 300
	}
	if cfg.Chat.Temperature == 0 {
		cfg.Chat.Temperature = 0.7
	}
	if cfg.Chat.HistoryWindow == 0 {
		cfg.Chat.HistoryWindow = 2
	}
	if cfg.Chat.SnippetChars == 0 {
		cfg.Chat.SnippetChars = 300
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".md", ".txt"}
	}
}

// Default returns a config with all defaults applied and the in-memory
// backend selected, suitable for tests and demo runs.
func Default() *Config {
	cfg := &Config{}
	cfg.Storage.Backend = BackendMemory
	ApplyDefaults(cfg)
	return cfg
}
