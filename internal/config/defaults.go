package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Forum.TimeoutSeconds == 0 {
		cfg.Forum.TimeoutSeconds = 30
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/parqr/data/posts.db"
	}
	if cfg.Storage.ModelStorePath == "" {
		cfg.Storage.ModelStorePath = "/usr/local/var/parqr/data/models"
	}
	if cfg.Sync.IntervalSeconds == 0 {
		cfg.Sync.IntervalSeconds = 120
	}
	if cfg.Sync.PassTimeoutSeconds == 0 {
		cfg.Sync.PassTimeoutSeconds = 600
	}
	if cfg.Recommend.ReloadDelaySeconds == 0 {
		cfg.Recommend.ReloadDelaySeconds = 150
	}
	if cfg.Recommend.ScoreThreshold == 0 {
		cfg.Recommend.ScoreThreshold = 0.1
	}
	if cfg.Recommend.PrimaryWeight == 0 {
		cfg.Recommend.PrimaryWeight = 0.4
	}
	if cfg.Recommend.SecondaryWeight == 0 {
		cfg.Recommend.SecondaryWeight = 0.2
	}
	if cfg.Recommend.DefaultLimit == 0 {
		cfg.Recommend.DefaultLimit = 5
	}
	if cfg.Recommend.MaxLimit == 0 {
		cfg.Recommend.MaxLimit = 25
	}
}
