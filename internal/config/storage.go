package config

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

type StorageConfig struct {
	// Driver selects the backing store. memory keeps everything in process
	// and is meant for local runs.
	Driver        string `yaml:"driver"`
	RunMigrations bool   `yaml:"run_migrations"`
}

func loadStorageConfig() *StorageConfig {
	return &StorageConfig{
		Driver:        getEnv("STORAGE_DRIVER", StorageMongo),
		RunMigrations: getEnvAsBool("STORAGE_RUN_MIGRATIONS", true),
	}
}
