package config

import (
	"time"
)

// StoreConfig selects the resource store backend: firestore, mongodb or
// memory.
type StoreConfig struct {
	Provider  string           `yaml:"provider"`
	Firestore *FirestoreConfig `yaml:"firestore"`
	MongoDB   *MongoDBConfig   `yaml:"mongodb"`
}

type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

type MongoDBConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	MaxPoolSize    int           `yaml:"max_pool_size"`
	MinPoolSize    int           `yaml:"min_pool_size"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	SocketTimeout  time.Duration `yaml:"socket_timeout"`
	RunMigrations  bool          `yaml:"run_migrations"`
}

func loadStoreConfig() *StoreConfig {
	return &StoreConfig{
		Provider: getEnv("STORE_PROVIDER", "memory"),
		Firestore: &FirestoreConfig{
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		},
		MongoDB: &MongoDBConfig{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
			Database:       getEnv("MONGODB_DATABASE", "fleetdesk"),
			MaxPoolSize:    getEnvAsInt("MONGODB_MAX_POOL_SIZE", 100),
			MinPoolSize:    getEnvAsInt("MONGODB_MIN_POOL_SIZE", 5),
			ConnectTimeout: getEnvAsDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
			SocketTimeout:  getEnvAsDuration("MONGODB_SOCKET_TIMEOUT", 30*time.Second),
			RunMigrations:  getEnvAsBool("MONGODB_RUN_MIGRATIONS", true),
		},
	}
}
