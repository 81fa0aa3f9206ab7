package config

import "time"

type StorageType string

const STORAGE_TYPE_REDIS StorageType = "redis"
const STORAGE_TYPE_INMEM StorageType = "memory"
const STORAGE_TYPE_SQL StorageType = "sql"

type SQLDriver string

const SQL_DRIVER_SQLITE SQLDriver = "sqlite"
const SQL_DRIVER_POSTGRES SQLDriver = "postgres"

type Config struct {
	RedisConfig     RedisStorageConfig
	SQLConfig       SQLStorageConfig
	HttpPort        int
	StorageType     StorageType
	CacheTTL        time.Duration
	RulesFile       string
	CatalogFile     string
	CommerceFile    string
	AnalyticsConfig AnalyticsConfig
	LogLevel        string
}

type RedisStorageConfig struct {
	Addrs     []string
	Namespace string
	Password  string
}

type SQLStorageConfig struct {
	Driver SQLDriver
	DSN    string
}

type AnalyticsConfig struct {
	FileName string
}

func Default() Config {
	return Config{
		RedisConfig: RedisStorageConfig{
			Addrs:     []string{"localhost:6379"},
			Namespace: "resolveflow",
		},
		SQLConfig: SQLStorageConfig{
			Driver: SQL_DRIVER_SQLITE,
			DSN:    "file:resolveflow.db",
		},
		HttpPort:    8080,
		StorageType: STORAGE_TYPE_INMEM,
		CacheTTL:    5 * time.Minute,
		LogLevel:    "info",
	}
}
