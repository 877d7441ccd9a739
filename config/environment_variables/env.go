package environment_variables

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"
)

type EnvironmentVariable struct {
	SHELFSYNC_API_BASE_URL   string
	SHELFSYNC_STORE_TYPE     string
	SHELFSYNC_SQLITE_PATH    string
	SHELFSYNC_REDIS_URL      string
	SHELFSYNC_REDIS_PASSWORD string
	SHELFSYNC_REDIS_DB       int
	SHELFSYNC_OFFLINE_MODE   bool
	SHELFSYNC_READ_CACHE_TTL time.Duration
	SHELFSYNC_PROBE_INTERVAL time.Duration
	SHELFSYNC_LOG_LEVEL      string
}

func (ev *EnvironmentVariable) LoadFromEnv() {
	v := reflect.ValueOf(ev).Elem()
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		envKey := field.Name
		envValue := os.Getenv(envKey)
		if envValue == "" {
			fmt.Printf("Missing SYSENV: %s\n", envKey)
			continue
		}
		switch v.Field(i).Interface().(type) {
		case string:
			v.Field(i).SetString(envValue)
		case bool:
			if parsed, err := strconv.ParseBool(envValue); err == nil {
				v.Field(i).SetBool(parsed)
			}
		case int:
			if parsed, err := strconv.Atoi(envValue); err == nil {
				v.Field(i).SetInt(int64(parsed))
			}
		case time.Duration:
			if parsed, err := time.ParseDuration(envValue); err == nil {
				v.Field(i).SetInt(int64(parsed))
			}
		}
	}
}

// Singleton
var EnvironmentVariables = EnvironmentVariable{
	SHELFSYNC_STORE_TYPE:     "sqlite",
	SHELFSYNC_SQLITE_PATH:    "shelfsync.db",
	SHELFSYNC_READ_CACHE_TTL: 15 * time.Second,
	SHELFSYNC_PROBE_INTERVAL: 5 * time.Second,
	SHELFSYNC_LOG_LEVEL:      "info",
}
