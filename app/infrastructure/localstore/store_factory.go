package localstore

import (
	"strings"

	"shelfsync.io/shelfsync/config/environment_variables"
)

// NewStore creates a local store based on configuration.
func NewStore() (Store, error) {
	storeType := strings.ToLower(environment_variables.EnvironmentVariables.SHELFSYNC_STORE_TYPE)

	// Default to sqlite if no store type is specified
	if storeType == "" {
		storeType = "sqlite"
	}

	switch storeType {
	case "redis":
		return NewRedisStore(JSONCodec{}), nil
	case "memory":
		return NewMemoryStore(JSONCodec{}), nil
	default:
		return NewSQLiteStore(environment_variables.EnvironmentVariables.SHELFSYNC_SQLITE_PATH, JSONCodec{})
	}
}
