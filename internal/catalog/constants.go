package catalog

import "time"

// SchemaName is the registered name of the embedded catalog schema
const SchemaName = "challenges.schema.json"

// CacheSchemaVersion invalidates cached entries when the cached shape changes
const CacheSchemaVersion = "1.0"

// Cache defaults
const (
	DefaultCacheSize = 1024
	DefaultCacheTTL  = 5 * time.Minute
)

// Error messages
const (
	ErrMsgReadConfigFileFailed = "failed to read catalog file: %w"
	ErrMsgParseConfigFailed    = "failed to parse catalog: %w"
	ErrMsgSchemaFailed         = "catalog schema validation failed: %w"
	ErrMsgListDefinitionsFail  = "failed to list challenge definitions: %w"
	ErrMsgUpsertDefinitionFail = "failed to upsert challenge %s: %w"
	ErrMsgListSpeciesFail      = "failed to list species: %w"
	ErrMsgUpsertSpeciesFail    = "failed to upsert species %s: %w"
)

// Log messages
const (
	LogMsgSyncCompleted     = "Challenge catalog synced"
	LogMsgInsertedChallenge = "Inserted challenge definition"
	LogMsgUpdatedChallenge  = "Updated challenge definition"
	LogMsgUndefinedRules    = "Rules without a catalog definition will be skipped"
)
