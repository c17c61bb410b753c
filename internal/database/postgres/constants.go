package postgres

// =============================================================================
// Lock Constants
// =============================================================================

const (
	// SQLAdvisoryLock acquires a PostgreSQL advisory transaction lock
	SQLAdvisoryLock = "SELECT pg_advisory_xact_lock($1)"

	// AccountLockNamespace prefixes account ids before hashing them into lock keys
	AccountLockNamespace = "account:"

	// HashMaskPositiveInt64 masks the MSB so advisory lock keys stay positive
	HashMaskPositiveInt64 = 0x7FFFFFFFFFFFFFFF
)

// =============================================================================
// Logbook SQL
// =============================================================================

const (
	SQLUpsertCatch = `
		INSERT INTO catches (
			catch_id, account_id, species, species_key, weight_kg, has_photo,
			caught_at, caught_at_offset, session_id, latitude, longitude,
			weather_condition, wind_speed, moon_phase, country_code, created_at, deleted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (catch_id) DO UPDATE SET
			species = EXCLUDED.species,
			species_key = EXCLUDED.species_key,
			weight_kg = EXCLUDED.weight_kg,
			has_photo = EXCLUDED.has_photo,
			caught_at = EXCLUDED.caught_at,
			caught_at_offset = EXCLUDED.caught_at_offset,
			session_id = EXCLUDED.session_id,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			weather_condition = EXCLUDED.weather_condition,
			wind_speed = EXCLUDED.wind_speed,
			moon_phase = EXCLUDED.moon_phase,
			country_code = EXCLUDED.country_code,
			deleted_at = EXCLUDED.deleted_at
		WHERE catches.account_id = EXCLUDED.account_id
	`

	SQLSelectCatch = `
		SELECT catch_id, account_id, species, weight_kg, has_photo, caught_at, caught_at_offset,
			session_id, latitude, longitude, weather_condition, wind_speed, moon_phase,
			country_code, created_at, deleted_at
		FROM catches
		WHERE account_id = $1 AND catch_id = $2
	`

	SQLSoftDeleteCatch = `UPDATE catches SET deleted_at = $3 WHERE account_id = $1 AND catch_id = $2`

	SQLUpsertSession = `
		INSERT INTO sessions (session_id, account_id, started_at, ended_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id) DO UPDATE SET
			started_at = EXCLUDED.started_at,
			ended_at = EXCLUDED.ended_at
		WHERE sessions.account_id = EXCLUDED.account_id
	`

	SQLUpsertWeeklyBonus = `
		INSERT INTO weekly_species_bonuses (species_key, week_start, points)
		VALUES ($1, $2::date, $3)
		ON CONFLICT (species_key, week_start) DO UPDATE SET points = EXCLUDED.points
	`

	SQLListAccountIDs = `
		SELECT account_id FROM accounts
		UNION
		SELECT account_id FROM catches
		UNION
		SELECT account_id FROM sessions
		ORDER BY 1
	`
)

// =============================================================================
// Catalog SQL
// =============================================================================

const (
	SQLSelectDefinitions = `
		SELECT challenge_id, slug, name, description, target, xp_reward, scope, scope_value, active
		FROM challenge_definitions
		ORDER BY slug
	`

	SQLSelectDefinitionBySlug = `
		SELECT challenge_id, slug, name, description, target, xp_reward, scope, scope_value, active
		FROM challenge_definitions
		WHERE slug = $1
	`

	// SQLUpsertDefinition reports inserted via xmax, which is zero only for freshly inserted rows
	SQLUpsertDefinition = `
		INSERT INTO challenge_definitions (challenge_id, slug, name, description, target, xp_reward, scope, scope_value, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			target = EXCLUDED.target,
			xp_reward = EXCLUDED.xp_reward,
			scope = EXCLUDED.scope,
			scope_value = EXCLUDED.scope_value,
			active = EXCLUDED.active
		RETURNING challenge_id, (xmax = 0) AS inserted
	`

	SQLSelectSpecies = `SELECT name, specimen_weight_lb FROM species_catalog ORDER BY name`

	SQLSelectSpeciesByKey = `SELECT name, specimen_weight_lb FROM species_catalog WHERE species_key = $1`

	SQLUpsertSpecies = `
		INSERT INTO species_catalog (species_key, name, specimen_weight_lb)
		VALUES ($1, $2, $3)
		ON CONFLICT (species_key) DO UPDATE SET
			name = EXCLUDED.name,
			specimen_weight_lb = EXCLUDED.specimen_weight_lb
	`
)

// =============================================================================
// History SQL
// =============================================================================

const (
	SQLCountCatches = `SELECT COUNT(*) FROM catches WHERE account_id = $1 AND deleted_at IS NULL`

	SQLCountCatchesSince = `
		SELECT COUNT(*) FROM catches
		WHERE account_id = $1 AND deleted_at IS NULL AND created_at >= $2
	`

	SQLDistinctSpeciesCount = `
		SELECT COUNT(DISTINCT species_key) FROM catches
		WHERE account_id = $1 AND deleted_at IS NULL
	`

	SQLHasPriorCatchOfSpecies = `
		SELECT EXISTS (
			SELECT 1 FROM catches
			WHERE account_id = $1 AND deleted_at IS NULL AND species_key = $2 AND catch_id <> $3
		)
	`

	SQLCountPhotographedCatches = `
		SELECT COUNT(*) FROM catches
		WHERE account_id = $1 AND deleted_at IS NULL AND has_photo
	`

	// SQLDistinctLocationBuckets rounds to two decimal places, matching utils.LocationBucket
	SQLDistinctLocationBuckets = `
		SELECT COUNT(*) FROM (
			SELECT DISTINCT round(c.latitude::numeric, 2), round(c.longitude::numeric, 2)
			FROM catches c
			JOIN sessions s ON s.session_id = c.session_id AND s.account_id = c.account_id
			WHERE c.account_id = $1
				AND c.deleted_at IS NULL
				AND c.has_photo
				AND c.latitude IS NOT NULL
				AND c.longitude IS NOT NULL
				AND s.ended_at IS NOT NULL
				AND s.ended_at >= s.started_at
				AND EXTRACT(EPOCH FROM (s.ended_at - s.started_at)) / 60 >= $2
		) buckets
	`

	SQLDistinctCountryCodes = `
		SELECT DISTINCT upper(trim(country_code)) FROM catches
		WHERE account_id = $1 AND deleted_at IS NULL AND country_code IS NOT NULL AND trim(country_code) <> ''
		ORDER BY 1
	`

	SQLCountryCatchCount = `
		SELECT COUNT(*) FROM catches
		WHERE account_id = $1 AND deleted_at IS NULL AND upper(trim(country_code)) = $2
	`

	SQLCountrySpeciesCount = `
		SELECT COUNT(DISTINCT species_key) FROM catches
		WHERE account_id = $1 AND deleted_at IS NULL AND upper(trim(country_code)) = $2
	`

	SQLDistinctMoonPhases = `
		SELECT DISTINCT moon_phase FROM catches
		WHERE account_id = $1 AND deleted_at IS NULL AND moon_phase IS NOT NULL AND moon_phase <> ''
		ORDER BY 1
	`

	SQLCatchTimestamps = `
		SELECT caught_at, caught_at_offset FROM catches
		WHERE account_id = $1 AND deleted_at IS NULL
		ORDER BY caught_at
	`

	SQLSelectSession = `
		SELECT started_at, ended_at FROM sessions
		WHERE account_id = $1 AND session_id = $2
	`

	SQLCountQualifyingSessions = `
		SELECT COUNT(*) FROM sessions
		WHERE account_id = $1
			AND ended_at IS NOT NULL
			AND ended_at >= started_at
			AND EXTRACT(EPOCH FROM (ended_at - started_at)) / 60 >= $2
	`

	SQLSelectWeeklyBonus = `
		SELECT points FROM weekly_species_bonuses
		WHERE species_key = $1 AND week_start = $2::date
	`
)

// =============================================================================
// Challenge Progress SQL
// =============================================================================

const (
	sqlProgressColumns = `progress_id, account_id, challenge_id, slug, progress, target, completed_at, xp_awarded, version, updated_at`

	SQLSelectProgressBySlug = `
		SELECT ` + sqlProgressColumns + `
		FROM user_challenge_progress
		WHERE account_id = $1 AND slug = $2
	`

	SQLSelectProgressByID = `
		SELECT ` + sqlProgressColumns + `
		FROM user_challenge_progress
		WHERE progress_id = $1 AND account_id = $2
	`

	SQLListProgress = `
		SELECT ` + sqlProgressColumns + `
		FROM user_challenge_progress
		WHERE account_id = $1
		ORDER BY slug
	`

	SQLInsertProgress = `
		INSERT INTO user_challenge_progress (` + sqlProgressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT DO NOTHING
	`

	// SQLUpdateProgress is a compare-and-swap on version
	SQLUpdateProgress = `
		UPDATE user_challenge_progress
		SET progress = $3, target = $4, completed_at = $5, xp_awarded = $6, updated_at = $7, version = version + 1
		WHERE progress_id = $1 AND account_id = $2 AND version = $8
	`

	SQLInsertCatchLink = `
		INSERT INTO challenge_catch_links (progress_id, catch_id)
		SELECT $1::text, $2::text
		WHERE EXISTS (SELECT 1 FROM user_challenge_progress WHERE progress_id = $1 AND account_id = $3)
		ON CONFLICT DO NOTHING
	`

	SQLDeleteCatchLink = `
		DELETE FROM challenge_catch_links l
		USING user_challenge_progress p
		WHERE l.progress_id = p.progress_id AND p.account_id = $3 AND l.progress_id = $1 AND l.catch_id = $2
	`

	SQLCountCatchLinks = `
		SELECT COUNT(*) FROM challenge_catch_links l
		JOIN user_challenge_progress p ON p.progress_id = l.progress_id
		WHERE l.progress_id = $1 AND p.account_id = $2
	`

	SQLListProgressIDsForCatch = `
		SELECT l.progress_id FROM challenge_catch_links l
		JOIN user_challenge_progress p ON p.progress_id = l.progress_id
		WHERE l.catch_id = $1 AND p.account_id = $2
		ORDER BY l.progress_id
	`
)

// =============================================================================
// Ledger And Account SQL
// =============================================================================

const (
	SQLInsertLedgerEntry = `
		INSERT INTO xp_transactions (transaction_id, account_id, amount, reason, reference_type, reference_id, metadata, created_at, reversed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	SQLFindLedgerEntry = `
		SELECT transaction_id, account_id, amount, reason, reference_type, reference_id, metadata, created_at, reversed_at
		FROM xp_transactions
		WHERE account_id = $1 AND reason = $2 AND reference_id = $3
		ORDER BY entry_seq DESC
		LIMIT 1
	`

	// SQLNegateLedgerEntry leaves already reversed entries untouched
	SQLNegateLedgerEntry = `
		UPDATE xp_transactions
		SET amount = CASE WHEN reversed_at IS NULL THEN -amount ELSE amount END,
			reversed_at = COALESCE(reversed_at, $3)
		WHERE transaction_id = $1 AND account_id = $2
	`

	SQLSumLedger = `
		SELECT COALESCE(SUM(amount) FILTER (WHERE reversed_at IS NULL), 0)::bigint
		FROM xp_transactions
		WHERE account_id = $1
	`

	SQLEnsureAccount = `
		INSERT INTO accounts (account_id) VALUES ($1)
		ON CONFLICT (account_id) DO NOTHING
	`

	SQLSelectAccount = `
		SELECT account_id, xp, level, countries_fished, updated_at
		FROM accounts
		WHERE account_id = $1
	`

	SQLUpdateAccountXP = `
		UPDATE accounts SET xp = $2, level = $3, updated_at = NOW()
		WHERE account_id = $1
	`

	SQLUpdateAccountCountries = `
		UPDATE accounts SET countries_fished = $2, updated_at = NOW()
		WHERE account_id = $1
	`
)

// =============================================================================
// Event Log
// =============================================================================

const (
	sqlInsertEvent = `
		INSERT INTO event_log (event_type, account_id, payload, metadata)
		VALUES ($1, $2, $3, $4)`

	// Filters are appended by GetEvents
	sqlSelectEvents = `
		SELECT id, event_type, account_id, payload, metadata, created_at
		FROM event_log
		WHERE 1=1`

	sqlCleanupEvents = `
		DELETE FROM event_log
		WHERE created_at < NOW() - INTERVAL '1 day' * $1`
)

// =============================================================================
// Error Messages
// =============================================================================

const (
	ErrMsgBeginTransactionFailed  = "failed to begin transaction: %w"
	ErrMsgAcquireLockFailed       = "failed to acquire account lock: %w"
	ErrMsgCommitTransactionFailed = "failed to commit transaction: %w"
	ErrMsgOutsideTransaction      = "account %s is outside the transaction for %s"

	ErrMsgSaveCatchFailed     = "failed to save catch: %w"
	ErrMsgGetCatchFailed      = "failed to get catch: %w"
	ErrMsgDeleteCatchFailed   = "failed to delete catch: %w"
	ErrMsgCatchNotFound       = "catch %s not found"
	ErrMsgSaveSessionFailed   = "failed to save session: %w"
	ErrMsgSetWeeklyFailed     = "failed to set weekly species bonus: %w"
	ErrMsgListAccountsFailed  = "failed to list accounts: %w"
	ErrMsgListDefsFailed      = "failed to list challenge definitions: %w"
	ErrMsgGetDefFailed        = "failed to get challenge definition: %w"
	ErrMsgUpsertDefFailed     = "failed to upsert challenge definition: %w"
	ErrMsgListSpeciesFailed   = "failed to list species: %w"
	ErrMsgGetSpeciesFailed    = "failed to get species: %w"
	ErrMsgUpsertSpeciesFailed = "failed to upsert species: %w"

	ErrMsgHistoryQueryFailed  = "failed to query %s: %w"
	ErrMsgProgressQueryFailed = "failed to %s challenge progress: %w"
	ErrMsgLinkQueryFailed     = "failed to %s catch link: %w"
	ErrMsgLedgerQueryFailed   = "failed to %s ledger entry: %w"
	ErrMsgLedgerNotFound      = "ledger entry %s not found"
	ErrMsgAccountQueryFailed  = "failed to %s account: %w"

	ErrMsgLogEvent      = "failed to log event: %w"
	ErrMsgGetEvents     = "failed to get events: %w"
	ErrMsgCleanupEvents = "failed to clean up events: %w"
)
