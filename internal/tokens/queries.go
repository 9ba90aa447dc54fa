package tokens

const (
	queryCreateStorageTable = `
		CREATE TABLE IF NOT EXISTS extension_storage (
			key        TEXT PRIMARY KEY,
			value      BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`

	queryLoadValue = `
		SELECT value
		FROM extension_storage
		WHERE key = $1
	`

	queryUpsertValue = `
		INSERT INTO extension_storage (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key)
		DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
	`

	queryDeleteValue = `
		DELETE FROM extension_storage
		WHERE key = $1
	`

	queryNotifyChange = `SELECT pg_notify('afewwords_storage', $1)`

	queryListenChanges = `LISTEN afewwords_storage`
)
