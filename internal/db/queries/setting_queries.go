package queries

// --- Setting Query Constants ---

const GetSettingQuery = `
SELECT key, value, description, updated_at
FROM settings
WHERE key = $1
`

const ListSettingsQuery = `
SELECT key, value, description, updated_at
FROM settings
ORDER BY key ASC
`

const UpsertSettingQuery = `
INSERT INTO settings (key, value, description, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value, description = EXCLUDED.description, updated_at = EXCLUDED.updated_at
`

// SeedSettingQuery inserts a default only when the key does not exist yet, so
// startup seeding never clobbers operator-edited values.
const SeedSettingQuery = `
INSERT INTO settings (key, value, description, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (key) DO NOTHING
`
