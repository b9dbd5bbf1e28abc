package queries

// --- Attribute Query Constants ---

const ListAttributesByClientQuery = `
SELECT id, client_id, template_id, value, updated_at
FROM attributes
WHERE client_id = $1
ORDER BY template_id ASC
`

// UpsertAttributeQuery writes one submitted editable row inside the
// client-save transaction. Stored rows the save does not submit (values for
// deactivated templates) are left alone; only submitted pairs are touched.
const UpsertAttributeQuery = `
INSERT INTO attributes (client_id, template_id, value, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (client_id, template_id) DO UPDATE
SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`
