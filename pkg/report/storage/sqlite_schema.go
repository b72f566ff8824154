package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the reports table. Timestamps and durations are stored as
// integer nanoseconds so both drivers compare them the same way.
const Schema = `
CREATE TABLE IF NOT EXISTS reports (
    id TEXT PRIMARY KEY,
    fingerprint TEXT NOT NULL,

    source TEXT NOT NULL,
    format TEXT NOT NULL,
    version TEXT,
    digest TEXT,
    size INTEGER NOT NULL,

    valid BOOLEAN NOT NULL,
    violation_kind TEXT,
    violation_path TEXT,
    violation_field TEXT,
    message TEXT,

    groups_count INTEGER NOT NULL DEFAULT 0,
    hosts_count INTEGER NOT NULL DEFAULT 0,
    templates_count INTEGER NOT NULL DEFAULT 0,
    items_count INTEGER NOT NULL DEFAULT 0,
    triggers_count INTEGER NOT NULL DEFAULT 0,
    graphs_count INTEGER NOT NULL DEFAULT 0,
    screens_count INTEGER NOT NULL DEFAULT 0,
    images_count INTEGER NOT NULL DEFAULT 0,
    discovery_rules_count INTEGER NOT NULL DEFAULT 0,

    origin TEXT NOT NULL,
    commit_sha TEXT,

    validated_at INTEGER NOT NULL,
    recorded_at INTEGER NOT NULL,
    duration_ns INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_validated_at ON reports(validated_at);
CREATE INDEX IF NOT EXISTS idx_reports_source ON reports(source);
CREATE INDEX IF NOT EXISTS idx_reports_fingerprint ON reports(fingerprint);
CREATE INDEX IF NOT EXISTS idx_reports_violation_kind ON reports(violation_kind);
CREATE INDEX IF NOT EXISTS idx_reports_commit ON reports(commit_sha);
`

// InsertSchemaVersion records the schema version once.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion returns the newest applied schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const reportColumns = `id, fingerprint, source, format, version, digest, size,
    valid, violation_kind, violation_path, violation_field, message,
    groups_count, hosts_count, templates_count, items_count, triggers_count,
    graphs_count, screens_count, images_count, discovery_rules_count,
    origin, commit_sha, validated_at, recorded_at, duration_ns`

// sortColumns maps query sort fields to table columns.
var sortColumns = map[string]string{
	"validated_at": "validated_at",
	"recorded_at":  "recorded_at",
	"source":       "source",
	"size":         "size",
	"duration":     "duration_ns",
}
