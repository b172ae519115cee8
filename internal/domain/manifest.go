package domain

// IndexSchemaVersion is the persisted record layout version. Bump on
// incompatible changes to the stored record shape.
const IndexSchemaVersion = 1

// IndexManifest describes the persisted index layout. It is written on every
// mutation and validated when the indexes are rebuilt on startup.
type IndexManifest struct {
	SchemaVersion int `json:"schema_version"`
	Dimension     int `json:"dimension"`
	Documents     int `json:"documents"`
}
