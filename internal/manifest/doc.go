// Package manifest parses and validates family.yaml, the manifest that
// describes one template family: where its files land in a project, whether
// they are executable, and which variables they reference. Manifests are
// checked against the JSON Schema embedded from schema/family.schema.json.
package manifest
