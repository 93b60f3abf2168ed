// Package patterns provides embedded default recognizer definitions.
// The YAML file uses the Presidio-compatible recognizer format with local
// extensions (sensitivity, validate).
package patterns

import _ "embed"

//go:embed pii_kr.yaml
var piiKRYAML []byte

// PIIKRYAML returns the embedded default Korean PII recognizer definitions.
func PIIKRYAML() []byte { return piiKRYAML }
