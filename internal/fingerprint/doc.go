// Package fingerprint computes the content digests devkit uses to tell
// whether a managed file still matches what was last written to it.
package fingerprint
