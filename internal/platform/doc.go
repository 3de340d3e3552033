// Package platform smooths over OS differences in the filesystem operations
// devkit performs on managed files. On Windows, permission bits are not
// applied because the platform has no Unix-style mode.
package platform
