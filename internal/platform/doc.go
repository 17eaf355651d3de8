// Package platform isolates OS-specific file handling.
package platform
