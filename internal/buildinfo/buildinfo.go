// Package buildinfo carries version metadata stamped at build time.
package buildinfo

// Version is overridden via -ldflags "-X skiff/internal/buildinfo.Version=...".
var Version = "dev"
