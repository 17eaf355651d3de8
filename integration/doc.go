//go:build integration

// Package integration contains end-to-end tests that push and pull vaults
// through a real OCI registry.
//
// The tests start a registry:2 container with testcontainers and only build
// with the integration tag:
//
//	go test -tags integration ./integration/...
//
// Set SKIP_DOCKER_TESTS=1 to skip them on machines without Docker.
package integration
