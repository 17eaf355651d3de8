// Package vaulttype holds types shared between the vault packages.
package vaulttype

// Sealed is the placeholder reported for values that need the private key.
const Sealed = "[ENCRYPTED]"
