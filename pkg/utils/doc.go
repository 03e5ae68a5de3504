// Package utils provides small helpers shared across packages: CQL
// identifier quoting and pointer construction.
package utils
