//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
// Package common holds small filesystem helpers shared by the command
// services: file copying with parent creation and existence probes.
package common
