// Package config defines optional tool settings shared by mason commands and
// provides helpers to load and validate them from a YAML file.
package config
