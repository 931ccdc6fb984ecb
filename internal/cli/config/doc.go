// Package config provides the tokguard-cli configuration.
//
// Values come from ~/.tokguard/cli.yaml, then TOKGUARD_CLI_* environment
// variables, then command-line flags. Later sources win.
package config
