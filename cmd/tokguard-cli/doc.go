// Package main provides tokguard-cli, the operator client for the
// tokguard-server admin API.
//
// Usage:
//
//	tokguard-cli system status
//	tokguard-cli session show tgss-...
//	tokguard-cli session revoke tgss-...
//	tokguard-cli token generate --local
package main
