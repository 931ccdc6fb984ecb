// Package connection is the tokguard-cli client for the server's admin and
// probe endpoints.
package connection
