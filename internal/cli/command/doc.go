// Package command defines the tokguard-cli commands.
//
// Every command talks to a running tokguard-server through the admin API,
// except "token generate --local", "config" and "version".
package command
