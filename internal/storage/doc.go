// Package storage opens the session backend selected by configuration.
//
// Three backends are available:
//
//   - memory: sharded in-process map, lost on restart
//   - badger: embedded Badger v3 database with native key TTL
//   - redis: shared Redis server, for several server instances
//
// Badger and Redis records go through the codec package and can be
// sealed with an adaptive cipher derived from the configured secret.
package storage
