// Package memory provides an in-process session backend.
//
// Records live in a sharded concurrent map. Expired records are hidden on
// read and removed by a background sweeper. Nothing survives a restart.
package memory
