// Package storage provides the durable key-value stores that back the
// authentication state. Only the client registration record is written in
// normal operation.
//
// Backends:
//   - FileStore: one 0600 file per key under $XDG_DATA_HOME/dcrclient
//   - RedisStore: plain strings under a key prefix
//   - MemoryStore: process-local, for tests
package storage
