// Package tokenstore persists the opaque session token between runs.
//
// FileStore keeps it in a single 0600 file and is the default. RedisStore
// keeps it under hiresphere:session:<profile>:token for setups where several
// processes share one login.
package tokenstore
