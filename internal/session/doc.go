// Package session owns the client's authentication state: who is logged in,
// as which role, and whether the startup identity check is still running.
//
// A Store is the single writer of SessionState. Every transition replaces the
// whole value and is published to subscribers in order.
package session
