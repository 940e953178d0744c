// Package app provides the client context: one SessionStore and one
// NotificationSync per process, wired so that session transitions drive
// notification polling.
//
// Callers construct the context explicitly, call Init (or Resolve for one-shot
// commands) and Teardown; nothing here is a package-level singleton.
package app
