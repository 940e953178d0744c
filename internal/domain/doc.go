// Package domain defines the core domain types and interfaces of the client.
//
// Concept-oriented files (user.go, session.go, notification.go, api.go, navigation.go, errors.go)
// hold the shared types and the consumer-side contracts. No implementation code, just contracts.
// Keeping the interfaces here prevents circular imports between the session, notification
// and adapter packages.
package domain
