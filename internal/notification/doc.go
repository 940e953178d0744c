// Package notification keeps the local notification collection in step with
// the server. The collection is refreshed wholesale by polling while a
// session is authenticated, and patched locally after each confirmed
// mutation (mark read, mark all read, delete).
package notification
