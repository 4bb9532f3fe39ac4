/*
Package session manages live editing sessions and their persistence.

A Session is single-threaded by contract. The Manager serializes every call
per session ID with a reference-counted local mutex, optionally takes a
distributed lock so that replicas never drive the same session concurrently,
and persists a snapshot of the session's view state after each operation.
*/
package session
