/*
Package session manages the open editors of a process.

The Manager keeps one lattice.Editor per document, serializes access to it with
reference-counted mutexes and commits through the configured change log. An
optional distributed lock guards commits when several replicas share a store.
*/
package session
