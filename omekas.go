// Package omekas provides the Go client model for an Omeka S repository API.
//
// The library is layered:
//  1. Repository - entry point built from config.Config; lists and looks up items, properties and vocabularies
//  2. api.Client - merges the API key pair into every request and caches successful GETs
//  3. Resource model - Item, Property, Vocabulary and Value views over the JSON-LD payloads
//  4. Ledger - every Item keeps an append-only history of its payload (created, updated, refreshed)
//
// Entities hold a navigational handle to their Repository: cross references
// (Property.Vocabulary, Value.Property, Vocabulary.Properties) are looked up
// again on every call. Only the underlying HTTP responses are cached.
//
// All calls are synchronous. Items are not safe for concurrent mutation.
package omekas
