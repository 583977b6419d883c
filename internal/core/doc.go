// Package core provides the business logic of the event ledger.
//
// This package holds all domain rules independent of any transport or
// storage. It is used by the HTTP server, the ledgerctl admin tool and tests
// without modification.
//
// # Architecture
//
// A [Service] owns the two collections of the ledger:
//
//   - Events: dated records of who attended what, with an optional amount.
//   - Types: the ordered, unique type-tags the UI offers ("결혼", "장례", ...).
//
// Every mutation runs under one mutex and ends with a full synchronous
// rewrite through a [Persister]. Persistence failures are logged, never
// returned; the in-memory state stays authoritative.
//
// # Ids
//
// Event ids come from a counter that only moves forward while the process
// runs. Deleting every event resets it to 1. On startup it resumes at one
// past the largest persisted id.
//
// # Imports
//
// Spreadsheet imports ([Service.ImportSheet]) append rows to the ledger.
// Backup imports ([Service.ImportSnapshot]) replace both collections, giving
// every event a fresh id from the running counter. Both are bounded by an
// [ImportLimiter].
//
// # Error Handling
//
// Errors are sentinels or typed errors checked with errors.Is and errors.As.
// [MapError] turns them into user messages with a stable code:
//
//   - EVT001-EVT003: event validation and lookup
//   - TYP001-TYP003: type registry
//   - IMP001-IMP005: spreadsheet and backup imports
//   - FILE001-FILE003: uploaded files
package core
