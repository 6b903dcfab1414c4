// Package core provides the business logic for company registry imports.
//
// The package is independent of any transport. Web handlers and the
// companyctl CLI both drive it through [Service].
//
// # Storage
//
// Persistence is reached only through [Store], which hands out scoped
// [Session] values:
//
//	err := store.WithSession(ctx, func(s core.Session) error {
//	    _, found, err := s.FindByKey(ctx, "123")
//	    ...
//	})
//
// WithSession commits when the callback returns nil and rolls back
// otherwise. Implementations live in internal/store.
//
// # Bulk Import
//
// [Importer.Import] reads a semicolon-separated, Latin-1 encoded export:
//
//  1. The stream is size-limited, stripped of a UTF-8 BOM and decoded ([WrapForImport])
//  2. Lines with quoting errors or too many fields are dropped
//  3. A file with no rows fails with [ErrEmptyInput]; an unreadable header with [*ParseError]
//  4. CNPJ_CIA, DENOM_SOCIAL and SIT must all be present ([*MissingColumnsError])
//  5. Each row is looked up by registry code; new codes are stamped and staged
//  6. Staged records are written with one InsertBatch and one commit
//
// Existing records are never updated. The returned [ImportReport] lists every
// projected row, skipped duplicates included, plus per-line outcomes.
//
// # Error Handling
//
// [MapError] turns any error into a coded [UserMessage] for clients.
package core
