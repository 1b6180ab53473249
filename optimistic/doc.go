// Package optimistic resolves edit conflicts for records protected by a
// version token.
//
// # Overview
//
// A caller reads a record, lets a user change it and then tries to write it
// back. The write only succeeds when the version token stored next to the
// record still equals the token the caller read. When it does not, somebody
// else changed (or deleted) the record in between, and the Resolver builds a
// ConflictReport describing exactly which fields were changed by that third
// party.
//
// # Basic Usage
//
//	resolver := optimistic.NewResolver[int64]()
//	outcome, err := resolver.AttemptUpdate(ctx, store, expected, attempted)
//	switch {
//	case errors.Is(err, optimistic.ErrInvalidArgument):
//		// programmer error, expected and attempted describe different records
//	case errors.Is(err, optimistic.ErrTransient):
//		// re-read the record and run the whole cycle again
//	case outcome.Status == optimistic.StatusSuccess:
//		// outcome.Version holds the freshly issued token
//	case outcome.Conflict.Deleted:
//		// the record is gone, do not resubmit
//	default:
//		// show outcome.Conflict.FieldConflicts and offer
//		// outcome.Conflict.MergedCandidate for resubmission
//	}
//
// # Conflict Detection
//
// Every field present in the attempted record is compared between the
// expected snapshot (what the caller started from) and the actual persisted
// record. Only fields that differ there are reported: they were changed
// underneath the caller. Fields the caller changed on its own are never
// reported. The merged candidate keeps the attempted values for uncontested
// fields, takes the persisted values for contested ones and carries the
// persisted version token, so resubmitting it against an unchanged store
// succeeds.
//
// # Stores
//
// The Store interface is the only collaborator. ConditionalWrite must be an
// atomic compare-and-write on the version token; the Resolver does no locking
// of its own and never retries.
package optimistic
