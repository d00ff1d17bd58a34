// Package core is the catalog business logic shared by the web server and
// the catalogctl command. It has no transport dependencies.
//
// # Imports
//
// [Service.ImportCSV] reads a catalog CSV through [WrapForImport] (BOM skip,
// UTF-8 repair, byte counting), decodes it with catalog.DecodeReport and
// validates every record. Valid records are upserted in one transaction
// together with an import history entry; rows that are too short or invalid
// come back as [FailedRow]s with their line numbers. [Service.ImportJSON]
// does the same for a JSON array checked against the record schema.
//
// Imports and pushes share an [OperationLimiter] so a burst of uploads cannot
// exhaust database connections.
//
// # Diff sessions
//
// A diff session holds a diff.Session in memory under the service mutex:
//
//	info, _ := svc.StartDiff(leftJSON, rightJSON)
//	_ = svc.Choose(info.ID, "DisplayName", "left")
//	res, _ := svc.FinishDiff(ctx, info.ID, true) // merge and store
//
// Sessions expire after Options.SessionTTL without access.
// [Service.CompareWithRemote] opens a session against the PlayFab copy of a
// stored item.
//
// # Errors
//
// [MapError] turns any error returned here into a [UserMessage] with a
// support code and an HTTP status. See error_messages.go for the code list.
//
// # Maintenance
//
// [Service.StartImportPruner] deletes old import history and expired
// sessions on a timer.
package core
