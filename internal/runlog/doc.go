// Package runlog persists the run ledger: one row per pipeline invocation
// and one row per finished task, in SQLite under the log directory.
//
// The ledger backs the status, runs, and logs commands. It is an operational
// record of what executed and how it exited, not a workflow queue: tasks are
// written only after they finish, so crash recovery never replays from it.
// Schema changes bump schemaVersion in schema.go; users delete runs.db to
// adopt the new schema.
package runlog
