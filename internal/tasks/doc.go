// Package tasks implements tree cloning and the asynchronous task lifecycle around it.
//
// # Components
//
// [Counter] walks a source tree and estimates how many items a clone will create.
// Failures while counting are logged and never propagated.
//
// [Cloner] walks the same tree again and recreates it, naming every copy with a prefix ("Copy of " by default).
// Each finished item is reported to a [Reporter]: the completed count grows by exactly one and the current
// file name is replaced in the same step.
//
// [Tracker] holds every task record in memory under a single lock. Readers get copies.
//
// [Runner] owns a bounded worker pool. [Runner.Start] creates the record synchronously in the starting
// state, then queues the count+clone job. When the queue is full the task fails immediately.
//
// [Resolve] backs share-link parsing: it extracts the id, fetches metadata, and counts folders.
//
// # Lifecycle
//
//	starting -> cloning -> completed
//	                    -> failed
//	starting -> failed
//
// Terminal states never change. Counting and cloning are separate walks of a live store, so a tree
// that changes in between can finish with completed above total.
//
// # Failure Isolation
//
// A child that fails to copy is recorded in the task's errors and its siblings continue.
// A folder that cannot be fetched, created, or listed fails together with its subtree.
// If the root fails, the task fails. Nothing is retried.
package tasks
