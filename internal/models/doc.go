// Package models defines the value types shared by the remote store client, the clone engine, and the HTTP layer.
//
// The package contains two categories of types:
//
// 1. Remote snapshots: immutable views of items in the remote store
//   - [Node] : a file or folder with its identifier, name, kind, and optional size
//   - [SourceInfo] : what a share link resolves to, including a recursive item count for folders
//
// 2. Task state: what clients poll while a clone runs
//   - [Status] : the task lifecycle (starting, cloning, completed, failed)
//   - [Progress] : a point-in-time copy of a task record
//   - [Result] : the root of the finished copy
//
// Nodes are fetched on demand and never cached beyond a single operation.
package models
