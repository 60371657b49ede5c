// Package ui implements a terminal progress watcher for clone tasks using bubbletea's Elm architecture.
//
// The watcher has two views:
//  1. [WatchView] : spinner, progress bar, item counts, and the item being copied
//  2. [ResultView] : final status, the new root copy, and a scrollable list of per-item errors
//
// The [Model] polls a [ProgressFunc] on a tea.Tick interval, so the same view serves tasks running
// in-process and tasks running on a `dclone serve` instance.
//
// Keys: q/esc/ctrl+c quit, j/k scroll the error list.
package ui
