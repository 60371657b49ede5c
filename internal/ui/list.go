package ui

import (
	"github.com/charmbracelet/bubbles/list"
)

var _ list.Item = errorItem{}

// errorItem wraps one per-item failure message to implement [list.Item].
type errorItem struct {
	msg string
}

func (i errorItem) FilterValue() string { return i.msg }
func (i errorItem) Title() string       { return i.msg }
func (i errorItem) Description() string { return "" }

func errorItems(msgs []string) []list.Item {
	items := make([]list.Item, len(msgs))
	for i, msg := range msgs {
		items[i] = errorItem{msg: msg}
	}
	return items
}
