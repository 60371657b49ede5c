package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/dclone/internal/models"
)

var (
	_ tea.Msg = progressMsg{}
	_ tea.Msg = tickMsg{}
)

// progressMsg carries the result of one poll.
type progressMsg struct {
	progress *models.Progress
	err      error
}

// tickMsg asks the model to poll again.
type tickMsg time.Time
