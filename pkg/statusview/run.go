package statusview

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/baserock/morph/internal/gitcmd"
)

// Watch runs the interactive status view until the user quits, re-collecting
// branch/clone health from workspaceDir every interval so the view stays
// live instead of rendering a single static snapshot.
func Watch(exec *gitcmd.Executor, workspaceDir string, branches []Branch, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	_, err := tea.NewProgram(NewWatchModel(exec, workspaceDir, branches, interval), tea.WithAltScreen()).Run()
	return err
}
