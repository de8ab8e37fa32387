package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/halvore/scour/internal/index"
	"github.com/halvore/scour/internal/render"
	"github.com/halvore/scour/internal/search"
)

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	sessionKey string
	content    string
	hitLine    int
	err        error
}

// loadPreviewCmd returns a tea.Cmd that re-parses the session from its
// source and renders the anonymized conversation preview async.
func loadPreviewCmd(db *index.DB, loader *render.Loader, r search.Result, query string, width int) tea.Cmd {
	return func() tea.Msg {
		content, hitLine, err := renderPreview(db, loader, r.SessionKey, query, width)
		return previewRenderedMsg{
			sessionKey: r.SessionKey,
			content:    content,
			hitLine:    hitLine,
			err:        err,
		}
	}
}

func renderPreview(db *index.DB, loader *render.Loader, sessionKey, query string, width int) (string, int, error) {
	row, err := db.GetSessionByKey(sessionKey)
	if err != nil {
		return "", -1, fmt.Errorf("get session: %w", err)
	}
	if row == nil {
		return "", -1, fmt.Errorf("session not found: %s", sessionKey)
	}
	session, err := loader.Load(row.Source, row.FilePath, row.SessionID)
	if err != nil {
		return "", -1, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return "(empty session)", -1, nil
	}
	content, hitLine := render.Conversation(session, render.Options{
		Width: width,
		Query: query,
	})
	return content, hitLine, nil
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
