package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m appModel) View() string {
	switch m.view {
	case viewBootstrap:
		s := m.spinner.View() + " Loading..."
		if m.width <= 0 || m.height <= 0 {
			return s
		}
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, s)
	case viewLogin:
		return m.viewLogin()
	}

	switch m.modal {
	case modalTaskForm:
		return m.placeModal(m.renderTaskForm())
	case modalConfirmDelete:
		return m.placeModal(m.renderConfirmDelete())
	}

	parts := []string{m.renderHeader()}
	if m.errText != "" {
		parts = append(parts, styleErrorBanner().Width(m.contentWidth()).Render(m.errText))
	}
	parts = append(parts, m.renderTasksBody(), "", m.renderFooter())
	return strings.Join(parts, "\n")
}

func (m appModel) placeModal(box string) string {
	if m.width <= 0 || m.height <= 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
