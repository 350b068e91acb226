package tui

import (
	"os"
	"os/exec"
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
)

// descriptionEditedMsg carries the text written by the external editor.
type descriptionEditedMsg struct {
	gen  int
	text string
	err  error
}

// editorArgv resolves $VISUAL, then $EDITOR, then vi.
func editorArgv() []string {
	for _, k := range []string{"VISUAL", "EDITOR"} {
		if argv := splitShellWords(os.Getenv(k)); len(argv) > 0 {
			return argv
		}
	}
	return []string{"vi"}
}

// editDescriptionCmd suspends the program, opens text in the user's editor and reports
// the saved file contents.
func editDescriptionCmd(gen int, text string) (tea.Cmd, error) {
	f, err := os.CreateTemp("", "taskflow-description-*.md")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	argv := editorArgv()
	c := exec.Command(argv[0], append(argv[1:], path)...)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return readEditedDescription(gen, path, err)
	}), nil
}

// readEditedDescription loads and removes the temp file.
func readEditedDescription(gen int, path string, runErr error) descriptionEditedMsg {
	defer func() { _ = os.Remove(path) }()
	if runErr != nil {
		return descriptionEditedMsg{gen: gen, err: runErr}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return descriptionEditedMsg{gen: gen, err: err}
	}
	// Editors append a final newline.
	return descriptionEditedMsg{gen: gen, text: strings.TrimSuffix(string(b), "\n")}
}

func (m appModel) handleDescriptionEdited(msg descriptionEditedMsg) (appModel, tea.Cmd) {
	if msg.gen != m.viewGen || m.modal != modalTaskForm || m.form.loading {
		return m, nil
	}
	if msg.err != nil {
		m.log.Warn("external editor", "err", msg.err)
		m.form.err = "Editor failed: " + msg.err.Error()
		return m, nil
	}
	m.form.err = ""
	m.form.description.SetValue(msg.text)
	m.form.setFocus(formFocusDescription)
	return m, nil
}

// splitShellWords splits an editor command line into argv. Single quotes, double quotes
// and backslash escapes (outside single quotes) are honored.
func splitShellWords(s string) []string {
	var (
		out     []string
		word    strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range s {
		switch {
		case escaped:
			word.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped, inWord = true, true
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '\'' || r == '"'):
			quote, inWord = r, true
		case quote == 0 && unicode.IsSpace(r):
			if inWord {
				out = append(out, word.String())
				word.Reset()
				inWord = false
			}
		default:
			word.WriteRune(r)
			inWord = true
		}
	}
	if inWord {
		out = append(out, word.String())
	}
	return out
}
