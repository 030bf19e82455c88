package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/sandeepkv93/lifeos/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

const paletteHelpMarkdown = `
| command | effect |
|---|---|
| /add <title> [tag:Work] [at:09:00] | add a task |
| /done <n>, /rm <n>, /up <n>, /down <n> | toggle, delete, reorder task n |
| /focus <text> | set the daily focus |
| /link <label> <url> [icon:Code] | add a quick link |
| /unlink <n> | remove link n |
| /book <title> \| <author> \| <pages> | start a book |
| /page <+n or -n> | advance the book |
| /habit <name> [color:blue], /project <title> | add a tracker |
| /save, /load | push or pull the cloud copy |
| /export, /import <path> | write or read a backup file |
`

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return m.renderHelpView()
}

func (m Model) renderHelpView() string {
	global := toKeyBindings(m.globalBindings())
	contextual := toKeyBindings(m.viewBindings())
	lines := make([]string, 0, len(contextual))
	for _, kb := range m.viewBindings() {
		lines = append(lines, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	helper := m.helpModel
	helper.ShowAll = true
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    lines,
		HelpView: helper.View(helpKeyMap{
			short: global,
			full:  [][]key.Binding{global, contextual},
		}),
		Markdown: strings.TrimSpace(paletteHelpMarkdown),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Dashboard, Action: "switch to Dashboard"},
		{Key: m.Keys.Trackers, Action: "switch to Trackers"},
		{Key: m.Keys.Sync, Action: "switch to Sync"},
		{Key: "/", Action: "open command palette"},
		{Key: "s/l", Action: "force save / force load"},
		{Key: "e", Action: "export backup"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit app"},
	}
}

func (m Model) viewBindings() []KeyBinding {
	switch m.CurrentView {
	case ViewDashboard:
		return []KeyBinding{
			{Key: "j/k", Action: "move cursor"},
			{Key: "space", Action: "toggle task"},
			{Key: "d", Action: "delete task"},
			{Key: "K/J", Action: "move task up / down"},
			{Key: "f", Action: "edit focus"},
			{Key: "+/-", Action: "turn book page"},
		}
	case ViewTrackers:
		return []KeyBinding{
			{Key: "tab", Action: "next section"},
			{Key: "j/k", Action: "move cursor"},
			{Key: "+/-", Action: "adjust value by 10"},
			{Key: "enter", Action: "cycle status"},
			{Key: "d", Action: "delete"},
		}
	case ViewSync:
		return []KeyBinding{
			{Key: "c", Action: "connect cloud bin"},
			{Key: "a", Action: "toggle auto-sync"},
			{Key: "x", Action: "disconnect"},
		}
	default:
		return []KeyBinding{{Key: "-", Action: "no contextual bindings"}}
	}
}

func toKeyBindings(kbs []KeyBinding) []key.Binding {
	out := make([]key.Binding, 0, len(kbs))
	for _, kb := range kbs {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
