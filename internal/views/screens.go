package views

import (
	"fmt"
	"strings"
)

type TaskRowData struct {
	Title     string
	Tag       string
	Time      string
	Completed bool
	Selected  bool
}

type TasksPanelData struct {
	Done  int
	Total int
	Rows  []TaskRowData
}

type FocusPanelData struct {
	Text      string
	Editing   bool
	InputView string
}

type BookPanelData struct {
	Active       bool
	Title        string
	Author       string
	CurrentPage  int
	TotalPages   int
	Percent      int
	ProgressView string
}

type LinkData struct {
	Label string
	URL   string
	Icon  string
}

type HabitData struct {
	Name     string
	Value    int
	Color    string
	Selected bool
}

type ProjectData struct {
	Title    string
	Status   string
	Progress int
	Selected bool
}

type TrackersPanelData struct {
	Section           string
	Habits            []HabitData
	Projects          []ProjectData
	ApplicationsTable string
	ApplicationsCount int
}

type SyncPanelData struct {
	Connected  bool
	BinID      string
	MaskedKey  string
	AutoSync   bool
	Status     string
	LastSynced string
	Err        string
	FormActive bool
	BinInput   string
	KeyInput   string
	FormAuto   bool
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
	Markdown    string
}

func RenderFocusPanel(data FocusPanelData) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("focus:") + "\n")
	switch {
	case data.Editing:
		b.WriteString(data.InputView)
	case strings.TrimSpace(data.Text) == "":
		b.WriteString(mutedStyle.Render("(what matters most today? press f)"))
	default:
		b.WriteString(data.Text)
	}
	return b.String()
}

func RenderTasksPanel(data TasksPanelData) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render(fmt.Sprintf("tasks: %d/%d done", data.Done, data.Total)) + "\n")
	b.WriteString("actions: [j/k]move [space]toggle [d]delete [K/J]reorder\n")
	if len(data.Rows) == 0 {
		b.WriteString("  (no tasks)")
		return b.String()
	}
	for i, row := range data.Rows {
		cursor := " "
		if row.Selected {
			cursor = cursorStyle.Render(">")
		}
		check := "[ ]"
		title := row.Title
		if row.Completed {
			check = "[x]"
			title = doneStyle.Render(title)
		}
		line := fmt.Sprintf("%s %d. %s %s %s", cursor, i+1, check, tagBadge(row.Tag), title)
		if row.Time != "" {
			line += mutedStyle.Render(" @" + row.Time)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderBookPanel(data BookPanelData) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("reading:") + "\n")
	if !data.Active {
		b.WriteString(mutedStyle.Render("(no active book, use /book title | author | pages)"))
		return b.String()
	}
	b.WriteString(data.Title)
	if data.Author != "" {
		b.WriteString(mutedStyle.Render(" by " + data.Author))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("page %d of %d (%d%%)\n", data.CurrentPage, data.TotalPages, data.Percent))
	b.WriteString(data.ProgressView)
	return b.String()
}

func RenderLinksPanel(links []LinkData) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("quick links:") + "\n")
	if len(links) == 0 {
		b.WriteString(mutedStyle.Render("(none, use /link label url)"))
		return b.String()
	}
	for i, l := range links {
		b.WriteString(fmt.Sprintf("%d. [%s] %s %s\n", i+1, l.Icon, l.Label, mutedStyle.Render(l.URL)))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderTrackersPanel(data TrackersPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("trackers: section %s\n", data.Section))
	b.WriteString("actions: [tab]section [j/k]move [+/-]adjust [enter]status [d]delete\n\n")

	b.WriteString(sectionStyle.Render("habits:") + "\n")
	if len(data.Habits) == 0 {
		b.WriteString("  (none, use /habit name)\n")
	}
	for _, h := range data.Habits {
		b.WriteString(fmt.Sprintf("%s %-16s %s %3d%%\n", marker(h.Selected), h.Name, bar(h.Value, 20), h.Value))
	}

	b.WriteString("\n" + sectionStyle.Render("projects:") + "\n")
	if len(data.Projects) == 0 {
		b.WriteString("  (none, use /project title)\n")
	}
	for _, p := range data.Projects {
		b.WriteString(fmt.Sprintf("%s %-16s %-7s %s %3d%%\n", marker(p.Selected), p.Title, p.Status, bar(p.Progress, 14), p.Progress))
	}

	b.WriteString("\n" + sectionStyle.Render("applications:") + "\n")
	if data.ApplicationsCount == 0 {
		b.WriteString("  (none)")
	} else {
		b.WriteString(data.ApplicationsTable)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderSyncPanel(data SyncPanelData) string {
	var b strings.Builder
	b.WriteString("cloud sync:\n")
	if data.Connected {
		b.WriteString(fmt.Sprintf("bin: %s\nkey: %s\n", data.BinID, data.MaskedKey))
		b.WriteString(fmt.Sprintf("auto-sync: %s\n", onOff(data.AutoSync)))
	} else {
		b.WriteString("not connected\n")
	}
	b.WriteString(fmt.Sprintf("status: %s\nlast synced: %s\n", data.Status, data.LastSynced))
	if data.Err != "" {
		b.WriteString(errorStyle.Render("last error: "+data.Err) + "\n")
	}
	b.WriteString("actions: [c]connect [a]auto-sync [x]disconnect [s]save [l]load [e]export\n")
	if data.FormActive {
		b.WriteString("\nconnect:\n")
		b.WriteString(data.BinInput + "\n")
		b.WriteString(data.KeyInput + "\n")
		b.WriteString(fmt.Sprintf("auto-sync: %s (ctrl+a toggles)\n", onOff(data.FormAuto)))
		b.WriteString("keys: [tab] field [enter] connect [esc] cancel")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: %s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	out := fmt.Sprintf("help:\n%s view:\n%s\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
	if md := RenderMarkdown(data.Markdown); md != "" {
		out += "\n" + md
	}
	return out
}

func tagBadge(tag string) string {
	switch tag {
	case "Study":
		return "[STUDY]"
	case "Health":
		return "[HEALTH]"
	case "Work":
		return "[WORK]"
	default:
		return "[LIFE]"
	}
}

func marker(selected bool) string {
	if selected {
		return cursorStyle.Render(">")
	}
	return " "
}

func bar(pct, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
