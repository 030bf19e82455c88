package update

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/sandeepkv93/lifeos/internal/views"
)

func (m Model) renderFocusView() string {
	return views.RenderFocusPanel(views.FocusPanelData{
		Text:      m.Store.Snapshot().DailyFocus,
		Editing:   m.EditingFocus,
		InputView: m.focusInput.View(),
	})
}

func (m Model) renderTasksView() string {
	tasks := m.Store.Snapshot().Tasks
	rows := make([]views.TaskRowData, 0, len(tasks))
	for i, task := range tasks {
		rows = append(rows, views.TaskRowData{
			Title:     task.Title,
			Tag:       string(task.Tag),
			Time:      task.Time,
			Completed: task.Completed,
			Selected:  i == m.Cursor,
		})
	}
	done, total := m.Store.TaskStats()
	return views.RenderTasksPanel(views.TasksPanelData{Done: done, Total: total, Rows: rows})
}

func (m Model) renderBookView() string {
	book := m.Store.Snapshot().Book
	if book == nil {
		return views.RenderBookPanel(views.BookPanelData{})
	}
	pct := book.Progress()
	return views.RenderBookPanel(views.BookPanelData{
		Active:       true,
		Title:        book.Title,
		Author:       book.Author,
		CurrentPage:  book.CurrentPage,
		TotalPages:   book.TotalPages,
		Percent:      pct,
		ProgressView: m.bookProgress.ViewAs(float64(pct) / 100),
	})
}

func (m Model) renderLinksView() string {
	links := m.Store.Snapshot().Links
	out := make([]views.LinkData, 0, len(links))
	for _, l := range links {
		out = append(out, views.LinkData{Label: l.Label, URL: l.URL, Icon: string(l.Icon)})
	}
	return views.RenderLinksPanel(out)
}

func (m Model) renderTrackersView() string {
	tr := m.Store.Trackers()
	data := views.TrackersPanelData{
		Section:           string(m.Trackers.Section),
		ApplicationsCount: len(tr.Applications),
	}
	for i, h := range tr.Habits {
		data.Habits = append(data.Habits, views.HabitData{
			Name:     h.Name,
			Value:    h.Value,
			Color:    h.Color,
			Selected: m.Trackers.Section == SectionHabits && i == m.Trackers.Cursor,
		})
	}
	for i, p := range tr.Projects {
		data.Projects = append(data.Projects, views.ProjectData{
			Title:    p.Title,
			Status:   string(p.Status),
			Progress: p.Progress,
			Selected: m.Trackers.Section == SectionProjects && i == m.Trackers.Cursor,
		})
	}

	rows := make([]table.Row, 0, len(tr.Applications))
	for _, a := range tr.Applications {
		rows = append(rows, table.Row{a.University, string(a.Type), a.Deadline, string(a.Status)})
	}
	apps := m.appsTable
	apps.SetRows(rows)
	if m.Trackers.Section == SectionApplications {
		apps.Focus()
		apps.SetCursor(m.Trackers.Cursor)
	} else {
		apps.Blur()
	}
	data.ApplicationsTable = apps.View()
	return views.RenderTrackersPanel(data)
}

func (m Model) renderSyncView() string {
	cfg := m.Sync.CloudConfig()
	return views.RenderSyncPanel(views.SyncPanelData{
		Connected:  m.Info.Connected,
		BinID:      m.Info.BinID,
		MaskedKey:  m.Info.MaskedKey,
		AutoSync:   cfg.AutoSync,
		Status:     string(m.Info.Status),
		LastSynced: formatLastSynced(m.Info.LastSynced),
		Err:        m.Info.Err,
		FormActive: m.Connect.Active,
		BinInput:   m.binInput.View(),
		KeyInput:   m.keyInput.View(),
		FormAuto:   m.Connect.AutoSync,
	})
}

func (m Model) renderCommandPalette() string {
	if !m.Palette.Active {
		return ""
	}
	return views.RenderCommandPalette(true, m.commandInput.View())
}

func (m Model) renderNotificationsView() string {
	if len(m.Notifications) == 0 {
		return ""
	}
	n := m.Notifications[len(m.Notifications)-1]
	return views.RenderNotification(n.Level, n.Body)
}

func (m *Model) notify(title, body, level string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	m.Notifications = append(m.Notifications, Notification{
		Title: title,
		Body:  body,
		Level: level,
		At:    time.Now().UTC(),
	})
	if len(m.Notifications) > 40 {
		m.Notifications = m.Notifications[len(m.Notifications)-40:]
	}
}
