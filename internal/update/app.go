package update

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/lifeos/internal/model"
	"github.com/sandeepkv93/lifeos/internal/syncer"
	"github.com/sandeepkv93/lifeos/internal/views"
)

func (m Model) Init() tea.Cmd {
	if m.Sync != nil {
		return waitForSyncCmd(m.Sync.Updates())
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		m.clampCursors()

		if m.Palette.Active {
			if typed.String() == m.Keys.Help {
				m.HelpVisible = !m.HelpVisible
				return m, nil
			}
			return m.handlePaletteKey(typed)
		}
		if m.EditingFocus {
			return m.handleFocusKey(typed), nil
		}
		if m.Connect.Active {
			return m.handleConnectKey(typed)
		}

		switch typed.String() {
		case "/":
			m.Palette.Active = true
			m.Palette.Input = ""
			m.commandInput.Focus()
			m.commandInput.SetValue("")
			m.Status = StatusBar{Text: "command palette active"}
			return m, nil
		case m.Keys.Dashboard:
			m.CurrentView = ViewDashboard
			return m, nil
		case m.Keys.Trackers:
			m.CurrentView = ViewTrackers
			return m, nil
		case m.Keys.Sync:
			m.CurrentView = ViewSync
			return m, nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown"}
			} else {
				m.Status = StatusBar{Text: "help hidden"}
			}
			return m, nil
		case "s":
			return m, m.forceSaveCmd()
		case "l":
			return m, m.forceLoadCmd()
		case "e":
			return m, m.exportCmd()
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}
		switch m.CurrentView {
		case ViewDashboard:
			return m.handleDashboardKey(typed), nil
		case ViewTrackers:
			return m.handleTrackersKey(typed), nil
		case ViewSync:
			return m.handleSyncKey(typed)
		}
	case spinner.TickMsg:
		if m.spinnerActive {
			if m.Info.Status != syncer.StatusSyncing {
				m.spinnerActive = false
				return m, nil
			}
			var cmd tea.Cmd
			m.syncSpinner, cmd = m.syncSpinner.Update(typed)
			return m, cmd
		}
	case SyncInfoMsg:
		m.Info = typed.Info
		var cmds []tea.Cmd
		if m.Sync != nil {
			cmds = append(cmds, waitForSyncCmd(m.Sync.Updates()))
		}
		if typed.Info.Status == syncer.StatusSyncing && !m.spinnerActive {
			m.spinnerActive = true
			cmds = append(cmds, m.syncSpinner.Tick)
		}
		if typed.Info.Status == syncer.StatusError && typed.Info.Err != "" {
			m.notify("Sync", typed.Info.Err, "error")
		}
		return m, tea.Batch(cmds...)
	case ActionDoneMsg:
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: fmt.Sprintf("%s failed: %v", typed.Action, typed.Err), IsError: true}
			m.notify("Error", m.Status.Text, "error")
			return m, nil
		}
		m.Status = StatusBar{Text: typed.Message}
		m.notify(typed.Action, typed.Message, "info")
		return m, nil
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	leftPane := ""
	rightPane := ""
	switch m.CurrentView {
	case ViewDashboard:
		leftPane = strings.Join([]string{m.renderFocusView(), m.renderTasksView()}, "\n\n")
		rightPane = strings.Join([]string{m.renderBookView(), m.renderLinksView()}, "\n\n")
	case ViewTrackers:
		leftPane = m.renderTrackersView()
	case ViewSync:
		leftPane = m.renderSyncView()
	}
	if extra := strings.TrimSpace(m.renderCommandPalette() + "\n" + m.renderHelpIfVisible()); extra != "" {
		if rightPane != "" {
			rightPane += "\n\n"
		}
		rightPane += extra
	}

	done, total := m.Store.TaskStats()
	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("lifeos | view: %s | tasks: %d/%d | %s", m.CurrentView, done, total, time.Now().Format("Mon Jan 2")),
		LeftPane:     leftPane,
		RightPane:    rightPane,
		StatusLine:   status,
		SyncLine:     m.syncLine(),
		SyncState:    string(m.Info.Status),
		Notification: m.renderNotificationsView(),
		Footer: fmt.Sprintf("keys: %s dashboard | %s trackers | %s sync | / command | s save | l load | e export | %s help | %s quit",
			m.Keys.Dashboard, m.Keys.Trackers, m.Keys.Sync, m.Keys.Help, m.Keys.Quit),
	})
}

func isKnownView(v View) bool {
	switch v {
	case ViewDashboard, ViewTrackers, ViewSync:
		return true
	default:
		return false
	}
}

func (m Model) syncLine() string {
	if m.Info.Status == "" {
		return ""
	}
	state := string(m.Info.Status)
	if m.spinnerActive && m.Info.Status == syncer.StatusSyncing {
		state = m.syncSpinner.View() + " " + state
	}
	cloud := "local only"
	if m.Info.Connected {
		cloud = "cloud: " + m.Info.BinID
		if m.Info.AutoSync {
			cloud += " (auto)"
		}
	}
	return fmt.Sprintf("sync: %s | %s | last synced: %s", state, cloud, formatLastSynced(m.Info.LastSynced))
}

func (m Model) handleFocusKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.EditingFocus = false
		m.focusInput.Blur()
		m.Status = StatusBar{Text: "focus unchanged"}
	case "enter":
		m.Store.SetFocus(m.focusInput.Value())
		m.EditingFocus = false
		m.focusInput.Blur()
		m.Status = StatusBar{Text: "focus updated"}
	default:
		m.focusInput, _ = m.focusInput.Update(msg)
	}
	return m
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) Model {
	tasks := m.Store.Snapshot().Tasks
	switch msg.String() {
	case "j", "down":
		if m.Cursor < len(tasks)-1 {
			m.Cursor++
		}
	case "k", "up":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case " ", "x":
		if task, ok := m.Store.TaskAt(m.Cursor); ok {
			m.Store.ToggleTask(task.ID)
			m.Status = StatusBar{Text: fmt.Sprintf("toggled: %s", task.Title)}
		}
	case "d", "delete":
		if task, ok := m.Store.TaskAt(m.Cursor); ok {
			m.Store.DeleteTask(task.ID)
			m.Status = StatusBar{Text: fmt.Sprintf("deleted: %s", task.Title)}
			m.clampCursors()
		}
	case "K", "shift+up":
		if m.Store.MoveTaskUp(m.Cursor) {
			m.Cursor--
		}
	case "J", "shift+down":
		if m.Store.MoveTaskDown(m.Cursor) {
			m.Cursor++
		}
	case "f":
		m.EditingFocus = true
		m.focusInput.SetValue(m.Store.Snapshot().DailyFocus)
		m.focusInput.CursorEnd()
		m.focusInput.Focus()
		m.Status = StatusBar{Text: "editing focus"}
	case "+", "=":
		if !m.Store.UpdatePage(1) {
			m.Status = StatusBar{Text: "no active book", IsError: true}
		}
	case "-":
		if !m.Store.UpdatePage(-1) {
			m.Status = StatusBar{Text: "no active book", IsError: true}
		}
	}
	return m
}

func (m Model) handleTrackersKey(msg tea.KeyMsg) Model {
	tr := m.Store.Trackers()
	size := m.trackerSectionSize(tr)
	switch msg.String() {
	case "tab":
		m.Trackers.Section = nextSection(m.Trackers.Section)
		m.Trackers.Cursor = 0
	case "j", "down":
		if m.Trackers.Cursor < size-1 {
			m.Trackers.Cursor++
		}
	case "k", "up":
		if m.Trackers.Cursor > 0 {
			m.Trackers.Cursor--
		}
	case "+", "=":
		m.adjustTracker(tr, 10)
	case "-":
		m.adjustTracker(tr, -10)
	case "enter":
		m = m.cycleTrackerStatus(tr)
	case "d", "delete":
		m.deleteTracker(tr)
		m.clampCursors()
	}
	return m
}

func (m Model) handleSyncKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "c":
		cfg := m.Sync.CloudConfig()
		m.Connect = ConnectFormState{Active: true, AutoSync: cfg.AutoSync}
		m.binInput.SetValue(cfg.BinID)
		m.keyInput.SetValue(cfg.APIKey)
		m.binInput.Focus()
		m.keyInput.Blur()
		m.Status = StatusBar{Text: "enter cloud credentials"}
		return m, nil
	case "a":
		cfg := m.Sync.CloudConfig()
		if !cfg.Enabled() {
			m.Status = StatusBar{Text: "connect before enabling auto-sync", IsError: true}
			return m, nil
		}
		cfg.AutoSync = !cfg.AutoSync
		return m, m.setCloudConfigCmd(cfg, fmt.Sprintf("auto-sync %s", onOff(cfg.AutoSync)))
	case "x":
		return m, m.disconnectCmd()
	}
	return m, nil
}

func (m Model) handleConnectKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeConnectForm()
		m.Status = StatusBar{Text: "connect cancelled"}
		return m, nil
	case "tab", "shift+tab":
		m.Connect.Field = (m.Connect.Field + 1) % 2
		if m.Connect.Field == 0 {
			m.binInput.Focus()
			m.keyInput.Blur()
		} else {
			m.keyInput.Focus()
			m.binInput.Blur()
		}
		return m, nil
	case "ctrl+a":
		m.Connect.AutoSync = !m.Connect.AutoSync
		return m, nil
	case "enter":
		cfg := model.CloudConfig{
			BinID:    m.binInput.Value(),
			APIKey:   m.keyInput.Value(),
			AutoSync: m.Connect.AutoSync,
		}.Normalized()
		if !cfg.Enabled() {
			m.Status = StatusBar{Text: "bin id and api key are required", IsError: true}
			return m, nil
		}
		m.closeConnectForm()
		return m, m.setCloudConfigCmd(cfg, fmt.Sprintf("connected to %s", cfg.BinID))
	}
	if m.Connect.Field == 0 {
		m.binInput, _ = m.binInput.Update(msg)
	} else {
		m.keyInput, _ = m.keyInput.Update(msg)
	}
	return m, nil
}

func (m *Model) closeConnectForm() {
	m.Connect = ConnectFormState{}
	m.binInput.Blur()
	m.keyInput.Blur()
	m.keyInput.SetValue("")
}

func (m *Model) clampCursors() {
	if n := len(m.Store.Snapshot().Tasks); m.Cursor >= n {
		m.Cursor = n - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	if n := m.trackerSectionSize(m.Store.Trackers()); m.Trackers.Cursor >= n {
		m.Trackers.Cursor = n - 1
	}
	if m.Trackers.Cursor < 0 {
		m.Trackers.Cursor = 0
	}
}

func (m Model) trackerSectionSize(tr model.Trackers) int {
	switch m.Trackers.Section {
	case SectionProjects:
		return len(tr.Projects)
	case SectionApplications:
		return len(tr.Applications)
	default:
		return len(tr.Habits)
	}
}

func nextSection(s TrackerSection) TrackerSection {
	switch s {
	case SectionHabits:
		return SectionProjects
	case SectionProjects:
		return SectionApplications
	default:
		return SectionHabits
	}
}

func (m *Model) adjustTracker(tr model.Trackers, delta int) {
	i := m.Trackers.Cursor
	switch m.Trackers.Section {
	case SectionHabits:
		if i < len(tr.Habits) {
			m.Store.SetHabitValue(tr.Habits[i].ID, tr.Habits[i].Value+delta)
		}
	case SectionProjects:
		if i < len(tr.Projects) {
			m.Store.SetProjectProgress(tr.Projects[i].ID, tr.Projects[i].Progress+delta)
		}
	}
}

func (m Model) cycleTrackerStatus(tr model.Trackers) Model {
	i := m.Trackers.Cursor
	var err error
	switch m.Trackers.Section {
	case SectionProjects:
		if i < len(tr.Projects) {
			err = m.Store.SetProjectStatus(tr.Projects[i].ID, nextProjectStatus(tr.Projects[i].Status))
		}
	case SectionApplications:
		if i < len(tr.Applications) {
			err = m.Store.SetApplicationStatus(tr.Applications[i].ID, nextApplicationStatus(tr.Applications[i].Status))
		}
	}
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
	}
	return m
}

func (m *Model) deleteTracker(tr model.Trackers) {
	i := m.Trackers.Cursor
	switch m.Trackers.Section {
	case SectionHabits:
		if i < len(tr.Habits) {
			m.Store.DeleteHabit(tr.Habits[i].ID)
		}
	case SectionProjects:
		if i < len(tr.Projects) {
			m.Store.DeleteProject(tr.Projects[i].ID)
		}
	case SectionApplications:
		if i < len(tr.Applications) {
			m.Store.DeleteApplication(tr.Applications[i].ID)
		}
	}
}

func nextProjectStatus(s model.ProjectStatus) model.ProjectStatus {
	switch s {
	case model.ProjectActive:
		return model.ProjectPaused
	case model.ProjectPaused:
		return model.ProjectDone
	default:
		return model.ProjectActive
	}
}

func nextApplicationStatus(s model.ApplicationStatus) model.ApplicationStatus {
	switch s {
	case model.ApplicationNotStarted:
		return model.ApplicationInProgress
	case model.ApplicationInProgress:
		return model.ApplicationSubmitted
	case model.ApplicationSubmitted:
		return model.ApplicationAccepted
	default:
		return model.ApplicationNotStarted
	}
}

func waitForSyncCmd(ch <-chan syncer.Info) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		info, ok := <-ch
		if !ok {
			return nil
		}
		return SyncInfoMsg{Info: info}
	}
}

func (m Model) actionCmd(action string, fn func(ctx context.Context) (string, error)) tea.Cmd {
	timeout := m.actionTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		message, err := fn(ctx)
		return ActionDoneMsg{Action: action, Message: message, Err: err}
	}
}

func (m Model) forceSaveCmd() tea.Cmd {
	sync := m.Sync
	return m.actionCmd("save", func(ctx context.Context) (string, error) {
		if err := sync.ForceSave(ctx); err != nil {
			return "", err
		}
		return "saved to cloud", nil
	})
}

func (m Model) forceLoadCmd() tea.Cmd {
	sync := m.Sync
	return m.actionCmd("load", func(ctx context.Context) (string, error) {
		if err := sync.ForceLoad(ctx); err != nil {
			return "", err
		}
		return "loaded from cloud", nil
	})
}

func (m Model) exportCmd() tea.Cmd {
	sync := m.Sync
	return m.actionCmd("export", func(context.Context) (string, error) {
		path, err := sync.Export()
		if err != nil {
			return "", err
		}
		return "exported to " + path, nil
	})
}

func (m Model) importCmd(path string) tea.Cmd {
	sync := m.Sync
	return m.actionCmd("import", func(context.Context) (string, error) {
		if err := sync.ImportFile(path); err != nil {
			return "", err
		}
		return "imported " + path, nil
	})
}

func (m Model) setCloudConfigCmd(cfg model.CloudConfig, done string) tea.Cmd {
	sync := m.Sync
	return m.actionCmd("connect", func(ctx context.Context) (string, error) {
		if err := sync.SetCloudConfig(ctx, cfg); err != nil {
			return "", err
		}
		return done, nil
	})
}

func (m Model) disconnectCmd() tea.Cmd {
	sync := m.Sync
	return m.actionCmd("disconnect", func(ctx context.Context) (string, error) {
		if err := sync.Disconnect(ctx); err != nil {
			return "", err
		}
		return "cloud sync disconnected", nil
	})
}
