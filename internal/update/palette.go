package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/lifeos/internal/commands"
	"github.com/sandeepkv93/lifeos/internal/model"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.commandInput.CursorEnd()
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		m.commandInput, _ = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
	}
	return m, nil
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.closePalette()
		return m, nil
	}

	var follow tea.Cmd
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			task, err := m.Store.AddTask(a.Title, a.Tag, a.Time)
			if err != nil {
				return commands.Result{}, err
			}
			m.CurrentView = ViewDashboard
			m.Cursor = 0
			return commands.Result{Message: fmt.Sprintf("added task: %s [%s]", task.Title, task.Tag)}, nil
		},
		Done: func(a commands.IndexArgs) (commands.Result, error) {
			task, err := m.taskAt(a.Index)
			if err != nil {
				return commands.Result{}, err
			}
			m.Store.ToggleTask(task.ID)
			return commands.Result{Message: fmt.Sprintf("toggled task: %s", task.Title)}, nil
		},
		Remove: func(a commands.IndexArgs) (commands.Result, error) {
			task, err := m.taskAt(a.Index)
			if err != nil {
				return commands.Result{}, err
			}
			m.Store.DeleteTask(task.ID)
			m.clampCursors()
			return commands.Result{Message: fmt.Sprintf("deleted task: %s", task.Title)}, nil
		},
		Up: func(a commands.IndexArgs) (commands.Result, error) {
			if !m.Store.MoveTaskUp(a.Index) {
				return commands.Result{}, outOfRange("task", a.Index)
			}
			return commands.Result{Message: fmt.Sprintf("moved task %d up", a.Index+1)}, nil
		},
		Down: func(a commands.IndexArgs) (commands.Result, error) {
			if !m.Store.MoveTaskDown(a.Index) {
				return commands.Result{}, outOfRange("task", a.Index)
			}
			return commands.Result{Message: fmt.Sprintf("moved task %d down", a.Index+1)}, nil
		},
		Focus: func(a commands.FocusArgs) (commands.Result, error) {
			m.Store.SetFocus(a.Text)
			return commands.Result{Message: "focus updated"}, nil
		},
		Link: func(a commands.LinkArgs) (commands.Result, error) {
			link, err := m.Store.AddLink(a.Label, a.URL, a.Icon)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("added link: %s", link.Label)}, nil
		},
		Unlink: func(a commands.IndexArgs) (commands.Result, error) {
			link, ok := m.Store.LinkAt(a.Index)
			if !ok {
				return commands.Result{}, outOfRange("link", a.Index)
			}
			m.Store.DeleteLink(link.ID)
			return commands.Result{Message: fmt.Sprintf("removed link: %s", link.Label)}, nil
		},
		Book: func(a commands.BookArgs) (commands.Result, error) {
			if err := m.Store.UpdateBook(a.Book); err != nil {
				return commands.Result{}, err
			}
			if a.Book == nil {
				return commands.Result{Message: "book cleared"}, nil
			}
			return commands.Result{Message: fmt.Sprintf("reading: %s", a.Book.Title)}, nil
		},
		Page: func(a commands.PageArgs) (commands.Result, error) {
			if !m.Store.UpdatePage(a.Delta) {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no active book"}
			}
			book := m.Store.Snapshot().Book
			return commands.Result{Message: fmt.Sprintf("page %d of %d", book.CurrentPage, book.TotalPages)}, nil
		},
		Habit: func(a commands.HabitArgs) (commands.Result, error) {
			habit, err := m.Store.AddHabit(a.Name, a.Color)
			if err != nil {
				return commands.Result{}, err
			}
			m.CurrentView = ViewTrackers
			m.Trackers.Section = SectionHabits
			return commands.Result{Message: fmt.Sprintf("added habit: %s", habit.Name)}, nil
		},
		Project: func(a commands.ProjectArgs) (commands.Result, error) {
			project, err := m.Store.AddProject(a.Title)
			if err != nil {
				return commands.Result{}, err
			}
			m.CurrentView = ViewTrackers
			m.Trackers.Section = SectionProjects
			return commands.Result{Message: fmt.Sprintf("added project: %s", project.Title)}, nil
		},
		Save: func() (commands.Result, error) {
			follow = m.forceSaveCmd()
			return commands.Result{Message: "saving to cloud"}, nil
		},
		Load: func() (commands.Result, error) {
			follow = m.forceLoadCmd()
			return commands.Result{Message: "loading from cloud"}, nil
		},
		Export: func() (commands.Result, error) {
			follow = m.exportCmd()
			return commands.Result{Message: "exporting backup"}, nil
		},
		Import: func(a commands.ImportArgs) (commands.Result, error) {
			follow = m.importCmd(a.Path)
			return commands.Result{Message: fmt.Sprintf("importing %s", a.Path)}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.notify("Command Failed", err.Error(), "error")
	} else {
		m.Status = StatusBar{Text: res.Message}
		m.notify("Command", res.Message, "info")
	}

	m.closePalette()
	return m, follow
}

func (m Model) taskAt(index int) (model.Task, error) {
	task, ok := m.Store.TaskAt(index)
	if !ok {
		return model.Task{}, outOfRange("task", index)
	}
	return task, nil
}

func outOfRange(kind string, index int) error {
	return &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no %s at position %d", kind, index+1)}
}
