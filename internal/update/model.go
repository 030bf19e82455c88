package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/sandeepkv93/lifeos/internal/model"
	"github.com/sandeepkv93/lifeos/internal/state"
	"github.com/sandeepkv93/lifeos/internal/syncer"
)

type View string

const (
	ViewDashboard View = "Dashboard"
	ViewTrackers  View = "Trackers"
	ViewSync      View = "Sync"
)

type TrackerSection string

const (
	SectionHabits       TrackerSection = "habits"
	SectionProjects     TrackerSection = "projects"
	SectionApplications TrackerSection = "applications"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Dashboard string
	Trackers  string
	Sync      string
	Help      string
	Quit      string
}

// Syncer is the part of the sync orchestrator the dashboard drives.
type Syncer interface {
	Updates() <-chan syncer.Info
	Info() syncer.Info
	CloudConfig() model.CloudConfig
	ForceSave(ctx context.Context) error
	ForceLoad(ctx context.Context) error
	Export() (string, error)
	ImportFile(path string) error
	SetCloudConfig(ctx context.Context, cfg model.CloudConfig) error
	Disconnect(ctx context.Context) error
}

type Model struct {
	CurrentView   View
	Store         *state.Store
	Sync          Syncer
	Info          syncer.Info
	Cursor        int
	Trackers      TrackersState
	Palette       CommandPaletteState
	EditingFocus  bool
	Connect       ConnectFormState
	HelpVisible   bool
	Notifications []Notification
	Status        StatusBar
	Keys          GlobalKeyMap
	Quitting      bool
	LastError     error

	commandInput  textinput.Model
	focusInput    textinput.Model
	binInput      textinput.Model
	keyInput      textinput.Model
	bookProgress  progress.Model
	syncSpinner   spinner.Model
	appsTable     table.Model
	helpModel     help.Model
	spinnerActive bool
	actionTimeout time.Duration
}

type TrackersState struct {
	Section TrackerSection
	Cursor  int
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type ConnectFormState struct {
	Active   bool
	Field    int
	AutoSync bool
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// SyncInfoMsg carries a status change published by the orchestrator.
type SyncInfoMsg struct {
	Info syncer.Info
}

// ActionDoneMsg reports the outcome of a save, load, import, export or
// connect issued from the dashboard.
type ActionDoneMsg struct {
	Action  string
	Message string
	Err     error
}

func NewModel(store *state.Store, sync Syncer) Model {
	m := Model{
		CurrentView: ViewDashboard,
		Store:       store,
		Sync:        sync,
		Trackers:    TrackersState{Section: SectionHabits},
		Keys: GlobalKeyMap{
			Dashboard: "1",
			Trackers:  "2",
			Sync:      "3",
			Help:      "?",
			Quit:      "q",
		},
		actionTimeout: 20 * time.Second,
	}
	if sync != nil {
		m.Info = sync.Info()
	}
	m.initBubbleComponents()
	return m
}

func (m *Model) initBubbleComponents() {
	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.focusInput = textinput.New()
	m.focusInput.Prompt = "focus> "
	m.focusInput.Placeholder = "What is your main focus today?"
	m.focusInput.CharLimit = 200
	m.focusInput.Width = 48

	m.binInput = textinput.New()
	m.binInput.Prompt = "bin id> "
	m.binInput.CharLimit = 128
	m.binInput.Width = 40

	m.keyInput = textinput.New()
	m.keyInput.Prompt = "api key> "
	m.keyInput.CharLimit = 256
	m.keyInput.Width = 40
	m.keyInput.EchoMode = textinput.EchoPassword

	m.bookProgress = progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))

	m.syncSpinner = spinner.New()
	m.syncSpinner.Spinner = spinner.Dot

	cols := []table.Column{
		{Title: "University", Width: 18},
		{Title: "Type", Width: 7},
		{Title: "Deadline", Width: 11},
		{Title: "Status", Width: 12},
	}
	m.appsTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithHeight(6))

	m.helpModel = help.New()
}
