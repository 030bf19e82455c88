package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add     func(AddArgs) (Result, error)
	Done    func(IndexArgs) (Result, error)
	Remove  func(IndexArgs) (Result, error)
	Up      func(IndexArgs) (Result, error)
	Down    func(IndexArgs) (Result, error)
	Focus   func(FocusArgs) (Result, error)
	Link    func(LinkArgs) (Result, error)
	Unlink  func(IndexArgs) (Result, error)
	Book    func(BookArgs) (Result, error)
	Page    func(PageArgs) (Result, error)
	Habit   func(HabitArgs) (Result, error)
	Project func(ProjectArgs) (Result, error)
	Save    func() (Result, error)
	Load    func() (Result, error)
	Export  func() (Result, error)
	Import  func(ImportArgs) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		return call(cmd.Type, handlers.Add, cmd.Add)
	case TypeDone:
		return call(cmd.Type, handlers.Done, cmd.Index)
	case TypeRemove:
		return call(cmd.Type, handlers.Remove, cmd.Index)
	case TypeUp:
		return call(cmd.Type, handlers.Up, cmd.Index)
	case TypeDown:
		return call(cmd.Type, handlers.Down, cmd.Index)
	case TypeFocus:
		return call(cmd.Type, handlers.Focus, cmd.Focus)
	case TypeLink:
		return call(cmd.Type, handlers.Link, cmd.Link)
	case TypeUnlink:
		return call(cmd.Type, handlers.Unlink, cmd.Index)
	case TypeBook:
		return call(cmd.Type, handlers.Book, cmd.Book)
	case TypePage:
		return call(cmd.Type, handlers.Page, cmd.Page)
	case TypeHabit:
		return call(cmd.Type, handlers.Habit, cmd.Habit)
	case TypeProject:
		return call(cmd.Type, handlers.Project, cmd.Project)
	case TypeImport:
		return call(cmd.Type, handlers.Import, cmd.Import)
	case TypeSave:
		return callNoArgs(cmd.Type, handlers.Save)
	case TypeLoad:
		return callNoArgs(cmd.Type, handlers.Load)
	case TypeExport:
		return callNoArgs(cmd.Type, handlers.Export)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func call[A any](kind Type, fn func(A) (Result, error), args *A) (Result, error) {
	if fn == nil {
		return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", kind)}
	}
	if args == nil {
		return Result{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s is missing its arguments", kind)}
	}
	return fn(*args)
}

func callNoArgs(kind Type, fn func() (Result, error)) (Result, error) {
	if fn == nil {
		return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", kind)}
	}
	return fn()
}
