package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandeepkv93/lifeos/internal/model"
)

type Type string

const (
	TypeAdd     Type = "add"
	TypeDone    Type = "done"
	TypeRemove  Type = "rm"
	TypeUp      Type = "up"
	TypeDown    Type = "down"
	TypeFocus   Type = "focus"
	TypeLink    Type = "link"
	TypeUnlink  Type = "unlink"
	TypeBook    Type = "book"
	TypePage    Type = "page"
	TypeHabit   Type = "habit"
	TypeProject Type = "project"
	TypeSave    Type = "save"
	TypeLoad    Type = "load"
	TypeExport  Type = "export"
	TypeImport  Type = "import"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

type AddArgs struct {
	Title string
	Tag   model.Tag
	Time  string
}

// IndexArgs addresses a list row. Users type 1-based positions; Index is
// 0-based.
type IndexArgs struct {
	Index int
}

type FocusArgs struct {
	Text string
}

type LinkArgs struct {
	Label string
	URL   string
	Icon  model.IconType
}

// BookArgs with a nil Book clears the active book.
type BookArgs struct {
	Book *model.Book
}

type PageArgs struct {
	Delta int
}

type HabitArgs struct {
	Name  string
	Color string
}

type ProjectArgs struct {
	Title string
}

type ImportArgs struct {
	Path string
}

type Command struct {
	Type    Type
	Raw     string
	Add     *AddArgs
	Index   *IndexArgs
	Focus   *FocusArgs
	Link    *LinkArgs
	Book    *BookArgs
	Page    *PageArgs
	Habit   *HabitArgs
	Project *ProjectArgs
	Import  *ImportArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	head, rest, _ := strings.Cut(raw, " ")
	head = strings.ToLower(head)
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeDone, TypeRemove, TypeUp, TypeDown, TypeUnlink:
		return parseIndex(input, Type(head), args)
	case TypeFocus:
		return Command{Type: TypeFocus, Raw: input, Focus: &FocusArgs{Text: rest}}, nil
	case TypeLink:
		return parseLink(input, args)
	case TypeBook:
		return parseBook(input, rest)
	case TypePage:
		return parsePage(input, args)
	case TypeHabit:
		return parseHabit(input, args)
	case TypeProject:
		if rest == "" {
			return Command{}, invalid("project requires a title")
		}
		return Command{Type: TypeProject, Raw: input, Project: &ProjectArgs{Title: rest}}, nil
	case TypeSave, TypeLoad, TypeExport:
		return Command{Type: Type(head), Raw: input}, nil
	case TypeImport:
		if rest == "" {
			return Command{}, invalid("import requires a file path")
		}
		return Command{Type: TypeImport, Raw: input, Import: &ImportArgs{Path: rest}}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// splitOptions separates key:value options from the free-text words.
func splitOptions(args []string, keys ...string) ([]string, map[string]string) {
	words := make([]string, 0, len(args))
	opts := make(map[string]string)
	for _, arg := range args {
		matched := false
		for _, key := range keys {
			prefix := key + ":"
			if len(arg) > len(prefix) && strings.EqualFold(arg[:len(prefix)], prefix) {
				opts[key] = arg[len(prefix):]
				matched = true
				break
			}
		}
		if !matched {
			words = append(words, arg)
		}
	}
	return words, opts
}

func parseAdd(raw string, args []string) (Command, error) {
	words, opts := splitOptions(args, "tag", "at")
	title := strings.TrimSpace(strings.Join(words, " "))
	if title == "" {
		return Command{}, invalid("add requires a title")
	}
	add := &AddArgs{Title: title, Tag: model.TagStudy, Time: opts["at"]}
	if v, ok := opts["tag"]; ok {
		tag, err := model.ParseTag(v)
		if err != nil {
			return Command{}, invalid("%v", err)
		}
		add.Tag = tag
	}
	return Command{Type: TypeAdd, Raw: raw, Add: add}, nil
}

func parseIndex(raw string, kind Type, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("%s requires a row number", kind)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return Command{}, invalid("%s: %q is not a row number", kind, args[0])
	}
	return Command{Type: kind, Raw: raw, Index: &IndexArgs{Index: n - 1}}, nil
}

func parseLink(raw string, args []string) (Command, error) {
	words, opts := splitOptions(args, "icon")
	if len(words) < 2 {
		return Command{}, invalid("link requires a label and a url")
	}
	icon, err := model.ParseIcon(opts["icon"])
	if err != nil {
		return Command{}, invalid("%v", err)
	}
	url := words[len(words)-1]
	label := strings.Join(words[:len(words)-1], " ")
	return Command{Type: TypeLink, Raw: raw, Link: &LinkArgs{Label: label, URL: url, Icon: icon}}, nil
}

// parseBook accepts "title | author | total [| current]" or "clear".
func parseBook(raw, rest string) (Command, error) {
	if strings.EqualFold(rest, "clear") {
		return Command{Type: TypeBook, Raw: raw, Book: &BookArgs{}}, nil
	}
	fields := strings.Split(rest, "|")
	if len(fields) < 3 || len(fields) > 4 {
		return Command{}, invalid("book expects: title | author | total pages [| current page]")
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	total, err := strconv.Atoi(fields[2])
	if err != nil {
		return Command{}, invalid("book: %q is not a page count", fields[2])
	}
	book := &model.Book{Title: fields[0], Author: fields[1], TotalPages: total}
	if len(fields) == 4 {
		current, err := strconv.Atoi(fields[3])
		if err != nil {
			return Command{}, invalid("book: %q is not a page number", fields[3])
		}
		book.CurrentPage = current
	}
	if err := book.Validate(); err != nil {
		return Command{}, invalid("%v", err)
	}
	return Command{Type: TypeBook, Raw: raw, Book: &BookArgs{Book: book}}, nil
}

func parsePage(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("page requires a delta such as +10 or -5")
	}
	delta, err := strconv.Atoi(args[0])
	if err != nil {
		return Command{}, invalid("page: %q is not a number", args[0])
	}
	return Command{Type: TypePage, Raw: raw, Page: &PageArgs{Delta: delta}}, nil
}

func parseHabit(raw string, args []string) (Command, error) {
	words, opts := splitOptions(args, "color")
	name := strings.TrimSpace(strings.Join(words, " "))
	if name == "" {
		return Command{}, invalid("habit requires a name")
	}
	return Command{Type: TypeHabit, Raw: raw, Habit: &HabitArgs{Name: name, Color: opts["color"]}}, nil
}
