package commands

import (
	"fmt"
	"strings"

	"memo/internal/model"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeDone   Type = "done"
	TypeDelete Type = "delete"
	TypeFilter Type = "filter"
	TypeSort   Type = "sort"
	TypeClear  Type = "clear"
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

// AddArgs carries a quick-add line split into its parts. Title is the
// text left over after the @category, !priority, #tag and due: tokens
// are pulled out.
type AddArgs struct {
	Title    string
	Category string
	Priority model.Priority
	Tags     []string
	Due      string
}

type DoneArgs struct {
	Target string
}

type DeleteArgs struct {
	Target string
}

// FilterArgs holds exactly one of Category or Status, or Clear.
type FilterArgs struct {
	Category string
	Status   *model.Status
	Clear    bool
}

type SortArgs struct {
	Key        string
	Descending bool
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Done   *DoneArgs
	Delete *DeleteArgs
	Filter *FilterArgs
	Sort   *SortArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeDone:
		return parseTarget(input, TypeDone, args)
	case TypeDelete:
		return parseTarget(input, TypeDelete, args)
	case TypeFilter:
		return parseFilter(input, args)
	case TypeSort:
		return parseSort(input, args)
	case TypeClear:
		return Command{Type: TypeClear, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a title"}
	}

	add := AddArgs{Priority: model.PriorityNormal}
	titleWords := make([]string, 0, len(args))
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "@") && len(arg) > 1:
			add.Category = strings.ToLower(arg[1:])
		case strings.HasPrefix(arg, "!") && len(arg) > 1:
			p, ok := parsePriorityWord(arg[1:])
			if !ok {
				return Command{}, &CommandError{
					Code:    ErrCodeInvalidArgument,
					Message: fmt.Sprintf("unknown priority: %s", arg[1:]),
				}
			}
			add.Priority = p
		case strings.HasPrefix(arg, "#") && len(arg) > 1:
			add.Tags = append(add.Tags, strings.ToLower(arg[1:]))
		case strings.HasPrefix(strings.ToLower(arg), "due:") && len(arg) > 4:
			add.Due = arg[len("due:"):]
		default:
			titleWords = append(titleWords, arg)
		}
	}

	add.Title = strings.TrimSpace(strings.Join(titleWords, " "))
	if add.Title == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a title"}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &add}, nil
}

func parseTarget(raw string, typ Type, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{
			Code:    ErrCodeInvalidArgument,
			Message: fmt.Sprintf("%s requires a row number or task id", typ),
		}
	}
	target := args[0]
	switch typ {
	case TypeDone:
		return Command{Type: typ, Raw: raw, Done: &DoneArgs{Target: target}}, nil
	default:
		return Command{Type: typ, Raw: raw, Delete: &DeleteArgs{Target: target}}, nil
	}
}

func parseFilter(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "filter requires category, status or clear"}
	}
	switch strings.ToLower(args[0]) {
	case "clear":
		return Command{Type: TypeFilter, Raw: raw, Filter: &FilterArgs{Clear: true}}, nil
	case "category":
		if len(args) < 2 {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "filter category requires a name"}
		}
		return Command{Type: TypeFilter, Raw: raw, Filter: &FilterArgs{Category: strings.ToLower(args[1])}}, nil
	case "status":
		if len(args) < 2 {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "filter status requires a status name"}
		}
		st, ok := parseStatusWord(args[1])
		if !ok {
			return Command{}, &CommandError{
				Code:    ErrCodeInvalidArgument,
				Message: fmt.Sprintf("unknown status: %s", args[1]),
			}
		}
		return Command{Type: TypeFilter, Raw: raw, Filter: &FilterArgs{Status: &st}}, nil
	default:
		return Command{}, &CommandError{
			Code:    ErrCodeInvalidArgument,
			Message: fmt.Sprintf("unknown filter subject: %s", args[0]),
		}
	}
}

func parseSort(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "sort requires a key"}
	}
	sortArgs := SortArgs{Key: strings.ToLower(args[0])}
	if len(args) > 1 {
		switch strings.ToLower(args[1]) {
		case "asc":
		case "desc":
			sortArgs.Descending = true
		default:
			return Command{}, &CommandError{
				Code:    ErrCodeInvalidArgument,
				Message: fmt.Sprintf("sort order must be asc or desc, got %s", args[1]),
			}
		}
	}
	return Command{Type: TypeSort, Raw: raw, Sort: &sortArgs}, nil
}

func parsePriorityWord(s string) (model.Priority, bool) {
	switch strings.ToLower(s) {
	case "low", "1":
		return model.PriorityLow, true
	case "normal", "2":
		return model.PriorityNormal, true
	case "high", "3":
		return model.PriorityHigh, true
	case "urgent", "4":
		return model.PriorityUrgent, true
	default:
		return 0, false
	}
}

func parseStatusWord(s string) (model.Status, bool) {
	switch strings.ToLower(s) {
	case "pending":
		return model.StatusPending, true
	case "inprogress", "in-progress", "active":
		return model.StatusInProgress, true
	case "completed", "done":
		return model.StatusCompleted, true
	case "cancelled", "canceled":
		return model.StatusCancelled, true
	default:
		return 0, false
	}
}
