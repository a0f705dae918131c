package commands

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/dosed/internal/dose"
	"github.com/sandeepkv93/dosed/internal/model"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeTake   Type = "take"
	TypeSkip   Type = "skip"
	TypeMiss   Type = "miss"
	TypePause  Type = "pause"
	TypeResume Type = "resume"
	TypeDelete Type = "delete"
	TypeShow   Type = "show"
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
	Name      string
	Frequency model.Frequency
	Times     []string
	Dosage    string
}

type IntakeArgs struct {
	Ref    string
	Status model.IntakeStatus
}

type ToggleArgs struct {
	Ref    string
	Active bool
}

type DeleteArgs struct {
	Ref string
}

type ShowArgs struct {
	Subject string
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Intake *IntakeArgs
	Toggle *ToggleArgs
	Delete *DeleteArgs
	Show   *ShowArgs
}

var showSubjects = map[string]string{
	"due":       "due",
	"all":       "all",
	"reminders": "all",
	"history":   "history",
}

var frequencyAliases = map[string]model.Frequency{
	"once":              model.FrequencyOnceDaily,
	"daily":             model.FrequencyOnceDaily,
	"once_daily":        model.FrequencyOnceDaily,
	"twice":             model.FrequencyTwiceDaily,
	"twice_daily":       model.FrequencyTwiceDaily,
	"thrice":            model.FrequencyThreeTimesDaily,
	"three_times_daily": model.FrequencyThreeTimesDaily,
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeTake:
		return parseIntake(input, TypeTake, model.IntakeTaken, args)
	case TypeSkip:
		return parseIntake(input, TypeSkip, model.IntakeSkipped, args)
	case TypeMiss:
		return parseIntake(input, TypeMiss, model.IntakeMissed, args)
	case TypePause, TypeResume:
		ref, err := requireRef(head, args)
		if err != nil {
			return Command{}, err
		}
		return Command{Type: Type(head), Raw: input, Toggle: &ToggleArgs{Ref: ref, Active: head == string(TypeResume)}}, nil
	case TypeDelete:
		ref, err := requireRef(head, args)
		if err != nil {
			return Command{}, err
		}
		return Command{Type: TypeDelete, Raw: input, Delete: &DeleteArgs{Ref: ref}}, nil
	case TypeShow:
		return parseShow(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// parseAdd accepts "add <name> at HH:MM[,HH:MM] [dose <text>]" and
// "add <name> <frequency> [dose <text>]".
func parseAdd(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("add requires a medicine name")
	}

	out := AddArgs{}
	if i := indexFold(args, "dose"); i >= 0 {
		out.Dosage = strings.Join(args[i+1:], " ")
		if out.Dosage == "" {
			return Command{}, invalid("dose requires a value")
		}
		args = args[:i]
	}

	if i := indexFold(args, "at"); i >= 0 {
		if i == len(args)-1 {
			return Command{}, invalid("at requires one or more HH:MM times")
		}
		for _, field := range args[i+1:] {
			for _, part := range strings.Split(field, ",") {
				if part == "" {
					continue
				}
				tod, err := dose.ParseTimeOfDay(part)
				if err != nil {
					return Command{}, invalid("%v", err)
				}
				out.Times = append(out.Times, tod.String())
			}
		}
		out.Frequency = model.FrequencyCustom
		args = args[:i]
	} else if len(args) > 1 {
		if f, ok := frequencyAliases[strings.ToLower(args[len(args)-1])]; ok {
			out.Frequency = f
			args = args[:len(args)-1]
		}
	}

	out.Name = strings.TrimSpace(strings.Join(args, " "))
	if out.Name == "" {
		return Command{}, invalid("add requires a medicine name")
	}
	if out.Frequency == "" {
		return Command{}, invalid("add needs a frequency (once, twice, thrice) or at HH:MM")
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &out}, nil
}

func parseIntake(raw string, typ Type, status model.IntakeStatus, args []string) (Command, error) {
	ref, err := requireRef(string(typ), args)
	if err != nil {
		return Command{}, err
	}
	return Command{Type: typ, Raw: raw, Intake: &IntakeArgs{Ref: ref, Status: status}}, nil
}

func parseShow(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("show requires due, all or history")
	}
	subject, ok := showSubjects[strings.ToLower(args[0])]
	if !ok {
		return Command{}, invalid("unknown show subject: %s", args[0])
	}
	return Command{Type: TypeShow, Raw: raw, Show: &ShowArgs{Subject: subject}}, nil
}

func requireRef(head string, args []string) (string, error) {
	ref := strings.TrimSpace(strings.Join(args, " "))
	if ref == "" {
		return "", invalid("%s requires a reminder name or id", head)
	}
	return ref, nil
}

func indexFold(args []string, word string) int {
	for i, a := range args {
		if strings.EqualFold(a, word) {
			return i
		}
	}
	return -1
}
