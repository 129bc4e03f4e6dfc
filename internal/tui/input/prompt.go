package input

import (
	"errors"
	"strings"

	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/todo"
)

// PromptCommand describes a command suggestion entry.
type PromptCommand struct {
	Name        string
	Description string
}

// PromptMatchingCommands returns commands that match the current input prefix.
func PromptMatchingCommands(input string, commands []PromptCommand) []PromptCommand {
	if !strings.HasPrefix(strings.TrimSpace(input), "/") {
		return nil
	}
	if strings.Contains(input, " ") {
		return nil
	}

	prefix := strings.ToLower(strings.TrimSpace(input))
	matches := make([]PromptCommand, 0, len(commands))
	for _, cmd := range commands {
		if strings.HasPrefix(strings.ToLower(cmd.Name), prefix) {
			matches = append(matches, cmd)
		}
	}
	return matches
}

// PromptAutocomplete returns the first matching command and whether it exists.
func PromptAutocomplete(input string, commands []PromptCommand) (string, bool) {
	matches := PromptMatchingCommands(input, commands)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Name + " ", true
}

// Quick add errors.
var (
	ErrMissingTime  = errors.New("missing time range, e.g. 09:00-10:00")
	ErrMissingTitle = errors.New("missing title")
)

// ParseQuickAdd turns a one-line entry into todo params. Words are the
// title; markers set the other fields:
//
//	09:00-10:30      start and end
//	@tomorrow        date (anything a relative date accepts)
//	!high            priority
//	#work            category
//	~green           color
//	*weekly:mon,fri  recurrence with optional days
//
// An empty Date is left for the caller to fill. Field values are
// validated when the todo is built.
func ParseQuickAdd(s string) (todo.Params, error) {
	var (
		p     todo.Params
		title []string
		timed bool
	)
	for _, tok := range strings.Fields(s) {
		switch {
		case strings.HasPrefix(tok, "@") && len(tok) > 1:
			p.Date = tok[1:]
		case strings.HasPrefix(tok, "!") && len(tok) > 1:
			p.Priority = tok[1:]
		case strings.HasPrefix(tok, "#") && len(tok) > 1:
			p.Category = tok[1:]
		case strings.HasPrefix(tok, "~") && len(tok) > 1:
			p.Color = tok[1:]
		case strings.HasPrefix(tok, "*") && len(tok) > 1:
			rec, days, _ := strings.Cut(tok[1:], ":")
			p.Recurring = rec
			p.Days = expandDays(days)
		case !timed && isTimeRange(tok):
			p.Start, p.End, _ = strings.Cut(tok, "-")
			timed = true
		default:
			title = append(title, tok)
		}
	}

	p.Title = strings.Join(title, " ")
	if p.Title == "" {
		return todo.Params{}, ErrMissingTitle
	}
	if !timed {
		return todo.Params{}, ErrMissingTime
	}
	return p, nil
}

func isTimeRange(tok string) bool {
	start, end, ok := strings.Cut(tok, "-")
	if !ok {
		return false
	}
	if _, err := schedule.TimeToMinutes(start); err != nil {
		return false
	}
	_, err := schedule.TimeToMinutes(end)
	return err == nil
}

var shortDays = map[string]string{
	"mon": "monday",
	"tue": "tuesday",
	"wed": "wednesday",
	"thu": "thursday",
	"fri": "friday",
	"sat": "saturday",
	"sun": "sunday",
}

// expandDays splits a comma list, widening three letter names.
func expandDays(s string) []string {
	if s == "" {
		return nil
	}
	var days []string
	for _, d := range strings.Split(s, ",") {
		d = strings.ToLower(strings.TrimSpace(d))
		if full, ok := shortDays[d]; ok {
			d = full
		}
		if d != "" {
			days = append(days, d)
		}
	}
	return days
}
