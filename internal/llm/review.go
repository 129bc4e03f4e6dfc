package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grindflow/grindflow/internal/schedule"
)

const reviewSystemPrompt = `You are a minimalist planning coach. Output ONLY the exact format shown, no markdown, no extra text. Be extremely concise.`

const reviewPromptTemplate = `Review this day plan and output EXACTLY this format (no markdown, no code blocks):

FOCUS: [ 2-4 word theme ]

LOAD: One sentence on how full the day is (%d of %d working minutes booked).
RISK: One sentence on the tightest part of the day, omit if none.
NEXT: One specific change that would make the day easier.

Working hours: %s-%s
%s
Day: %s
%s

Rules:
- Keep each line under 70 characters
- Be specific with times from the data
- Output plain text only`

// ReviewRequest is the input for a day review.
type ReviewRequest struct {
	Day       time.Time
	Items     []schedule.Item // items on Day
	DayStart  string
	DayEnd    string
	PeakStart string // optional
	PeakEnd   string
}

// Reviewer asks the model for a short critique of one day's plan.
type Reviewer struct {
	client Client
}

// NewReviewer creates a Reviewer with the given LLM client.
func NewReviewer(client Client) *Reviewer {
	return &Reviewer{client: client}
}

// Review returns the model's plain-text review.
func (r *Reviewer) Review(ctx context.Context, req ReviewRequest) (string, error) {
	messages := []Message{
		{Role: "system", Content: reviewSystemPrompt},
		{Role: "user", Content: buildReviewPrompt(req)},
	}
	out, err := r.client.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("reviewing day: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func buildReviewPrompt(req ReviewRequest) string {
	loc := req.Day.Location()
	key := schedule.DayKey(req.Day)
	items := schedule.ItemsOn(key, req.Items, loc)

	var lines []string
	for _, it := range items {
		line := fmt.Sprintf("- %s-%s %s [%s]", it.Start, it.End, it.Title, it.Priority.OrDefault())
		if req.PeakStart != "" && schedule.OverlapMinutes(it.Start, it.End, req.PeakStart, req.PeakEnd) > 0 {
			line += " ⚡"
		}
		lines = append(lines, line)
	}
	body := "No todos."
	if len(lines) > 0 {
		body = strings.Join(lines, "\n")
	}

	peak := "Peak hours: not configured"
	if req.PeakStart != "" {
		peak = fmt.Sprintf("Peak hours (⚡): %s-%s", req.PeakStart, req.PeakEnd)
	}

	return fmt.Sprintf(reviewPromptTemplate,
		bookedMinutes(items, req.DayStart, req.DayEnd), workingMinutes(req.DayStart, req.DayEnd),
		req.DayStart, req.DayEnd,
		peak,
		req.Day.Format(schedule.LongDayLayout),
		body,
	)
}

// bookedMinutes counts minutes inside working hours covered by at least one
// item. Overlapping items are counted once.
func bookedMinutes(items []schedule.Item, dayStart, dayEnd string) int {
	ws, err1 := schedule.TimeToMinutes(dayStart)
	we, err2 := schedule.TimeToMinutes(dayEnd)
	if err1 != nil || err2 != nil {
		return 0
	}
	cursor, total := ws, 0
	for _, it := range items {
		s, err1 := schedule.TimeToMinutes(it.Start)
		e, err2 := schedule.TimeToMinutes(it.End)
		if err1 != nil || err2 != nil {
			continue
		}
		s, e = max(s, cursor), min(e, we)
		if e > s {
			total += e - s
			cursor = e
		}
	}
	return total
}

func workingMinutes(dayStart, dayEnd string) int {
	ws, err1 := schedule.TimeToMinutes(dayStart)
	we, err2 := schedule.TimeToMinutes(dayEnd)
	if err1 != nil || err2 != nil || we < ws {
		return 0
	}
	return we - ws
}
