package planner

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/unigenai/unigen/internal/domain"
)

const (
	// DefaultLeadDays is the exam distance assumed when none could be extracted.
	DefaultLeadDays = 14
	// DefaultHoursPerDay is the daily budget assumed when none could be extracted.
	DefaultHoursPerDay Hours = 400

	dateLayout = "2006-01-02"
)

// Request is the input to Build after extraction and default substitution.
type Request struct {
	ExamDate    time.Time
	HoursPerDay Hours
}

// ParseRequest reads the extraction collaborator's reply. The reply should
// be a JSON object with "exam_date" and "hours_per_day"; surrounding prose
// or code fences are tolerated. Any missing, null or malformed field is
// replaced by its default.
func ParseRequest(raw string, today time.Time) Request {
	req := Request{
		ExamDate:    civil(today).AddDate(0, 0, DefaultLeadDays),
		HoursPerDay: DefaultHoursPerDay,
	}

	obj, ok := jsonObject(raw)
	if !ok {
		return req
	}

	if d := gjson.Get(obj, "exam_date"); d.Type == gjson.String {
		if t, err := time.Parse(dateLayout, strings.TrimSpace(d.Str)); err == nil {
			req.ExamDate = t
		}
	}

	h := gjson.Get(obj, "hours_per_day")
	var hours float64
	switch h.Type {
	case gjson.Number:
		hours = h.Num
	case gjson.String:
		hours, _ = strconv.ParseFloat(strings.TrimSpace(h.Str), 64)
	}
	if hours > 0 && !math.IsInf(hours, 1) {
		// Any positive budget keeps at least one hundredth of an hour.
		req.HoursPerDay = max(HoursFromFloat(hours), 1)
	}
	return req
}

func jsonObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	obj := raw[start : end+1]
	if !gjson.Valid(obj) {
		return "", false
	}
	return obj, true
}

// DaysRemaining counts whole calendar days from today to the exam, never negative.
func DaysRemaining(today, exam time.Time) int {
	days := int(civil(exam).Sub(civil(today)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Entry is one subject's slot on one day.
type Entry struct {
	Subject  domain.Subject `json:"subject"`
	Hours    Hours          `json:"hours"`
	Topic    string         `json:"topic"`
	Practice string         `json:"practice"`
}

// Day is one day of the schedule, numbered from 1.
type Day struct {
	Number  int     `json:"day"`
	Entries []Entry `json:"entries"`
}

// Plan is a generated study plan.
type Plan struct {
	ExamDate      time.Time    `json:"exam_date"`
	DaysRemaining int          `json:"days_remaining"`
	HoursPerDay   Hours        `json:"hours_per_day"`
	Split         []Allocation `json:"split"`
	Days          []Day        `json:"days"`
}

// Build lays out the schedule over the fixed subjects, cycling each
// subject's topic list by day.
func Build(req Request, today time.Time) Plan {
	days := DaysRemaining(today, req.ExamDate)
	split := Split(req.HoursPerDay, SubjectWeights(domain.Subjects))

	plan := Plan{
		ExamDate:      civil(req.ExamDate),
		DaysRemaining: days,
		HoursPerDay:   req.HoursPerDay,
		Split:         split,
		Days:          make([]Day, 0, days),
	}
	for day := 0; day < days; day++ {
		entries := make([]Entry, 0, len(split))
		for _, a := range split {
			topics := a.Subject.Topics()
			entries = append(entries, Entry{
				Subject:  a.Subject,
				Hours:    a.Hours,
				Topic:    topics[day%len(topics)],
				Practice: a.Subject.Practice(),
			})
		}
		plan.Days = append(plan.Days, Day{Number: day + 1, Entries: entries})
	}
	return plan
}

// Topics returns the distinct topics scheduled for subject, in first-seen order.
func (p Plan) Topics(subject domain.Subject) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range p.Days {
		for _, e := range d.Entries {
			if e.Subject != subject || seen[e.Topic] {
				continue
			}
			seen[e.Topic] = true
			out = append(out, e.Topic)
		}
	}
	return out
}

// Render formats the plan as chat text.
func (p Plan) Render() string {
	var b strings.Builder
	b.WriteString("Personalized Study Plan\n\n")
	fmt.Fprintf(&b, "Exam Date: %s\n", p.ExamDate.Format(dateLayout))
	fmt.Fprintf(&b, "Days Remaining: %d\n\n", p.DaysRemaining)
	fmt.Fprintf(&b, "Daily Time Allocation (%s hrs/day):\n", p.HoursPerDay)
	for _, a := range p.Split {
		fmt.Fprintf(&b, "- %s: %s hrs\n", a.Subject, a.Hours)
	}
	b.WriteString("\nStudy Schedule:\n")
	if len(p.Days) == 0 {
		b.WriteString("Your exam is today. Focus on a light revision of your notes.\n")
		return b.String()
	}
	for _, d := range p.Days {
		fmt.Fprintf(&b, "\nDay %d:\n", d.Number)
		for _, e := range d.Entries {
			fmt.Fprintf(&b, "- %s (%s hrs): %s + %s\n", e.Subject, e.Hours, e.Topic, e.Practice)
		}
	}
	return b.String()
}
