package responder

import (
	"strings"

	"github.com/unigenai/unigen/internal/domain"
)

// command is the academic dispatcher's reading of one message.
type command int

const (
	cmdQuestion command = iota
	cmdStop
	cmdStudyPlan
	cmdStartInterview
	cmdSelectDomain
	cmdAnswer
	cmdGreeting
	cmdFeedback
)

func (c command) String() string {
	switch c {
	case cmdStop:
		return "stop_interview"
	case cmdStudyPlan:
		return "study_plan"
	case cmdStartInterview:
		return "start_interview"
	case cmdSelectDomain:
		return "select_domain"
	case cmdAnswer:
		return "answer"
	case cmdGreeting:
		return "greeting"
	case cmdFeedback:
		return "feedback"
	default:
		return "question"
	}
}

var (
	stopPhrases = []string{
		"end interview", "quit interview", "exit interview",
		"stop it", "terminate interview", "stop the interview",
	}
	studyPlanPhrases = []string{
		"study plan", "study schedule", "exam plan",
		"prepare for exam", "how to study",
		"timetable", "revision plan",
		"make a plan", "study timetable",
	}
	startInterviewPhrases = []string{
		"mock interview", "interview practice", "take interview", "start mock interview",
	}
	greetingPhrases = []string{
		"hello", "hi", "hey",
		"good morning", "good afternoon", "good evening",
		"how are you", "how r u",
	}
	feedbackPhrases = []string{
		"thank you", "thanks", "awesome", "great", "nice", "good",
		"perfect", "amazing", "it was awesome", "it is working",
		"works perfectly", "cool", "ok", "okay", "fine", "got it", "understood",
	}
)

func containsAny(msg string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func isStop(msg string) bool {
	return (strings.Contains(msg, "stop") && strings.Contains(msg, "interview")) ||
		containsAny(msg, stopPhrases)
}

// isExactGreeting matches a message that is nothing but a greeting.
func isExactGreeting(msg string) bool {
	for _, g := range greetingPhrases {
		if msg == g {
			return true
		}
	}
	return false
}

func isFeedback(msg string) bool {
	return containsAny(msg, feedbackPhrases)
}

// classify resolves the academic command for msg, first match wins. The
// domain is set only for cmdSelectDomain.
func classify(msg string, active bool) (command, domain.InterviewDomain) {
	lower := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case isStop(lower):
		return cmdStop, ""
	case containsAny(lower, studyPlanPhrases):
		return cmdStudyPlan, ""
	case containsAny(lower, startInterviewPhrases):
		return cmdStartInterview, ""
	}
	if d, ok := domain.ParseInterviewDomain(lower); ok {
		return cmdSelectDomain, d
	}
	switch {
	case active:
		return cmdAnswer, ""
	case containsAny(lower, greetingPhrases):
		return cmdGreeting, ""
	case isFeedback(lower):
		return cmdFeedback, ""
	default:
		return cmdQuestion, ""
	}
}
