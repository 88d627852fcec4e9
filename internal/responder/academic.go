package responder

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/unigenai/unigen/internal/domain"
	"github.com/unigenai/unigen/internal/interview"
	"github.com/unigenai/unigen/internal/llm"
	"github.com/unigenai/unigen/internal/planner"
)

const (
	stopMessage = "Mock interview stopped. How else can I assist you?"

	feedbackHeader = "--- FEEDBACK ---\n"

	academicWelcome = "Hello! I'm your Academic Helper\n\n" +
		"I can help you with:\n" +
		"• Concept explanations (DSA, OS, DBMS, ML, etc.)\n" +
		"• Mock interviews (DSA, OS, DBMS, ML, HR)\n" +
		"• Personalized study plans\n" +
		"• Learning from uploaded notes (PDF/TXT/MD)\n\n" +
		"How can I assist you today?"

	acknowledgement = "Thank you! I'm glad you liked it.\n\n" +
		"If you'd like:\n" +
		"• Changes or improvements\n" +
		"• A different topic\n" +
		"• A shorter or longer version\n\n" +
		"Just let me know!"

	mentorPrompt = `You are an AI academic mentor.
Answer clearly and concisely using ONLY the given academic context.
Follow the user's instructions (number of points, format, etc.).

Context:
%s

Question:
%s

Answer:`

	noContext = "(no uploaded notes are available)"

	defaultWriteTimeout = 5 * time.Second
)

func domainMenu() string {
	var b strings.Builder
	b.WriteString("Mock Interview Mode Started\n\nChoose a domain:\n")
	for _, d := range domain.InterviewDomains {
		fmt.Fprintf(&b, "• %s\n", d.Name())
	}
	b.WriteString("\nReply with the domain name.")
	return b.String()
}

// Recorder durably stores the academic agent's results.
type Recorder interface {
	SaveInterviewResult(ctx context.Context, r *domain.InterviewResult) error
	SaveStudyPlan(ctx context.Context, p *domain.StudyPlan) error
}

// AcademicConfig wires the academic dispatcher's collaborators. Sessions
// and Generator are required; the rest may be nil.
type AcademicConfig struct {
	Sessions  *interview.Store
	Generator Generator
	Evaluator Evaluator
	Extractor Extractor
	Retriever Retriever
	Recorder  Recorder
	Logger    *slog.Logger

	// WriteTimeout bounds persistence writes, which outlive the request.
	WriteTimeout time.Duration
}

// Academic handles interviews, study plans and questions over uploaded notes.
type Academic struct {
	cfg AcademicConfig
	now func() time.Time
}

// NewAcademic creates the academic dispatcher.
func NewAcademic(cfg AcademicConfig) *Academic {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	return &Academic{cfg: cfg, now: time.Now}
}

// Respond runs one academic turn. The user's turn lock is held for the
// whole turn, so concurrent turns from one user are handled in order.
func (a *Academic) Respond(ctx context.Context, req Request) iter.Seq[string] {
	return func(yield func(string) bool) {
		release, err := a.cfg.Sessions.Acquire(ctx, req.UserID)
		if err != nil {
			a.cfg.Logger.Debug("Academic turn abandoned while waiting", "user_id", req.UserID, "error", err)
			return
		}
		defer release()

		msg := strings.TrimSpace(req.Message)
		cmd, d := classify(msg, a.cfg.Sessions.IsActive(req.UserID))
		a.cfg.Logger.Debug("Academic command", "user_id", req.UserID, "command", cmd.String())

		switch cmd {
		case cmdStop:
			a.cfg.Sessions.Clear(req.UserID)
			yield(stopMessage)
		case cmdStudyPlan:
			a.studyPlan(ctx, req.UserID, msg, yield)
		case cmdStartInterview:
			a.cfg.Sessions.Clear(req.UserID)
			yield(domainMenu())
		case cmdSelectDomain:
			q, ok := a.cfg.Sessions.Start(req.UserID, d, d.Questions())
			if !ok {
				yield("No questions are available for " + d.Name() + " right now.")
				return
			}
			yield("Interview Question 1:\n" + q)
		case cmdAnswer:
			a.answer(ctx, req.UserID, msg, yield)
		case cmdGreeting:
			a.cfg.Sessions.Clear(req.UserID)
			yield(academicWelcome)
		case cmdFeedback:
			yield(acknowledgement)
		default:
			a.question(ctx, msg, yield)
		}
	}
}

// answer evaluates msg against the current question and moves the
// interview on. The session is only touched once the evaluation has been
// fully delivered.
func (a *Academic) answer(ctx context.Context, userID, msg string, yield func(string) bool) {
	question, ok := a.cfg.Sessions.CurrentQuestion(userID)
	if !ok {
		return
	}
	if !yield(feedbackHeader) {
		return
	}

	var (
		evaluation strings.Builder
		evalErr    error
	)
	if a.cfg.Evaluator == nil {
		evalErr = fmt.Errorf("no evaluator configured")
	} else {
		for frag, err := range a.cfg.Evaluator.Evaluate(ctx, question, msg) {
			if err != nil {
				evalErr = err
				break
			}
			evaluation.WriteString(frag)
			if !yield(frag) {
				return
			}
		}
	}
	if ctx.Err() != nil {
		// The caller went away mid-evaluation.
		return
	}

	alive := true
	grade := interview.Grade{}
	if evalErr != nil {
		a.cfg.Logger.Warn("Evaluation failed", "user_id", userID, "error", evalErr)
		alive = yield("Evaluation failed: " + evalErr.Error())
	} else if score, ok := llm.ParseScore(evaluation.String()); ok {
		grade = interview.Grade{Score: score, Graded: true}
	}
	if err := a.cfg.Sessions.Grade(userID, grade); err != nil {
		a.cfg.Logger.Warn("Failed to record grade", "user_id", userID, "error", err)
	}

	var tail string
	if next, ok := a.cfg.Sessions.Advance(userID); ok {
		tail = "\n\nNext Question:\n" + next
	} else {
		tail = a.complete(ctx, userID)
	}
	if alive {
		yield(tail)
	}
}

// complete persists the finished interview and then drops the session.
func (a *Academic) complete(ctx context.Context, userID string) string {
	snap, ok := a.cfg.Sessions.Snapshot(userID)
	summary := snap.Summary()
	if ok && a.cfg.Recorder != nil {
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.WriteTimeout)
		err := a.cfg.Recorder.SaveInterviewResult(wctx, &domain.InterviewResult{
			UserID:  userID,
			Domain:  string(snap.Domain),
			Score:   summary.Score,
			Correct: summary.Correct,
			Total:   summary.Total,
		})
		cancel()
		if err != nil {
			a.cfg.Logger.Error("Failed to save interview result", "user_id", userID, "error", err)
		}
	}
	a.cfg.Sessions.Clear(userID)

	if summary.Total == 0 {
		return "\n\nMock Interview Completed!\nGreat job!"
	}
	return fmt.Sprintf("\n\nMock Interview Completed!\nScore: %.2f%% (%d of %d answers correct)\n%s",
		summary.Score, summary.Correct, summary.Total, interview.Feedback(summary.Score))
}

func (a *Academic) studyPlan(ctx context.Context, userID, msg string, yield func(string) bool) {
	var raw string
	if a.cfg.Extractor != nil {
		var err error
		raw, err = a.cfg.Extractor.Extract(ctx, msg)
		if err != nil {
			a.cfg.Logger.Info("Study plan extraction failed, using defaults", "user_id", userID, "error", err)
		}
	}

	today := a.now()
	plan := planner.Build(planner.ParseRequest(raw, today), today)
	a.savePlan(ctx, userID, plan)
	yield(plan.Render())
}

func (a *Academic) savePlan(ctx context.Context, userID string, plan planner.Plan) {
	if a.cfg.Recorder == nil {
		return
	}
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.WriteTimeout)
	defer cancel()
	for _, s := range domain.Subjects {
		err := a.cfg.Recorder.SaveStudyPlan(wctx, &domain.StudyPlan{
			UserID:   userID,
			Subject:  string(s),
			Topics:   plan.Topics(s),
			ExamDate: plan.ExamDate,
		})
		if err != nil {
			a.cfg.Logger.Error("Failed to save study plan", "user_id", userID, "subject", s, "error", err)
			return
		}
	}
}

func (a *Academic) question(ctx context.Context, msg string, yield func(string) bool) {
	var snippets []string
	if a.cfg.Retriever != nil {
		var err error
		snippets, err = a.cfg.Retriever.Retrieve(ctx, msg)
		if err != nil {
			a.cfg.Logger.Warn("Retrieval failed", "error", err)
			snippets = nil
		}
	}
	notes := noContext
	if len(snippets) > 0 {
		notes = strings.Join(snippets, "\n\n")
	}
	generate(ctx, a.cfg.Generator, fmt.Sprintf(mentorPrompt, notes, msg), yield, a.cfg.Logger)
}
