package domain

import "strings"

// Intent is the classification label used for cross-agent routing.
type Intent string

const (
	IntentAcademic Intent = "academic"
	IntentContent  Intent = "content"
	IntentCode     Intent = "code"
	IntentGeneral  Intent = "general"
)

// Intents lists every intent in classification priority order.
var Intents = []Intent{IntentAcademic, IntentContent, IntentCode, IntentGeneral}

// Agent names one of the specialized responders.
type Agent string

const (
	AgentAcademic Agent = "academic"
	AgentContent  Agent = "content"
	AgentCode     Agent = "code"
	AgentGeneral  Agent = "general"
)

// Agents lists every responder.
var Agents = []Agent{AgentAcademic, AgentContent, AgentCode, AgentGeneral}

// Agent returns the responder that owns the intent.
func (i Intent) Agent() Agent {
	return Agent(i)
}

// String implements fmt.Stringer.
func (a Agent) String() string {
	return string(a)
}

// Known reports whether a is one of the four responders.
func (a Agent) Known() bool {
	for _, k := range Agents {
		if a == k {
			return true
		}
	}
	return false
}

// ParseIntent matches s against the intent labels, case-insensitively.
func ParseIntent(s string) (Intent, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, i := range Intents {
		if s == string(i) {
			return i, true
		}
	}
	return "", false
}

// ParseAgent normalizes a pinned agent value. Unknown names are returned
// as-is so callers can treat them as having no capabilities.
func ParseAgent(s string) Agent {
	return Agent(strings.ToLower(strings.TrimSpace(s)))
}
