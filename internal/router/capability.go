// Package router decides which responder handles a chat message.
package router

import "github.com/unigenai/unigen/internal/domain"

// capabilities lists, per agent, the intents it keeps handling without an
// auto-switch. General chatter never forces a switch away from a specialist.
var capabilities = map[domain.Agent][]domain.Intent{
	domain.AgentAcademic: {domain.IntentAcademic, domain.IntentGeneral},
	domain.AgentContent:  {domain.IntentContent, domain.IntentGeneral},
	domain.AgentCode:     {domain.IntentCode, domain.IntentGeneral},
	domain.AgentGeneral:  {domain.IntentGeneral},
}

// CanHandle reports whether agent may stay on a message classified as intent.
// Unknown agents can handle nothing.
func CanHandle(agent domain.Agent, intent domain.Intent) bool {
	for _, i := range capabilities[agent] {
		if i == intent {
			return true
		}
	}
	return false
}

// Capabilities returns a copy of the intents agent may handle.
func Capabilities(agent domain.Agent) []domain.Intent {
	return append([]domain.Intent(nil), capabilities[agent]...)
}
