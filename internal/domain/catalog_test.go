package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterviewDomain(t *testing.T) {
	d, ok := ParseInterviewDomain("  DBMS ")
	require.True(t, ok)
	assert.Equal(t, DomainDBMS, d)
	assert.Equal(t, "DBMS", d.Name())

	_, ok = ParseInterviewDomain("dbms please")
	assert.False(t, ok)
	_, ok = ParseInterviewDomain("general")
	assert.False(t, ok)
}

func TestQuestionBanksAreCopies(t *testing.T) {
	for _, d := range InterviewDomains {
		qs := d.Questions()
		require.Len(t, qs, 15, d)
		qs[0] = "mutated"
		assert.NotEqual(t, "mutated", d.Questions()[0])
	}
	assert.Equal(t, "What is a process?", DomainOS.Questions()[0])
	assert.Equal(t, "Tell me about yourself.", DomainHR.Questions()[0])
}

func TestSubjects(t *testing.T) {
	assert.Equal(t, DifficultyHigh, SubjectDSA.Difficulty())
	assert.Equal(t, DifficultyMedium, SubjectOS.Difficulty())
	assert.Equal(t, DifficultyMedium, SubjectDBMS.Difficulty())
	assert.Len(t, SubjectDSA.Topics(), 12)
	assert.Len(t, SubjectOS.Topics(), 10)
	assert.Len(t, SubjectDBMS.Topics(), 10)
	assert.Equal(t, "SQL practice", SubjectDBMS.Practice())
}

func TestDifficultyWeight(t *testing.T) {
	assert.Equal(t, 0.5, DifficultyHigh.Weight())
	assert.Equal(t, 0.3, DifficultyMedium.Weight())
	assert.Equal(t, 0.2, DifficultyLow.Weight())
	assert.Equal(t, 0.2, Difficulty("unknown").Weight())
}

func TestParseAgentAndIntent(t *testing.T) {
	assert.Equal(t, AgentContent, ParseAgent(" Content "))
	assert.False(t, ParseAgent("tutor").Known())
	assert.True(t, AgentGeneral.Known())

	i, ok := ParseIntent("CODE")
	require.True(t, ok)
	assert.Equal(t, IntentCode, i)
	assert.Equal(t, AgentCode, i.Agent())

	_, ok = ParseIntent("codes")
	assert.False(t, ok)
}
