package domain

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// InterviewDomain is one of the fixed mock-interview domains.
type InterviewDomain string

const (
	DomainDSA  InterviewDomain = "dsa"
	DomainOS   InterviewDomain = "os"
	DomainDBMS InterviewDomain = "dbms"
	DomainML   InterviewDomain = "ml"
	DomainHR   InterviewDomain = "hr"
)

// InterviewDomains lists the domains in menu order.
var InterviewDomains = []InterviewDomain{DomainDSA, DomainOS, DomainDBMS, DomainML, DomainHR}

// Difficulty ranks a study subject.
type Difficulty string

const (
	DifficultyHigh   Difficulty = "high"
	DifficultyMedium Difficulty = "medium"
	DifficultyLow    Difficulty = "low"
)

// Subject is one of the fixed study-plan subjects.
type Subject string

const (
	SubjectDSA  Subject = "DSA"
	SubjectOS   Subject = "OS"
	SubjectDBMS Subject = "DBMS"
)

// Subjects lists the study-plan subjects in allocation order.
var Subjects = []Subject{SubjectDSA, SubjectOS, SubjectDBMS}

type domainEntry struct {
	Key       InterviewDomain `yaml:"key"`
	Name      string          `yaml:"name"`
	Questions []string        `yaml:"questions"`
}

type subjectEntry struct {
	Key        Subject    `yaml:"key"`
	Difficulty Difficulty `yaml:"difficulty"`
	Practice   string     `yaml:"practice"`
	Topics     []string   `yaml:"topics"`
}

type catalog struct {
	Domains  []domainEntry  `yaml:"interview_domains"`
	Subjects []subjectEntry `yaml:"subjects"`
}

var (
	domainIndex  map[InterviewDomain]domainEntry
	subjectIndex map[Subject]subjectEntry
)

func init() {
	var c catalog
	if err := yaml.Unmarshal(catalogYAML, &c); err != nil {
		panic(fmt.Sprintf("domain: parse catalog: %v", err))
	}
	domainIndex = make(map[InterviewDomain]domainEntry, len(c.Domains))
	for _, d := range c.Domains {
		domainIndex[d.Key] = d
	}
	subjectIndex = make(map[Subject]subjectEntry, len(c.Subjects))
	for _, s := range c.Subjects {
		subjectIndex[s.Key] = s
	}
	for _, d := range InterviewDomains {
		if len(domainIndex[d].Questions) == 0 {
			panic(fmt.Sprintf("domain: catalog has no questions for %q", d))
		}
	}
	for _, s := range Subjects {
		if len(subjectIndex[s].Topics) == 0 {
			panic(fmt.Sprintf("domain: catalog has no topics for %q", s))
		}
	}
}

// ParseInterviewDomain reports whether the whole message names a domain.
func ParseInterviewDomain(s string) (InterviewDomain, bool) {
	d := InterviewDomain(strings.ToLower(strings.TrimSpace(s)))
	_, ok := domainIndex[d]
	return d, ok
}

// Name returns the display name, e.g. "DBMS".
func (d InterviewDomain) Name() string {
	return domainIndex[d].Name
}

// Questions returns a copy of the domain's question bank.
func (d InterviewDomain) Questions() []string {
	return append([]string(nil), domainIndex[d].Questions...)
}

// Difficulty returns the subject's fixed difficulty.
func (s Subject) Difficulty() Difficulty {
	return subjectIndex[s].Difficulty
}

// Topics returns a copy of the subject's topic rotation.
func (s Subject) Topics() []string {
	return append([]string(nil), subjectIndex[s].Topics...)
}

// Practice returns the activity appended to each scheduled topic.
func (s Subject) Practice() string {
	return subjectIndex[s].Practice
}

// Weight maps a difficulty to its share weight. Anything not high or
// medium is weighted as low.
func (d Difficulty) Weight() float64 {
	switch d {
	case DifficultyHigh:
		return 0.5
	case DifficultyMedium:
		return 0.3
	default:
		return 0.2
	}
}
