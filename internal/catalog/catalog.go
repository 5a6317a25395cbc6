package catalog

import (
	"embed"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"crypto-persona-backend/internal/model"
)

// ProfileCount is the number of personality codes (two letters on each of four axes).
const ProfileCount = 16

//go:embed data/questions.yaml data/personalities.yaml
var dataFS embed.FS

// Catalog is the read-only question and personality data of the process.
type Catalog struct {
	questions []model.Question
	profiles  map[model.PersonalityCode]model.PersonalityProfile
	codes     []model.PersonalityCode
}

type questionFile struct {
	Questions []model.Question `yaml:"questions"`
}

type profileFile struct {
	Profiles []model.PersonalityProfile `yaml:"profiles"`
}

// Load parses and validates the embedded catalogs.
func Load() (*Catalog, error) {
	questionData, err := dataFS.ReadFile("data/questions.yaml")
	if err != nil {
		return nil, fmt.Errorf("read question catalog: %w", err)
	}
	profileData, err := dataFS.ReadFile("data/personalities.yaml")
	if err != nil {
		return nil, fmt.Errorf("read personality catalog: %w", err)
	}
	return Parse(questionData, profileData)
}

// MustLoad is Load for startup paths; an invalid catalog aborts the process.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}
	return c
}

// Parse builds a catalog from raw YAML documents.
func Parse(questionData, profileData []byte) (*Catalog, error) {
	var qf questionFile
	if err := yaml.Unmarshal(questionData, &qf); err != nil {
		return nil, fmt.Errorf("parse question catalog: %w", err)
	}
	var pf profileFile
	if err := yaml.Unmarshal(profileData, &pf); err != nil {
		return nil, fmt.Errorf("parse personality catalog: %w", err)
	}
	return New(qf.Questions, pf.Profiles)
}

// New validates the given records and returns a catalog owning copies of them.
func New(questions []model.Question, profiles []model.PersonalityProfile) (*Catalog, error) {
	if err := validateQuestions(questions); err != nil {
		return nil, err
	}
	if err := validateProfiles(profiles); err != nil {
		return nil, err
	}

	c := &Catalog{
		questions: append([]model.Question(nil), questions...),
		profiles:  make(map[model.PersonalityCode]model.PersonalityProfile, len(profiles)),
		codes:     make([]model.PersonalityCode, 0, len(profiles)),
	}
	for _, p := range profiles {
		c.profiles[p.Code] = p
		c.codes = append(c.codes, p.Code)
	}
	sort.Slice(c.codes, func(i, j int) bool { return c.codes[i] < c.codes[j] })
	return c, nil
}

func validateQuestions(questions []model.Question) error {
	if len(questions) == 0 {
		return errors.New("question catalog is empty")
	}
	seen := make(map[int]bool, len(questions))
	covered := make(map[model.Dimension]int, len(model.Dimensions))
	for i, q := range questions {
		if q.ID <= 0 {
			return fmt.Errorf("question #%d: id must be positive, got %d", i, q.ID)
		}
		if seen[q.ID] {
			return fmt.Errorf("question %d: duplicate id", q.ID)
		}
		seen[q.ID] = true
		if !q.Dimension.Valid() {
			return fmt.Errorf("question %d: unknown dimension %q", q.ID, q.Dimension)
		}
		if strings.TrimSpace(q.Statement.ZH) == "" || strings.TrimSpace(q.Statement.EN) == "" {
			return fmt.Errorf("question %d: statement must be set in both languages", q.ID)
		}
		covered[q.Dimension]++
	}
	for _, d := range model.Dimensions {
		if covered[d] == 0 {
			return fmt.Errorf("dimension %s has no questions", d)
		}
	}
	return nil
}

func validateProfiles(profiles []model.PersonalityProfile) error {
	if len(profiles) != ProfileCount {
		return fmt.Errorf("personality catalog must hold %d profiles, got %d", ProfileCount, len(profiles))
	}
	seen := make(map[model.PersonalityCode]bool, len(profiles))
	for _, p := range profiles {
		if !p.Code.Valid() {
			return fmt.Errorf("profile %q: invalid personality code", p.Code)
		}
		if seen[p.Code] {
			return fmt.Errorf("profile %s: duplicate code", p.Code)
		}
		seen[p.Code] = true
		if strings.TrimSpace(p.Name.ZH) == "" || strings.TrimSpace(p.Name.EN) == "" {
			return fmt.Errorf("profile %s: name must be set in both languages", p.Code)
		}
	}
	return nil
}

// Questions returns the questions in presentation order.
func (c *Catalog) Questions() []model.Question {
	return append([]model.Question(nil), c.questions...)
}

func (c *Catalog) Len() int {
	return len(c.questions)
}

// Question returns the question at position i of the presentation order.
func (c *Catalog) Question(i int) (model.Question, bool) {
	if i < 0 || i >= len(c.questions) {
		return model.Question{}, false
	}
	return c.questions[i], true
}

// Lookup finds the profile of a code. A miss is a normal outcome.
func (c *Catalog) Lookup(code model.PersonalityCode) (model.PersonalityProfile, bool) {
	p, ok := c.profiles[code]
	if !ok {
		return model.PersonalityProfile{}, false
	}
	return cloneProfile(p), true
}

// Profiles returns every profile ordered by code.
func (c *Catalog) Profiles() []model.PersonalityProfile {
	out := make([]model.PersonalityProfile, 0, len(c.codes))
	for _, code := range c.codes {
		out = append(out, cloneProfile(c.profiles[code]))
	}
	return out
}

func cloneProfile(p model.PersonalityProfile) model.PersonalityProfile {
	p.Tags = append([]string(nil), p.Tags...)
	p.Strengths = append([]string(nil), p.Strengths...)
	p.Weaknesses = append([]string(nil), p.Weaknesses...)
	return p
}
