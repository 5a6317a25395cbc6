package model

import "time"

// Dimension is one of the four behavioural axes a question scores.
type Dimension string

const (
	DimensionTime     Dimension = "Time"
	DimensionRisk     Dimension = "Risk"
	DimensionDecision Dimension = "Decision"
	DimensionRole     Dimension = "Role"
)

// Dimensions lists the axes in code order.
var Dimensions = []Dimension{DimensionTime, DimensionRisk, DimensionDecision, DimensionRole}

// Valid reports whether d is one of the four known axes.
func (d Dimension) Valid() bool {
	switch d {
	case DimensionTime, DimensionRisk, DimensionDecision, DimensionRole:
		return true
	}
	return false
}

// LetterPair is the (negative, non-negative) letter pair of an axis.
type LetterPair struct {
	Negative byte
	Positive byte
}

var letterPairs = map[Dimension]LetterPair{
	DimensionTime:     {Negative: 'S', Positive: 'L'},
	DimensionRisk:     {Negative: 'C', Positive: 'A'},
	DimensionDecision: {Negative: 'R', Positive: 'E'},
	DimensionRole:     {Negative: 'P', Positive: 'B'},
}

// Letters returns the letter pair of the axis.
func (d Dimension) Letters() LetterPair {
	return letterPairs[d]
}

// LocalizedText holds the two fixed languages of the product.
type LocalizedText struct {
	ZH string `json:"zh" yaml:"zh"`
	EN string `json:"en" yaml:"en"`
}

type Question struct {
	ID        int           `json:"id" yaml:"id"`
	Dimension Dimension     `json:"dimension" yaml:"dimension"`
	Statement LocalizedText `json:"statement" yaml:"statement"`
	IsReverse bool          `json:"is_reverse" yaml:"reverse"`
}

// ScalePoint is one option of the 7-point agreement scale.
type ScalePoint struct {
	Value int           `json:"value"`
	Label LocalizedText `json:"label"`
}

// Scale is the fixed ordinal answer scale, from strong disagreement to strong agreement.
var Scale = []ScalePoint{
	{Value: -5, Label: LocalizedText{ZH: "强烈不同意", EN: "Strongly disagree"}},
	{Value: -3, Label: LocalizedText{ZH: "不同意", EN: "Disagree"}},
	{Value: -1, Label: LocalizedText{ZH: "轻微不同意", EN: "Slightly disagree"}},
	{Value: 0, Label: LocalizedText{ZH: "中立", EN: "Neutral"}},
	{Value: 1, Label: LocalizedText{ZH: "轻微同意", EN: "Slightly agree"}},
	{Value: 3, Label: LocalizedText{ZH: "同意", EN: "Agree"}},
	{Value: 5, Label: LocalizedText{ZH: "强烈同意", EN: "Strongly agree"}},
}

// OnScale reports whether v is one of the scale values.
func OnScale(v int) bool {
	for _, p := range Scale {
		if p.Value == v {
			return true
		}
	}
	return false
}

// Answers maps a question id to the chosen scale value. At most one answer per question.
type Answers map[int]int

type DimensionScores struct {
	Time     int `json:"time"`
	Risk     int `json:"risk"`
	Decision int `json:"decision"`
	Role     int `json:"role"`
}

// Get returns the total of one axis.
func (s DimensionScores) Get(d Dimension) int {
	switch d {
	case DimensionTime:
		return s.Time
	case DimensionRisk:
		return s.Risk
	case DimensionDecision:
		return s.Decision
	case DimensionRole:
		return s.Role
	}
	return 0
}

// Add adds v to the total of axis d.
func (s *DimensionScores) Add(d Dimension, v int) {
	switch d {
	case DimensionTime:
		s.Time += v
	case DimensionRisk:
		s.Risk += v
	case DimensionDecision:
		s.Decision += v
	case DimensionRole:
		s.Role += v
	}
}

// PersonalityCode is the four-letter classification key, e.g. "LCEP".
type PersonalityCode string

// Valid reports whether the code has one letter of the right pair at each position.
func (c PersonalityCode) Valid() bool {
	if len(c) != len(Dimensions) {
		return false
	}
	for i, d := range Dimensions {
		pair := d.Letters()
		if c[i] != pair.Negative && c[i] != pair.Positive {
			return false
		}
	}
	return true
}

func (c PersonalityCode) String() string {
	return string(c)
}

type FamousFigure struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

type PersonalityProfile struct {
	Code         PersonalityCode `json:"code" yaml:"code"`
	Name         LocalizedText   `json:"name" yaml:"name"`
	Image        string          `json:"image" yaml:"image"`
	Tags         []string        `json:"tags" yaml:"tags"`
	Description  string          `json:"description" yaml:"description"`
	Strengths    []string        `json:"strengths" yaml:"strengths"`
	Weaknesses   []string        `json:"weaknesses" yaml:"weaknesses"`
	Quote        string          `json:"quote" yaml:"quote"`
	FamousFigure FamousFigure    `json:"famous_figure" yaml:"famous_figure"`
}

// ProfileImage records one generated profile artwork. Written only by the offline
// image pipeline.
type ProfileImage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Code      string    `json:"code" gorm:"not null;index"`
	SourceURL string    `json:"source_url"`
	Path      string    `json:"path" gorm:"not null"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
