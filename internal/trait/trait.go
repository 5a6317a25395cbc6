// Package trait converts raw axis totals into display percentages for the report bars.
package trait

import (
	"fmt"
	"math"

	"crypto-persona-backend/internal/model"
)

// DefaultScaleMax is the axis total that fills one half of a bar.
const DefaultScaleMax = 20

// Side is the pole a score leans toward.
type Side string

const (
	SideLeft    Side = "left"
	SideRight   Side = "right"
	SideNeutral Side = "neutral"
)

// Trait is a normalized score.
type Trait struct {
	Score    int  `json:"score"`
	ScaleMax int  `json:"scale_max"`
	Percent  int  `json:"percent"`
	Side     Side `json:"side"`
}

// Normalize clamps |score| to scaleMax and expresses it as a rounded percentage.
// A non-positive scaleMax falls back to DefaultScaleMax.
func Normalize(score, scaleMax int) Trait {
	if scaleMax <= 0 {
		scaleMax = DefaultScaleMax
	}
	return Trait{
		Score:    score,
		ScaleMax: scaleMax,
		Percent:  int(math.Round(magnitude(score, scaleMax) / float64(scaleMax) * 100)),
		Side:     sideOf(score),
	}
}

// magnitude clamps before negating, so math.MinInt cannot overflow.
func magnitude(score, scaleMax int) float64 {
	if score > scaleMax || score < -scaleMax {
		return float64(scaleMax)
	}
	if score < 0 {
		return float64(-score)
	}
	return float64(score)
}

func sideOf(score int) Side {
	switch {
	case score < 0:
		return SideLeft
	case score > 0:
		return SideRight
	}
	return SideNeutral
}

// FillWidth is the filled share of the whole bar, in percent. The bar is split at the
// centre and each side owns half of it, so a full-scale score fills 50.
func (t Trait) FillWidth() float64 {
	if t.ScaleMax <= 0 {
		return 0
	}
	return magnitude(t.Score, t.ScaleMax) / float64(t.ScaleMax) * 50
}

// FillStart is where the fill begins, in percent from the left edge.
func (t Trait) FillStart() float64 {
	if t.Side == SideLeft {
		return 50 - t.FillWidth()
	}
	return 50
}

// LeftLabel is the percentage shown under the left pole, empty unless it dominates.
func (t Trait) LeftLabel() string {
	if t.Side != SideLeft {
		return ""
	}
	return fmt.Sprintf("%d%%", t.Percent)
}

// RightLabel is the percentage shown under the right pole, empty unless it dominates.
func (t Trait) RightLabel() string {
	if t.Side != SideRight {
		return ""
	}
	return fmt.Sprintf("%d%%", t.Percent)
}

// Bar is one row of the report's trait section.
type Bar struct {
	Dimension model.Dimension
	Label     model.LocalizedText
	Left      model.LocalizedText
	Right     model.LocalizedText
	Color     string
	Trait
}

type barStyle struct {
	label, left, right model.LocalizedText
	color              string
}

var barStyles = map[model.Dimension]barStyle{
	model.DimensionTime: {
		label: model.LocalizedText{ZH: "时间偏好", EN: "Time Preference"},
		left:  model.LocalizedText{ZH: "短期爆发 (S)", EN: "Short-term (S)"},
		right: model.LocalizedText{ZH: "长期主义 (L)", EN: "Long-term (L)"},
		color: "indigo",
	},
	model.DimensionRisk: {
		label: model.LocalizedText{ZH: "风险承受", EN: "Risk Tolerance"},
		left:  model.LocalizedText{ZH: "稳健保守 (C)", EN: "Conservative (C)"},
		right: model.LocalizedText{ZH: "激进冒险 (A)", EN: "Aggressive (A)"},
		color: "emerald",
	},
	model.DimensionDecision: {
		label: model.LocalizedText{ZH: "决策逻辑", EN: "Decision Making"},
		left:  model.LocalizedText{ZH: "纯粹理性 (R)", EN: "Rational (R)"},
		right: model.LocalizedText{ZH: "感性直觉 (E)", EN: "Emotional (E)"},
		color: "purple",
	},
	model.DimensionRole: {
		label: model.LocalizedText{ZH: "市场角色", EN: "Market Role"},
		left:  model.LocalizedText{ZH: "交易玩家 (P)", EN: "Player (P)"},
		right: model.LocalizedText{ZH: "庄家核心 (B)", EN: "Banker (B)"},
		color: "rose",
	},
}

// Bars normalizes the four axis totals in code order.
func Bars(scores model.DimensionScores, scaleMax int) []Bar {
	bars := make([]Bar, 0, len(model.Dimensions))
	for _, d := range model.Dimensions {
		style := barStyles[d]
		bars = append(bars, Bar{
			Dimension: d,
			Label:     style.label,
			Left:      style.left,
			Right:     style.right,
			Color:     style.color,
			Trait:     Normalize(scores.Get(d), scaleMax),
		})
	}
	return bars
}
