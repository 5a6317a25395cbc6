// Package transport carries a computed result between the quiz and the report route.
//
// The route is the only durable state of a result: /results/{CODE}?time=&risk=&decision=&role=.
// Decoding never fails; anything missing or malformed decodes to a zero score, and the
// code is passed through upper-cased even when no profile exists for it.
package transport

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"crypto-persona-backend/internal/model"
)

// ResultsPrefix is the path prefix of report routes.
const ResultsPrefix = "/results/"

// Query parameter names, in encode order.
const (
	ParamTime     = "time"
	ParamRisk     = "risk"
	ParamDecision = "decision"
	ParamRole     = "role"
)

// Encode builds the report route of a result.
func Encode(code model.PersonalityCode, scores model.DimensionScores) string {
	var b strings.Builder
	b.WriteString(ResultsPrefix)
	b.WriteString(url.PathEscape(strings.ToUpper(string(code))))
	b.WriteString("?")
	b.WriteString(EncodeQuery(scores))
	return b.String()
}

// EncodeQuery renders the four totals in fixed order.
func EncodeQuery(scores model.DimensionScores) string {
	pairs := []struct {
		key   string
		value int
	}{
		{ParamTime, scores.Time},
		{ParamRisk, scores.Risk},
		{ParamDecision, scores.Decision},
		{ParamRole, scores.Role},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.key+"="+strconv.Itoa(p.value))
	}
	return strings.Join(parts, "&")
}

// Decode recovers the code and totals from a route. It accepts a path with or without
// query, or a full URL.
func Decode(route string) (model.PersonalityCode, model.DimensionScores) {
	path, rawQuery := route, ""
	if u, err := url.Parse(route); err == nil {
		path, rawQuery = u.Path, u.RawQuery
	} else if i := strings.IndexByte(route, '?'); i >= 0 {
		path, rawQuery = route[:i], route[i+1:]
	}

	// ParseQuery keeps every pair it could read; malformed ones stay missing.
	query, _ := url.ParseQuery(rawQuery)
	return DecodeParams(codeFromPath(path), query)
}

// DecodeParams decodes a code path segment and query values, as handed over by a router.
func DecodeParams(code string, query url.Values) (model.PersonalityCode, model.DimensionScores) {
	return NormalizeCode(code), model.DimensionScores{
		Time:     ParseScore(query.Get(ParamTime)),
		Risk:     ParseScore(query.Get(ParamRisk)),
		Decision: ParseScore(query.Get(ParamDecision)),
		Role:     ParseScore(query.Get(ParamRole)),
	}
}

// NormalizeCode trims and upper-cases a code. The result may not be a valid code.
func NormalizeCode(code string) model.PersonalityCode {
	return model.PersonalityCode(strings.ToUpper(strings.TrimSpace(code)))
}

// ParseScore reads a signed total. Decimals are truncated toward zero; empty,
// non-numeric, non-finite and out of int32 range values read as 0.
func ParseScore(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if v, err := strconv.ParseInt(raw, 10, 32); err == nil {
		return int(v)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}
	return int(f)
}

func codeFromPath(path string) string {
	path = strings.TrimSuffix(path, "/")
	if i := strings.Index(path, ResultsPrefix); i >= 0 {
		path = path[i+len(ResultsPrefix):]
	} else {
		path = strings.TrimPrefix(path, strings.TrimPrefix(ResultsPrefix, "/"))
	}
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	return path
}

// LookupResult is the outcome of resolving a code against the catalog. A miss is a
// terminal render state of its own.
type LookupResult struct {
	Code    model.PersonalityCode
	Profile model.PersonalityProfile
	Found   bool
}

// Catalog is the profile source of a lookup.
type Catalog interface {
	Lookup(code model.PersonalityCode) (model.PersonalityProfile, bool)
}

// Lookup resolves a (possibly unnormalized) code.
func Lookup(code model.PersonalityCode, catalog Catalog) LookupResult {
	code = NormalizeCode(string(code))
	res := LookupResult{Code: code}
	if catalog == nil {
		return res
	}
	res.Profile, res.Found = catalog.Lookup(code)
	return res
}
