package transport

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-persona-backend/internal/catalog"
	"crypto-persona-backend/internal/model"
)

func TestEncode(t *testing.T) {
	route := Encode("LCEP", model.DimensionScores{Time: 8, Risk: -3, Decision: 1, Role: -6})
	assert.Equal(t, "/results/LCEP?time=8&risk=-3&decision=1&role=-6", route)

	assert.Equal(t, "/results/LAEB?time=0&risk=0&decision=0&role=0", Encode("laeb", model.DimensionScores{}))
}

func TestRoundTrip(t *testing.T) {
	codes := []model.PersonalityCode{"LCEP", "SCRP", "LAEB", "sarb"}
	scores := []model.DimensionScores{
		{},
		{Time: 8, Risk: -3, Decision: 1, Role: -6},
		{Time: -20, Risk: 20, Decision: -1, Role: 0},
		{Time: 1234, Risk: -987, Decision: 55, Role: -55},
	}
	for _, code := range codes {
		for _, s := range scores {
			gotCode, gotScores := Decode(Encode(code, s))
			assert.Equal(t, NormalizeCode(string(code)), gotCode)
			assert.Equal(t, s, gotScores)
		}
	}
}

func TestDecodeCaseInsensitive(t *testing.T) {
	code, scores := Decode("/results/lcep?time=8&risk=-3&decision=1&role=-6")
	assert.Equal(t, model.PersonalityCode("LCEP"), code)
	assert.Equal(t, model.DimensionScores{Time: 8, Risk: -3, Decision: 1, Role: -6}, scores)
}

func TestDecodeMissingParameter(t *testing.T) {
	code, scores := Decode("/results/LCEP?time=8&decision=1&role=-6")
	assert.Equal(t, model.PersonalityCode("LCEP"), code)
	assert.Equal(t, 0, scores.Risk)
	assert.Equal(t, 8, scores.Time)
}

func TestDecodeNeverFails(t *testing.T) {
	tests := []struct {
		route      string
		wantCode   model.PersonalityCode
		wantScores model.DimensionScores
	}{
		{"/results/LCEP", "LCEP", model.DimensionScores{}},
		{"/results/LCEP?time=abc&risk=&decision=NaN&role=Infinity", "LCEP", model.DimensionScores{}},
		{"/results/LCEP?time=2.9&risk=-2.9", "LCEP", model.DimensionScores{Time: 2, Risk: -2}},
		{"/results/LCEP?time=%20%207%20", "LCEP", model.DimensionScores{Time: 7}},
		{"/results/zzzz?role=3", "ZZZZ", model.DimensionScores{Role: 3}},
		{"https://persona.example/results/sAeB/?time=-1", "SAEB", model.DimensionScores{Time: -1}},
		{"/results/LCEP?time=%zz&risk=4", "LCEP", model.DimensionScores{Risk: 4}},
		{"results/LCEP?time=3", "LCEP", model.DimensionScores{Time: 3}},
		{"/results/LCEP?time=-9223372036854775808&risk=2147483648", "LCEP", model.DimensionScores{}},
		{"", "", model.DimensionScores{}},
		{"%%%", "%%%", model.DimensionScores{}},
	}
	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			code, scores := Decode(tt.route)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantScores, scores)
		})
	}
}

func TestDecodeParams(t *testing.T) {
	code, scores := DecodeParams(" lcep ", url.Values{"time": {"8"}, "role": {"x"}})
	assert.Equal(t, model.PersonalityCode("LCEP"), code)
	assert.Equal(t, model.DimensionScores{Time: 8}, scores)
}

func TestParseScore(t *testing.T) {
	assert.Equal(t, 0, ParseScore(""))
	assert.Equal(t, -6, ParseScore("-6"))
	assert.Equal(t, 3, ParseScore("+3"))
	assert.Equal(t, 0, ParseScore("1e400"))
	assert.Equal(t, 0, ParseScore("ten"))
	assert.Equal(t, 2147483647, ParseScore("2147483647"))
	assert.Equal(t, 0, ParseScore("2147483648"))
	assert.Equal(t, 0, ParseScore("2147483648.5"))
	assert.Equal(t, -2147483648, ParseScore("-2147483648"))
}

func TestLookup(t *testing.T) {
	c, err := catalog.Load()
	require.NoError(t, err)

	res := Lookup("lcep", c)
	assert.True(t, res.Found)
	assert.Equal(t, model.PersonalityCode("LCEP"), res.Code)
	assert.Equal(t, model.PersonalityCode("LCEP"), res.Profile.Code)

	miss := Lookup("ZZZZ", c)
	assert.False(t, miss.Found)
	assert.Equal(t, model.PersonalityCode("ZZZZ"), miss.Code)

	assert.False(t, Lookup("LCEP", nil).Found)
}

func TestEndToEndRoute(t *testing.T) {
	c, err := catalog.Load()
	require.NoError(t, err)

	route := Encode("LCEP", model.DimensionScores{Time: 8, Risk: -3, Decision: 1, Role: -6})
	require.Equal(t, "/results/LCEP?time=8&risk=-3&decision=1&role=-6", route)

	code, _ := Decode(route)
	res := Lookup(code, c)
	assert.True(t, res.Found)
}
