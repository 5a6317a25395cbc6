package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-persona-backend/internal/model"
)

func TestLoadEmbeddedCatalog(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 16, c.Len())
	assert.Len(t, c.Profiles(), ProfileCount)

	perDimension := map[model.Dimension]int{}
	for _, q := range c.Questions() {
		perDimension[q.Dimension]++
	}
	for _, d := range model.Dimensions {
		assert.Equal(t, 4, perDimension[d], "dimension %s", d)
	}

	first, ok := c.Question(0)
	require.True(t, ok)
	assert.Equal(t, 1, first.ID)
	_, ok = c.Question(c.Len())
	assert.False(t, ok)
}

func TestLookup(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	p, ok := c.Lookup("LCEP")
	require.True(t, ok)
	assert.Equal(t, model.PersonalityCode("LCEP"), p.Code)
	assert.NotEmpty(t, p.Name.EN)

	_, ok = c.Lookup("ZZZZ")
	assert.False(t, ok)
	_, ok = c.Lookup("lcep")
	assert.False(t, ok, "lookup is exact; callers normalize case")
}

func TestLookupReturnsCopies(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	p, _ := c.Lookup("LAEB")
	p.Tags[0] = "mutated"
	again, _ := c.Lookup("LAEB")
	assert.NotEqual(t, "mutated", again.Tags[0])
}

func TestProfilesSortedByCode(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	profiles := c.Profiles()
	for i := 1; i < len(profiles); i++ {
		assert.Less(t, string(profiles[i-1].Code), string(profiles[i].Code))
	}
}

func TestParseRejectsBrokenCatalogs(t *testing.T) {
	good, err := Load()
	require.NoError(t, err)
	questions := good.Questions()
	profiles := good.Profiles()

	tests := []struct {
		name      string
		questions func() []model.Question
		profiles  func() []model.PersonalityProfile
		wantErr   string
	}{
		{
			name: "dimension without questions",
			questions: func() []model.Question {
				var out []model.Question
				for _, q := range questions {
					if q.Dimension != model.DimensionRole {
						out = append(out, q)
					}
				}
				return out
			},
			wantErr: "dimension Role has no questions",
		},
		{
			name: "duplicate question id",
			questions: func() []model.Question {
				out := append([]model.Question(nil), questions...)
				out[1].ID = out[0].ID
				return out
			},
			wantErr: "duplicate id",
		},
		{
			name: "unknown dimension",
			questions: func() []model.Question {
				out := append([]model.Question(nil), questions...)
				out[0].Dimension = "Mood"
				return out
			},
			wantErr: "unknown dimension",
		},
		{
			name: "code letter outside the fixed pairs",
			profiles: func() []model.PersonalityProfile {
				out := append([]model.PersonalityProfile(nil), profiles...)
				out[0].Code = "XCRP"
				return out
			},
			wantErr: "invalid personality code",
		},
		{
			name: "missing profile",
			profiles: func() []model.PersonalityProfile {
				return append([]model.PersonalityProfile(nil), profiles[1:]...)
			},
			wantErr: "must hold 16 profiles",
		},
		{
			name: "duplicate profile",
			profiles: func() []model.PersonalityProfile {
				out := append([]model.PersonalityProfile(nil), profiles...)
				out[1].Code = out[0].Code
				return out
			},
			wantErr: "duplicate code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qs, ps := questions, profiles
			if tt.questions != nil {
				qs = tt.questions()
			}
			if tt.profiles != nil {
				ps = tt.profiles()
			}
			_, err := New(qs, ps)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("questions: [oops"), []byte("profiles: []"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse question catalog")
}
