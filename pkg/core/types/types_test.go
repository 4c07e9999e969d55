package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanonone/castchain/pkg/errs"
)

func TestDifficultyAccepts(t *testing.T) {
	one := Classification{Connected: true, MinHops: HopsOne}
	two := Classification{Connected: true, MinHops: HopsTwo}
	none := Classification{}

	assert.True(t, Easy.Accepts(one))
	assert.False(t, Easy.Accepts(two))
	assert.True(t, Medium.Accepts(two))
	assert.False(t, Medium.Accepts(none))
	assert.True(t, Hard.Accepts(none))
	assert.False(t, Hard.Accepts(one))
	assert.False(t, Difficulty("insane").Accepts(none))
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty(" Medium ")
	require.NoError(t, err)
	assert.Equal(t, Medium, d)

	_, err = ParseDifficulty("impossible")
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("tv")
	require.NoError(t, err)
	assert.Equal(t, Series, c)

	_, err = ParseCategory("podcast")
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestClassificationJSONUsesNullForNoHops(t *testing.T) {
	b, err := json.Marshal(Classification{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"connected":false,"minHops":null}`, string(b))

	var c Classification
	require.NoError(t, json.Unmarshal([]byte(`{"connected":true,"minHops":2}`), &c))
	assert.Equal(t, HopsTwo, c.MinHops)
}

func TestFilmographyRecent(t *testing.T) {
	f := Filmography{ActorID: 1}
	for i := int64(1); i <= 12; i++ {
		f.Credits = append(f.Credits, Credit{ActorID: 1, Media: MediaWork{ID: i, Category: Film}})
	}
	recent := f.Recent(10)
	assert.Len(t, recent, 10)
	assert.Equal(t, int64(1), recent[0].Media.ID)
	assert.Len(t, Filmography{}.Recent(10), 0)
	assert.Len(t, f.MediaKeys(), 12)
}

func TestMediaKeysSeparateCategories(t *testing.T) {
	f := Filmography{ActorID: 1, Credits: []Credit{
		{ActorID: 1, Media: MediaWork{ID: 100, Category: Film}},
		{ActorID: 1, Media: MediaWork{ID: 100, Category: Series}},
		{ActorID: 1, Media: MediaWork{ID: 100, Category: Film}},
	}}
	keys := f.MediaKeys()
	assert.Len(t, keys, 2)
	assert.Contains(t, keys, MediaKey{ID: 100, Category: Series})
}
