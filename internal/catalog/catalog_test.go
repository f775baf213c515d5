package catalog

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_HasFifteenEventsInOrder(t *testing.T) {
	c := Default()
	list := c.List()
	require.Len(t, list, 15)
	for i, e := range list {
		assert.Equal(t, i+1, e.ID)
	}
}

func TestDefault_PromptStormIsIndividualOnly(t *testing.T) {
	e, ok := Default().Get(3)
	require.True(t, ok)
	assert.Equal(t, "PromptStorm", e.Name)
	assert.True(t, e.Allows(ModeIndividual))
	assert.False(t, e.Allows(ModeTeam))
	assert.Equal(t, 100, e.PriceFor(ModeIndividual))
}

func TestDefault_LokDharoharBounds(t *testing.T) {
	e, ok := Default().Get(10)
	require.True(t, ok)
	assert.Equal(t, 8, e.MinTeamSize)
	assert.Equal(t, 15, e.MaxTeamSize)
	assert.Equal(t, 200, e.PriceFor(ModeTeam))
}

func TestGet_Unknown(t *testing.T) {
	_, ok := Default().Get(99)
	assert.False(t, ok)
}

func TestList_ReturnsCopy(t *testing.T) {
	c := Default()
	list := c.List()
	list[0].Name = "mutated"

	e, _ := c.Get(1)
	assert.Equal(t, "InsightCraft", e.Name)
	assert.Equal(t, "InsightCraft", c.List()[0].Name)
}

func TestNew_RejectsBrokenEvents(t *testing.T) {
	tests := []struct {
		name  string
		event Event
	}{
		{"no modes", Event{ID: 1, IndividualPrice: 100}},
		{"team without bounds", Event{ID: 1, TeamPrice: 200, AllowedModes: []Mode{ModeTeam}}},
		{"inverted bounds", Event{ID: 1, TeamPrice: 200, AllowedModes: []Mode{ModeTeam}, MinTeamSize: 5, MaxTeamSize: 4}},
		{"free individual mode", Event{ID: 1, AllowedModes: []Mode{ModeIndividual}}},
		{"bounds on solo event", Event{ID: 1, IndividualPrice: 100, AllowedModes: []Mode{ModeIndividual}, MinTeamSize: 2, MaxTeamSize: 2}},
		{"zero id", Event{IndividualPrice: 100, AllowedModes: []Mode{ModeIndividual}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New([]Event{tt.event})
			require.Error(t, err)
		})
	}
}

func TestNew_RejectsDuplicateIDs(t *testing.T) {
	e := Event{ID: 1, IndividualPrice: 100, AllowedModes: []Mode{ModeIndividual}}
	_, err := New([]Event{e, e})
	require.Error(t, err)
}

func TestMode_UnmarshalJSON(t *testing.T) {
	var m Mode
	require.NoError(t, json.Unmarshal([]byte(`"team"`), &m))
	assert.Equal(t, ModeTeam, m)

	err := json.Unmarshal([]byte(`"duo"`), &m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMode))

	require.Error(t, json.Unmarshal([]byte(`2`), &m))
}
