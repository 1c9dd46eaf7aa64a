package snapshot

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Tags    Set[string]    `json:"tags"`
	Counts  map[string]int `json:"counts"`
	Created Time           `json:"created"`
}

func TestScalarWrappersRoundTrip(t *testing.T) {
	in := record{
		Tags:    NewSet("b", "a"),
		Counts:  map[string]int{"wood": 3},
		Created: Time{time.Date(2024, 5, 1, 12, 30, 0, 123456789, time.UTC)},
	}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"tags":{"$set":["a","b"]}`)
	assert.Contains(t, string(raw), `"$date":"2024-05-01T12:30:00.123456789Z"`)

	var out record
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.True(t, out.Tags.Has("a"))
	assert.Equal(t, 2, out.Tags.Len())
	assert.Equal(t, in.Counts, out.Counts)
	assert.True(t, in.Created.Equal(out.Created.Time))
}

func TestWrappersRejectPlainValues(t *testing.T) {
	var s Set[int]
	assert.ErrorIs(t, json.Unmarshal([]byte(`[1,2]`), &s), ErrMalformed)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"x":1}`), &s), ErrMalformed)
	require.NoError(t, json.Unmarshal([]byte(`{"$set":[]}`), &s))
	assert.Zero(t, s.Len())

	var ts Time
	assert.ErrorIs(t, json.Unmarshal([]byte(`"2024-01-01"`), &ts), ErrMalformed)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"$date":"yesterday"}`), &ts), ErrMalformed)
}

func validProcess() *Process {
	return &Process{
		Version:          Version,
		WorldIDGenerator: 1,
		Worlds: []World{{
			ID:                 1,
			CurrentVirtualTime: 500,
			EntityIDGenerator:  2,
			Entities: []Entity{
				{ID: 1, Kind: "avatar", Components: []Component{{Name: "Avatar", Data: json.RawMessage(`{"name":"ann"}`)}}},
				{ID: 2, Kind: "space"},
			},
		}},
	}
}

func TestEncodeDecode(t *testing.T) {
	raw, err := Encode(validProcess())
	require.NoError(t, err)

	p, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), p.WorldIDGenerator)
	require.Len(t, p.Worlds[0].Entities, 2)
	assert.JSONEq(t, `{"name":"ann"}`, string(p.Worlds[0].Entities[0].Components[0].Data))
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := map[string]func(p *Process){
		"version":           func(p *Process) { p.Version = 9 },
		"world outside gen": func(p *Process) { p.Worlds[0].ID = 2 },
		"entity outside":    func(p *Process) { p.Worlds[0].Entities[1].ID = 3 },
		"duplicate entity":  func(p *Process) { p.Worlds[0].Entities[1].ID = 1 },
		"duplicate comp": func(p *Process) {
			e := &p.Worlds[0].Entities[0]
			e.Components = append(e.Components, e.Components[0])
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := validProcess()
			mutate(p)
			raw, err := json.Marshal(p)
			require.NoError(t, err)
			_, err = Decode(raw)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}

	_, err := Decode([]byte(`{not json`))
	assert.ErrorIs(t, err, ErrMalformed)
}
