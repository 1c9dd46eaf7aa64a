package message

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexcolony/server/internal/hex"
)

func TestMessageJSON(t *testing.T) {
	raw := []byte(`{"type":"START_WORK","args":{"avatarId":1,"spaceId":2,"workType":"chop_wood","monsterId":5,"q":1,"r":-1}}`)
	var m Message
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, TypeStartWork, m.Type)
	assert.EqualValues(t, 5, m.Args.MonsterID)
	assert.Equal(t, hex.Coord{Q: 1, R: -1}, m.Args.Coord())

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"type":"START_WORK"`)

	assert.Error(t, json.Unmarshal([]byte(`{"type":"DANCE"}`), &m))
	_, err = json.Marshal(Message{})
	assert.Error(t, err)
	assert.Equal(t, "Type(42)", Type(42).String())
}
