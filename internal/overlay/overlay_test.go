package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_OpenReplacesAndCloseClears(t *testing.T) {
	m := NewManager()
	assert.False(t, m.Current().Open())
	assert.Equal(t, "none", m.Current().String())

	var closed []State
	m.OnClose(func(s State) { closed = append(closed, s) })

	require.NoError(t, m.Open(Help, ""))
	require.NoError(t, m.Open(Reply, "c1"))
	assert.Equal(t, State{Kind: Reply, Target: "c1"}, m.Current())
	assert.Equal(t, "reply(c1)", m.Current().String())

	prev := m.Close()
	assert.Equal(t, Reply, prev.Kind)
	assert.False(t, m.Current().Open())

	assert.Equal(t, []State{{Kind: Help}, {Kind: Reply, Target: "c1"}}, closed)
}

func TestManager_CloseWhenNothingOpen(t *testing.T) {
	m := NewManager()
	calls := 0
	m.OnClose(func(State) { calls++ })
	assert.Equal(t, State{}, m.Close())
	assert.Zero(t, calls)
}

func TestManager_RejectsUnknownKind(t *testing.T) {
	m := NewManager()
	assert.Error(t, m.Open("sidebar", ""))
	assert.Error(t, m.Open(None, ""))
	assert.False(t, m.Current().Open())
}

func TestManager_HookMayReadState(t *testing.T) {
	m := NewManager()
	var seen State
	m.OnClose(func(State) { seen = m.Current() })
	require.NoError(t, m.Open(Export, ""))
	m.Close()
	assert.Equal(t, State{}, seen)
}
