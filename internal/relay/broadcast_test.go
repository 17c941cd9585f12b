package relay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBroadcastExcludesSenderInOrder(t *testing.T) {
	reg, _ := newTestRegistry(t, 0)
	ctx := context.Background()

	_, err := reg.Create(ctx, "abc", "Team Standup")
	require.NoError(t, err)

	a := &testMember{id: "a"}
	b := &testMember{id: "b"}
	c := &testMember{id: "c"}
	for _, m := range []*testMember{a, b, c} {
		require.NoError(t, reg.Join("abc", m))
	}

	for _, p := range []string{"one", "two", "three"} {
		require.NoError(t, reg.Broadcast("abc", Message{Payload: []byte(p), Kind: KindText, Origin: "a"}))
	}

	require.Empty(t, a.payloads())
	require.Equal(t, []string{"one", "two", "three"}, b.payloads())
	require.Equal(t, []string{"one", "two", "three"}, c.payloads())
}

func TestBroadcastIsolatesSlowConsumer(t *testing.T) {
	reg, _ := newTestRegistry(t, 0)
	ctx := context.Background()

	_, err := reg.Create(ctx, "abc", "Team Standup")
	require.NoError(t, err)

	slow := &testMember{id: "slow", full: true}
	fast := &testMember{id: "fast"}
	require.NoError(t, reg.Join("abc", slow))
	require.NoError(t, reg.Join("abc", fast))

	// a full queue drops for that member only, never an error to the sender
	err = reg.Broadcast("abc", Message{Payload: []byte("hello"), Kind: KindText, Origin: "sender"})
	require.NoError(t, err)
	require.Empty(t, slow.payloads())
	require.Equal(t, []string{"hello"}, fast.payloads())
}

func TestBroadcastToEmptiedRoom(t *testing.T) {
	reg, _ := newTestRegistry(t, 0)
	ctx := context.Background()

	_, err := reg.Create(ctx, "abc", "Team Standup")
	require.NoError(t, err)

	a := &testMember{id: "a"}
	b := &testMember{id: "b"}
	require.NoError(t, reg.Join("abc", a))
	require.NoError(t, reg.Join("abc", b))
	reg.Leave("abc", "b")

	// the last remaining peer left nobody to deliver to; still no error
	require.NoError(t, reg.Broadcast("abc", Message{Payload: []byte("ping"), Kind: KindText, Origin: "a"}))
	require.Empty(t, a.payloads())
}

func TestBroadcastUnknownRoom(t *testing.T) {
	reg, _ := newTestRegistry(t, 0)
	err := reg.Broadcast("nope", Message{Payload: []byte("x"), Kind: KindText, Origin: "a"})
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestBroadcastKindPreserved(t *testing.T) {
	reg, _ := newTestRegistry(t, 0)
	ctx := context.Background()

	_, err := reg.Create(ctx, "abc", "Team Standup")
	require.NoError(t, err)

	b := &testMember{id: "b"}
	require.NoError(t, reg.Join("abc", b))

	require.NoError(t, reg.Broadcast("abc", Message{Payload: []byte{0x01}, Kind: KindBinary, Origin: "a"}))
	require.NoError(t, reg.Broadcast("abc", Message{Payload: []byte("hi"), Kind: KindText, Origin: "a"}))

	b.mu.Lock()
	defer b.mu.Unlock()
	require.Len(t, b.got, 2)
	require.Equal(t, KindBinary, b.got[0].Kind)
	require.Equal(t, KindText, b.got[1].Kind)
}
