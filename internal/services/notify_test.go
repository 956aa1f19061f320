package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEvents(t *testing.T, conn *fakeConn) []Event {
	t.Helper()
	events := make([]Event, 0, len(conn.frames))
	for _, frame := range conn.frames {
		var event Event
		require.NoError(t, json.Unmarshal(frame, &event))
		events = append(events, event)
	}
	return events
}

func eventTypes(events []Event) []string {
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}

func newDispatchFixture() (*Dispatcher, *Hub) {
	hub := NewHub()
	return NewDispatcher(hub), hub
}

func TestDispatcherRequestSent(t *testing.T) {
	d, hub := newDispatchFixture()
	alice := &fakeConn{}
	bob := &fakeConn{}
	hub.Register("alice", alice)
	hub.Register("bob", bob)

	d.RequestSent(RelationResult{Self: profileFixture("alice"), Other: profileFixture("bob")})

	assert.Equal(t, []string{EventFriendRequestSent}, eventTypes(decodeEvents(t, alice)))
	assert.Equal(t, []string{EventFriendRequestReceived}, eventTypes(decodeEvents(t, bob)))
}

func TestDispatcherRequestAccepted(t *testing.T) {
	d, hub := newDispatchFixture()
	alice := &fakeConn{}
	bob := &fakeConn{}
	hub.Register("alice", alice)
	hub.Register("bob", bob)

	d.RequestAccepted(RelationResult{Self: profileFixture("bob"), Other: profileFixture("alice")})

	assert.Equal(t, []string{EventRequestAccepted}, eventTypes(decodeEvents(t, alice)))
	assert.Equal(t, []string{EventFriendAdded}, eventTypes(decodeEvents(t, bob)))
}

func TestDispatcherRequestRejected(t *testing.T) {
	d, hub := newDispatchFixture()
	alice := &fakeConn{}
	bob := &fakeConn{}
	hub.Register("alice", alice)
	hub.Register("bob", bob)

	d.RequestRejected(RelationResult{Self: profileFixture("bob"), Other: profileFixture("alice")})

	assert.Equal(t, []string{EventFriendRequestRejected}, eventTypes(decodeEvents(t, alice)))
	assert.Equal(t, []string{EventRequestRejectedSuccess}, eventTypes(decodeEvents(t, bob)))
}

func TestDispatcherFriendRemoved(t *testing.T) {
	d, hub := newDispatchFixture()
	alice := &fakeConn{}
	bob := &fakeConn{}
	hub.Register("alice", alice)
	hub.Register("bob", bob)

	d.FriendRemoved(RelationResult{Self: profileFixture("alice"), Other: profileFixture("bob")})

	aliceEvents := decodeEvents(t, alice)
	require.Len(t, aliceEvents, 1)
	assert.Equal(t, EventFriendRemoved, aliceEvents[0].Type)

	bobEvents := decodeEvents(t, bob)
	require.Len(t, bobEvents, 1)
	assert.Equal(t, EventFriendRemoved, bobEvents[0].Type)
}

func TestDispatcherAbsentPeerIsDropped(t *testing.T) {
	d, hub := newDispatchFixture()
	alice := &fakeConn{}
	hub.Register("alice", alice)

	// Bob is offline: his event is dropped, Alice's still arrives.
	d.RequestSent(RelationResult{Self: profileFixture("alice"), Other: profileFixture("bob")})

	assert.Equal(t, []string{EventFriendRequestSent}, eventTypes(decodeEvents(t, alice)))
}

func TestDispatcherBothPeersOffline(t *testing.T) {
	d, _ := newDispatchFixture()

	// No connection for either side; delivery is best-effort and must not
	// panic or error.
	d.RequestSent(RelationResult{Self: profileFixture("alice"), Other: profileFixture("bob")})
	d.FriendRemoved(RelationResult{Self: profileFixture("alice"), Other: profileFixture("bob")})
}
