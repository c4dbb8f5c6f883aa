package handler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jju17/pouleparty-server/internal/session"
	"github.com/Jju17/pouleparty-server/internal/ws"
)

func setupGameplayTest(t *testing.T) (*Router, *session.Session, *mockGameStore, *ws.Client, *ws.Client) {
	t.Helper()
	router, sm, gs, _ := setupLobbyTest(t)

	chickenClient := mockClient("c1")
	resp := createGame(t, router, chickenClient, "chicken")
	s := sm.Get(resp.Code)
	require.NotNil(t, s)
	t.Cleanup(s.Stop)

	hunterClient := mockClient("c2")
	data, err := json.Marshal(joinGameRequest{Code: resp.Code, Name: "Renard", Role: "hunter"})
	require.NoError(t, err)
	router.HandleMessage(&ws.ClientMessage{Client: hunterClient, Data: mustEnvelope(t, ws.TypeJoinGame, data)})
	drainMessages(hunterClient)

	return router, s, gs, chickenClient, hunterClient
}

func sendLocation(t *testing.T, router *Router, client *ws.Client, lat, lng float64) {
	t.Helper()
	data, err := json.Marshal(locationUpdateRequest{Latitude: lat, Longitude: lng})
	require.NoError(t, err)
	router.HandleMessage(&ws.ClientMessage{Client: client, Data: mustEnvelope(t, ws.TypeLocationUpdate, data)})
}

func TestHandleLocationUpdate_MovesZoneCenter(t *testing.T) {
	router, s, _, chickenClient, _ := setupGameplayTest(t)

	sendLocation(t, router, chickenClient, 50.9, 4.4)

	center := s.Snapshot().Center
	assert.Equal(t, 50.9, center.Latitude)
	assert.Equal(t, 4.4, center.Longitude)
}

func TestHandleLocationUpdate_DisplacementFilter(t *testing.T) {
	router, s, _, chickenClient, _ := setupGameplayTest(t)

	sendLocation(t, router, chickenClient, 50.9, 4.4)
	// ~1 m away: dropped at the boundary, center unchanged.
	sendLocation(t, router, chickenClient, 50.90001, 4.4)

	assert.Equal(t, 50.9, s.Snapshot().Center.Latitude)
}

func TestHandleLocationUpdate_OutOfRange(t *testing.T) {
	router, _, _, chickenClient, _ := setupGameplayTest(t)

	sendLocation(t, router, chickenClient, 91, 4.4)

	msgs := drainMessages(chickenClient)
	assert.NotNil(t, findMessageByType(msgs, ws.TypeError))
}

func TestHandleSubmitCode_CorrectCode(t *testing.T) {
	router, s, gs, _, hunterClient := setupGameplayTest(t)

	data, err := json.Marshal(submitCodeRequest{Code: "4271"})
	require.NoError(t, err)
	router.HandleMessage(&ws.ClientMessage{Client: hunterClient, Data: mustEnvelope(t, ws.TypeSubmitCode, data)})

	msgs := drainMessages(hunterClient)
	resp := findMessageByType(msgs, ws.TypeSubmitCode)
	require.NotNil(t, resp)

	var payload submitCodeResponse
	require.NoError(t, json.Unmarshal(resp.Data, &payload))
	assert.Equal(t, "Renard", payload.Winner.HunterName)

	// Persisted with the ledger's idempotency.
	winners, err := gs.ListWinners(context.Background(), s.Config().ID)
	require.NoError(t, err)
	assert.Len(t, winners, 1)
}

func TestHandleSubmitCode_WrongCodeIsRetryable(t *testing.T) {
	router, s, gs, _, hunterClient := setupGameplayTest(t)

	data, err := json.Marshal(submitCodeRequest{Code: "0000"})
	require.NoError(t, err)
	router.HandleMessage(&ws.ClientMessage{Client: hunterClient, Data: mustEnvelope(t, ws.TypeSubmitCode, data)})

	msgs := drainMessages(hunterClient)
	errMsg := findMessageByType(msgs, ws.TypeError)
	require.NotNil(t, errMsg)

	var payload ws.ErrorMessage
	require.NoError(t, json.Unmarshal(errMsg.Data, &payload))
	assert.True(t, payload.Retryable, "wrong code must be retryable")

	winners, err := gs.ListWinners(context.Background(), s.Config().ID)
	require.NoError(t, err)
	assert.Empty(t, winners)
	assert.Empty(t, s.Winners())
}

func TestHandleSubmitCode_ResubmissionPersistsOnce(t *testing.T) {
	router, s, gs, _, hunterClient := setupGameplayTest(t)

	data, err := json.Marshal(submitCodeRequest{Code: "4271"})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		router.HandleMessage(&ws.ClientMessage{Client: hunterClient, Data: mustEnvelope(t, ws.TypeSubmitCode, data)})
	}

	winners, err := gs.ListWinners(context.Background(), s.Config().ID)
	require.NoError(t, err)
	assert.Len(t, winners, 1)
	assert.Len(t, s.Winners(), 1)
}

func TestHandleLocationUpdate_IgnoredWhenNotInGame(t *testing.T) {
	router, _, _, _ := setupLobbyTest(t)
	stranger := mockClient("c9")

	sendLocation(t, router, stranger, 50.9, 4.4)

	assert.Empty(t, drainMessages(stranger), "samples from unknown clients are silently dropped")
}
