package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inin7674/lol-team/internal/auction"
	"github.com/inin7674/lol-team/internal/hub"
	"github.com/inin7674/lol-team/internal/store"
	"github.com/inin7674/lol-team/internal/types"
)

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, codeLength)
		for _, c := range code {
			assert.Contains(t, codeAlphabet, string(c))
		}
		assert.True(t, validCode(code))
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1, "codes should not repeat constantly")
}

func TestValidCode(t *testing.T) {
	assert.True(t, validCode("ABCD23"))
	assert.False(t, validCode("abc"))
	assert.False(t, validCode("ABC"))
	assert.False(t, validCode("TOOLONGFORACODE"))
	assert.False(t, validCode("AB CD2"))
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{auction.ErrNotInitialized, http.StatusNotFound},
		{auction.ErrNotHost, http.StatusForbidden},
		{auction.ErrNotCaptain, http.StatusForbidden},
		{auction.ErrAlreadyInitialized, http.StatusConflict},
		{auction.ErrTeamAlreadyCaptained, http.StatusConflict},
		{auction.ErrRoundAlreadyRunning, http.StatusConflict},
		{auction.ErrNoActiveRound, http.StatusConflict},
		{auction.ErrInvalidTeam, http.StatusBadRequest},
		{auction.ErrBidTooLow, http.StatusBadRequest},
		{auction.ErrQueueEmpty, http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, statusFor(tc.err), "error %v", tc.err)
	}
}

type apiClient struct {
	t    *testing.T
	base string
	http *http.Client
}

type envelope struct {
	OK           bool                 `json:"ok"`
	Error        string               `json:"error"`
	RoomCode     string               `json:"roomCode"`
	HostSession  string               `json:"hostSession"`
	SessionToken string               `json:"sessionToken"`
	MyTeamID     string               `json:"myTeamId"`
	LeftTeamID   string               `json:"leftTeamId"`
	State        *auction.PublicState `json:"state"`
}

func (c *apiClient) do(method, path, token string, body any) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	if token != "" {
		req.Header.Set("X-Room-Session", token)
	}
	res, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer res.Body.Close()

	var env envelope
	_ = json.NewDecoder(res.Body).Decode(&env)
	return res.StatusCode, env
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := hub.New(ctx, hub.Deps{Store: store.NewMemory()})
	ts := httptest.NewServer(NewServer(h, nil).Routes())
	t.Cleanup(ts.Close)
	return &apiClient{t: t, base: ts.URL, http: ts.Client()}
}

func TestAPI_FullDraftFlow(t *testing.T) {
	api := newTestAPI(t)

	status, created := api.do(http.MethodPost, "/api/auction/rooms/create", "", map[string]string{"hostName": "Host"})
	require.Equal(t, http.StatusCreated, status)
	require.True(t, created.OK)
	require.Len(t, created.RoomCode, 6)
	require.NotEmpty(t, created.HostSession)
	require.NotNil(t, created.State)

	base := "/api/auction/rooms/" + created.RoomCode
	host := created.HostSession

	status, joined := api.do(http.MethodPost, base+"/join", "", map[string]any{
		"teamId": "A", "captainName": "Faker",
	})
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, joined.SessionToken)
	assert.Equal(t, "A", joined.MyTeamID)
	captain := joined.SessionToken

	// captains can't manage the roster
	status, _ = api.do(http.MethodPost, base+"/roster", captain, map[string]any{
		"players": []map[string]any{{"name": "Zeus"}},
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, env := api.do(http.MethodPost, base+"/roster", host, map[string]any{
		"players": []map[string]any{{"name": "Zeus"}, {"name": "Oner"}},
	})
	require.Equal(t, http.StatusOK, status)
	require.Len(t, env.State.Queue, 2)

	status, env = api.do(http.MethodPost, base+"/start", host, map[string]int{"seconds": 5})
	require.Equal(t, http.StatusOK, status)
	require.True(t, env.State.Round.Running)
	require.NotNil(t, env.State.Current)

	status, env = api.do(http.MethodPost, base+"/bid", captain, map[string]int{"amount": 100})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 100, env.State.Bids["A"].Amount)

	status, env = api.do(http.MethodPost, base+"/finish", host, nil)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, env.State.Round.Running)
	assert.Equal(t, auction.InitialPoints-100, env.State.Teams[0].Points)
	require.Len(t, env.State.Teams[0].Players, 1)

	// no round anymore: bidding conflicts
	status, env = api.do(http.MethodPost, base+"/bid", captain, map[string]int{"amount": 120})
	assert.Equal(t, http.StatusConflict, status)
	assert.NotEmpty(t, env.Error)

	status, env = api.do(http.MethodPost, base+"/undo", host, nil)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.State.Current)
	assert.Equal(t, auction.InitialPoints, env.State.Teams[0].Points)

	status, env = api.do(http.MethodGet, base+"/state", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, env.State.CanUndo)
}

func TestAPI_RoomLookupFailures(t *testing.T) {
	api := newTestAPI(t)

	status, env := api.do(http.MethodGet, "/api/auction/rooms/ZZZZ99/state", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, env.Error)

	status, _ = api.do(http.MethodGet, "/api/auction/rooms/abc/state", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_DuplicateCaptainJoinRejected(t *testing.T) {
	api := newTestAPI(t)

	_, created := api.do(http.MethodPost, "/api/auction/rooms/create", "", map[string]string{"hostName": "Host"})
	base := "/api/auction/rooms/" + created.RoomCode

	status, _ := api.do(http.MethodPost, base+"/join", "", map[string]any{"teamId": "A", "captainName": "Faker"})
	require.Equal(t, http.StatusOK, status)

	status, env := api.do(http.MethodPost, base+"/join", "", map[string]any{"teamId": "A", "captainName": "Chovy"})
	assert.Equal(t, http.StatusConflict, status)
	assert.NotEmpty(t, env.Error)

	_, state := api.do(http.MethodGet, base+"/state", "", nil)
	assert.Equal(t, "Faker", state.State.Teams[0].CaptainName)
}

func TestAPI_WebSocketReceivesSnapshots(t *testing.T) {
	api := newTestAPI(t)

	_, created := api.do(http.MethodPost, "/api/auction/rooms/create", "", map[string]string{"hostName": "Host"})
	base := "/api/auction/rooms/" + created.RoomCode

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := strings.Replace(api.base, "http", "ws", 1) + base + "/ws?session=" + created.HostSession
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	readState := func() types.ServerMessage {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var msg types.ServerMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		require.Equal(t, "state", msg.Type)
		require.NotNil(t, msg.State)
		return msg
	}

	first := readState()
	assert.Equal(t, created.RoomCode, first.State.RoomCode)

	status, _ := api.do(http.MethodPost, base+"/join", "", map[string]any{"teamId": "B", "captainName": "Chovy"})
	require.Equal(t, http.StatusOK, status)

	next := readState()
	assert.Equal(t, "Chovy", next.State.Teams[1].CaptainName)
	assert.Greater(t, next.Version, first.Version)
}

func TestAPI_WebSocketRequiresSession(t *testing.T) {
	api := newTestAPI(t)
	_, created := api.do(http.MethodPost, "/api/auction/rooms/create", "", map[string]string{"hostName": "Host"})

	res, err := api.http.Get(api.base + "/api/auction/rooms/" + created.RoomCode + "/ws")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}
