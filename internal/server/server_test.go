package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/airtour/internal/chapter"
	"github.com/ivlev/airtour/internal/config"
	"github.com/ivlev/airtour/internal/input"
	"github.com/ivlev/airtour/internal/tour"
)

func TestDecode(t *testing.T) {
	pos := 2.5
	tests := []struct {
		name string
		msg  string
		want tour.Command
	}{
		{"start", `{"type":"start"}`, tour.StartTour{}},
		{"model", `{"type":"model_loaded"}`, tour.ModelLoaded{}},
		{"wheel", `{"type":"wheel","deltaY":120}`, tour.Wheel{WheelEvent: input.WheelEvent{DeltaY: 120}}},
		{"key", `{"type":"key","key":"Escape"}`, tour.Key{Name: "Escape"}},
		{"resize", `{"type":"resize","userAgent":"iPhone","width":390,"height":844,"pixelRatio":3}`,
			tour.Resize{UserAgent: "iPhone", Width: 390, Height: 844, PixelRatio: 3}},
		{"jump chapter", `{"type":"jump","chapter":"indoor"}`, tour.JumpToChapter{ID: "indoor"}},
		{"jump position", `{"type":"jump","position":2.5}`, tour.JumpTo{Position: pos}},
		{"next", `{"type":"next"}`, tour.NextChapter{}},
		{"hotspot", `{"type":"hotspot","id":"indoor"}`, tour.ClickHotspot{ID: "indoor"}},
		{"mesh", `{"type":"mesh","name":"Geom3D_393"}`, tour.ClickMesh{Name: "Geom3D_393"}},
		{"sensitivity", `{"type":"sensitivity","value":2}`, tour.SetSensitivity{Value: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.msg))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeTouchTime(t *testing.T) {
	cmd, err := Decode([]byte(`{"type":"touch_move","x":10,"y":200,"time":1500}`))
	require.NoError(t, err)

	move, ok := cmd.(tour.TouchMove)
	require.True(t, ok)
	assert.Equal(t, 200.0, move.Y)
	assert.Equal(t, time.Unix(0, int64(1500*time.Millisecond)), move.Time)
}

func TestDecodeErrors(t *testing.T) {
	for _, msg := range []string{
		`not json`,
		`{}`,
		`{"type":"teleport"}`,
		`{"type":"jump"}`,
		`{"type":"key"}`,
	} {
		_, err := Decode([]byte(msg))
		assert.Error(t, err, msg)
	}
}

func TestCheckOrigin(t *testing.T) {
	cfg := config.Default()
	s := New(cfg, chapter.Default())

	req := httptest.NewRequest(http.MethodGet, "http://tour.example.com/ws", nil)
	assert.True(t, s.checkOrigin(req), "no origin header")

	req.Header.Set("Origin", "http://tour.example.com")
	assert.True(t, s.checkOrigin(req), "same host")

	req.Header.Set("Origin", "http://evil.example.com")
	assert.False(t, s.checkOrigin(req))

	cfg.Server.AllowedOrigins = []string{"http://evil.example.com/"}
	assert.True(t, s.checkOrigin(req))

	cfg.Server.AllowedOrigins = []string{"*"}
	req.Header.Set("Origin", "http://anything")
	assert.True(t, s.checkOrigin(req))
}

func TestChaptersAndHealth(t *testing.T) {
	s := New(config.Default(), chapter.Default())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/chapters")
	require.NoError(t, err)
	defer resp.Body.Close()

	var table chapter.Table
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&table))
	assert.Len(t, table.Chapters, 6)

	health, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestWebSocketSession(t *testing.T) {
	cfg := config.Default()
	cfg.Tour.IntroRange = [2]float64{0.1, 0.2}
	cfg.Tour.IntroRate = 5
	cfg.Server.FrameBuffer = 64

	s := New(cfg, chapter.Default())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?w=1280&h=720"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	var hello Outbound
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "hello", hello.Type)
	assert.NotEmpty(t, hello.Session)
	assert.Equal(t, []string{"Geom3D_393", "indoor", "Air Purification", "Outdoor"}, hello.Chapters)

	require.NoError(t, conn.WriteJSON(Inbound{Type: "model_loaded"}))
	require.NoError(t, conn.WriteJSON(Inbound{Type: "start"}))
	require.NoError(t, conn.WriteJSON(Inbound{Type: "bogus"}))

	seen := map[tour.EventKind]bool{}
	var sawError bool
	for !(seen[tour.EventModelLoaded] && seen[tour.EventHideControlPanel] && sawError) {
		var msg Outbound
		require.NoError(t, conn.ReadJSON(&msg))
		switch msg.Type {
		case "frame":
			require.NotNil(t, msg.Frame)
			for _, ev := range msg.Events {
				seen[ev.Kind] = true
			}
		case "error":
			sawError = true
		}
	}

	assert.Eventually(t, func() bool { return s.Sessions() == 1 }, time.Second, 10*time.Millisecond)
	conn.Close()
	assert.Eventually(t, func() bool { return s.Sessions() == 0 }, 5*time.Second, 10*time.Millisecond)
}
