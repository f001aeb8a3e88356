package miniplayer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputePositionCorners(t *testing.T) {
	vp := Viewport{Width: 1280, Height: 720}
	size := SizeForWidth(320)

	require.Equal(t, Point{X: 8, Y: 8}, ComputePosition(EdgeTopLeft, size, vp, false))
	require.Equal(t, Point{X: 1280 - 320 - 8, Y: 8}, ComputePosition(EdgeTopRight, size, vp, false))
	require.Equal(t, Point{X: 8, Y: 720 - size.Height - 8}, ComputePosition(EdgeBottomLeft, size, vp, false))
	require.Equal(t, Point{X: 1280 - 320 - 8, Y: 720 - size.Height - 8}, ComputePosition(EdgeBottomRight, size, vp, false))
}

func TestComputePositionMobileBottomPadding(t *testing.T) {
	vp := Viewport{Width: 390, Height: 844}
	size := SizeForWidth(160)

	bottom := ComputePosition(EdgeBottomLeft, size, vp, true)
	require.InDelta(t, 844-size.Height-72, bottom.Y, 1e-9)

	top := ComputePosition(EdgeTopLeft, size, vp, true)
	require.Equal(t, 8.0, top.Y)
}

func TestComputePositionFallbackViewport(t *testing.T) {
	size := SizeForWidth(280)
	for _, vp := range []Viewport{{}, {Width: 0, Height: 500}, {Width: -1, Height: -1}} {
		p := ComputePosition(EdgeBottomRight, size, vp, false)
		require.Equal(t, FallbackViewportWidth-280-8, p.X)
		require.InDelta(t, FallbackViewportHeight-size.Height-8, p.Y, 1e-9)
	}
}

func TestEdgeRoundTrip(t *testing.T) {
	viewports := []Viewport{
		{Width: 1920, Height: 1080},
		{Width: 1280, Height: 720},
		{Width: 1024, Height: 768},
		{Width: 390, Height: 844},
		{},
	}
	for _, vp := range viewports {
		for _, mobile := range []bool{false, true} {
			for _, edge := range Edges {
				size := SizeForWidth(MinWidth)
				p := ComputePosition(edge, size, vp, mobile)
				require.Equal(t, edge, NearestEdge(p.X, p.Y, size, vp), "edge=%s vp=%+v mobile=%v", edge, vp, mobile)
			}
		}
	}
}

func TestNearestEdgeMidline(t *testing.T) {
	vp := Viewport{Width: 1000, Height: 600}
	size := Size{Width: 200, Height: 100}

	// 中心点恰好在中线上
	edge := NearestEdge(400, 250, size, vp)
	require.Equal(t, EdgeBottomRight, edge)

	edge = NearestEdge(399, 249, size, vp)
	require.Equal(t, EdgeTopLeft, edge)
}

func TestClampWidth(t *testing.T) {
	require.Equal(t, MinWidth, ClampWidth(10))
	require.Equal(t, MaxWidth, ClampWidth(5000))
	require.Equal(t, 400.0, ClampWidth(400))
}

func TestEdgeJSON(t *testing.T) {
	data, err := json.Marshal(PersistedState{Edge: EdgeTopRight, Size: SizeForWidth(320)})
	require.NoError(t, err)
	require.Contains(t, string(data), `"edge":"top-right"`)

	var st PersistedState
	require.Error(t, json.Unmarshal([]byte(`{"edge":"middle","size":{"width":300,"height":10}}`), &st))

	_, err = ParseEdge("left")
	require.Error(t, err)
}
