package miniplayer

import "fmt"

// Edge 迷你播放器停靠的角落
type Edge string

const (
	EdgeTopLeft     Edge = "top-left"
	EdgeTopRight    Edge = "top-right"
	EdgeBottomLeft  Edge = "bottom-left"
	EdgeBottomRight Edge = "bottom-right"
)

// Edges 全部停靠角落
var Edges = []Edge{EdgeTopLeft, EdgeTopRight, EdgeBottomLeft, EdgeBottomRight}

const (
	MinWidth            = 160.0
	MaxWidth            = 900.0
	AspectRatio         = 16.0 / 9.0
	EdgePadding         = 8.0
	MobileBottomPadding = 72.0 // 移动端需要避开底部导航栏

	// 视口尚未挂载时使用的假定尺寸
	FallbackViewportWidth  = 1920.0
	FallbackViewportHeight = 1080.0

	MobileDefaultWidth  = MinWidth
	DesktopDefaultWidth = 280.0
)

// Point 屏幕坐标
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size 播放器尺寸
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Viewport 视口尺寸
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid 判断是否为合法角落
func (e Edge) Valid() bool {
	switch e {
	case EdgeTopLeft, EdgeTopRight, EdgeBottomLeft, EdgeBottomRight:
		return true
	}
	return false
}

func (e Edge) isTop() bool  { return e == EdgeTopLeft || e == EdgeTopRight }
func (e Edge) isLeft() bool { return e == EdgeTopLeft || e == EdgeBottomLeft }

// ParseEdge 解析角落名称
func ParseEdge(s string) (Edge, error) {
	e := Edge(s)
	if !e.Valid() {
		return "", fmt.Errorf("无效的停靠位置: %q", s)
	}
	return e, nil
}

func (e Edge) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("无效的停靠位置: %q", string(e))
	}
	return []byte(e), nil
}

func (e *Edge) UnmarshalText(text []byte) error {
	parsed, err := ParseEdge(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// ClampWidth 将宽度限制在 [MinWidth, MaxWidth]
func ClampWidth(w float64) float64 {
	if w != w { // NaN
		return MinWidth
	}
	if w < MinWidth {
		return MinWidth
	}
	if w > MaxWidth {
		return MaxWidth
	}
	return w
}

// SizeForWidth 按固定宽高比推导高度
func SizeForWidth(w float64) Size {
	return Size{Width: w, Height: w / AspectRatio}
}

// normalize 视口为零或未定义时回退到固定尺寸，避免产生 NaN 坐标
func (v Viewport) normalize() Viewport {
	if v.Width <= 0 || v.Height <= 0 || v.Width != v.Width || v.Height != v.Height {
		return Viewport{Width: FallbackViewportWidth, Height: FallbackViewportHeight}
	}
	return v
}

// ComputePosition 根据停靠角落和尺寸计算左上角坐标
func ComputePosition(edge Edge, size Size, viewport Viewport, mobile bool) Point {
	vp := viewport.normalize()
	bottomPadding := EdgePadding
	if mobile {
		bottomPadding = MobileBottomPadding
	}

	right := vp.Width - size.Width - EdgePadding
	bottom := vp.Height - size.Height - bottomPadding

	switch edge {
	case EdgeTopLeft:
		return Point{X: EdgePadding, Y: EdgePadding}
	case EdgeTopRight:
		return Point{X: right, Y: EdgePadding}
	case EdgeBottomLeft:
		return Point{X: EdgePadding, Y: bottom}
	default:
		return Point{X: right, Y: bottom}
	}
}

// NearestEdge 以播放器中心点判断最近的角落
// 严格小于中线才算左/上，恰好压线时固定归为右/下
func NearestEdge(x, y float64, size Size, viewport Viewport) Edge {
	vp := viewport.normalize()
	centerX := x + size.Width/2
	centerY := y + size.Height/2

	isLeft := centerX < vp.Width/2
	isTop := centerY < vp.Height/2

	switch {
	case isTop && isLeft:
		return EdgeTopLeft
	case isTop:
		return EdgeTopRight
	case isLeft:
		return EdgeBottomLeft
	default:
		return EdgeBottomRight
	}
}
