package miniplayer

// Mode 播放器渲染模式
type Mode string

const (
	ModeFull Mode = "full"
	ModeMini Mode = "mini"
)

// Rect 占位元素的包围矩形
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Container 视频容器的几何信息
// 两种模式下都渲染同一个视频元素，只改变容器的位置、尺寸和层级
type Container struct {
	Mode     Mode    `json:"mode"`
	Left     float64 `json:"left"`
	Top      float64 `json:"top"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	ZIndex   int     `json:"z_index"`
	Floating bool    `json:"floating"`
}

const (
	fullZIndex = 50
	miniZIndex = 99999
)

// Layout 计算容器几何
// full 模式取占位元素的矩形；占位元素不存在时退回 mini 模式
func (e *Engine) Layout(mode Mode, placeholder *Rect, viewport Viewport) Container {
	if mode == ModeFull && placeholder != nil {
		return Container{
			Mode:   ModeFull,
			Left:   placeholder.Left,
			Top:    placeholder.Top,
			Width:  placeholder.Width,
			Height: placeholder.Height,
			ZIndex: fullZIndex,
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	pos := e.positionLocked(viewport)
	return Container{
		Mode:     ModeMini,
		Left:     pos.X,
		Top:      pos.Y,
		Width:    e.state.Size.Width,
		Height:   e.state.Size.Height,
		ZIndex:   miniZIndex,
		Floating: true,
	}
}
