package miniplayer

import (
	"log"
	"sync"
)

// Target 指针按下时命中的元素类型
type Target int

const (
	TargetDragZone Target = iota // 播放器边缘的拖拽区域
	TargetButton
	TargetLink
)

// Interactive 按钮和链接属于交互控件，按下时不能被拖拽劫持
func (t Target) Interactive() bool {
	return t == TargetButton || t == TargetLink
}

type dragAnchor struct {
	pointer Point
	element Point
}

type resizeAnchor struct {
	pointerX   float64
	startWidth float64
}

// Engine 迷你播放器位置引擎
// 持久化状态只在拖拽结束和缩放过程中写回，拖拽中的临时坐标不落盘
type Engine struct {
	mu     sync.Mutex
	store  Store
	key    string
	mobile bool
	state  PersistedState

	drag   *dragAnchor
	resize *resizeAnchor
	temp   *Point
}

// NewEngine 创建引擎并读取一次持久化状态
func NewEngine(store Store, key string, mobile bool) *Engine {
	if key == "" {
		key = StorageKey
	}
	return &Engine{
		store:  store,
		key:    key,
		mobile: mobile,
		state:  loadState(store, key, mobile),
	}
}

// State 当前持久化状态
func (e *Engine) State() PersistedState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Mobile 是否为移动端布局
func (e *Engine) Mobile() bool {
	return e.mobile
}

func (e *Engine) IsDragging() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drag != nil
}

func (e *Engine) IsResizing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resize != nil
}

// TempPosition 拖拽中的跟随坐标
func (e *Engine) TempPosition() (Point, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.temp == nil {
		return Point{}, false
	}
	return *e.temp, true
}

// Position 渲染坐标：拖拽中使用临时坐标，否则按停靠角落计算
func (e *Engine) Position(viewport Viewport) Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionLocked(viewport)
}

func (e *Engine) positionLocked(viewport Viewport) Point {
	if e.temp != nil {
		return *e.temp
	}
	return ComputePosition(e.state.Edge, e.state.Size, viewport, e.mobile)
}

// BeginDrag 开始拖拽，鼠标与单点触摸共用
func (e *Engine) BeginDrag(target Target, pointer Point, viewport Viewport) bool {
	if target.Interactive() {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.resize != nil || e.drag != nil {
		return false
	}

	e.drag = &dragAnchor{
		pointer: pointer,
		element: e.positionLocked(viewport),
	}
	return true
}

// UpdateDrag 按指针位移计算跟随坐标，不做视口边界限制
func (e *Engine) UpdateDrag(pointer Point) (Point, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.drag == nil {
		return Point{}, false
	}
	p := e.drag.follow(pointer)
	e.temp = &p
	return p, true
}

// EndDrag 结束拖拽并吸附到最近的角落，这是拖拽唯一的写回点
func (e *Engine) EndDrag(pointer Point, viewport Viewport) (Edge, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.drag == nil {
		return e.state.Edge, false
	}
	final := e.drag.follow(pointer)
	e.drag = nil
	e.temp = nil
	return e.snapLocked(final, viewport), true
}

// CancelDrag 丢弃未完成的拖拽（组件卸载时调用）
func (e *Engine) CancelDrag() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.drag = nil
	e.temp = nil
}

// Snap 把给定坐标吸附到最近角落并持久化，尺寸不变
func (e *Engine) Snap(p Point, viewport Viewport) Edge {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapLocked(p, viewport)
}

func (e *Engine) snapLocked(p Point, viewport Viewport) Edge {
	edge := NearestEdge(p.X, p.Y, e.state.Size, viewport)
	e.state.Edge = edge
	saveState(e.store, e.key, e.state)
	log.Printf("[Miniplayer] 吸附到角落: %s", edge)
	return edge
}

// BeginResize 从角落手柄开始缩放，仅桌面端
func (e *Engine) BeginResize(pointerX float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mobile || e.drag != nil || e.resize != nil {
		return false
	}
	e.resize = &resizeAnchor{pointerX: pointerX, startWidth: e.state.Size.Width}
	return true
}

// UpdateResize 向左拖动手柄变大；每次移动都立即持久化
func (e *Engine) UpdateResize(pointerX float64) (Size, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.resize == nil {
		return e.state.Size, false
	}
	width := e.resize.startWidth - (pointerX - e.resize.pointerX)
	e.state.Size = SizeForWidth(ClampWidth(width))
	saveState(e.store, e.key, e.state)
	return e.state.Size, true
}

// EndResize 结束缩放，最终尺寸已在 UpdateResize 中保存
func (e *Engine) EndResize() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resize = nil
}

// SetSize 直接设置宽度（非手势路径，如接口写入）
func (e *Engine) SetSize(width float64) Size {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Size = SizeForWidth(ClampWidth(width))
	saveState(e.store, e.key, e.state)
	return e.state.Size
}

// SetEdge 直接设置停靠角落
func (e *Engine) SetEdge(edge Edge) bool {
	if !edge.Valid() {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Edge = edge
	saveState(e.store, e.key, e.state)
	return true
}

func (a *dragAnchor) follow(pointer Point) Point {
	return Point{
		X: a.element.X + (pointer.X - a.pointer.X),
		Y: a.element.Y + (pointer.Y - a.pointer.Y),
	}
}
