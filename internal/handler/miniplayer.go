package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/reelwatch/internal/middleware"
	"github.com/user/reelwatch/internal/miniplayer"
	"github.com/user/reelwatch/internal/utils"
)

// MiniplayerState 迷你播放器状态及其在视口中的位置
type MiniplayerState struct {
	Edge     miniplayer.Edge  `json:"edge"`
	Size     miniplayer.Size  `json:"size"`
	Position miniplayer.Point `json:"position"`
	Mobile   bool             `json:"mobile"`
}

// MiniplayerQuery 视口参数，缺省时按 1920x1080 计算
type MiniplayerQuery struct {
	Mobile bool    `form:"mobile"`
	Width  float64 `form:"width" binding:"gte=0"`
	Height float64 `form:"height" binding:"gte=0"`
}

// UpdateMiniplayerReq 直接设置停靠角落和/或宽度
type UpdateMiniplayerReq struct {
	Edge  *miniplayer.Edge `json:"edge"`
	Width *float64         `json:"width"`
}

// SnapMiniplayerReq 拖拽结束时的坐标
type SnapMiniplayerReq struct {
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	ViewportWidth  float64 `json:"viewport_width" binding:"gte=0"`
	ViewportHeight float64 `json:"viewport_height" binding:"gte=0"`
	Mobile         bool    `json:"mobile"`
}

func (h *Handler) miniplayerEngine(userID string, mobile bool) *miniplayer.Engine {
	return miniplayer.NewEngine(h.Miniplayer, miniplayer.StorageKey+":"+userID, mobile)
}

func miniplayerState(e *miniplayer.Engine, vp miniplayer.Viewport) MiniplayerState {
	st := e.State()
	return MiniplayerState{
		Edge:     st.Edge,
		Size:     st.Size,
		Position: e.Position(vp),
		Mobile:   e.Mobile(),
	}
}

// GetMiniplayer 读取迷你播放器状态
func (h *Handler) GetMiniplayer(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		utils.Unauthorized(c, "Unauthorized")
		return
	}

	var q MiniplayerQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.BadRequest(c, utils.ValidationMessage(err))
		return
	}

	e := h.miniplayerEngine(userID, q.Mobile)
	utils.Success(c, miniplayerState(e, miniplayer.Viewport{Width: q.Width, Height: q.Height}))
}

// UpdateMiniplayer 设置停靠角落和宽度，宽度会被限制在合法范围内
func (h *Handler) UpdateMiniplayer(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		utils.Unauthorized(c, "Unauthorized")
		return
	}

	var q MiniplayerQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.BadRequest(c, utils.ValidationMessage(err))
		return
	}
	var req UpdateMiniplayerReq
	// 非法的 edge 在反序列化阶段即被拒绝
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "无效的请求数据")
		return
	}
	if req.Edge == nil && req.Width == nil {
		utils.BadRequest(c, "edge 和 width 不能同时为空")
		return
	}

	e := h.miniplayerEngine(userID, q.Mobile)
	if req.Edge != nil {
		e.SetEdge(*req.Edge)
	}
	if req.Width != nil {
		e.SetSize(*req.Width)
	}
	utils.Success(c, miniplayerState(e, miniplayer.Viewport{Width: q.Width, Height: q.Height}))
}

// SnapMiniplayer 把拖拽结束坐标吸附到最近的角落并保存
func (h *Handler) SnapMiniplayer(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		utils.Unauthorized(c, "Unauthorized")
		return
	}

	var req SnapMiniplayerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, utils.ValidationMessage(err))
		return
	}

	vp := miniplayer.Viewport{Width: req.ViewportWidth, Height: req.ViewportHeight}
	e := h.miniplayerEngine(userID, req.Mobile)
	e.Snap(miniplayer.Point{X: req.X, Y: req.Y}, vp)
	utils.Success(c, miniplayerState(e, vp))
}
