package miniplayer

import (
	"encoding/json"
	"errors"
	"log"
)

// StorageKey 持久化状态使用的固定键
const StorageKey = "miniplayer_state"

// ErrNotFound 存储中不存在该键
var ErrNotFound = errors.New("miniplayer: state not found")

// Store 持久化键值存储（浏览器 localStorage 的等价物），后写覆盖先写
type Store interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
}

// PersistedState 需要跨会话保存的状态：停靠角落 + 尺寸
// 不保存绝对坐标，视口变化后坐标没有意义
type PersistedState struct {
	Edge Edge `json:"edge"`
	Size Size `json:"size"`
}

// DefaultState 按设备类型返回默认状态
func DefaultState(mobile bool) PersistedState {
	width := DesktopDefaultWidth
	if mobile {
		width = MobileDefaultWidth
	}
	return PersistedState{Edge: EdgeBottomRight, Size: SizeForWidth(width)}
}

// loadState 读取持久化状态，缺失或损坏时回退默认值，从不报错
func loadState(store Store, key string, mobile bool) PersistedState {
	def := DefaultState(mobile)
	if store == nil {
		return def
	}

	data, err := store.Load(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("[Miniplayer] 读取状态失败，使用默认值: %v", err)
		}
		return def
	}

	var st PersistedState
	if err := json.Unmarshal(data, &st); err != nil {
		log.Printf("[Miniplayer] 状态数据损坏，使用默认值: %v", err)
		return def
	}
	if !st.Edge.Valid() {
		return def
	}
	if st.Size.Width <= 0 {
		st.Size = def.Size
	}

	// 旧数据可能超出范围，统一修正宽度并按宽高比重算高度
	st.Size = SizeForWidth(ClampWidth(st.Size.Width))
	return st
}

func saveState(store Store, key string, st PersistedState) {
	if store == nil {
		return
	}
	data, err := json.Marshal(st)
	if err != nil {
		log.Printf("[Miniplayer] 序列化状态失败: %v", err)
		return
	}
	if err := store.Save(key, data); err != nil {
		log.Printf("[Miniplayer] 保存状态失败: %v", err)
	}
}
