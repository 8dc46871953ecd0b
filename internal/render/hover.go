package render

// 文档注释：悬停状态
// 背景：指针事件可能乱序到达（离开旧区域晚于进入新区域），Leave 只在 ID 与当前悬停一致时清除。
// 约束：任一时刻至多一个悬停区域；零值即“无悬停”。
type Hover struct {
	id string
}

// Enter：切换到 id；返回状态是否变化
func (h *Hover) Enter(id string) bool {
	if id == "" || h.id == id {
		return false
	}
	h.id = id
	return true
}

// Leave：仅当 id 为当前悬停区域时清除
func (h *Hover) Leave(id string) bool {
	if h.id == "" || h.id != id {
		return false
	}
	h.id = ""
	return true
}

// Reset：无条件清除（地理数据替换时使用）
func (h *Hover) Reset() { h.id = "" }

func (h Hover) Current() (string, bool) { return h.id, h.id != "" }

// Selection：点击选中，语义同 Hover，但由显式清除结束
type Selection struct {
	id string
}

func (s *Selection) Select(id string) bool {
	if s.id == id {
		return false
	}
	s.id = id
	return true
}

func (s *Selection) Clear() bool {
	if s.id == "" {
		return false
	}
	s.id = ""
	return true
}

func (s Selection) Current() (string, bool) { return s.id, s.id != "" }
