package webframe

import (
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/runtime"

	"github.com/zoeyai/zoeylocator/pkg/devtools"
)

// ContextCache 帧 ID 到默认执行上下文 ID 的映射
//
// 由接收循环写入、由求值方读取，未命中表示上下文还没创建，调用方应重试。
type ContextCache struct {
	mu      sync.RWMutex
	byFrame map[cdp.FrameID]runtime.ExecutionContextID
}

// NewContextCache 创建上下文缓存
func NewContextCache() *ContextCache {
	return &ContextCache{byFrame: make(map[cdp.FrameID]runtime.ExecutionContextID)}
}

// Get 查询帧的上下文
func (c *ContextCache) Get(frame cdp.FrameID) (runtime.ExecutionContextID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byFrame[frame]
	return id, ok
}

// Set 记录帧的上下文
func (c *ContextCache) Set(frame cdp.FrameID, id runtime.ExecutionContextID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byFrame[frame] = id
}

// DeleteContext 删除指向某个上下文的记录
func (c *ContextCache) DeleteContext(id runtime.ExecutionContextID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for f, v := range c.byFrame {
		if v == id {
			delete(c.byFrame, f)
		}
	}
}

// DeleteFrame 删除帧的记录
func (c *ContextCache) DeleteFrame(frame cdp.FrameID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byFrame, frame)
}

// Clear 清空
func (c *ContextCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.byFrame)
}

// Len 记录数
func (c *ContextCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byFrame)
}

// FrameCache 帧路径到帧描述的映射
type FrameCache struct {
	mu     sync.RWMutex
	byPath map[string]devtools.Frame
}

// NewFrameCache 创建帧缓存
func NewFrameCache() *FrameCache {
	return &FrameCache{byPath: make(map[string]devtools.Frame)}
}

// Get 查询路径
func (c *FrameCache) Get(path string) (devtools.Frame, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.byPath[path]
	return f, ok
}

// Set 记录路径
func (c *FrameCache) Set(path string, f devtools.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byPath[path] = f
}

// Delete 删除路径
func (c *FrameCache) Delete(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byPath, path)
}

// DeleteFrame 删除所有解析到该帧的路径
func (c *FrameCache) DeleteFrame(id cdp.FrameID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for p, f := range c.byPath {
		if f.ID == id {
			delete(c.byPath, p)
		}
	}
}

// Clear 清空
func (c *FrameCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.byPath)
}

// Len 记录数
func (c *FrameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byPath)
}
