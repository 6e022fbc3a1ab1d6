package devtools

import (
	"encoding/json"

	"github.com/chromedp/cdproto"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
)

// 用到的命令与事件
const (
	MethodPageEnable    = page.CommandEnable
	MethodGetFrameTree  = page.CommandGetFrameTree
	MethodRuntimeEnable = runtime.CommandEnable
	MethodEvaluate      = runtime.CommandEvaluate

	EventFrameNavigated   = cdproto.EventPageFrameNavigated
	EventFrameDetached    = cdproto.EventPageFrameDetached
	EventContextCreated   = cdproto.EventRuntimeExecutionContextCreated
	EventContextDestroyed = cdproto.EventRuntimeExecutionContextDestroyed
	EventContextsCleared  = cdproto.EventRuntimeExecutionContextsCleared
)

// 下面的结构只取定位需要的字段，不直接用 cdproto 的类型解码，
// 新版浏览器返回未知枚举值时 cdproto 会解码失败。

// Frame 帧描述
type Frame struct {
	ID             cdp.FrameID `json:"id"`
	ParentID       cdp.FrameID `json:"parentId,omitempty"`
	LoaderID       string      `json:"loaderId"`
	Name           string      `json:"name,omitempty"`
	URL            string      `json:"url"`
	SecurityOrigin string      `json:"securityOrigin"`
	MimeType       string      `json:"mimeType"`
}

// FrameTree Page.getFrameTree 的树节点
type FrameTree struct {
	Frame       Frame        `json:"frame"`
	ChildFrames []*FrameTree `json:"childFrames,omitempty"`
}

// GetFrameTreeResult Page.getFrameTree 的结果
type GetFrameTreeResult struct {
	FrameTree *FrameTree `json:"frameTree"`
}

// FrameNavigatedParams Page.frameNavigated 事件参数
type FrameNavigatedParams struct {
	Frame Frame `json:"frame"`
}

// FrameDetachedParams Page.frameDetached 事件参数
type FrameDetachedParams struct {
	FrameID cdp.FrameID `json:"frameId"`
}

// ExecutionContextDescription 执行上下文描述
type ExecutionContextDescription struct {
	ID      runtime.ExecutionContextID `json:"id"`
	Origin  string                     `json:"origin"`
	Name    string                     `json:"name"`
	AuxData struct {
		FrameID   cdp.FrameID `json:"frameId"`
		IsDefault bool        `json:"isDefault"`
	} `json:"auxData"`
}

// ContextCreatedParams Runtime.executionContextCreated 事件参数
type ContextCreatedParams struct {
	Context ExecutionContextDescription `json:"context"`
}

// ContextDestroyedParams Runtime.executionContextDestroyed 事件参数
type ContextDestroyedParams struct {
	ExecutionContextID runtime.ExecutionContextID `json:"executionContextId"`
}

// EvaluateParams Runtime.evaluate 参数
type EvaluateParams struct {
	Expression    string                     `json:"expression"`
	ContextID     runtime.ExecutionContextID `json:"contextId,omitempty"`
	ReturnByValue bool                       `json:"returnByValue"`
	AwaitPromise  bool                       `json:"awaitPromise,omitempty"`
}

// RemoteObject 求值结果
type RemoteObject struct {
	Type        string          `json:"type"`
	Subtype     string          `json:"subtype,omitempty"`
	Value       json.RawMessage `json:"value,omitempty"`
	Description string          `json:"description,omitempty"`
}

// ExceptionDetails 求值异常
type ExceptionDetails struct {
	Text      string        `json:"text"`
	Exception *RemoteObject `json:"exception,omitempty"`
}

// EvaluateResult Runtime.evaluate 结果
type EvaluateResult struct {
	Result           RemoteObject      `json:"result"`
	ExceptionDetails *ExceptionDetails `json:"exceptionDetails,omitempty"`
}
