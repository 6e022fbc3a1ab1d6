// Package devtools 实现浏览器远程调试协议（DevTools Protocol）的最小客户端
package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zoeyai/zoeylocator/internal/logger"
)

var (
	// ErrClosed 会话已关闭
	ErrClosed = errors.New("调试会话已关闭")
	// ErrContextNotFound 帧的执行上下文尚未创建或已销毁
	ErrContextNotFound = errors.New("找不到执行上下文")
)

// CodeServerError 协议通用错误码，上下文被销毁时也返回该错误码
const CodeServerError = -32000

// Error 协议返回的错误
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("devtools 错误 %d: %s (%s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("devtools 错误 %d: %s", e.Code, e.Message)
}

// message 收发的协议消息（请求、响应和事件共用）
type message struct {
	ID     int64           `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// EventHandler 事件回调，在接收循环中执行，不应阻塞
type EventHandler func(params json.RawMessage)

// Session 一个页面的调试连接
type Session struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	nextID  atomic.Int64

	mu       sync.Mutex
	pending  map[int64]chan *message
	handlers map[string][]EventHandler
	closed   bool
	err      error

	stopCh chan struct{}
	wg     sync.WaitGroup
	log    *logger.Logger
}

// Option 会话配置选项
type Option func(*dialOptions)

type dialOptions struct {
	handshakeTimeout time.Duration
	log              *logger.Logger
}

// WithHandshakeTimeout 设置握手超时
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *dialOptions) {
		o.handshakeTimeout = d
	}
}

// WithLogger 设置日志
func WithLogger(l *logger.Logger) Option {
	return func(o *dialOptions) {
		o.log = l
	}
}

// Dial 连接页面的 webSocketDebuggerUrl
func Dial(ctx context.Context, wsURL string, opts ...Option) (*Session, error) {
	o := dialOptions{handshakeTimeout: 10 * time.Second, log: logger.Named("devtools")}
	for _, opt := range opts {
		opt(&o)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: o.handshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("连接 %s 失败: %w", wsURL, err)
	}

	s := &Session{
		conn:     conn,
		pending:  make(map[int64]chan *message),
		handlers: make(map[string][]EventHandler),
		stopCh:   make(chan struct{}),
		log:      o.log,
	}
	s.log.Debug("已连接 %s", wsURL)

	s.wg.Add(1)
	go s.receiveLoop()
	return s, nil
}

// On 注册事件回调，同一事件可注册多个
func (s *Session) On(method string, h EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = append(s.handlers[method], h)
}

// Call 发送命令并等待响应，result 为 nil 时丢弃结果
func (s *Session) Call(ctx context.Context, method string, params, result any) error {
	req := &message{ID: s.nextID.Add(1), Method: method}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("序列化 %s 参数失败: %w", method, err)
		}
		req.Params = data
	}

	ch := make(chan *message, 1)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.pending[req.ID] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, req.ID)
		s.mu.Unlock()
	}()

	if err := s.write(req); err != nil {
		return fmt.Errorf("发送 %s 失败: %w", method, err)
	}

	select {
	case resp := <-ch:
		if resp == nil {
			return ErrClosed
		}
		if resp.Error != nil {
			return resp.Error
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("解析 %s 结果失败: %w", method, err)
			}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopCh:
		return ErrClosed
	}
}

func (s *Session) write(m *message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// receiveLoop 接收循环：响应按 id 交给等待方，事件分发给回调
func (s *Session) receiveLoop() {
	defer s.wg.Done()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.stopCh:
			default:
				s.log.Warn("读取失败，会话结束: %v", err)
			}
			s.shutdown(err)
			return
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Warn("无法解析消息: %v", err)
			continue
		}

		if msg.ID != 0 {
			s.deliver(&msg)
			continue
		}

		s.mu.Lock()
		handlers := append([]EventHandler(nil), s.handlers[msg.Method]...)
		s.mu.Unlock()
		for _, h := range handlers {
			h(msg.Params)
		}
	}
}

// deliver 把响应交给等待方，持锁发送避免与 shutdown 关闭通道竞争
func (s *Session) deliver(msg *message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.pending[msg.ID]; ok {
		delete(s.pending, msg.ID)
		ch <- msg
	}
}

// shutdown 标记关闭并唤醒全部等待方
func (s *Session) shutdown(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.err = cause
	close(s.stopCh)
	for id, ch := range s.pending {
		close(ch)
		delete(s.pending, id)
	}
}

// Done 会话结束时关闭
func (s *Session) Done() <-chan struct{} {
	return s.stopCh
}

// Err 会话结束的原因，未结束时为 nil
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Closed 会话是否已结束
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close 关闭连接并等待接收循环退出
func (s *Session) Close() error {
	s.shutdown(ErrClosed)
	s.writeMu.Lock()
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()
	err := s.conn.Close()
	s.wg.Wait()
	return err
}
