// Package devtoolstest 提供测试用的假浏览器调试服务
package devtoolstest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/zoeyai/zoeylocator/pkg/devtools"
)

// Handler 处理一条命令，返回结果或协议错误
type Handler func(params json.RawMessage) (any, *devtools.Error)

type request struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// Server 假的调试服务：/json 返回页面列表，/devtools/page/<id> 接受 websocket
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]Handler
	titles   map[string]string
	order    []string
	conns    []*websocket.Conn
	calls    []string
	writeMu  sync.Mutex
}

// New 启动服务，测试结束时自动关闭
func New(t interface {
	Helper()
	Cleanup(func())
}) *Server {
	t.Helper()
	s := &Server{
		handlers: make(map[string]Handler),
		titles:   make(map[string]string),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/json", s.serveList)
	mux.HandleFunc("/devtools/page/", s.serveWS)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(func() {
		s.DropConnections()
		s.Close()
	})
	return s
}

// AddPage 添加页面
func (s *Server) AddPage(id, title, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles[id] = title + "\x00" + url
	s.order = append(s.order, id)
}

// Handle 注册命令处理
func (s *Server) Handle(method string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

// Calls 收到的命令（按顺序）
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// CountCalls 统计某个命令的次数
func (s *Server) CountCalls(method string) int {
	n := 0
	for _, c := range s.Calls() {
		if c == method {
			n++
		}
	}
	return n
}

// Emit 向所有连接广播事件
func (s *Server) Emit(method string, params any) {
	data, _ := json.Marshal(map[string]any{"method": method, "params": params})
	s.mu.Lock()
	conns := append([]*websocket.Conn(nil), s.conns...)
	s.mu.Unlock()
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	for _, c := range conns {
		_ = c.WriteMessage(websocket.TextMessage, data)
	}
}

// DropConnections 断开所有 websocket 连接
func (s *Server) DropConnections() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}

// WebSocketURL 指定页面的调试地址
func (s *Server) WebSocketURL(id string) string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/devtools/page/" + id
}

func (s *Server) serveList(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	pages := make([]devtools.Page, 0, len(s.order)+1)
	for _, id := range s.order {
		title, url, _ := strings.Cut(s.titles[id], "\x00")
		pages = append(pages, devtools.Page{
			ID: id, Type: "page", Title: title, URL: url,
			WebSocketDebuggerURL: s.WebSocketURL(id),
		})
	}
	s.mu.Unlock()
	pages = append(pages, devtools.Page{ID: "sw", Type: "service_worker", URL: "chrome://sw"})
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(pages)
}

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conns = append(s.conns, conn)
	s.mu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req request
		if err := json.Unmarshal(data, &req); err != nil {
			continue
		}

		s.mu.Lock()
		s.calls = append(s.calls, req.Method)
		h := s.handlers[req.Method]
		s.mu.Unlock()

		resp := map[string]any{"id": req.ID}
		switch {
		case h == nil:
			resp["result"] = struct{}{}
		default:
			result, perr := h(req.Params)
			if perr != nil {
				resp["error"] = perr
			} else {
				resp["result"] = result
			}
		}
		out, err := json.Marshal(resp)
		if err != nil {
			panic(fmt.Sprintf("devtoolstest: %v", err))
		}
		s.writeMu.Lock()
		err = conn.WriteMessage(websocket.TextMessage, out)
		s.writeMu.Unlock()
		if err != nil {
			return
		}
	}
}
