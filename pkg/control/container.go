package control

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Locator 容器中一个控件的定义
type Locator struct {
	// Root 父控件，"@name" 引用容器中的其他控件，空表示容器的根
	Root string `yaml:"root,omitempty"`
	Path string `yaml:"path"`
}

// UnmarshalYAML 支持直接写路径字符串的简写形式
func (l *Locator) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		l.Root = ""
		return value.Decode(&l.Path)
	}
	type plain Locator
	return value.Decode((*plain)(l))
}

// Container 按名字管理一组控件定义，控件在首次 Get 时创建并缓存
type Container struct {
	root *Control
	opts []Option

	mu    sync.Mutex
	defs  map[string]Locator
	cache map[string]*Control
}

// NewContainer 创建容器，root 为 nil 时从桌面开始查找
func NewContainer(root *Control, opts ...Option) *Container {
	return &Container{
		root:  root,
		opts:  opts,
		defs:  make(map[string]Locator),
		cache: make(map[string]*Control),
	}
}

// Update 添加或替换控件定义，已缓存的控件全部作废
func (c *Container) Update(name string, def Locator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defs[name] = def
	c.cache = make(map[string]*Control)
}

// UpdateAll 批量添加定义
func (c *Container) UpdateAll(defs map[string]Locator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, def := range defs {
		c.defs[name] = def
	}
	c.cache = make(map[string]*Control)
}

// Has 是否定义了该控件
func (c *Container) Has(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.defs[name]
	return ok
}

// Names 返回所有控件名（已排序）
func (c *Container) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.defs))
	for name := range c.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear 清空所有定义
func (c *Container) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defs = make(map[string]Locator)
	c.cache = make(map[string]*Control)
}

// Get 返回控件，路径语法错误时返回 *qpath.ParseError
func (c *Container) Get(name string) (*Control, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(name, nil)
}

// MustGet 同 Get，出错时 panic
func (c *Container) MustGet(name string) *Control {
	ctl, err := c.Get(name)
	if err != nil {
		panic(err)
	}
	return ctl
}

// Exists 单次检查控件是否存在
func (c *Container) Exists(name string) bool {
	ctl, err := c.Get(name)
	if err != nil {
		return false
	}
	return ctl.Exists()
}

func (c *Container) get(name string, chain []string) (*Control, error) {
	if ctl, ok := c.cache[name]; ok {
		return ctl, nil
	}
	for _, n := range chain {
		if n == name {
			return nil, fmt.Errorf("控件定义循环引用: %s -> %s", strings.Join(chain, " -> "), name)
		}
	}
	def, ok := c.defs[name]
	if !ok {
		return nil, fmt.Errorf("容器中没有控件 %q", name)
	}

	root := c.root
	if ref, ok := strings.CutPrefix(def.Root, "@"); ok {
		r, err := c.get(ref, append(chain, name))
		if err != nil {
			return nil, err
		}
		root = r
	} else if def.Root != "" {
		return nil, fmt.Errorf("控件 %s 的 root 必须以 @ 开头: %q", name, def.Root)
	}

	ctl, err := Find(root, def.Path, c.opts...)
	if err != nil {
		return nil, fmt.Errorf("控件 %s: %w", name, err)
	}
	c.cache[name] = ctl
	return ctl, nil
}

// containerFile 控件定义文件格式
type containerFile struct {
	Controls map[string]Locator `yaml:"controls"`
}

// ReadContainer 从 YAML 读取控件定义
func ReadContainer(r io.Reader, root *Control, opts ...Option) (*Container, error) {
	var f containerFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("解析控件定义失败: %w", err)
	}
	c := NewContainer(root, opts...)
	c.UpdateAll(f.Controls)

	for _, name := range c.Names() {
		if _, err := c.Get(name); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// LoadContainer 从 YAML 文件读取控件定义
func LoadContainer(path string, root *Control, opts ...Option) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开控件定义文件失败: %w", err)
	}
	defer f.Close()
	return ReadContainer(f, root, opts...)
}
