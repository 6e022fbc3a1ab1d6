package input

import "github.com/go-vgo/robotgo"

// TypeText 输入文字
func (r *Robot) TypeText(text string) error {
	robotgo.TypeStr(text)
	return nil
}

// KeyTap 按键，modifiers 为组合键，例如 "ctrl"、"shift"
func (r *Robot) KeyTap(key string, modifiers ...string) error {
	if len(modifiers) > 0 {
		return robotgo.KeyTap(key, modifiers)
	}
	return robotgo.KeyTap(key)
}

// HotKey 组合键，最后一个为主键
func (r *Robot) HotKey(keys ...string) error {
	switch len(keys) {
	case 0:
		return nil
	case 1:
		return robotgo.KeyTap(keys[0])
	default:
		return robotgo.KeyTap(keys[len(keys)-1], keys[:len(keys)-1])
	}
}
