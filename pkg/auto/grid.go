package auto

import (
	"fmt"
	"strconv"
	"strings"
)

// Region 屏幕矩形区域
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GridPosition 把控件区域划分为 Rows x Cols 的网格后选中的格子
type GridPosition struct {
	Rows int `json:"rows" yaml:"rows"` // 总行数
	Cols int `json:"cols" yaml:"cols"` // 总列数
	Row  int `json:"row" yaml:"row"`   // 目标行 (1-based)
	Col  int `json:"col" yaml:"col"`   // 目标列 (1-based)
}

// ParseGridPosition 解析网格位置字符串
// 格式: rows.cols.row.col (如 "2.2.1.1" 表示 2x2 网格的第1行第1列)
func ParseGridPosition(s string) (*GridPosition, error) {
	if s == "" {
		return nil, fmt.Errorf("网格位置字符串为空")
	}

	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return nil, fmt.Errorf("无效的网格位置格式: %s (期望格式: rows.cols.row.col)", s)
	}

	var v [4]int
	names := [4]string{"行数", "列数", "目标行", "目标列"}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("无效的%s: %s", names[i], part)
		}
		v[i] = n
	}

	g := &GridPosition{Rows: v[0], Cols: v[1], Row: v[2], Col: v[3]}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate 校验行列范围
func (g *GridPosition) Validate() error {
	if g.Rows < 1 || g.Cols < 1 {
		return fmt.Errorf("行数和列数必须大于 0: rows=%d, cols=%d", g.Rows, g.Cols)
	}
	if g.Row < 1 || g.Col < 1 {
		return fmt.Errorf("目标行和目标列必须大于 0: row=%d, col=%d", g.Row, g.Col)
	}
	if g.Row > g.Rows || g.Col > g.Cols {
		return fmt.Errorf("目标位置超出范围: row=%d > rows=%d 或 col=%d > cols=%d", g.Row, g.Rows, g.Col, g.Cols)
	}
	return nil
}

func (g *GridPosition) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", g.Rows, g.Cols, g.Row, g.Col)
}

// Cell 返回 r 中该格子的矩形
func (g *GridPosition) Cell(r Region) Region {
	cellWidth := float64(r.Width) / float64(g.Cols)
	cellHeight := float64(r.Height) / float64(g.Rows)

	return Region{
		X:      int(float64(r.X) + float64(g.Col-1)*cellWidth),
		Y:      int(float64(r.Y) + float64(g.Row-1)*cellHeight),
		Width:  int(cellWidth),
		Height: int(cellHeight),
	}
}

// Center 返回 r 中该格子的中心点
func (g *GridPosition) Center(r Region) Point {
	cellWidth := float64(r.Width) / float64(g.Cols)
	cellHeight := float64(r.Height) / float64(g.Rows)

	// row 和 col 是 1-based
	return Point{
		X: int(float64(r.X) + (float64(g.Col)-0.5)*cellWidth),
		Y: int(float64(r.Y) + (float64(g.Row)-0.5)*cellHeight),
	}
}
