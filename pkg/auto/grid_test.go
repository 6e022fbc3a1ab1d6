package auto

import (
	"testing"
)

func TestParseGridPosition(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *GridPosition
		wantErr bool
	}{
		{name: "2x2 左上", input: "2.2.1.1", want: &GridPosition{Rows: 2, Cols: 2, Row: 1, Col: 1}},
		{name: "3x3 中心", input: "3.3.2.2", want: &GridPosition{Rows: 3, Cols: 3, Row: 2, Col: 2}},
		{name: "4x2", input: "4.2.3.1", want: &GridPosition{Rows: 4, Cols: 2, Row: 3, Col: 1}},
		{name: "空字符串", input: "", wantErr: true},
		{name: "段数不足", input: "2.2.1", wantErr: true},
		{name: "段数过多", input: "2.2.1.1.1", wantErr: true},
		{name: "非数字", input: "a.2.1.1", wantErr: true},
		{name: "行数为 0", input: "0.2.1.1", wantErr: true},
		{name: "目标行为 0", input: "2.2.0.1", wantErr: true},
		{name: "超出范围", input: "2.2.3.1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGridPosition(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseGridPosition(%q) 应返回错误", tt.input)
				} else {
					t.Logf("预期错误: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseGridPosition(%q) 出错: %v", tt.input, err)
			}
			if *got != *tt.want {
				t.Errorf("ParseGridPosition(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
			if got.String() != tt.input {
				t.Errorf("String() = %q, want %q", got.String(), tt.input)
			}
		})
	}
}

func TestGridCenterAndCell(t *testing.T) {
	r := Region{X: 100, Y: 200, Width: 300, Height: 90}

	tests := []struct {
		grid   string
		center Point
		cell   Region
	}{
		{"3.3.1.1", Point{X: 150, Y: 215}, Region{X: 100, Y: 200, Width: 100, Height: 30}},
		{"3.3.2.2", Point{X: 250, Y: 245}, Region{X: 200, Y: 230, Width: 100, Height: 30}},
		{"3.3.3.3", Point{X: 350, Y: 275}, Region{X: 300, Y: 260, Width: 100, Height: 30}},
		{"1.2.1.2", Point{X: 325, Y: 245}, Region{X: 250, Y: 200, Width: 150, Height: 90}},
	}

	for _, tt := range tests {
		t.Run(tt.grid, func(t *testing.T) {
			g, err := ParseGridPosition(tt.grid)
			if err != nil {
				t.Fatal(err)
			}
			if got := g.Center(r); got != tt.center {
				t.Errorf("Center = %+v, want %+v", got, tt.center)
			}
			if got := g.Cell(r); got != tt.cell {
				t.Errorf("Cell = %+v, want %+v", got, tt.cell)
			}
		})
	}
}

func TestOptions(t *testing.T) {
	o := ApplyOptions()
	if o.Interval != DefaultPollInterval {
		t.Errorf("默认轮询间隔 = %v, want %v", o.Interval, DefaultPollInterval)
	}
	if o.ClickOffset != nil || o.Grid != nil || o.DoubleClick || o.RightClick {
		t.Errorf("默认选项不应设置点击参数: %+v", o)
	}

	g := &GridPosition{Rows: 2, Cols: 2, Row: 2, Col: 1}
	o = ApplyOptions(WithClickOffset(-5, 3), WithDoubleClick(), WithRightClick(), WithGrid(g))
	if o.ClickOffset == nil || *o.ClickOffset != (Point{X: -5, Y: 3}) {
		t.Errorf("ClickOffset = %+v", o.ClickOffset)
	}
	if !o.DoubleClick || !o.RightClick || o.Grid != g {
		t.Errorf("选项未生效: %+v", o)
	}
}

func TestScaleInt(t *testing.T) {
	tests := []struct {
		value  int
		factor float64
		want   int
	}{
		{100, 1.5, 150},
		{100, 0, 100},
		{3, 0.5, 2},
	}
	for _, tt := range tests {
		if got := ScaleInt(tt.value, tt.factor); got != tt.want {
			t.Errorf("ScaleInt(%d, %v) = %d, want %d", tt.value, tt.factor, got, tt.want)
		}
	}
}
