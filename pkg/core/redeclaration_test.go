package core

import (
	"testing"
)

func TestRedeclarationRule(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []int
	}{
		{name: "var twice", src: "var a = 1;\nvar a = 2;\nuse(a);", want: []int{2}},
		{name: "let twice", src: "let a = 1;\nlet a = 2;", want: []int{2}},
		{name: "different scopes", src: "let a = 1;\n{\n  let a = 2;\n}", want: []int{}},
		{name: "three declarations", src: "var a;\nvar a;\nvar a;", want: []int{2, 3}},
		{name: "single declaration", src: "const a = 1;", want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lines(runRule(t, NewRedeclarationRule(), tt.src))
			if !equalLines(got, tt.want) {
				t.Errorf("findings at lines %v, want %v", got, tt.want)
			}
		})
	}
}
