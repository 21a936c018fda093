package passage

import "testing"

func TestParseOperator(t *testing.T) {
	tests := []struct {
		raw  string
		want Operator
		ok   bool
	}{
		{"and", OperatorAnd, true},
		{"AND", OperatorAnd, true},
		{"And", OperatorAnd, true},
		{"or", OperatorOr, true},
		{"OR", OperatorOr, true},
		{"xor", "", false},
		{"", "", false},
		{" and", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseOperator(tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseOperator(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}
