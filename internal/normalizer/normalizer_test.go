package normalizer

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "drops short words and keeps occurrence order",
			text: "The quick brown fox jumps",
			want: []string{"quick", "brown", "jumps"},
		},
		{
			name: "lowercases",
			text: "HARBOR Harbor harbor",
			want: []string{"harbor", "harbor", "harbor"},
		},
		{
			name: "splits on punctuation and digits",
			text: "vessel,cargo;berth42quay",
			want: []string{"vessel", "cargo", "berth", "quay"},
		},
		{
			name: "removes stop words",
			text: "there would have been something between them",
			want: []string{"something"},
		},
		{
			name: "empty input",
			text: "",
			want: []string{},
		},
		{
			name: "whitespace only",
			text: "   \n\t  ",
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	text := "Cargo manifests describe cargo stowed across cargo holds"
	first := Normalize(text)
	second := Normalize(text)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Normalize not deterministic: %v vs %v", first, second)
	}
}

func TestOccurrences(t *testing.T) {
	text := "harbor lights guide ships; harbor masters watch ships"
	got := Occurrences(text)
	want := map[string]int{
		"harbor":  2,
		"lights":  1,
		"guide":   1,
		"ships":   2,
		"masters": 1,
		"watch":   1,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Occurrences() = %v, want %v", got, want)
	}
}
