package turkish

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"turkish letters", "Başlangıç", "baslangic"},
		{"all lowercase letters", "şıçğüö", "sicguo"},
		{"all uppercase letters", "ŞİÇĞÜÖ", "sicguo"},
		{"mixed", "Yıldızlararası", "yildizlararasi"},
		{"plain english", "Inception", "inception"},
		{"already normalized", "inception", "inception"},
		{"empty", "", ""},
		{"smart quotes", "Bird Box: Barcelona’s", "bird box: barcelona's"},
		{"left smart quote", "‘quoted’", "'quoted'"},
		{"spaces preserved", "The Dark Knight", "the dark knight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"Başlangıç", "YÜZÜKLERİN EFENDİSİ", "Inception", "Kuzuların Sessizliği", ""}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestMatch(t *testing.T) {
	if !Match("Başlangıç", "Baslangic") {
		t.Error("Match(Başlangıç, Baslangic) = false, want true")
	}
	if !Match("Yıldızlararası", "yildizlararasi") {
		t.Error("Match(Yıldızlararası, yildizlararasi) = false, want true")
	}
	if Match("Başlangıç", "Yıldızlararası") {
		t.Error("Match of different titles = true, want false")
	}
}

func TestContains(t *testing.T) {
	if !Contains("Başlangıç", "baslang") {
		t.Error("Contains(Başlangıç, baslang) = false, want true")
	}
	if Contains("Başlangıç", "yildiz") {
		t.Error("Contains(Başlangıç, yildiz) = true, want false")
	}
}
