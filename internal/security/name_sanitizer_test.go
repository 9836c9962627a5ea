package security

import (
	"strings"
	"testing"
)

func TestNameSanitizer_Sanitize(t *testing.T) {
	s := NewNameSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "通常の名前はそのまま",
			input: "alice",
			want:  "alice",
		},
		{
			name:  "前後の空白を除去",
			input: "  alice  ",
			want:  "alice",
		},
		{
			name:  "scriptタグを除去",
			input: `<script>alert("xss")</script>alice`,
			want:  "alice",
		},
		{
			name:  "HTMLタグを除去してテキストのみ残す",
			input: "<b>alice</b>",
			want:  "alice",
		},
		{
			name:  "imgのonerror属性ごと除去",
			input: `<img src=x onerror=alert(1)>bob`,
			want:  "bob",
		},
		{
			name:  "空文字列",
			input: "",
			want:  "",
		},
		{
			name:  "マルチバイト文字は保持",
			input: "太郎",
			want:  "太郎",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sanitize(tt.input)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNameSanitizer_TruncatesLongNames(t *testing.T) {
	s := NewNameSanitizer()

	input := strings.Repeat("a", 150)
	got := s.Sanitize(input)

	if len([]rune(got)) != 100 {
		t.Errorf("サニタイズ後の文字数 = %d, want 100", len([]rune(got)))
	}
}

func TestNameSanitizer_TruncatesByRunes(t *testing.T) {
	// バイト数ではなく文字数で切り詰めること
	s := NewNameSanitizer()

	input := strings.Repeat("あ", 150)
	got := s.Sanitize(input)

	runes := []rune(got)
	if len(runes) != 100 {
		t.Errorf("サニタイズ後の文字数 = %d, want 100", len(runes))
	}
	for _, r := range runes {
		if r != 'あ' {
			t.Fatal("切り詰めで文字が壊れている")
		}
	}
}
