package analyzer

import (
	"reflect"
	"testing"
)

func TestNormalizer_Portuguese(t *testing.T) {
	n, err := NewNormalizer("portuguese")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"Olá, mundo! Como vai você? Tudo bem: sim.", "olá , mundo ! vai ? tudo bem : sim ."},
		{"Este é um texto de teste. Ele contém algumas palavras comuns.", "texto teste . contém algumas palavras comuns ."},
		{"O documento é sobre a empresa.", "documento sobre empresa ."},
		{"", ""},
		{"de um para o", ""},
	}

	for _, tt := range tests {
		if got := n.Normalize(tt.input); got != tt.expected {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestNormalizer_English(t *testing.T) {
	n, err := NewNormalizer("English")
	if err != nil {
		t.Fatal(err)
	}
	if n.Language() != "english" {
		t.Errorf("expected language english, got %s", n.Language())
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"The cat sat on the mat", "cat sat mat"},
		{"Where did the cat sit?", "cat sit ?"},
		{"  Dogs   bark\tloudly\nat night ", "dogs bark loudly night"},
		{"the and of", ""},
	}

	for _, tt := range tests {
		if got := n.Normalize(tt.input); got != tt.expected {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestNormalizer_Deterministic(t *testing.T) {
	n, _ := NewNormalizer("english")
	text := "Retrieval-augmented generation, explained: a primer."
	first := n.Normalize(text)
	for i := 0; i < 5; i++ {
		if got := n.Normalize(text); got != first {
			t.Fatalf("normalization not deterministic: %q vs %q", got, first)
		}
	}
}

func TestNormalizer_NoneKeepsStopwords(t *testing.T) {
	n, err := NewNormalizer("none")
	if err != nil {
		t.Fatal(err)
	}
	if got := n.Normalize("The Cat"); got != "the cat" {
		t.Errorf("expected %q, got %q", "the cat", got)
	}
}

func TestNewNormalizer_UnknownLanguage(t *testing.T) {
	if _, err := NewNormalizer("klingon"); err == nil {
		t.Error("expected error for unknown language")
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"hello, world!", []string{"hello", ",", "world", "!"}},
		{"e-mail john.doe@example.com", []string{"e-mail", "john.doe", "@", "example.com"}},
		{"end.", []string{"end", "."}},
		{"-dash", []string{"-", "dash"}},
		{"it's 3.14", []string{"it's", "3.14"}},
		{"(a)", []string{"(", "a", ")"}},
		{"", nil},
	}

	for _, tt := range tests {
		got := Tokenize(tt.input)
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
