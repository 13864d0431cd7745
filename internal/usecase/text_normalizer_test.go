package usecase

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want string
	}{
		{name: "empty", text: "", want: ""},
		{name: "lowercases and collapses whitespace", text: "  Hello   World  ", want: "hello world"},
		{name: "removes stop words from long sentences", text: "the best shoes for the gym", want: "best shoes gym"},
		{name: "keeps stop words in short sentences", text: "The One", want: "the one"},
		{name: "three words keep stop words", text: "shoes for running", want: "shoes for running"},
		{name: "tabs and newlines", text: "red\tshoes\nand   a hat", want: "red shoes hat"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.text)
			if got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Find the Blue Shoes for running",
		"a b c d the",
		"the a an the",
		"  SHOW me   watches  ",
		"I need blue running shoes under $60",
		"x",
	}

	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", input, once, twice)
		}
	}
}

func TestLexicalVariants(t *testing.T) {
	testCases := []struct {
		phrase string
		want   []string
	}{
		{phrase: "shoes", want: []string{"shoes", "shoe", "sho"}},
		{phrase: "dress", want: []string{"dress", "dre"}},
		{phrase: "shirt", want: []string{"shirt", "shirts", "shirtes"}},
		{phrase: "shoe", want: []string{"shoe", "shoes"}},
		{phrase: "bus", want: []string{"bus", "buss", "buses"}},
		{phrase: "running shoe", want: []string{"running shoe", "running shoes"}},
	}

	for _, tc := range testCases {
		t.Run(tc.phrase, func(t *testing.T) {
			got := LexicalVariants(tc.phrase)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("LexicalVariants(%q) = %v, want %v", tc.phrase, got, tc.want)
			}
			if got[0] != tc.phrase {
				t.Errorf("first variant = %q, want the original phrase", got[0])
			}
		})
	}
}

func TestTokenizeVariants(t *testing.T) {
	got := tokenizeVariants([]string{"running shoe", "running shoes", "a to"})
	want := []string{"running", "shoe", "shoes"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokenizeVariants = %v, want %v", got, want)
	}
}
