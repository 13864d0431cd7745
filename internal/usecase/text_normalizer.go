package usecase

import (
	"regexp"
	"strings"
)

// Compiled regex patterns for text normalization
var (
	// Multiple spaces cleanup
	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// stopWords are dropped from sentences longer than shortSentenceWords
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true,
}

// Sentences of this many words or fewer keep their stop words
const shortSentenceWords = 3

// Normalize lowercases the text, trims it, collapses whitespace runs and removes stop words.
// Short sentences keep their stop words so a query like "the one" is not reduced to nothing.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	cleaned := strings.ToLower(strings.TrimSpace(text))
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")

	words := strings.Fields(cleaned)
	if len(words) <= shortSentenceWords {
		return strings.Join(words, " ")
	}

	kept := make([]string, 0, len(words))
	for _, word := range words {
		if !stopWords[word] {
			kept = append(kept, word)
		}
	}

	return strings.Join(kept, " ")
}

// LexicalVariants returns the phrase together with naive singular/plural forms of it.
// The original phrase is always first; duplicates are removed.
func LexicalVariants(phrase string) []string {
	variants := []string{phrase}

	if strings.HasSuffix(phrase, "s") && len(phrase) > 3 {
		variants = append(variants, strings.TrimRight(phrase, "s"))
		if strings.HasSuffix(phrase, "es") && len(phrase) > 4 {
			variants = append(variants, phrase[:len(phrase)-2])
		}
	} else {
		variants = append(variants, phrase+"s")
		if !strings.HasSuffix(phrase, "e") {
			variants = append(variants, phrase+"es")
		}
	}

	return dedupe(variants)
}

// tokenizeVariants splits every variant into words, keeping only words longer than 2 characters
func tokenizeVariants(variants []string) []string {
	var words []string
	for _, variant := range variants {
		for _, word := range strings.Fields(variant) {
			if len(word) > 2 {
				words = append(words, word)
			}
		}
	}
	return dedupe(words)
}

// dedupe removes repeated strings, preserving first occurrence order
func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		result = append(result, item)
	}
	return result
}
