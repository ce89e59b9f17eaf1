// Package parser converts raw input strings into normalized Commands.
// Intentionally dumb: no NLP, just token matching against the merged
// vocabulary. The dispatch core never sees raw text.
package parser

import (
	"strings"

	"github.com/nathoo/fabula/engine/vocab"
	"github.com/nathoo/fabula/types"
)

var prepositions = map[string]bool{
	"on": true, "at": true, "to": true,
	"with": true, "in": true, "from": true,
	"about": true, "under": true,
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true,
}

// Parse converts a raw command line into a normalized Command. Verbs are
// canonicalized through the vocabulary's synonym table; object words are
// split into adjective modifiers and the noun using role-set membership.
// Unknown words pass through untouched — resolution failures belong to the
// handlers, not the parser.
func Parse(v *vocab.Registry, input string) types.Command {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return types.Command{}
	}
	words := strings.Fields(strings.ToLower(raw))

	verb := v.Canonical(words[0])
	rest := stripArticles(words[1:])

	objectWords, prep, indirectWords := splitOnPreposition(rest)
	adjectives, object := splitModifiers(v, objectWords)
	_, indirect := splitModifiers(v, indirectWords)

	return types.Command{
		Verb:           verb,
		Object:         object,
		IndirectObject: indirect,
		Adjectives:     adjectives,
		Preposition:    prep,
		Raw:            raw,
	}
}

// stripArticles removes "the", "a", "an".
func stripArticles(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if !articles[w] {
			out = append(out, w)
		}
	}
	return out
}

// splitOnPreposition splits on the first preposition: words before it are
// the object phrase, words after the indirect-object phrase.
func splitOnPreposition(words []string) (object []string, prep string, indirect []string) {
	for i, w := range words {
		if prepositions[w] {
			return words[:i], w, words[i+1:]
		}
	}
	return words, "", nil
}

// splitModifiers peels leading adjectives off an object phrase. A word is a
// modifier only if the vocabulary knows it as an adjective and it is not
// the last word of the phrase — "brass lamp" yields ["brass"], "lamp"; the
// bare word "brass" stays the noun even though it is also an adjective
// (role is a set membership test, not equality).
func splitModifiers(v *vocab.Registry, words []string) (adjectives []string, noun string) {
	if len(words) == 0 {
		return nil, ""
	}
	i := 0
	for i < len(words)-1 && v.HasRole(words[i], types.RoleAdjective) {
		adjectives = append(adjectives, v.Canonical(words[i]))
		i++
	}
	return adjectives, strings.Join(words[i:], " ")
}
