// Package markov is a word-level Markov chain text generator.
package markov

import (
	"math/rand"
	"strings"
)

// maxWords caps a single generated chunk so a cyclic chain still ends.
const maxWords = 200

// Sentinels never produced by strings.Fields.
const (
	startToken = "\x00start"
	endToken   = "\x00end"
)

// Chain maps a state of order words to the words seen after it.
// Successors are kept as a multiset so frequent transitions stay likely.
type Chain struct {
	order int
	next  map[string][]string
	texts int
}

// NewChain returns an empty chain. Orders below 1 are treated as 1.
func NewChain(order int) *Chain {
	if order < 1 {
		order = 1
	}
	return &Chain{
		order: order,
		next:  make(map[string][]string),
	}
}

// Order returns the number of words per state.
func (c *Chain) Order() int {
	return c.order
}

// Len returns how many non-empty texts were fed.
func (c *Chain) Len() int {
	return c.texts
}

// Feed adds one text. Whitespace-only texts are ignored.
func (c *Chain) Feed(text string) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return
	}
	c.texts++

	tokens := make([]string, 0, len(words)+c.order+1)
	for i := 0; i < c.order; i++ {
		tokens = append(tokens, startToken)
	}
	tokens = append(tokens, words...)
	tokens = append(tokens, endToken)

	for i := c.order; i < len(tokens); i++ {
		key := stateKey(tokens[i-c.order : i])
		c.next[key] = append(c.next[key], tokens[i])
	}
}

// Generate walks the chain from the start state until it reaches the end
// of a fed text or maxWords. It returns "" for an empty chain.
func (c *Chain) Generate(rng *rand.Rand) string {
	if c.texts == 0 {
		return ""
	}

	state := make([]string, c.order)
	for i := range state {
		state[i] = startToken
	}

	var out []string
	for len(out) < maxWords {
		choices := c.next[stateKey(state)]
		if len(choices) == 0 {
			break
		}
		word := choices[rng.Intn(len(choices))]
		if word == endToken {
			break
		}
		out = append(out, word)
		state = append(state[1:], word)
	}
	return strings.Join(out, " ")
}

// Compose generates multiplier chunks, each followed by a single space.
func Compose(c *Chain, rng *rand.Rand, multiplier int) string {
	var b strings.Builder
	for i := 0; i < multiplier; i++ {
		b.WriteString(c.Generate(rng))
		b.WriteByte(' ')
	}
	return b.String()
}

func stateKey(words []string) string {
	return strings.Join(words, "\x1f")
}
