// Package corpus produces the fixtures and argument vectors a docman build
// is judged against.
package corpus

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Offset is the index of the first generated fixture, leaving lower names to
// the builtin set
const Offset = 10

// idTemplate bounds random id length and prefixes padding ids
const idTemplate = "unique_since_too_long"

const (
	fillerMin = 50
	fillerMax = 100
)

// fillerAlphabet is letters, digits, punctuation, space, newline and tab,
// without brackets
var fillerAlphabet = strings.NewReplacer("[", "", "]", "").Replace(
	"abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ" +
		"0123456789" +
		"!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~" +
		" \n\t")

const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Seed fully determines a generated corpus
type Seed struct {
	Hi, Lo uint64
}

// SeedOf expands a single number into a Seed
func SeedOf(n uint64) Seed {
	return Seed{Hi: n, Lo: n ^ 0x9e3779b97f4a7c15}
}

func (s Seed) String() string {
	return fmt.Sprintf("%016x%016x", s.Hi, s.Lo)
}

// Generator draws fixtures from its own random stream. The same seed always
// yields the same fixtures.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator for seed
func NewGenerator(seed Seed) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed.Hi, seed.Lo))}
}

// Generate returns n base fixtures, each followed by its seven mutants.
// Names run from Offset: "10", "10_mut1" ... "10_mut7", "11", ...
func (g *Generator) Generate(n int) []Fixture {
	out := make([]Fixture, 0, n*(1+len(mutations)))
	for i := 0; i < n; i++ {
		base := g.Base(fmt.Sprint(Offset + i))
		out = append(out, base)
		for k, mutate := range mutations {
			m := mutate(g, base)
			m.Name = fmt.Sprintf("%s_mut%d", base.Name, k+1)
			out = append(out, m)
		}
	}
	return out
}

// Base draws one valid fixture
func (g *Generator) Base(name string) Fixture {
	books := g.pick(ISBNs)
	sites := g.pick(Websites)
	ids := g.uniqueIDs(len(books) + len(sites))

	var entries []Entry
	for i, isbn := range books {
		entries = append(entries, Entry{"id": ids[i], "kind": "book", "isbn": isbn})
	}
	for i, u := range sites {
		entries = append(entries, Entry{"id": ids[len(books)+i], "kind": "webpage", "url": u})
	}
	entries = append(entries, Articles()...)
	g.rng.Shuffle(len(entries), func(i, j int) {
		entries[i], entries[j] = entries[j], entries[i]
	})

	var b strings.Builder
	for _, e := range entries {
		b.WriteString(g.filler())
		b.WriteString("[" + e["id"].(string) + "]")
	}
	b.WriteString(g.filler())

	return Fixture{
		Name:     name,
		Article:  b.String(),
		Document: Document{Version: 1, Citations: entries},
	}
}

// pick returns a random-size prefix of a shuffled copy of pool
func (g *Generator) pick(pool []string) []string {
	n := g.between(0, len(pool))
	shuffled := append([]string(nil), pool...)
	g.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}

// uniqueIDs over-samples random ids, keeps first occurrences and pads with
// ids longer than any random one
func (g *Generator) uniqueIDs(n int) []string {
	seen := make(map[string]bool)
	var ids []string
	for i := 0; i < n+10; i++ {
		id := g.randomString(g.between(1, len(idTemplate)), idAlphabet)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for i := 0; len(ids) < n; i++ {
		ids = append(ids, fmt.Sprintf("%s%d", idTemplate, i))
	}
	return ids[:n]
}

func (g *Generator) filler() string {
	return g.randomString(g.between(fillerMin, fillerMax), fillerAlphabet)
}

func (g *Generator) randomString(n int, alphabet string) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[g.rng.IntN(len(alphabet))]
	}
	return string(b)
}

// between returns a uniform integer in [lo, hi]
func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}

func (g *Generator) coin() bool {
	return g.rng.IntN(2) == 0
}
