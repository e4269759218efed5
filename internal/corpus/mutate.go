package corpus

// mutation derives one invalid sibling from a valid fixture
type mutation func(g *Generator, base Fixture) Fixture

// mutations are applied in order; mutant k is named "<base>_mut<k+1>"
var mutations = []mutation{
	deleteKey("id"),
	deleteKey("kind"),
	deleteOtherKey,
	mistypeKey(""),
	mistypeKey("kind"),
	deleteEntry,
	insertOpenBracket,
}

func (g *Generator) entryIndex(d Document) int {
	return g.rng.IntN(len(d.Citations))
}

func deleteKey(key string) mutation {
	return func(g *Generator, base Fixture) Fixture {
		doc := base.Document.Clone()
		delete(doc.Citations[g.entryIndex(doc)], key)
		return Fixture{Article: base.Article, Document: doc}
	}
}

// deleteOtherKey removes a kind-specific field from a random entry
func deleteOtherKey(g *Generator, base Fixture) Fixture {
	doc := base.Document.Clone()
	e := doc.Citations[g.entryIndex(doc)]

	var keys []string
	for _, k := range e.SortedKeys() {
		if k != "id" && k != "kind" {
			keys = append(keys, k)
		}
	}
	delete(e, keys[g.rng.IntN(len(keys))])
	return Fixture{Article: base.Article, Document: doc}
}

// mistypeKey replaces a value with one of the wrong JSON type. An empty key
// picks any field of the chosen entry.
func mistypeKey(key string) mutation {
	return func(g *Generator, base Fixture) Fixture {
		doc := base.Document.Clone()
		e := doc.Citations[g.entryIndex(doc)]

		k := key
		if k == "" {
			keys := e.SortedKeys()
			k = keys[g.rng.IntN(len(keys))]
		}
		switch e[k].(type) {
		case string:
			if g.coin() {
				e[k] = 1
			} else {
				e[k] = []int{1, 2, 3}
			}
		case int:
			if g.coin() {
				e[k] = "You're fooled"
			} else {
				e[k] = map[string]string{"You": "Great"}
			}
		}
		return Fixture{Article: base.Article, Document: doc}
	}
}

// deleteEntry drops a whole entry, leaving its bracket reference dangling
func deleteEntry(g *Generator, base Fixture) Fixture {
	doc := base.Document.Clone()
	i := g.entryIndex(doc)
	doc.Citations = append(doc.Citations[:i], doc.Citations[i+1:]...)
	return Fixture{Article: base.Article, Document: doc}
}

// insertOpenBracket adds one unmatched '[' anywhere in the article
func insertOpenBracket(g *Generator, base Fixture) Fixture {
	pos := g.rng.IntN(len(base.Article) + 1)
	return Fixture{
		Article:  base.Article[:pos] + "[" + base.Article[pos:],
		Document: base.Document.Clone(),
	}
}
