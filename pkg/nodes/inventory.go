package nodes

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// WriteCSV writes the inventory as "type,category" rows sorted by type.
func (r *Registry) WriteCSV(w io.Writer) error {
	inv := r.Inventory()
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"type", "category"}); err != nil {
		return err
	}
	for _, typ := range r.Types() {
		if err := cw.Write([]string{typ, inv[typ]}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteYAML writes the inventory as a category -> types mapping.
func (r *Registry) WriteYAML(w io.Writer) error {
	inv := r.Inventory()
	byCat := lo.GroupBy(r.Types(), func(typ string) string { return inv[typ] })
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(byCat); err != nil {
		return fmt.Errorf("inventory yaml: %w", err)
	}
	return enc.Close()
}

// catTree is one level of the category hierarchy.
type catTree struct {
	children map[string]*catTree
	types    []string
}

// WriteMermaid writes the inventory as a mermaid mindmap, one branch per
// category path segment.
func (r *Registry) WriteMermaid(w io.Writer) error {
	inv := r.Inventory()
	root := &catTree{children: map[string]*catTree{}}
	for _, typ := range r.Types() {
		t := root
		for _, seg := range strings.Split(inv[typ], "/") {
			next, ok := t.children[seg]
			if !ok {
				next = &catTree{children: map[string]*catTree{}}
				t.children[seg] = next
			}
			t = next
		}
		t.types = append(t.types, typ)
	}

	var b strings.Builder
	b.WriteString("mindmap\n  root((nodes))\n")
	root.write(&b, 2)
	_, err := io.WriteString(w, b.String())
	return err
}

func (t *catTree) write(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	keys := lo.Keys(t.children)
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "%s%s\n", indent, k)
		t.children[k].write(b, depth+1)
	}
	for _, typ := range t.types {
		fmt.Fprintf(b, "%s%s\n", indent, typ)
	}
}
