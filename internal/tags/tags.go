// Package tags validates tag contributions against the allowed vocabulary.
package tags

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultVocabulary is the tag set the site accepts.
var DefaultVocabulary = []string{"万能", "最适合学生", "做PPT很强", "画图一流", "难用", "贵但好用", "免费", "中文友好", "长文本", "多模态"}

var (
	ErrEmptyTag        = errors.New("tag is empty")
	ErrTagNotAllowed   = errors.New("tag is not in the allowed vocabulary")
	ErrTagExists       = errors.New("tag already exists on this item")
	ErrTagAlreadyAdded = errors.New("you already added this tag")
)

// Vocabulary is the fixed list of allowed tag names.
type Vocabulary struct {
	names []string
	set   map[string]struct{}
}

func NewVocabulary(names []string) *Vocabulary {
	if len(names) == 0 {
		names = DefaultVocabulary
	}
	v := &Vocabulary{set: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := v.set[n]; dup {
			continue
		}
		v.set[n] = struct{}{}
		v.names = append(v.names, n)
	}
	return v
}

func (v *Vocabulary) Names() []string {
	return append([]string(nil), v.names...)
}

func (v *Vocabulary) Contains(name string) bool {
	_, ok := v.set[name]
	return ok
}

// Validate returns the trimmed tag name or the reason it is rejected.
// itemTags are the tags already on the item, userTags the ones the user has
// contributed to it before. Matching is exact and case-sensitive.
func (v *Vocabulary) Validate(name string, itemTags, userTags []string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyTag
	}
	if !v.Contains(name) {
		return "", fmt.Errorf("%w: must be one of %s", ErrTagNotAllowed, strings.Join(v.names, ", "))
	}
	if contains(userTags, name) {
		return "", ErrTagAlreadyAdded
	}
	if contains(itemTags, name) {
		return "", ErrTagExists
	}
	return name, nil
}

// Suggest returns the vocabulary entries the item does not carry yet.
func (v *Vocabulary) Suggest(itemTags []string) []string {
	var out []string
	for _, n := range v.names {
		if !contains(itemTags, n) {
			out = append(out, n)
		}
	}
	return out
}

// Filter keeps only names from the vocabulary, deduplicated, in input order.
func (v *Vocabulary) Filter(names []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if !v.Contains(n) {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
