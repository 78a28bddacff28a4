package library

import (
	"strings"

	"github.com/curiobot/curio/internal/curio"
)

// Resolve maps one free-text suggestion onto the best-matching configured
// forum tag from the given library. Precedence, first match wins:
//
//  1. case-insensitive exact label match
//  2. substring containment in either direction between suggestion and label
//  3. substring containment against each label's synonym list
//
// Tags whose IDs appear in applied are skipped. The boolean result is false
// when nothing matches; unmatched suggestions are dropped by callers, never
// treated as an error.
func Resolve(suggestion string, lib curio.Library, configured []curio.ForumTag, applied map[string]bool) (curio.ForumTag, bool) {
	needle := strings.ToLower(strings.TrimSpace(suggestion))
	if needle == "" {
		return curio.ForumTag{}, false
	}

	candidates := libraryConfigured(lib, configured, applied)

	for _, tag := range candidates {
		if strings.ToLower(tag.Name) == needle {
			return tag, true
		}
	}

	for _, tag := range candidates {
		label := strings.ToLower(tag.Name)
		if strings.Contains(label, needle) || strings.Contains(needle, label) {
			return tag, true
		}
	}

	for _, tag := range candidates {
		for _, syn := range synonymsOf(lib, tag.Name) {
			syn = strings.ToLower(syn)
			if strings.Contains(syn, needle) || strings.Contains(needle, syn) {
				return tag, true
			}
		}
	}

	return curio.ForumTag{}, false
}

// ResolveAll resolves the primary suggestion first, then secondaries in
// order, deduplicating and stopping at the forum's tag-per-topic ceiling.
func ResolveAll(primary string, secondary []string, lib curio.Library, configured []curio.ForumTag) []curio.ForumTag {
	applied := make(map[string]bool)
	var out []curio.ForumTag

	add := func(suggestion string) {
		if len(out) >= curio.MaxTopicTags {
			return
		}
		tag, ok := Resolve(suggestion, lib, configured, applied)
		if !ok {
			return
		}
		applied[tag.ID] = true
		out = append(out, tag)
	}

	add(primary)
	for _, s := range secondary {
		if len(out) >= curio.MaxTopicTags {
			break
		}
		add(s)
	}
	return out
}

// Canonical snaps a free-text label onto the library's own vocabulary, using
// the same precedence as Resolve. It backs the invariant that a stored
// primary tag is always a member of its library's 20-tag set.
func Canonical(lib curio.Library, label string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(label))
	if needle == "" {
		return "", false
	}
	tags := vocabularies[lib]

	for _, t := range tags {
		if strings.ToLower(t.Name) == needle {
			return t.Name, true
		}
	}
	for _, t := range tags {
		name := strings.ToLower(t.Name)
		if strings.Contains(name, needle) || strings.Contains(needle, name) {
			return t.Name, true
		}
	}
	for _, t := range tags {
		for _, syn := range t.Synonyms {
			syn = strings.ToLower(syn)
			if strings.Contains(syn, needle) || strings.Contains(needle, syn) {
				return t.Name, true
			}
		}
	}
	return "", false
}

func libraryConfigured(lib curio.Library, configured []curio.ForumTag, applied map[string]bool) []curio.ForumTag {
	var out []curio.ForumTag
	for _, tag := range configured {
		if applied[tag.ID] {
			continue
		}
		if !Contains(lib, tag.Name) {
			continue
		}
		out = append(out, tag)
	}
	return out
}

func synonymsOf(lib curio.Library, name string) []string {
	for _, t := range vocabularies[lib] {
		if strings.EqualFold(t.Name, name) {
			return t.Synonyms
		}
	}
	return nil
}
