package model

import "strings"

// Entity is a known real-world counterparty a transaction can be attributed
// to. Aliases is a comma-separated list of alternate names. The pipeline
// treats the directory of entities as read-only during matching.
type Entity struct {
	ID              string
	Name            string
	Aliases         string
	URL             string
	DefaultCategory string
}

// AliasList splits the comma-separated aliases, dropping empty segments.
func (e *Entity) AliasList() []string {
	if e.Aliases == "" {
		return nil
	}
	parts := strings.Split(e.Aliases, ",")
	aliases := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			aliases = append(aliases, trimmed)
		}
	}
	return aliases
}

// Names returns the canonical name followed by all aliases.
func (e *Entity) Names() []string {
	return append([]string{e.Name}, e.AliasList()...)
}
