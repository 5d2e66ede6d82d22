package config

import (
	"path"
	"strings"
)

// Normalize trims list settings and removes empty values. An explicit
// "default:" namespace is dropped from exclude patterns, since tables in the
// default namespace are named by their bare qualifier.
func (c *Config) Normalize() {
	if c == nil {
		return
	}
	c.ZookeeperHosts = normalizeList(c.ZookeeperHosts)
	c.Tables = normalizeList(c.Tables)

	patterns := make([]string, 0, len(c.ExcludeTables))
	for _, p := range c.ExcludeTables {
		if p = canonicalTableName(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	c.ExcludeTables = patterns
}

// IsTableExcluded reports whether table matches one of the --exclude-tables
// globs. A pattern with a namespace ("analytics:*") is matched against the
// full name; a pattern without one matches the qualifier in any namespace.
// Matching is case-sensitive like HBase table names.
func (c *Config) IsTableExcluded(table string) bool {
	if c == nil || len(c.ExcludeTables) == 0 {
		return false
	}

	name := canonicalTableName(table)
	if name == "" {
		return false
	}
	_, qualifier, _ := strings.Cut(name, ":")
	if qualifier == "" {
		qualifier = name
	}

	for _, pattern := range c.ExcludeTables {
		subject := qualifier
		if strings.Contains(pattern, ":") {
			subject = name
		}
		if globMatch(pattern, subject) {
			return true
		}
	}
	return false
}

func canonicalTableName(value string) string {
	return strings.TrimPrefix(strings.TrimSpace(value), "default:")
}

// globMatch treats a malformed pattern as a literal name
func globMatch(pattern, value string) bool {
	matched, err := path.Match(pattern, value)
	if err != nil {
		return pattern == value
	}
	return matched
}
