package matching

import (
	"sort"
	"strings"
)

// Taxonomy is the curated skill vocabulary: synonym groups used by the skill
// matcher and skill categories used by pool insights. It is immutable once built.
type Taxonomy struct {
	// canonical skill -> related terms
	synonyms map[string][]string
	// term -> canonical skills it belongs to (a canonical skill maps to itself)
	groups map[string][]string
	// skill -> category
	categories map[string]string
}

const uncategorized = "other"

var defaultSynonyms = map[string][]string{
	"javascript":         {"js", "node.js", "nodejs", "react", "vue", "angular"},
	"python":             {"django", "flask", "fastapi", "pandas", "numpy"},
	"java":               {"spring", "hibernate", "maven", "gradle"},
	"database":           {"sql", "mysql", "postgresql", "mongodb", "nosql"},
	"web development":    {"html", "css", "frontend", "backend", "full stack"},
	"machine learning":   {"ml", "ai", "deep learning", "tensorflow", "pytorch"},
	"cloud":              {"aws", "azure", "gcp", "docker", "kubernetes"},
	"project management": {"agile", "scrum", "kanban", "jira"},
	"data analysis":      {"analytics", "statistics", "excel", "tableau", "powerbi"},
	"mobile":             {"android", "ios", "react native", "flutter"},
}

var defaultCategories = map[string][]string{
	"programming": {"python", "java", "javascript", "c++", "c#", "php", "ruby", "go", "rust", "swift", "kotlin", "scala", "r", "matlab"},
	"web":         {"html", "css", "react", "angular", "vue", "node.js", "express", "django", "flask", "spring", "laravel"},
	"database":    {"sql", "mysql", "postgresql", "mongodb", "redis", "elasticsearch", "oracle", "sqlite"},
	"cloud":       {"aws", "azure", "gcp", "docker", "kubernetes", "terraform", "jenkins", "git"},
	"data":        {"pandas", "numpy", "tensorflow", "pytorch", "scikit-learn", "tableau", "power bi", "spark"},
	"mobile":      {"android", "ios", "react native", "flutter", "xamarin"},
	"other":       {"agile", "scrum", "devops", "machine learning", "artificial intelligence", "blockchain"},
}

var defaultTaxonomy = NewTaxonomy(defaultSynonyms, defaultCategories)

// DefaultTaxonomy returns the process-wide curated taxonomy.
func DefaultTaxonomy() *Taxonomy {
	return defaultTaxonomy
}

// NewTaxonomy builds a taxonomy from synonym groups and skill categories.
// Input maps are copied; keys and terms are normalized.
func NewTaxonomy(synonyms, categories map[string][]string) *Taxonomy {
	t := &Taxonomy{
		synonyms:   make(map[string][]string, len(synonyms)),
		groups:     make(map[string][]string),
		categories: make(map[string]string),
	}

	// Sorted iteration keeps group membership lists deterministic.
	canonicals := make([]string, 0, len(synonyms))
	for canonical := range synonyms {
		canonicals = append(canonicals, canonical)
	}
	sort.Strings(canonicals)

	for _, raw := range canonicals {
		canonical := normalizeSkill(raw)
		terms := make([]string, 0, len(synonyms[raw]))
		for _, term := range synonyms[raw] {
			terms = append(terms, normalizeSkill(term))
		}
		t.synonyms[canonical] = terms
		t.addGroup(canonical, canonical)
		for _, term := range terms {
			t.addGroup(term, canonical)
		}
	}

	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, skill := range categories[name] {
			skill = normalizeSkill(skill)
			if _, ok := t.categories[skill]; !ok {
				t.categories[skill] = name
			}
		}
	}

	return t
}

func (t *Taxonomy) addGroup(term, canonical string) {
	for _, existing := range t.groups[term] {
		if existing == canonical {
			return
		}
	}
	t.groups[term] = append(t.groups[term], canonical)
}

// Related reports whether both skills resolve to the same canonical entry,
// either directly or through its synonym list.
func (t *Taxonomy) Related(a, b string) bool {
	if t == nil {
		return false
	}
	for _, ga := range t.groups[a] {
		for _, gb := range t.groups[b] {
			if ga == gb {
				return true
			}
		}
	}
	return false
}

// Category returns the category of a normalized skill, "other" when unknown.
func (t *Taxonomy) Category(skill string) string {
	if t == nil {
		return uncategorized
	}
	if category, ok := t.categories[normalizeSkill(skill)]; ok {
		return category
	}
	return uncategorized
}

// Canonicals lists the canonical skills in alphabetical order.
func (t *Taxonomy) Canonicals() []string {
	out := make([]string, 0, len(t.synonyms))
	for canonical := range t.synonyms {
		out = append(out, canonical)
	}
	sort.Strings(out)
	return out
}

func normalizeSkill(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
