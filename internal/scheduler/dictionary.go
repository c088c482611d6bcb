package scheduler

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dictionary is the bootstrap seed-topic document: a flat topic list plus
// optional category keyword hints.
type Dictionary struct {
	Topics     []string            `yaml:"topics"`
	Categories map[string][]string `yaml:"categories"`
}

var builtinDictionary = Dictionary{
	Topics: []string{"quantum computing", "python programming", "general relativity"},
}

var defaultCategoryKeywords = map[string][]string{
	"programming": {"programming", "code", "software", "api", "database", "algorithm"},
	"science":     {"ai", "machine learning", "neural", "deep learning"},
	"history":     {"history", "war", "empire", "ancient", "medieval"},
	"mathematics": {"math", "calculus", "algebra", "physics", "quantum"},
	"biology":     {"biology", "cell", "dna", "gene", "medicine"},
	"arts":        {"art", "music", "literature", "film", "dance"},
	"economics":   {"economics", "finance", "business", "market"},
	"philosophy":  {"philosophy", "psychology", "ethics", "mind"},
}

// LoadDictionary reads a bootstrap dictionary file. A missing file is not an
// error; it falls back to a small built-in list so startup never fails on
// this account.
func LoadDictionary(path string) (Dictionary, error) {
	if path == "" {
		return builtinDictionary, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return builtinDictionary, nil
	}
	if err != nil {
		return Dictionary{}, err
	}

	var dict Dictionary
	if err := yaml.Unmarshal(data, &dict); err != nil {
		return Dictionary{}, err
	}
	if len(dict.Topics) == 0 {
		return builtinDictionary, nil
	}
	return dict, nil
}

// GuessCategory assigns a category to a topic name using simple keyword
// heuristics, falling back to "general".
func GuessCategory(topic string, categories map[string][]string) string {
	lower := strings.ToLower(topic)

	keywordSets := defaultCategoryKeywords
	if len(categories) > 0 {
		keywordSets = categories
	}

	for category, keywords := range keywordSets {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return category
			}
		}
	}
	return "general"
}
