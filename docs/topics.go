// Package docs embeds the documentation topics served by the topic command.
package docs

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed *.md
var topics embed.FS

// Get returns the content of one topic, or of all topics for "*".
func Get(topic string) (string, error) {
	if topic == "*" {
		all, err := All()
		if err != nil {
			return "", err
		}
		var b strings.Builder
		for _, t := range all {
			content, err := Get(t)
			if err != nil {
				return "", err
			}
			b.WriteString(content)
			b.WriteString("\n")
		}
		return b.String(), nil
	}
	content, err := topics.ReadFile(topic + ".md")
	if err != nil {
		return "", fmt.Errorf("topic %q not found: %w", topic, err)
	}
	return string(content), nil
}

// All lists the available topics, sorted. The index file is not a topic.
func All() ([]string, error) {
	entries, err := fs.Glob(topics, "*.md")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		name := strings.TrimSuffix(e, ".md")
		if name == "readme" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Index returns the topic index.
func Index() (string, error) {
	content, err := topics.ReadFile("readme.md")
	if err != nil {
		return "", err
	}
	return string(content), nil
}
