// Package examples embeds sample logi documents. They seed an empty
// module store when serving and are loadable by @name from the CLI and
// the REPL.
package examples

import (
	"embed"
	"sort"
	"strings"
)

//go:embed *.yaml
var files embed.FS

// Names returns the embedded document names, sorted.
func Names() []string {
	entries, err := files.ReadDir(".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Source returns the YAML source of an embedded document.
func Source(name string) (string, bool) {
	data, err := files.ReadFile(name + ".yaml")
	if err != nil {
		return "", false
	}
	return string(data), true
}
