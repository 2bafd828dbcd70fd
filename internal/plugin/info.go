package plugin

import (
	"strings"
)

// Info describes one registered plug-in function.
type Info struct {
	// Namespace is the grouping the plug-in was discovered in.
	Namespace string
	// Plugin is the member (package or file) that registered the function.
	Plugin string
	// Func is the function name, unique inside the plug-in.
	Func string

	// Callable is the registered function itself. The registry shares it
	// with the defining member.
	Callable any

	// Description is the first paragraph of the function documentation.
	Description string
	// Doc is the rest of the documentation, de-indented and trimmed.
	Doc string
	// ModuleDoc is the documentation of the defining member.
	ModuleDoc string

	// SortValue orders plug-in names inside a namespace. It does not order
	// functions inside a plug-in.
	SortValue int
	// Label selects a partition of the plug-in functions. Empty means unlabeled.
	Label string
}

// Qualified returns "namespace/plugin.func".
func (i *Info) Qualified() string {
	return i.Namespace + "/" + i.Plugin + "." + i.Func
}

// splitDoc splits documentation at its first blank line into a short
// description and a de-indented, trimmed long part.
func splitDoc(doc string) (description, long string) {
	if doc == "" {
		return "", ""
	}
	lines := strings.Split(doc, "\n")
	seenText := false
	for i, line := range lines {
		blank := strings.TrimSpace(line) == ""
		if !blank {
			seenText = true
			continue
		}
		if seenText {
			description = strings.TrimSpace(strings.Join(lines[:i], "\n"))
			long = strings.TrimSpace(dedent(strings.Join(lines[i+1:], "\n")))
			return description, long
		}
	}
	return strings.TrimSpace(doc), ""
}

// dedent removes the whitespace prefix common to all non-blank lines.
// Blank lines are emptied and ignored when computing the margin.
func dedent(s string) string {
	lines := strings.Split(s, "\n")

	margin := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			margin = indent
			first = false
			continue
		}
		margin = commonPrefix(margin, indent)
		if margin == "" {
			break
		}
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = strings.TrimPrefix(line, margin)
	}
	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}
