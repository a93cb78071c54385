package console

import "strings"

// inputKind is the dispatch path chosen for one line of input.
type inputKind int

const (
	inputEmpty inputKind = iota
	inputSlash
	inputResource
	inputBuiltin
	inputUnknown
)

func (k inputKind) String() string {
	switch k {
	case inputEmpty:
		return "empty"
	case inputSlash:
		return "slash"
	case inputResource:
		return "resource"
	case inputBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// resourcePrefixes are the declarative actions routed to the resource
// command handler. The trailing space matters: a bare "list" is not a
// resource command.
var resourcePrefixes = []string{"create ", "delete ", "list ", "describe "}

// builtinKeywords are whole-line keywords handled by the loop itself.
var builtinKeywords = []string{"help", "exit", "quit"}

// classified carries the dispatch decision for one trimmed line.
type classified struct {
	kind inputKind
	name string   // slash-command or builtin name, without the slash
	args []string // slash-command arguments, whitespace-split
	raw  string   // the trimmed line as entered
}

// classify decides which dispatch path a trimmed input line takes. The
// checks run in a fixed order (empty, slash, resource prefix, builtin,
// unknown); first match wins, so routing stays deterministic even if
// prefixes added later could overlap.
func classify(line string) classified {
	if line == "" {
		return classified{kind: inputEmpty}
	}

	if strings.HasPrefix(line, "/") {
		fields := strings.Fields(strings.TrimPrefix(line, "/"))
		c := classified{kind: inputSlash, raw: line}
		if len(fields) > 0 {
			c.name = fields[0]
			c.args = fields[1:]
		}
		return c
	}

	for _, prefix := range resourcePrefixes {
		if strings.HasPrefix(line, prefix) {
			return classified{kind: inputResource, raw: line}
		}
	}

	for _, keyword := range builtinKeywords {
		if line == keyword {
			return classified{kind: inputBuiltin, name: keyword, raw: line}
		}
	}

	return classified{kind: inputUnknown, raw: line}
}
