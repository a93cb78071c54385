// Package resources handles declarative resource commands (create,
// delete, list, describe). The handlers are placeholders for the
// infrastructure-as-code generation pipeline; today they report what
// the command will eventually do.
package resources

import (
	"fmt"
	"io"
	"strings"
)

// Handler consumes one raw resource-command line.
type Handler struct {
	out io.Writer
}

// NewHandler returns a resource command handler writing to out.
func NewHandler(out io.Writer) *Handler {
	return &Handler{out: out}
}

// Handle processes a raw input line beginning with a resource action.
// The line arrives unparsed; splitting it is this package's concern.
func (h *Handler) Handle(rawLine string) error {
	fields := strings.Fields(rawLine)
	if len(fields) == 0 {
		return fmt.Errorf("empty resource command")
	}
	action := fields[0]
	target := ""
	if len(fields) > 1 {
		target = fields[1]
	}

	fmt.Fprintf(h.out, "🚧 Resource command '%s' is not yet implemented.\n", action)
	fmt.Fprintf(h.out, "💡 %s\n", intentHint(action, target))
	return nil
}

func intentHint(action, target string) string {
	subject := target
	if subject == "" {
		subject = "resource"
	}
	switch action {
	case "create":
		return fmt.Sprintf("'create %s' will generate Terraform and Ansible configuration for the new %s.", subject, subject)
	case "delete":
		return fmt.Sprintf("'delete %s' will remove the %s from the generated infrastructure configuration.", subject, subject)
	case "list":
		return fmt.Sprintf("'list %s' will enumerate %s resources from the workspace state database.", subject, subject)
	case "describe":
		return fmt.Sprintf("'describe %s' will show the full configuration and live status of the %s.", subject, subject)
	default:
		return "This command will manage infrastructure configuration for the workspace."
	}
}
