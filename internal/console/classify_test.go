package console

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantKind inputKind
		wantName string
		wantArgs []string
	}{
		{
			name:     "empty line",
			line:     "",
			wantKind: inputEmpty,
		},
		{
			name:     "slash command without args",
			line:     "/help",
			wantKind: inputSlash,
			wantName: "help",
		},
		{
			name:     "slash command with args",
			line:     "/init --host pve.local --node pve1",
			wantKind: inputSlash,
			wantName: "init",
			wantArgs: []string{"--host", "pve.local", "--node", "pve1"},
		},
		{
			name:     "slash command with repeated whitespace",
			line:     "/history   25",
			wantKind: inputSlash,
			wantName: "history",
			wantArgs: []string{"25"},
		},
		{
			name:     "bare slash",
			line:     "/",
			wantKind: inputSlash,
			wantName: "",
		},
		{
			name:     "create resource command",
			line:     "create vm --name test",
			wantKind: inputResource,
		},
		{
			name:     "describe resource command",
			line:     "describe container 101",
			wantKind: inputResource,
		},
		{
			name:     "bare list is not a resource command",
			line:     "list",
			wantKind: inputUnknown,
		},
		{
			name:     "help builtin",
			line:     "help",
			wantKind: inputBuiltin,
			wantName: "help",
		},
		{
			name:     "exit builtin",
			line:     "exit",
			wantKind: inputBuiltin,
			wantName: "exit",
		},
		{
			name:     "quit builtin",
			line:     "quit",
			wantKind: inputBuiltin,
			wantName: "quit",
		},
		{
			name:     "builtin with trailing text is not builtin",
			line:     "exit now",
			wantKind: inputUnknown,
		},
		{
			name:     "unrecognized input",
			line:     "foo",
			wantKind: inputUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.line)
			if got.kind != tt.wantKind {
				t.Fatalf("classify(%q) kind = %v, want %v", tt.line, got.kind, tt.wantKind)
			}
			if got.name != tt.wantName {
				t.Errorf("classify(%q) name = %q, want %q", tt.line, got.name, tt.wantName)
			}
			if len(got.args) != 0 || len(tt.wantArgs) != 0 {
				if !reflect.DeepEqual(got.args, tt.wantArgs) {
					t.Errorf("classify(%q) args = %v, want %v", tt.line, got.args, tt.wantArgs)
				}
			}
			if tt.wantKind != inputEmpty && got.raw != tt.line {
				t.Errorf("classify(%q) raw = %q, want the input line", tt.line, got.raw)
			}
		})
	}
}

func TestClassifySlashWinsOverResourcePrefix(t *testing.T) {
	// A slash line can never also carry a resource prefix, but the
	// decision order must still route it down the slash path first.
	got := classify("/create vm")
	if got.kind != inputSlash {
		t.Fatalf("kind = %v, want slash", got.kind)
	}
	if got.name != "create" {
		t.Fatalf("name = %q, want create", got.name)
	}
}
