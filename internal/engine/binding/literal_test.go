package binding

import (
	"testing"

	"hbind/internal/core/errors"
)

func TestEvalLiteral(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"decimal", "42", "42"},
		{"zero", "0", "0"},
		{"hex with suffix", "0xffUL", "0xFF"},
		{"binary", "0b1010", "0b1010"},
		{"octal", "017", "0o17"},
		{"long long suffix", "10LL", "10"},
		{"unsigned overflow", "0xFFFFFFFFFFFFFFFFull", "0xFFFFFFFFFFFFFFFF_u64"},
		{"float suffix", "1.5f", "1.5"},
		{"leading dot", ".25", "0.25"},
		{"trailing dot", "3.", "3.0"},
		{"exponent", "1e3", "1.0e3"},
		{"negative", "-1", "-1"},
		{"parenthesized", "((7))", "7"},
		{"negative parenthesized", "-(0x10)", "-0x10"},
		{"char", `'a'`, `'a'`},
		{"char escape", `'\n'`, `'\n'`},
		{"string", `"hello \"world\""`, `"hello \"world\""`},
		{"whitespace", "  5  ", "5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvalLiteral(tt.src)
			if err != nil {
				t.Fatalf("EvalLiteral(%q) error: %v", tt.src, err)
			}
			if got != tt.want {
				t.Fatalf("EvalLiteral(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

func TestEvalLiteral_Rejects(t *testing.T) {
	for _, src := range []string{
		"",
		"1 << 4",
		"(1) + (2)",
		"FOO",
		"-\"text\"",
		"08",
		`"a" "b"`,
		`'\x41'`,
		"99999999999999999999999",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := EvalLiteral(src)
			if err == nil {
				t.Fatalf("EvalLiteral(%q) succeeded, want error", src)
			}
			if !errors.IsCode(err, errors.CodeLiteralEvaluation) {
				t.Fatalf("EvalLiteral(%q) error code = %s", src, errors.CodeOf(err))
			}
		})
	}
}
