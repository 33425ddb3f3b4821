package driver

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"depyler/internal/config"
)

// dumpScript serializes CPython's ast module output as _type-tagged
// JSON, the format internal/pyast consumes. Bytes constants are wrapped
// as base64; the scalar body/orelse of IfExp and Lambda are wrapped
// into one-element arrays so those slots keep a single JSON shape.
const dumpScript = `import ast, base64, json, sys

def enc(n):
    if isinstance(n, ast.AST):
        d = {"_type": type(n).__name__}
        for f in n._fields:
            d[f] = enc(getattr(n, f, None))
        if isinstance(n, (ast.IfExp, ast.Lambda)):
            if not isinstance(d.get("body"), list):
                d["body"] = [d["body"]]
            if "orelse" in d and not isinstance(d["orelse"], list):
                d["orelse"] = [d["orelse"]]
        for f in ("lineno", "col_offset", "end_lineno", "end_col_offset"):
            v = getattr(n, f, None)
            if v is not None:
                d[f] = v
        return d
    if isinstance(n, list):
        return [enc(x) for x in n]
    if isinstance(n, bytes):
        return {"_type": "bytes", "data": base64.b64encode(n).decode("ascii")}
    if isinstance(n, complex):
        raise SystemExit("complex constants are not supported")
    return n

try:
    tree = ast.parse(sys.stdin.read())
except SyntaxError as e:
    raise SystemExit("syntax error: %s (line %s)" % (e.msg, e.lineno))
json.dump(enc(tree), sys.stdout)
`

// ParseSource runs the external Python parser over src and returns the
// serialized AST. The parser command comes from the config; the default
// feeds the embedded dump script to python3.
func ParseSource(ctx context.Context, cfg config.Config, src []byte) ([]byte, error) {
	argv := cfg.ParserCommand
	if len(argv) == 0 {
		argv = []string{"python3", "-c", dumpScript}
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) // #nosec G204 -- command comes from the config
	cmd.Stdin = bytes.NewReader(src)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, fmt.Errorf("external parser: %w: %s", ErrUserInput, detail)
	}
	return stdout.Bytes(), nil
}
