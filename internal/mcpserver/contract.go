package mcpserver

// MarkerFormatContract describes the canonical marker set format that
// producers (linters, compilers, agents) should follow when publishing.
const MarkerFormatContract = `# Markerd Marker Format Contract

Every marker set published to markerd MUST follow this structure.

## Structure

` + "```" + `json
{
  "name": "Lint",
  "base_path": "~/project/",
  "markers": [
    {
      "type": 0,
      "path": "~/project/src/main.c",
      "line": 42,
      "column": 7,
      "message": "use of undeclared identifier 'foo'",
      "show_error_list": true
    }
  ]
}
` + "```" + `

## Fields

| Field | Type | Meaning |
|-------|------|---------|
| ` + "`" + `name` + "`" + ` | string | REQUIRED. Set name, usually the producing tool (Lint, Build, TeX). |
| ` + "`" + `base_path` + "`" + ` | string | OPTIONAL. Base directory used to shorten displayed marker paths. |
| ` + "`" + `markers` + "`" + ` | array | The complete marker list. An empty array clears the set's markers. |
| ` + "`" + `type` + "`" + ` | int | Severity: 0 error, 1 warning, 2 info, 3 usage, 4 other. |
| ` + "`" + `path` + "`" + ` | string | File the marker points at. |
| ` + "`" + `line` + "`" + ` | int | 1-based line number. |
| ` + "`" + `column` + "`" + ` | int | 1-based column number (use 1 when unknown). |
| ` + "`" + `message` + "`" + ` | string | Human-readable diagnostic text. |
| ` + "`" + `show_error_list` + "`" + ` | bool | Include this marker in the aggregated error list. |

## Rules

1. **Publishing replaces the whole set.** There is no incremental append;
   send the full marker list every time. Re-publishing under the same name
   keeps the set's position in the session order.
2. **The published set becomes active.** The editor switches to it and
   auto-selects the first marker.
3. **Line and column are 1-based.** Values below 1 are invalid.
4. **Paths** may be absolute or start with ` + "`" + `~/` + "`" + ` (expanded against the
   server's home directory). Relative paths are not resolved.
5. **Set names are case-sensitive** and must be non-empty.

## Drop directory

When markerd watches an intake directory, files dropped there are published
automatically:

- ` + "`" + `.json` + "`" + ` files use the structure above.
- ` + "`" + `.log` + "`" + `, ` + "`" + `.txt` + "`" + ` and ` + "`" + `.out` + "`" + ` files are parsed as compiler output, one
  diagnostic per line: ` + "`" + `path:line[:column]: severity: message` + "`" + `. The set
  name is the file name without its extension.
- Unchanged file content (same checksum) is not re-published.
`
