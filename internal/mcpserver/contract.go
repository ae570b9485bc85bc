package mcpserver

// PlaceholderSyntax describes the template language accepted by the
// format_template and capture tools.
const PlaceholderSyntax = `# Scribe Placeholder Syntax

Templates are Markdown with ` + "`{{...}}`" + ` placeholders, expanded left to right.
Text produced by a placeholder is never expanded again.

## Values

| Placeholder | Result |
|---|---|
| ` + "`{{VALUE}}`, `{{NAME}}`" + ` | The capture value (the ` + "`value`" + ` argument). |
| ` + "`{{VALUE:name}}`" + ` | A named variable. Asked once per run; later uses reuse the answer. |
| ` + "`{{VALUE:name\\|default}}`" + ` | Named variable with a default used when the answer is empty. |
| ` + "`{{VALUE:name\\|label:Hint}}`" + ` | Named variable with a prompt hint. |
| ` + "`{{VALUE:a,b,c}}`" + ` | A choice between the options. The answer key is the option list as written. |
| ` + "`{{VALUE:a,b\\|custom}}`" + ` | A choice that also accepts free text. |

## Dates

| Placeholder | Result |
|---|---|
| ` + "`{{DATE}}`" + ` | Today as YYYY-MM-DD. |
| ` + "`{{DATE:FORMAT}}`" + ` | Today in a Moment-style format, e.g. ` + "`{{DATE:dddd, MMMM Do}}`" + `. |
| ` + "`{{DATE+3}}`, `{{DATE:YYYY-MM-DD+-1}}`" + ` | Offset by whole days. |
| ` + "`{{VDATE:name,FORMAT}}`" + ` | Ask for a date ("today", "tomorrow", "+2", "2025-01-31"), then format it. |

## Other

| Placeholder | Result |
|---|---|
| ` + "`{{TITLE}}`" + ` | The target file name without .md. |
| ` + "`{{LINKCURRENT}}`" + ` | A wikilink to the target file. |
| ` + "`{{TEMPLATE:path}}`" + ` | The text of another template, expanded in place. |
| ` + "`{{MACRO:name}}`" + ` | The result of a macro, when macros are configured. |

Unknown placeholders are left as written.

## Front matter

When a placeholder sits in the value position of a front matter key
(` + "`tags: {{VALUE:tags}}`" + `), non-string values are written as typed YAML
after the capture. With structured inference enabled, answers such as
` + "`a, b`" + ` or ` + "`[\"a\", \"b\"]`" + ` become lists. Quoted values are escaped for
their quote style.

## Answers

Tools take an ` + "`answers`" + ` object keyed by variable name (or by the option
list for choices). A missing answer fails the call; there is no interactive
prompt over MCP.
`
