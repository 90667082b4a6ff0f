package judge

import "strings"

const strictTemplate = `Security evaluation of {language} code to be executed on a developer's machine.

Working directory: {cwd}
{context_block}

` + "```{language}\n{code}\n```" + `

Evaluate safety. Respond with EXACTLY one line, no other output:

ALLOW: <brief reason>
— Code only does: computation, data formatting, printing output, reading/writing
  files in the working directory or temp directories (/tmp, $TMPDIR, tempfile
  module), string/regex operations, JSON/YAML/CSV parsing, encoding, hashing,
  math, type checking, or version queries.

ASK: <brief reason>
— Code does ANY of: write/delete/move/rename files outside temp dirs or the
  working directory, network requests, subprocess or shell execution (os.system,
  subprocess), access secrets or credentials (.env, SSH keys, tokens), modify
  system configuration, install packages, or access sensitive paths outside the
  working directory.`

const lenientTemplate = `Security evaluation of {language} code to be executed on a developer's machine.

Mode: lenient

Working directory: {cwd}
{context_block}

` + "```{language}\n{code}\n```" + `

Evaluate safety. Respond with EXACTLY one line, no other output:

ALLOW: <brief reason>
— Prefer ALLOW for normal developer tasks: imports, computation, formatting,
  parsing, printing, and read-only operations.
— Do NOT respond ASK just because code may read files outside the working
  directory. Read-only reads of installed packages/site-packages are allowed.

ASK: <brief reason>
— Respond ASK only when the code is explicitly and clearly doing something
  dangerous. Do NOT ASK based on "could/may" capability.
— ASK if the code does ANY of:
  - Network access (requests/urllib/httpx/sockets), downloading/uploading data
  - Subprocess/shell execution (os.system, subprocess, shell=True)
  - Accessing secrets/credentials (reading .env, ~/.ssh, ~/.aws, tokens, keys)
  - Writing/deleting/moving/renaming files outside the working directory or
    temp dirs (/tmp, $TMPDIR, tempfile module)
  - Installing packages or changing system configuration

If uncertain, choose ALLOW.`

// BuildPrompt renders the strict or lenient prompt template (selected by
// cfg.Lenient, per-process per spec §4.7's "mode selection is per-process").
func BuildPrompt(cfg Config, ec ExtractedCode, cwd string) string {
	template := strictTemplate
	if cfg.Lenient {
		template = lenientTemplate
	}
	contextBlock := ""
	if strings.TrimSpace(ec.Context) != "" {
		contextBlock = "\n" + ec.Context + "\n"
	}
	r := strings.NewReplacer(
		"{language}", ec.Language,
		"{code}", ec.Code,
		"{cwd}", cwd,
		"{context_block}", contextBlock,
	)
	return r.Replace(template)
}
