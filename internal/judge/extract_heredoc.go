package judge

import "strings"

// extractHeredocOrHerestring implements extraction precedence step 2: a
// heredoc or here-string feeding an interpreter, found by scanning the
// original command text line-by-line (spec §4.7; the normalized statement
// tree does not retain heredoc-body association with a specific consumer
// closely enough to replace this text scan, so, like the original tool,
// extraction falls back to the raw command text here).
func extractHeredocOrHerestring(rawCommand string) (ExtractedCode, bool) {
	if ec, ok := extractHeredoc(rawCommand); ok {
		return ec, true
	}
	return extractHerestring(rawCommand)
}

func extractHeredoc(rawCommand string) (ExtractedCode, bool) {
	lines := strings.Split(rawCommand, "\n")
	for i, line := range lines {
		opIdx, stripTabs, isHeredoc := findHereOp(line, false)
		if !isHeredoc {
			continue
		}
		delim, ok := parseHeredocDelim(line[opIdx:])
		if !ok {
			continue
		}
		language, context, ok := classifyHeredocConsumer(line[:opIdx])
		if !ok {
			continue
		}

		var body []string
		total := 0
		for _, bodyLine := range lines[i+1:] {
			candidate := strings.TrimRight(bodyLine, "\r")
			if stripTabs {
				candidate = strings.TrimLeft(candidate, "\t")
			}
			if candidate == delim {
				return ExtractedCode{Language: language, Code: strings.Join(body, "\n"), Context: context}, true
			}
			body = append(body, strings.TrimRight(bodyLine, "\r"))
			total += len(bodyLine) + 1
			if total > MaxExtractedCodeBytes {
				return ExtractedCode{}, false
			}
		}
	}
	return ExtractedCode{}, false
}

func extractHerestring(rawCommand string) (ExtractedCode, bool) {
	for _, line := range strings.Split(rawCommand, "\n") {
		opIdx, _, isHerestring := findHereOp(line, true)
		if !isHerestring {
			continue
		}
		language, context, ok := classifyHeredocConsumer(line[:opIdx])
		if !ok {
			continue
		}
		payload, ok := parseHerestringPayload(line[opIdx:])
		if !ok || len(payload) > MaxExtractedCodeBytes {
			continue
		}
		return ExtractedCode{Language: language, Code: payload, Context: context}, true
	}
	return ExtractedCode{}, false
}

func classifyHeredocConsumer(before string) (language, context string, ok bool) {
	switch {
	case strings.Contains(before, "python3"):
		return "python3", "", true
	case strings.Contains(before, "python"):
		return "python", "", true
	case strings.Contains(before, "node"):
		return "node", "", true
	case strings.Contains(before, "ruby"):
		return "ruby", "", true
	case strings.Contains(before, "perl"):
		return "perl", "", true
	}
	return "", "", false
}

// findHereOp scans line outside single/double quotes for "<<"/"<<-" (want
// herestring false) or "<<<" (want herestring true), returning its byte
// offset, whether it strips leading tabs (heredoc `<<-` only), and whether a
// match of the requested kind was found.
func findHereOp(line string, wantHerestring bool) (idx int, stripTabs bool, found bool) {
	inSingle, inDouble := false, false
	i := 0
	for i < len(line) {
		b := line[i]
		switch {
		case b == '\'' && !inDouble:
			inSingle = !inSingle
			i++
			continue
		case b == '"' && !inSingle:
			inDouble = !inDouble
			i++
			continue
		case b == '\\' && inDouble:
			i += 2
			continue
		}
		if !inSingle && !inDouble {
			if wantHerestring {
				if i+3 <= len(line) && line[i:i+3] == "<<<" {
					return i, false, true
				}
			} else if i+2 <= len(line) && line[i:i+2] == "<<" {
				if i+2 < len(line) && line[i+2] == '<' {
					i += 3
					continue
				}
				strip := i+3 <= len(line) && line[i:i+3] == "<<-"
				return i, strip, true
			}
		}
		i++
	}
	return 0, false, false
}

func parseHeredocDelim(opAndRest string) (string, bool) {
	rest := opAndRest
	switch {
	case strings.HasPrefix(rest, "<<-"):
		rest = rest[3:]
	case strings.HasPrefix(rest, "<<"):
		rest = rest[2:]
	default:
		return "", false
	}
	rest = strings.TrimLeft(rest, " \t")
	if rest == "" {
		return "", false
	}
	if strings.HasPrefix(rest, "'") {
		inner := rest[1:]
		end := strings.IndexByte(inner, '\'')
		if end == -1 {
			return "", false
		}
		return inner[:end], true
	}
	if strings.HasPrefix(rest, `"`) {
		inner := rest[1:]
		end := strings.IndexByte(inner, '"')
		if end == -1 {
			return "", false
		}
		return inner[:end], true
	}
	end := strings.IndexAny(rest, " \t;&|")
	if end == -1 {
		end = len(rest)
	}
	if end == 0 {
		return "", false
	}
	return rest[:end], true
}

func parseHerestringPayload(opAndRest string) (string, bool) {
	if !strings.HasPrefix(opAndRest, "<<<") {
		return "", false
	}
	rest := strings.TrimLeft(opAndRest[3:], " \t")
	if strings.HasPrefix(rest, "'") {
		inner := rest[1:]
		end := strings.IndexByte(inner, '\'')
		if end == -1 {
			return "", false
		}
		return inner[:end], true
	}
	if strings.HasPrefix(rest, `"`) {
		inner := rest[1:]
		end := strings.IndexByte(inner, '"')
		if end == -1 {
			return "", false
		}
		payload := inner[:end]
		if strings.ContainsAny(payload, "$`") {
			return "", false
		}
		return payload, true
	}
	return "", false
}
