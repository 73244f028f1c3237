// Package prose cleans narrative filing sections (MD&A, risk factors,
// controls) out of raw PDF text: page artifacts go, headings become
// markdown, and lines broken mid-sentence are rejoined. No LLM involved.
package prose

import (
	"regexp"
	"strings"

	"secparse/pkg/core/tablerec"
)

const (
	repeatedHeaderMin    = 3
	repeatedHeaderMaxLen = 120
	subheadingMaxWords   = 10
	subheadingMaxLen     = 80
	subheadingCapRatio   = 0.6
)

var (
	pageNumberRe   = regexp.MustCompile(`^\s*\d{1,3}\s*$`)
	pageRefRe      = regexp.MustCompile(`^\s*F-\d{1,3}\s*$`)
	trailingRefRe  = regexp.MustCompile(`\s+F-\d{1,3}\.?\s*$`)
	itemHeadingRe  = regexp.MustCompile(`(?i)^(Item\s+\d+[A-Za-z]?\.\s+.+)$`)
	sentenceLikeRe = regexp.MustCompile(`^[A-Z]\w+\s+[a-z].*[a-z]\s+[a-z]`)
	blankRunRe     = regexp.MustCompile(`\n{3,}`)
	exhibitRowRe   = regexp.MustCompile(`^(\d{1,3}\.\d+\*?\??)\s+(\S.*)$`)
)

// Clean scrubs a prose section of extraction artifacts and marks up its
// headings.
func Clean(text string) string {
	lines := strings.Split(text, "\n")

	kept := lines[:0:0]
	for _, l := range lines {
		if pageNumberRe.MatchString(l) || pageRefRe.MatchString(l) {
			continue
		}
		if !strings.HasPrefix(strings.TrimSpace(l), "|") {
			l = trailingRefRe.ReplaceAllString(l, "")
		}
		kept = append(kept, l)
	}

	// Page headers repeat once per page; anything showing up three times is
	// furniture, not content.
	counts := map[string]int{}
	for _, l := range kept {
		if s := strings.TrimSpace(l); s != "" {
			counts[s]++
		}
	}
	repeated := map[string]bool{}
	for s, n := range counts {
		if n >= repeatedHeaderMin && len(s) < repeatedHeaderMaxLen {
			repeated[s] = true
		}
	}

	var result []string
	for _, l := range kept {
		s := strings.TrimSpace(l)
		if s == "" {
			result = append(result, "")
			continue
		}
		if repeated[s] {
			continue
		}
		if m := itemHeadingRe.FindStringSubmatch(s); m != nil {
			result = append(result, "### "+m[1])
			continue
		}
		if isSubheading(s) {
			result = append(result, "### "+s)
			continue
		}
		result = append(result, s)
	}

	// Rejoin lines split mid-sentence.
	var joined []string
	for _, line := range result {
		if len(joined) > 0 && joined[len(joined)-1] != "" &&
			!strings.HasPrefix(joined[len(joined)-1], "#") &&
			line != "" && isLower(line[0]) &&
			!strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "|") &&
			!strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "*") &&
			!strings.HasPrefix(line, "•") {
			joined[len(joined)-1] += " " + line
		} else {
			joined = append(joined, line)
		}
	}

	out := strings.Join(joined, "\n")
	out = blankRunRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

func isLower(b byte) bool { return b >= 'a' && b <= 'z' }
func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }

// isSubheading spots short title-case lines: most words capitalized, no
// sentence-ending shape.
func isSubheading(s string) bool {
	words := strings.Fields(s)
	if len(words) < 2 || len(words) > subheadingMaxWords || len(s) >= subheadingMaxLen {
		return false
	}
	for _, suffix := range []string{",", ";", ":", "and", "or"} {
		if strings.HasSuffix(s, suffix) {
			return false
		}
	}
	if !isUpper(s[0]) || strings.ContainsAny(s[:1], "($•-*") {
		return false
	}
	capped := 0
	for _, w := range words {
		if isUpper(w[0]) {
			capped++
		}
	}
	if float64(capped)/float64(len(words)) < subheadingCapRatio {
		return false
	}
	return !sentenceLikeRe.MatchString(s)
}

// FormatExhibits turns an exhibit index into a two-column table. Entries
// look like "31.1 Certification of the Chief Executive Officer ...". With
// fewer than two entries the section is treated as plain prose.
func FormatExhibits(text string) string {
	var rows [][2]string
	var leading []string
	for _, line := range strings.Split(text, "\n") {
		s := strings.TrimSpace(line)
		if m := exhibitRowRe.FindStringSubmatch(s); m != nil {
			desc := strings.TrimSpace(trailingRefRe.ReplaceAllString(m[2], ""))
			rows = append(rows, [2]string{m[1], desc})
		} else if len(rows) == 0 && s != "" {
			leading = append(leading, s)
		}
	}
	if len(rows) < 2 {
		return Clean(text)
	}

	var b strings.Builder
	if len(leading) > 0 {
		b.WriteString(Clean(strings.Join(leading, "\n")))
		b.WriteString("\n\n")
	}
	b.WriteString("| Exhibit | Description |\n| :--- | :--- |\n")
	for _, r := range rows {
		b.WriteString("| " + r[0] + " | " + r[1] + " |\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// NotesFallback processes the notes section without a model: prose cleanup
// for the narrative, with any reconstructable tables appended. Notes tables
// keep their own headers and get no canonical column.
func NotesFallback(text string, tables [][][]string) string {
	cleaned := Clean(text)
	if len(tables) == 0 {
		return cleaned
	}
	result := tablerec.Reconstruct(tables, text)
	if result.Abandoned || len(result.Tables) == 0 {
		return cleaned
	}
	return cleaned + "\n\n" + tablerec.RenderAll(result.Tables)
}
