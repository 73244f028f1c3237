package llm

import (
	"regexp"
	"strings"
)

// ChunkCharLimit is the per-request character budget. Notes sections of a
// large 10-K routinely exceed a single context window, so they are split at
// note boundaries and formatted piecewise.
const ChunkCharLimit = 150000

var (
	noteBoundaryRe = regexp.MustCompile(`(?m)^\s*(?:NOTE|Note)\s+\d+`)
	itemHeadingRe  = regexp.MustCompile(`(?mi)^\s*Item\s+\d+[A-Za-z]?[\.\:]`)
)

// splitAt cuts text at the start offsets of every match, keeping the match
// with the piece it opens.
func splitAt(text string, re *regexp.Regexp) []string {
	locs := re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}
	var pieces []string
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			pieces = append(pieces, text[prev:loc[0]])
		}
		prev = loc[0]
	}
	pieces = append(pieces, text[prev:])
	return pieces
}

// pack greedily joins pieces into chunks no larger than limit. A single
// piece over the limit is hard-split.
func pack(pieces []string, limit int) []string {
	var chunks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
	}
	for _, p := range pieces {
		for len(p) > limit {
			flush()
			chunks = append(chunks, p[:limit])
			p = p[limit:]
		}
		if cur.Len() > 0 && cur.Len()+len(p) > limit {
			flush()
		}
		cur.WriteString(p)
	}
	flush()
	return chunks
}

// ChunkNotes splits a notes section at "Note N" headings so no note is cut
// mid-body, then packs the pieces under the character limit. A single note
// over the limit falls back to prose chunking so it still breaks at
// paragraphs rather than mid-sentence.
func ChunkNotes(text string, limit int) []string {
	if limit <= 0 {
		limit = ChunkCharLimit
	}
	if len(text) <= limit {
		return []string{text}
	}
	var pieces []string
	for _, note := range splitAt(text, noteBoundaryRe) {
		if len(note) > limit {
			pieces = append(pieces, ChunkProse(note, limit)...)
			continue
		}
		pieces = append(pieces, note)
	}
	return pack(pieces, limit)
}

// ChunkProse splits narrative text at Item headings, falling back to
// paragraph breaks when a single item is still over the limit.
func ChunkProse(text string, limit int) []string {
	if limit <= 0 {
		limit = ChunkCharLimit
	}
	if len(text) <= limit {
		return []string{text}
	}
	var pieces []string
	for _, item := range splitAt(text, itemHeadingRe) {
		if len(item) > limit {
			pieces = append(pieces, strings.SplitAfter(item, "\n\n")...)
		} else {
			pieces = append(pieces, item)
		}
	}
	return pack(pieces, limit)
}
