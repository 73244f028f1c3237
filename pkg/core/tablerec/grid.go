package tablerec

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Dashes that stand in for zero/absent values in filings.
var dashValues = map[string]bool{"—": true, "-": true, "–": true}

var openNegativeRe = regexp.MustCompile(`^\([\d,]+\.?\d*$`)

func isCurrencySymbol(s string) bool {
	return s == "$" || s == "€" || s == "£"
}

// IsNumeric reports whether a cell holds a value: currency-prefixed,
// comma-grouped, parenthetical-negative numbers, or a dash placeholder.
// Empty cells count as numeric so ragged value rows classify correctly.
func IsNumeric(cell string) bool {
	s := strings.TrimSpace(cell)
	if s == "" || dashValues[s] {
		return true
	}
	s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "", "%", "").Replace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = s[1 : len(s)-1]
	}
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// CollapseRow merges cell fragments produced by cell-level extraction:
// currency symbols rejoin their values, split parenthetical negatives
// reclose, percent signs attach to the preceding cell, and stray close
// parens vanish. Empty cells are dropped.
func CollapseRow(cells []string) []string {
	var out []string
	i := 0
	for i < len(cells) {
		c := strings.TrimSpace(cells[i])
		switch {
		case c == "":
			i++
		case isCurrencySymbol(c):
			j := i + 1
			for j < len(cells) && strings.TrimSpace(cells[j]) == "" {
				j++
			}
			if j >= len(cells) {
				out = append(out, c)
				i++
				break
			}
			val := strings.TrimSpace(cells[j])
			// The merged value may itself be a split negative: "$ (13,756"
			// still needs its ")" from the next filled cell.
			if openNegativeRe.MatchString(val) {
				k := j + 1
				for k < len(cells) && strings.TrimSpace(cells[k]) == "" {
					k++
				}
				if k < len(cells) && strings.TrimSpace(cells[k]) == ")" {
					out = append(out, c+" "+val+")")
					i = k + 1
					break
				}
			}
			out = append(out, c+" "+val)
			i = j + 1
		case openNegativeRe.MatchString(c):
			j := i + 1
			for j < len(cells) && strings.TrimSpace(cells[j]) == "" {
				j++
			}
			if j < len(cells) && strings.TrimSpace(cells[j]) == ")" {
				out = append(out, c+")")
				i = j + 1
			} else {
				out = append(out, c)
				i++
			}
		case c == "%":
			if len(out) > 0 {
				out[len(out)-1] += "%"
			}
			i++
		case c == ")":
			i++
		default:
			out = append(out, c)
			i++
		}
	}
	return out
}

// positionalCollapseWidth is the raw width at which index-based collapsing
// alone stops working and cells must be snapped to anchor columns first.
const positionalCollapseWidth = 10

// collapsePositional realigns very wide ragged grids. Anchor column
// positions come from the three most-populated rows; every non-empty cell
// then snaps to its nearest unused anchor, which preserves column identity
// when extraction scattered cells across phantom columns.
func collapsePositional(grid [][]string) [][]string {
	type rowPop struct {
		idx, filled int
	}
	pops := make([]rowPop, 0, len(grid))
	for i, row := range grid {
		filled := 0
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				filled++
			}
		}
		pops = append(pops, rowPop{i, filled})
	}
	sort.SliceStable(pops, func(a, b int) bool { return pops[a].filled > pops[b].filled })

	anchorSet := make(map[int]bool)
	for i := 0; i < len(pops) && i < 3; i++ {
		for col, c := range grid[pops[i].idx] {
			if strings.TrimSpace(c) != "" {
				anchorSet[col] = true
			}
		}
	}
	if len(anchorSet) < 2 {
		return grid
	}
	anchors := make([]int, 0, len(anchorSet))
	for col := range anchorSet {
		anchors = append(anchors, col)
	}
	sort.Ints(anchors)

	out := make([][]string, 0, len(grid))
	for _, row := range grid {
		cells := make([]string, len(anchors))
		used := make([]bool, len(anchors))
		for col, c := range row {
			c = strings.TrimSpace(c)
			if c == "" {
				continue
			}
			best := -1
			bestDist := 1 << 30
			for ai, pos := range anchors {
				if used[ai] {
					continue
				}
				dist := pos - col
				if dist < 0 {
					dist = -dist
				}
				if dist < bestDist {
					bestDist = dist
					best = ai
				}
			}
			if best == -1 {
				cells[len(cells)-1] = strings.TrimSpace(cells[len(cells)-1] + " " + c)
				continue
			}
			used[best] = true
			cells[best] = c
		}
		out = append(out, cells)
	}
	return out
}
