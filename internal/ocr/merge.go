package ocr

import "strings"

// Fraction of the previous line's height that still counts as "adjacent"
// vertical spacing, and the horizontal start drift allowed within one
// paragraph, in multiples of the previous line's height.
const (
	mergeGapFactor   = 0.8
	mergeDriftFactor = 2
)

// MergeLines groups recognized lines into paragraph regions. A line joins
// the current paragraph when it starts less than 0.8 previous-line-heights
// below the previous line's bottom edge (slight overlaps count) and its left
// edge is within two line-heights of the previous line's. The merged box
// keeps the first line's origin, the widest line's width and the tallest
// line's height; texts are joined with single spaces.
//
// Blank lines are dropped before grouping. No lines in means no regions out.
func MergeLines(lines []Line) []Region {
	var kept []Line
	for _, l := range lines {
		if strings.TrimSpace(l.Text) != "" {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	var regions []Region
	cur := regionFrom(kept[0])
	prev := kept[0]

	for _, line := range kept[1:] {
		gap := line.Y - (prev.Y + prev.Height)
		drift := abs(line.X - prev.X)
		threshold := int(float64(prev.Height) * mergeGapFactor)

		if gap < threshold && drift < prev.Height*mergeDriftFactor {
			cur.Text += " " + line.Text
			cur.Width = max(cur.Width, line.Width)
			cur.Height = max(cur.Height, line.Height)
		} else {
			regions = append(regions, cur)
			cur = regionFrom(line)
		}
		prev = line
	}
	return append(regions, cur)
}

func regionFrom(l Line) Region {
	return Region{Text: l.Text, X: l.X, Y: l.Y, Width: l.Width, Height: l.Height}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
