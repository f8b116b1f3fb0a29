package selection

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ssh-vom/mangadl/internal/providers/manga"
)

const All = "all"

// Select resolves a range expression such as "1-3,5" or "all" against
// chapters, which must already be ordered by number.
func Select(expression string, chapters []manga.Chapter) ([]manga.Chapter, error) {
	var picked []int
	for _, token := range strings.Split(expression, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		if strings.EqualFold(token, All) {
			if len(chapters) == 0 {
				break
			}
			return append([]manga.Chapter(nil), chapters...), nil
		}

		picked = append(picked, matchToken(token, chapters)...)
	}

	selected := dedupe(picked, chapters)
	if len(selected) == 0 {
		return nil, errors.Wrapf(manga.ErrRangeEmpty, "%q matched none of %d chapters", expression, len(chapters))
	}

	return selected, nil
}

func matchToken(token string, chapters []manga.Chapter) []int {
	if low, high, ok := strings.Cut(token, "-"); ok {
		start, startErr := parseNumber(low)
		end, endErr := parseNumber(high)
		if startErr != nil || endErr != nil {
			return nil
		}

		var matched []int
		for index, chapter := range chapters {
			if chapter.Number >= start && chapter.Number <= end {
				matched = append(matched, index)
			}
		}
		return matched
	}

	number, err := parseNumber(token)
	if err != nil {
		return nil
	}
	for index, chapter := range chapters {
		if chapter.Number == number {
			return []int{index}
		}
	}

	return nil
}

func parseNumber(value string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(value), 64)
}

// dedupe keeps the first picked chapter for each number and returns the
// survivors in source order.
func dedupe(picked []int, chapters []manga.Chapter) []manga.Chapter {
	seenNumbers := make(map[float64]bool, len(picked))
	keep := make(map[int]bool, len(picked))
	for _, index := range picked {
		number := chapters[index].Number
		if seenNumbers[number] {
			continue
		}
		seenNumbers[number] = true
		keep[index] = true
	}

	selected := make([]manga.Chapter, 0, len(keep))
	for index, chapter := range chapters {
		if keep[index] {
			selected = append(selected, chapter)
		}
	}

	return selected
}
