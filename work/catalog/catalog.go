package catalog

import (
	"strings"

	"lakay-tv/work/types"

	"github.com/grafana/regexp"
)

// FilterMode selects which base population of channels a listing starts from.
type FilterMode int

const (
	FilterAll       FilterMode = iota // All channels
	FilterFavorites                   // Only channels in the caller's favorite set
)

// CategoryAll is the category selection that disables category filtering.
const CategoryAll = "all"

// Selection captures one catalog query: the filter mode, the selected
// category ("all" disables the category stage), and free search text. It is
// pure request state and never persisted.
type Selection struct {
	Mode     FilterMode
	Category string
	Search   string
}

// ParseMode maps the wire representation of a filter mode to a FilterMode,
// defaulting to FilterAll for anything unrecognized.
func ParseMode(s string) FilterMode {
	if strings.EqualFold(s, "favorites") {
		return FilterFavorites
	}
	return FilterAll
}

func (m FilterMode) String() string {
	if m == FilterFavorites {
		return "favorites"
	}
	return "all"
}

// Visible derives the ordered visible channel list from the full channel set,
// the caller's favorite-id set, and the current selection.
//
// Three stages narrow the set in turn: favorites membership, case-insensitive
// category equality, case-insensitive substring search on the name. Each
// stage only removes channels, so the result is always a subsequence of the
// input in input order. The function has no side effects and is total: a
// channel with an empty category never matches a concrete category selection
// and always passes when the selection is "all".
func Visible(channels []*types.Channel, favorites map[string]struct{}, sel Selection) []*types.Channel {
	visible := make([]*types.Channel, 0, len(channels))

	matcher := searchMatcher(sel.Search)

	for _, ch := range channels {
		if sel.Mode == FilterFavorites {
			if _, ok := favorites[ch.ID]; !ok {
				continue
			}
		}

		if sel.Category != "" && !strings.EqualFold(sel.Category, CategoryAll) {
			if ch.Category == "" || !strings.EqualFold(ch.Category, sel.Category) {
				continue
			}
		}

		if matcher != nil && !matcher.MatchString(ch.Name) {
			continue
		}

		visible = append(visible, ch)
	}

	return visible
}

// searchMatcher compiles the search text into a case-insensitive substring
// matcher, or nil when the text is empty. The text is quoted so regex
// metacharacters in user input match literally.
func searchMatcher(search string) *regexp.Regexp {
	search = strings.TrimSpace(search)
	if search == "" {
		return nil
	}
	// QuoteMeta guarantees a valid pattern, so compilation cannot fail
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(search))
}
