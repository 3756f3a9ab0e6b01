package round

import (
	"fmt"
	"strings"

	"github.com/fenrisbot/fenris/internal/roles"
)

// Reaction emojis understood by the round and wizard machines.
const (
	ReactEntry    = "✅"
	ReactConfirm  = "🆗"
	ReactStop     = "🛑"
	ReactNextPage = "👉"
	ReactPrevPage = "👈"
	ReactYes      = "👍"
	ReactNo       = "👎"
)

// pageSize is the number of role emojis that fit on one page of the
// selection message, leaving room for the navigation and confirm
// reactions within the platform's per-message reaction limit.
const pageSize = 17

// isLastPage reports whether the given page is the last one for the
// role selection.
func isLastPage(roleCount, page int) bool {
	if roleCount == 0 {
		return true
	}
	return page >= (roleCount-1)/pageSize
}

// pageReactions builds the reaction set for one page of the role
// selection: a back button on every page but the first, up to pageSize
// role emojis, a forward button on every page but the last, and the
// confirm button on all of them.
func pageReactions(all []roles.Config, page int) []string {
	var result []string

	if page > 0 {
		result = append(result, ReactPrevPage)
	}

	for i := 0; i < pageSize; i++ {
		index := i + page*pageSize
		if index >= len(all) {
			break
		}
		result = append(result, all[index].Emoji)
	}

	if !isLastPage(len(all), page) {
		result = append(result, ReactNextPage)
	}

	result = append(result, ReactConfirm)
	return result
}

// selectContent renders the role selection message. The full list is
// always shown; only the reactions are paginated.
func selectContent(all []roles.Config) string {
	var b strings.Builder
	b.WriteString("Select all the Roles for the Round\n")
	for _, cfg := range all {
		fmt.Fprintf(&b, "%s: %s\n", cfg.Emoji, cfg.Name)
	}
	fmt.Fprintf(&b, "\nUse %s and %s to navigate between the Pages", ReactPrevPage, ReactNextPage)
	return b.String()
}
