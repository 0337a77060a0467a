package dispatch

import "fmt"

// DefaultPageSize is the number of list lines shown per page
const DefaultPageSize = 20

// PageCount returns ceil(total / pageSize); an empty list still has one page
func PageCount(total, pageSize int) int {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// pageBounds clamps a page number to the list and returns the slice bounds
// for that page
func pageBounds(total, pageSize, page int) (start, end, pages int) {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	pages = PageCount(total, pageSize)
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start = (page - 1) * pageSize
	end = start + pageSize
	if end > total {
		end = total
	}
	return start, end, pages
}

// paginateLines slices a list of rendered lines down to one page and
// appends a navigation hint. The hint only appears when more pages follow;
// the last page never claims one.
func paginateLines(lines []string, pageSize, page int) []string {
	start, end, pages := pageBounds(len(lines), pageSize, page)
	if pages <= 1 {
		return lines
	}
	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}

	out := make([]string, 0, end-start+2)
	out = append(out, lines[start:end]...)
	out = append(out, fmt.Sprintf("Page %d of %d", page, pages))
	if page < pages {
		out = append(out, fmt.Sprintf("Send page: %d for more", page+1))
	}
	return out
}
