package dispatch

import (
	"fmt"
	"strings"
	"testing"
)

func numberedLines(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	return lines
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		total, pageSize, want int
	}{
		{0, 20, 1}, // an empty list still has one page
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{45, 20, 3},
		{45, 0, 3}, // bad page size falls back to the default
	}
	for _, tt := range tests {
		if got := PageCount(tt.total, tt.pageSize); got != tt.want {
			t.Errorf("PageCount(%d, %d) = %d, want %d", tt.total, tt.pageSize, got, tt.want)
		}
	}
}

func TestPaginateLinesSinglePageUntouched(t *testing.T) {
	lines := numberedLines(20)
	got := paginateLines(lines, 20, 1)
	if len(got) != 20 {
		t.Fatalf("single page grew to %d lines", len(got))
	}
	for _, line := range got {
		if strings.HasPrefix(line, "Page ") {
			t.Error("single page must not carry a page marker")
		}
	}
}

func TestPaginateLinesFirstPage(t *testing.T) {
	got := paginateLines(numberedLines(45), 20, 1)

	// 20 content lines, the page marker and the navigation hint
	if len(got) != 22 {
		t.Fatalf("first page has %d lines, want 22", len(got))
	}
	if got[0] != "line 1" || got[19] != "line 20" {
		t.Errorf("first page content = %q .. %q", got[0], got[19])
	}
	if got[20] != "Page 1 of 3" {
		t.Errorf("page marker = %q", got[20])
	}
	if got[21] != "Send page: 2 for more" {
		t.Errorf("navigation hint = %q", got[21])
	}
}

func TestPaginateLinesLastPageHasNoHint(t *testing.T) {
	got := paginateLines(numberedLines(45), 20, 3)

	if len(got) != 6 {
		t.Fatalf("last page has %d lines, want 5 content + marker", len(got))
	}
	if got[0] != "line 41" || got[4] != "line 45" {
		t.Errorf("last page content = %q .. %q", got[0], got[4])
	}
	if got[5] != "Page 3 of 3" {
		t.Errorf("page marker = %q", got[5])
	}
	for _, line := range got {
		if strings.HasPrefix(line, "Send page:") {
			t.Error("last page must never claim more pages")
		}
	}
}

func TestPaginateLinesClampsOutOfRangePage(t *testing.T) {
	// Beyond the end clamps to the last page
	got := paginateLines(numberedLines(45), 20, 99)
	if got[len(got)-1] != "Page 3 of 3" {
		t.Errorf("overflow page marker = %q", got[len(got)-1])
	}

	// Below the start clamps to the first
	got = paginateLines(numberedLines(45), 20, 0)
	if got[0] != "line 1" {
		t.Errorf("underflow first line = %q", got[0])
	}
}
