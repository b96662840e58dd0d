package pagemap

import "github.com/joshuapare/memkit/internal/buf"

func roundToPage(n int) int {
	return buf.AlignUp(n, PageSize())
}
