package archive

import (
	"fmt"
	"strings"
	"time"

	"github.com/pders01/daybook/internal/storage"
)

var weatherNames = map[int]string{
	1: "sunny",
	2: "cloudy",
	3: "rainy",
	4: "snowy",
	5: "windy",
	6: "foggy",
}

// WeatherName returns the label for a stored weather code, or "" for none.
func WeatherName(code int) string {
	return weatherNames[code]
}

// Markdown renders one day for the reader view and markdown export.
func Markdown(r *storage.Record) string {
	var b strings.Builder

	heading := r.Date
	if t, err := time.Parse(storage.DateLayout, r.Date); err == nil {
		heading = t.Format("Monday, January 2, 2006")
	}
	fmt.Fprintf(&b, "# %s\n\n", heading)
	if r.Title != "" {
		fmt.Fprintf(&b, "## %s\n\n", r.Title)
	}
	if w := WeatherName(r.Weather); w != "" {
		fmt.Fprintf(&b, "*Weather: %s*\n\n", w)
	}

	for i, it := range r.Items {
		if it.Title == "" && it.Comment == "" {
			continue
		}
		title := it.Title
		if title == "" {
			title = fmt.Sprintf("Item %d", i+1)
		}
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, title)
		if it.Comment != "" {
			fmt.Fprintf(&b, "%s\n\n", it.Comment)
		}
	}

	if r.Attachment != "" {
		fmt.Fprintf(&b, "Attachment: `%s`\n", r.Attachment)
	}
	return b.String()
}
