// Package format turns normalized record values into display strings and
// form-input strings. Every function is total: nil, empty and unparseable
// inputs produce a placeholder or pass through instead of failing.
package format

import (
	"fmt"
	"html"
	"html/template"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/goccy/go-json"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Placeholder is displayed for missing values and dangling references.
const Placeholder = "N/A"

const (
	DateLayout      = "2006-01-02"
	DateTimeLayout  = "2006-01-02T15:04:05"
	displayDate     = "1/2/2006"
	displayDateTime = "1/2/2006, 3:04:05 PM"
)

// parseLayouts lists the wire shapes the airline API has been seen to emit.
var parseLayouts = []string{
	DateTimeLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.RFC1123,
	time.RFC1123Z,
	DateLayout,
}

var printer = message.NewPrinter(language.AmericanEnglish)

// ParseTime parses any known date or date-time wire shape.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Date renders v as M/D/YYYY.
func Date(v any) string {
	s := Text(v)
	if s == "" {
		return Placeholder
	}
	t, ok := ParseTime(s)
	if !ok {
		return s
	}
	return t.Format(displayDate)
}

// DateTime renders v as M/D/YYYY, h:mm:ss AM.
func DateTime(v any) string {
	s := Text(v)
	if s == "" {
		return Placeholder
	}
	t, ok := ParseTime(s)
	if !ok {
		return s
	}
	return t.Format(displayDateTime)
}

// Currency renders v as a dollar amount with grouping, e.g. $1,234.5.
func Currency(v any) string {
	f, ok := Float(v)
	if !ok {
		return Placeholder
	}
	return "$" + printer.Sprint(number.Decimal(f, number.MaxFractionDigits(2)))
}

// Hours renders flight hours with grouping, e.g. 1,250.5 hrs.
func Hours(v any) string {
	f, ok := Float(v)
	if !ok {
		f = 0
	}
	return printer.Sprint(number.Decimal(f, number.MaxFractionDigits(2))) + " hrs"
}

// Integer renders a whole number with grouping.
func Integer(v any) string {
	f, ok := Float(v)
	if !ok {
		return Placeholder
	}
	return printer.Sprint(number.Decimal(f, number.MaxFractionDigits(0)))
}

// Decimal renders a number with up to 2 fraction digits and grouping.
func Decimal(v any) string {
	f, ok := Float(v)
	if !ok {
		return Placeholder
	}
	return printer.Sprint(number.Decimal(f, number.MaxFractionDigits(2)))
}

// OrPlaceholder renders v as text or the placeholder when empty.
func OrPlaceholder(v any) string {
	if s := Text(v); s != "" {
		return s
	}
	return Placeholder
}

// ToDateInput maps v to a YYYY-MM-DD string for <input type="date">.
// Values already in that shape pass through; unparseable values yield "".
func ToDateInput(v any) string {
	s := strings.TrimSpace(Text(v))
	if s == "" {
		return ""
	}
	if _, err := time.Parse(DateLayout, s); err == nil {
		return s
	}
	t, ok := ParseTime(s)
	if !ok {
		return ""
	}
	return t.Format(DateLayout)
}

// ToDateTimeInput maps v to YYYY-MM-DDTHH:MM:SS for <input type="datetime-local">.
func ToDateTimeInput(v any) string {
	s := strings.TrimSpace(Text(v))
	if s == "" {
		return ""
	}
	t, ok := ParseTime(s)
	if !ok {
		return ""
	}
	return t.Format(DateTimeLayout)
}

// EscapeHTML escapes untrusted text for embedding in markup.
func EscapeHTML(v any) string {
	return html.EscapeString(Text(v))
}

// Badge renders a status badge span using the given CSS class.
func Badge(label, class string) template.HTML {
	if label == "" {
		label = Placeholder
	}
	return template.HTML(fmt.Sprintf(`<span class="status-badge %s">%s</span>`,
		html.EscapeString(class), html.EscapeString(label)))
}

// Slug lowercases s, splits camel-case words and collapses every run of
// characters outside [A-Za-z0-9] to one hyphen, so "InProgress",
// "In Progress" and "in_progress" all become "in-progress".
func Slug(s string) string {
	var b strings.Builder
	runes := []rune(strings.TrimSpace(s))
	pendingHyphen := false
	for i, r := range runes {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if unicode.IsUpper(r) && i > 0 && unicode.IsLower(runes[i-1]) {
				pendingHyphen = true
			}
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}

// Text renders a scalar as plain text. nil becomes "".
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// Float extracts a finite number from v; strings are parsed.
func Float(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int64:
		f = float64(t)
	case int:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
