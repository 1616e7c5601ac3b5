package retrieval

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

var (
	yearPattern  = regexp.MustCompile(`(\d{4})年`)
	monthPattern = regexp.MustCompile(`(\d{1,2})月`)
	dayPattern   = regexp.MustCompile(`(\d{1,2})日`)
	slashPattern = regexp.MustCompile(`(\d{1,2})/(\d{1,2})`)
)

// DateTier is the specificity level a date query resolved to.
type DateTier int

const (
	TierNone DateTier = iota
	TierFullDate
	TierMonthDay
	TierSlash
	TierMonth
)

func (t DateTier) String() string {
	switch t {
	case TierFullDate:
		return "year-month-day"
	case TierMonthDay:
		return "month-day"
	case TierSlash:
		return "slash"
	case TierMonth:
		return "month"
	default:
		return "none"
	}
}

// DateQuery holds the calendar fragments found in a query. The Has flags
// record presence; a fragment that parses to 0 is present but matches no
// post.
type DateQuery struct {
	Year, Month, Day     int
	SlashMonth, SlashDay int

	HasYear, HasMonth, HasDay, HasSlash bool
}

// ParseDateQuery extracts each fragment independently, first match wins.
// Full-width digits are folded to ASCII before matching.
func ParseDateQuery(query string) DateQuery {
	q := width.Fold.String(query)
	var dq DateQuery
	dq.Year, dq.HasYear = firstNumber(yearPattern, q)
	dq.Month, dq.HasMonth = firstNumber(monthPattern, q)
	dq.Day, dq.HasDay = firstNumber(dayPattern, q)
	if m := slashPattern.FindStringSubmatch(q); m != nil {
		dq.SlashMonth, _ = strconv.Atoi(m[1])
		dq.SlashDay, _ = strconv.Atoi(m[2])
		dq.HasSlash = true
	}
	return dq
}

func firstNumber(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, _ := strconv.Atoi(m[1])
	return n, true
}

// Tier picks the most specific tier the present fragments satisfy.
func (q DateQuery) Tier() DateTier {
	switch {
	case q.HasYear && q.HasMonth && q.HasDay:
		return TierFullDate
	case q.HasMonth && q.HasDay:
		return TierMonthDay
	case q.HasSlash:
		return TierSlash
	case q.HasMonth:
		return TierMonth
	default:
		return TierNone
	}
}

// matcher returns the predicate for the query's tier, or nil for TierNone.
func (q DateQuery) matcher() func(date string) bool {
	switch q.Tier() {
	case TierFullDate:
		want := fmt.Sprintf("%04d.%02d.%02d", q.Year, q.Month, q.Day)
		return func(date string) bool { return date == want }
	case TierMonthDay:
		want := fmt.Sprintf(".%02d.%02d", q.Month, q.Day)
		return func(date string) bool { return strings.Contains(date, want) }
	case TierSlash:
		want := fmt.Sprintf(".%02d.%02d", q.SlashMonth, q.SlashDay)
		return func(date string) bool { return strings.Contains(date, want) }
	case TierMonth:
		want := fmt.Sprintf(".%02d.", q.Month)
		return func(date string) bool { return strings.Contains(date, want) }
	default:
		return nil
	}
}

// MatchDate returns documents whose date matches the query's most specific
// tier, in corpus order, capped at maxResults. Lower tiers are not consulted
// when the chosen tier finds nothing.
func MatchDate(query string, docs []Document, maxResults int) []Document {
	match := ParseDateQuery(query).matcher()
	if match == nil {
		return nil
	}
	var out []Document
	for _, d := range docs {
		if d.Date == "" || !match(d.Date) {
			continue
		}
		out = append(out, d)
		if maxResults > 0 && len(out) == maxResults {
			break
		}
	}
	return out
}
