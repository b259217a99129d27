package leave

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	emailPattern     = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	freeDatePattern  = regexp.MustCompile(`\b\d{2}-\d{2}-\d{4}\b`)
	dayCountPattern  = regexp.MustCompile(`(?i)\b(\d+)\s*days?\b`)
	numericPattern   = regexp.MustCompile(`^\d+$`)
	connectorPattern = regexp.MustCompile(`(?i)^(to|from|till|until|and|-)$`)
)

// Extraction is what ParseFreeform managed to pull out of a message.
type Extraction struct {
	Email  string      `json:"email,omitempty"`
	Fields DraftFields `json:"fields"`
}

// ParseFreeform pulls draft fields out of text such as
// "Asha, asha@example.com, 01-01-2026 to 03-01-2026, 3 days, family event".
// Connector words are only dropped at the edges of a comma segment, so
// "trip to Bali" survives as a description. It is best effort: anything it
// cannot place is left unset. Only a
// date-shaped substring that is not a real calendar date is an error.
func ParseFreeform(text string) (Extraction, error) {
	var out Extraction

	rest := text
	if loc := emailPattern.FindStringIndex(text); loc != nil {
		out.Email = strings.ToLower(text[loc[0]:loc[1]])
		if name := strings.TrimSpace(strings.ReplaceAll(text[:loc[0]], ",", "")); name != "" {
			out.Fields.Name = &name
		}
		rest = text[loc[1]:]
	}

	dates := freeDatePattern.FindAllString(text, -1)
	if len(dates) > 0 {
		start, err := ParseDate(FieldStartDate, dates[0])
		if err != nil {
			return Extraction{}, err
		}
		end := start
		if len(dates) > 1 {
			if end, err = ParseDate(FieldEndDate, dates[1]); err != nil {
				return Extraction{}, err
			}
		}
		out.Fields.StartDate = &start
		out.Fields.EndDate = &end
	}

	// a year followed by "day" must not read as a day count
	undated := freeDatePattern.ReplaceAllString(text, " ")
	if m := dayCountPattern.FindStringSubmatch(undated); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			out.Fields.Days = &n
		}
	}

	rest = freeDatePattern.ReplaceAllString(rest, " ")
	rest = dayCountPattern.ReplaceAllString(rest, " ")

	var kept []string
	for _, seg := range strings.Split(rest, ",") {
		words := strings.Fields(seg)
		for len(words) > 0 && connectorPattern.MatchString(words[0]) {
			words = words[1:]
		}
		for len(words) > 0 && connectorPattern.MatchString(words[len(words)-1]) {
			words = words[:len(words)-1]
		}
		if len(words) > 0 {
			kept = append(kept, strings.Join(words, " "))
		}
	}
	remainder := strings.Join(kept, ", ")

	switch {
	case remainder == "":
	case numericPattern.MatchString(remainder):
		if out.Fields.Days == nil {
			if n, err := strconv.Atoi(remainder); err == nil {
				out.Fields.Days = &n
			}
		}
	default:
		out.Fields.Description = &remainder
	}

	if out.Fields.Days == nil && out.Fields.StartDate != nil {
		if n := DaysBetween(*out.Fields.StartDate, *out.Fields.EndDate); n > 0 {
			out.Fields.Days = &n
		}
	}

	return out, nil
}
