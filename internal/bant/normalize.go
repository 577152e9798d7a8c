package bant

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/marwie0904/leadify-RE-APP-sub001/internal/models"
)

// Closed output domains required by storage. Anything outside these is a
// defect and must never be written.
var (
	BudgetDomain    = []string{"low", "medium", "high"}
	AuthorityDomain = []string{"individual", "shared"}
	NeedDomain      = []string{"residence", "investment", "resale"}
	TimelineDomain  = []string{"1m", "1-3m", "3-6m", "6m+"}
)

// Budget bands, in millions. Ranges resolve to the upper bound first so a
// "30-50M" answer classifies as high, never under-classifying potential.
const (
	budgetHighMillions   = 30
	budgetMediumMillions = 10
)

var (
	amountTokenRE = regexp.MustCompile(`(?i)(\d+(?:,\d{3})*(?:\.\d+)?)\s*(m\b|mn\b|million|k\b|thousand|b\b|billion)?`)

	affirmativeRE = regexp.MustCompile(`(?i)^\s*(?:yes|yeah|yep|yup|sure|correct|of course|definitely)\b`)
	negativeRE    = regexp.MustCompile(`(?i)^\s*(?:no|nope|not really)\b`)

	selfReplyRE     = regexp.MustCompile(`(?i)^\s*(?:me|alone|just me|myself)\b`)
	personalUseRE   = regexp.MustCompile(`(?i)\b(?:personal|own|for (?:me|us|my family)|home)\b`)
	soonReplyRE     = regexp.MustCompile(`(?i)\bsoon\b`)
	halfYearReplyRE = regexp.MustCompile(`(?i)\bhalf a year\b`)
)

func InDomain(f Field, value string) bool {
	var domain []string
	switch f {
	case FieldBudget:
		domain = BudgetDomain
	case FieldAuthority:
		domain = AuthorityDomain
	case FieldNeed:
		domain = NeedDomain
	case FieldTimeline:
		domain = TimelineDomain
	default:
		return false
	}
	for _, d := range domain {
		if value == d {
			return true
		}
	}
	return false
}

// Sanitize drops any out-of-domain field from a normalization result and
// reports which fields were defective.
func Sanitize(n models.NormalizedBANT) (models.NormalizedBANT, []Field) {
	var defects []Field
	check := func(f Field, v **string) {
		if *v != nil && !InDomain(f, **v) {
			*v = nil
			defects = append(defects, f)
		}
	}
	check(FieldBudget, &n.Budget)
	check(FieldAuthority, &n.Authority)
	check(FieldNeed, &n.Need)
	check(FieldTimeline, &n.Timeline)
	return n, defects
}

// Fallback maps raw slot text onto the enum domains with deterministic rules
// only. It backs up the model call and must agree with it on the scenario
// corpus.
func Fallback(raw models.BANTState) models.NormalizedBANT {
	var n models.NormalizedBANT
	if raw.Budget != nil {
		n.Budget = NormalizeBudget(*raw.Budget)
	}
	if raw.Authority != nil {
		n.Authority = NormalizeAuthority(*raw.Authority)
	}
	if raw.Need != nil {
		n.Need = NormalizeNeed(*raw.Need)
	}
	if raw.Timeline != nil {
		n.Timeline = NormalizeTimeline(*raw.Timeline)
	}
	return n
}

// Merge overlays the model result onto the fallback result field by field,
// preferring the model where it produced a valid value.
func MergeNormalized(model, fallback models.NormalizedBANT) models.NormalizedBANT {
	pick := func(a, b *string) *string {
		if a != nil {
			return a
		}
		return b
	}
	return models.NormalizedBANT{
		Budget:    pick(model.Budget, fallback.Budget),
		Authority: pick(model.Authority, fallback.Authority),
		Need:      pick(model.Need, fallback.Need),
		Timeline:  pick(model.Timeline, fallback.Timeline),
	}
}

// NormalizeBudget reads every amount in the text, resolves it to millions,
// and bands the upper bound.
func NormalizeBudget(raw string) *string {
	best := 0.0
	for _, m := range amountTokenRE.FindAllStringSubmatch(raw, -1) {
		numText := strings.ReplaceAll(m[1], ",", "")
		v, err := strconv.ParseFloat(numText, 64)
		if err != nil {
			continue
		}
		unit := strings.ToLower(strings.TrimSpace(m[2]))
		switch unit {
		case "m", "mn", "million":
			// already millions
		case "k", "thousand":
			v /= 1000
		case "b", "billion":
			v *= 1000
		default:
			switch {
			case v >= 1_000_000:
				v /= 1_000_000
			case v >= 1000:
				v /= 1_000_000
			}
			// small bare numbers are read as millions, the convention in
			// property budget answers ("around 15" means 15M)
		}
		if v > best {
			best = v
		}
	}
	if best <= 0 {
		return nil
	}
	band := "low"
	switch {
	case best >= budgetHighMillions:
		band = "high"
	case best >= budgetMediumMillions:
		band = "medium"
	}
	return &band
}

func NormalizeAuthority(raw string) *string {
	v := ""
	switch {
	case soleAuthorityRE.MatchString(raw):
		v = "individual"
	case jointAuthorityRE.MatchString(raw):
		v = "shared"
	case affirmativeRE.MatchString(raw):
		// affirmative reply to "are you the sole decision maker?"
		v = "individual"
	case negativeRE.MatchString(raw):
		v = "shared"
	case selfReplyRE.MatchString(raw):
		v = "individual"
	}
	if v == "" {
		return nil
	}
	return &v
}

func NormalizeNeed(raw string) *string {
	v := ""
	switch {
	case investmentRE.MatchString(raw):
		v = "investment"
	case resaleRE.MatchString(raw):
		v = "resale"
	case residenceRE.MatchString(raw):
		v = "residence"
	case personalUseRE.MatchString(raw):
		v = "residence"
	}
	if v == "" {
		return nil
	}
	return &v
}

var monthsNumberRE = regexp.MustCompile(`(?i)(\d+)\s*(?:-|to)?\s*(\d*)\s*months?`)

func NormalizeTimeline(raw string) *string {
	v := ""
	if m := monthsNumberRE.FindStringSubmatch(raw); m != nil {
		upper, _ := strconv.Atoi(m[1])
		if m[2] != "" {
			if u, err := strconv.Atoi(m[2]); err == nil && u > upper {
				upper = u
			}
		}
		switch {
		case upper <= 1:
			v = "1m"
		case upper <= 3:
			v = "1-3m"
		case upper <= 6:
			v = "3-6m"
		default:
			v = "6m+"
		}
	} else {
		switch {
		case urgentTimelineRE.MatchString(raw):
			v = "1m"
		case halfYearReplyRE.MatchString(raw):
			v = "3-6m"
		case laterTimelineRE.MatchString(raw):
			v = "6m+"
		case soonReplyRE.MatchString(raw):
			v = "1-3m"
		}
	}
	if v == "" {
		return nil
	}
	return &v
}

// Contact holds the pieces parsed out of a raw contact answer.
type Contact struct {
	Name  string
	Phone string
	Email string
}

var nameSeparatorRE = regexp.MustCompile(`[,;|]+`)

// ParseContact splits "John Doe, 09171234567" style answers into fields.
func ParseContact(raw string) Contact {
	var c Contact
	rest := raw
	if e := emailRE.FindString(rest); e != "" {
		c.Email = e
		rest = strings.Replace(rest, e, "", 1)
	}
	if p := phoneRE.FindString(rest); p != "" && digitCount(p) >= 10 {
		c.Phone = strings.TrimSpace(p)
		rest = strings.Replace(rest, p, "", 1)
	}
	if m := nameRE.FindStringSubmatch(rest); len(m) > 1 {
		c.Name = strings.TrimSpace(m[1])
		return c
	}
	rest = nameSeparatorRE.ReplaceAllString(rest, " ")
	words := strings.Fields(strings.Trim(rest, " .,!-"))
	if len(words) >= 1 && len(words) <= 4 {
		c.Name = strings.Join(words, " ")
	}
	return c
}
