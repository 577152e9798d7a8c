package bant

import (
	"regexp"
	"strings"
)

// MatchContext carries what the system last asked, used to disambiguate
// short replies ("yes", "soon", "me") that are meaningless on their own.
type MatchContext struct {
	LastQuestion Field // empty when no question is pending
}

// FieldMatch is one extracted slot candidate with the literal fragment that
// produced it.
type FieldMatch struct {
	Field      Field
	Value      string
	Confidence float64
}

// Classification is the result of the fast pattern path for one message.
type Classification struct {
	IsAnswer bool
	Matches  []FieldMatch
}

// ConfidenceFloor is the minimum confidence a match must carry to be
// reported at all. Calibrated against the scenario corpus in the tests.
const ConfidenceFloor = 0.5

// ---------- package-level compiled regexes ----------

var (
	currencyAmountRE = regexp.MustCompile(`(?i)(?:php|₱|\$)?\s*\d+(?:[.,]\d+)?\s*(?:m\b|mn\b|million|k\b|thousand|b\b|billion)`)
	amountRangeRE    = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:m\b|mn\b|million)?\s*(?:-|–|—|\bto\b)\s*\d+(?:\.\d+)?\s*(?:m\b|mn\b|million|k\b|thousand)`)
	longNumberRE     = regexp.MustCompile(`\b\d{1,3}(?:,\d{3}){2,}\b|\b\d{7,9}\b`)
	budgetWordRE     = regexp.MustCompile(`(?i)\b(?:budget|afford|spend|price range|willing to pay)\b`)
	bareNumberRE     = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:m\b|mn\b|million|k\b)?`)

	soleAuthorityRE  = regexp.MustCompile(`(?i)\b(?:sole decision|decide (?:this )?alone|only me|just me|i decide|my decision|i'?m the (?:sole )?decision\s?maker|i am the (?:sole )?decision\s?maker|by myself|on my own)\b`)
	jointAuthorityRE = regexp.MustCompile(`(?i)\b(?:my (?:wife|husband|spouse|partner|family|parents)|wife and i|husband and i|we(?:'ll| will)? decide|joint decision|decide together|together with|consult(?:ing)? (?:with )?my|our decision|family decision)\b`)

	residenceRE  = regexp.MustCompile(`(?i)\b(?:personal residence|own use|for us to live|live in it|living in it|to live in|family home|our (?:own )?home|move in|end\s?use|primary home|residence)\b`)
	investmentRE = regexp.MustCompile(`(?i)\b(?:invest(?:ment)?|rental|rent (?:it |them )?out|passive income|airbnb|lease (?:it )?out|income property)\b`)
	resaleRE     = regexp.MustCompile(`(?i)\b(?:resale|resell|flip(?:ping)?|sell (?:it )?(?:later|afterwards|after))\b`)

	urgentTimelineRE = regexp.MustCompile(`(?i)\b(?:asap|as soon as possible|immediately|right away|this month|within (?:a|1|one) month|next week|this week|urgent)\b`)
	monthsTimelineRE = regexp.MustCompile(`(?i)\b(?:within|in|after|next)?\s*\d+\s*(?:-|to)?\s*\d*\s*months?\b`)
	laterTimelineRE  = regexp.MustCompile(`(?i)\b(?:next year|half a year|no rush|not (?:anytime|any time) soon|eventually|sometime next)\b`)

	phoneRE = regexp.MustCompile(`(?:\+?\d{1,3}[\s.-]?)?(?:\(?\d{2,4}\)?[\s.-]?)?\d{3,4}[\s.-]?\d{4}\b`)
	emailRE = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	nameRE  = regexp.MustCompile(`(?i)(?:my name is|i'?m|this is|i am)\s+([\p{L}][\p{L}'-]*(?:\s+[\p{L}][\p{L}'-]*){0,2})`)

	shortAffirmativeRE = regexp.MustCompile(`(?i)^\s*(?:yes|yeah|yep|yup|sure|correct|of course|ok|okay|no|nope|me|alone|just me|soon|later|flexible)[\s.!,]*$`)
	greetingRE         = regexp.MustCompile(`(?i)^\s*(?:hi|hello|hey|good (?:morning|afternoon|evening)|kumusta|magandang \w+)[\s!.,]*$`)
)

// digitCount is used to tell phone numbers apart from budget figures.
func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// ---------- typed matchers ----------

// fieldMatcher inspects one message for one field. Matchers are composed
// collect-all so a single message can satisfy several slots at once.
type fieldMatcher interface {
	tryMatch(text string, ctx MatchContext) *FieldMatch
}

type contactMatcher struct{}

func (contactMatcher) tryMatch(text string, ctx MatchContext) *FieldMatch {
	if m := emailRE.FindString(text); m != "" {
		return &FieldMatch{Field: FieldContact, Value: strings.TrimSpace(text), Confidence: 0.95}
	}
	if m := phoneRE.FindString(text); m != "" && digitCount(m) >= 10 {
		return &FieldMatch{Field: FieldContact, Value: strings.TrimSpace(text), Confidence: 0.95}
	}
	if ctx.LastQuestion == FieldContact {
		if m := nameRE.FindStringSubmatch(text); len(m) > 1 {
			return &FieldMatch{Field: FieldContact, Value: strings.TrimSpace(text), Confidence: 0.7}
		}
	}
	return nil
}

type budgetMatcher struct{}

func (budgetMatcher) tryMatch(text string, ctx MatchContext) *FieldMatch {
	if m := amountRangeRE.FindString(text); m != "" {
		return &FieldMatch{Field: FieldBudget, Value: strings.TrimSpace(m), Confidence: 0.9}
	}
	if m := currencyAmountRE.FindString(text); m != "" {
		return &FieldMatch{Field: FieldBudget, Value: strings.TrimSpace(m), Confidence: 0.9}
	}
	if m := longNumberRE.FindString(text); m != "" {
		return &FieldMatch{Field: FieldBudget, Value: m, Confidence: 0.85}
	}
	if budgetWordRE.MatchString(text) {
		if m := bareNumberRE.FindString(text); m != "" {
			return &FieldMatch{Field: FieldBudget, Value: strings.TrimSpace(m), Confidence: 0.7}
		}
	}
	if ctx.LastQuestion == FieldBudget && !strings.Contains(text, "?") {
		if m := bareNumberRE.FindString(text); m != "" {
			return &FieldMatch{Field: FieldBudget, Value: strings.TrimSpace(m), Confidence: 0.6}
		}
	}
	return nil
}

type authorityMatcher struct{}

func (authorityMatcher) tryMatch(text string, ctx MatchContext) *FieldMatch {
	if m := soleAuthorityRE.FindString(text); m != "" {
		return &FieldMatch{Field: FieldAuthority, Value: strings.TrimSpace(text), Confidence: 0.9}
	}
	if m := jointAuthorityRE.FindString(text); m != "" {
		return &FieldMatch{Field: FieldAuthority, Value: strings.TrimSpace(text), Confidence: 0.85}
	}
	return nil
}

type needMatcher struct{}

func (needMatcher) tryMatch(text string, ctx MatchContext) *FieldMatch {
	for _, re := range []*regexp.Regexp{residenceRE, investmentRE, resaleRE} {
		if re.MatchString(text) {
			return &FieldMatch{Field: FieldNeed, Value: strings.TrimSpace(text), Confidence: 0.85}
		}
	}
	return nil
}

type timelineMatcher struct{}

func (timelineMatcher) tryMatch(text string, ctx MatchContext) *FieldMatch {
	if urgentTimelineRE.MatchString(text) {
		return &FieldMatch{Field: FieldTimeline, Value: strings.TrimSpace(text), Confidence: 0.9}
	}
	if m := monthsTimelineRE.FindString(text); m != "" {
		return &FieldMatch{Field: FieldTimeline, Value: strings.TrimSpace(m), Confidence: 0.85}
	}
	if laterTimelineRE.MatchString(text) {
		return &FieldMatch{Field: FieldTimeline, Value: strings.TrimSpace(text), Confidence: 0.8}
	}
	return nil
}

// shortReplyMatcher resolves one-word answers against the pending question.
// It only runs when nothing else matched.
type shortReplyMatcher struct{}

func (shortReplyMatcher) tryMatch(text string, ctx MatchContext) *FieldMatch {
	// contact requires phone/email/name evidence; a bare "yes" is never that
	if ctx.LastQuestion == "" || ctx.LastQuestion == FieldContact {
		return nil
	}
	trimmed := strings.TrimSpace(text)
	if strings.Contains(trimmed, "?") || greetingRE.MatchString(trimmed) {
		return nil
	}
	if !shortAffirmativeRE.MatchString(trimmed) && len(strings.Fields(trimmed)) > 3 {
		return nil
	}
	return &FieldMatch{Field: ctx.LastQuestion, Value: trimmed, Confidence: 0.6}
}

var matchers = []fieldMatcher{
	contactMatcher{},
	budgetMatcher{},
	authorityMatcher{},
	needMatcher{},
	timelineMatcher{},
}

// Classify runs the ordered matcher battery over one message. Pure function:
// the same message and context always produce the same result.
func Classify(message string, ctx MatchContext) Classification {
	var out Classification
	text := message

	seen := map[Field]bool{}
	for _, m := range matchers {
		fm := m.tryMatch(text, ctx)
		if fm == nil || fm.Confidence < ConfidenceFloor || seen[fm.Field] {
			continue
		}
		seen[fm.Field] = true
		out.Matches = append(out.Matches, *fm)
		// A matched contact fragment must not be re-read as a budget figure.
		if fm.Field == FieldContact {
			if p := phoneRE.FindString(text); p != "" && digitCount(p) >= 10 {
				text = strings.Replace(text, p, "", 1)
			}
			if e := emailRE.FindString(text); e != "" {
				text = strings.Replace(text, e, "", 1)
			}
		}
	}

	if len(out.Matches) == 0 {
		if fm := (shortReplyMatcher{}).tryMatch(message, ctx); fm != nil && fm.Confidence >= ConfidenceFloor {
			out.Matches = append(out.Matches, *fm)
		}
	}

	out.IsAnswer = len(out.Matches) > 0
	return out
}

// IsGreeting reports whether the message is a bare salutation.
func IsGreeting(message string) bool {
	return greetingRE.MatchString(message)
}
