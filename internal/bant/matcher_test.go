package bant

import "testing"

func matchFor(t *testing.T, c Classification, f Field) FieldMatch {
	t.Helper()
	for _, m := range c.Matches {
		if m.Field == f {
			return m
		}
	}
	t.Fatalf("no match for field %s in %+v", f, c.Matches)
	return FieldMatch{}
}

func hasField(c Classification, f Field) bool {
	for _, m := range c.Matches {
		if m.Field == f {
			return true
		}
	}
	return false
}

func TestClassify_BudgetRange(t *testing.T) {
	c := Classify("50-60M", MatchContext{LastQuestion: FieldBudget})
	if !c.IsAnswer {
		t.Fatalf("expected answer classification")
	}
	m := matchFor(t, c, FieldBudget)
	if m.Value != "50-60M" {
		t.Fatalf("expected literal range captured, got %q", m.Value)
	}
}

func TestClassify_MultiFieldSingleMessage(t *testing.T) {
	c := Classify("My budget is 12M and I decide alone, for investment", MatchContext{})
	if !hasField(c, FieldBudget) {
		t.Fatalf("expected budget match: %+v", c.Matches)
	}
	if !hasField(c, FieldAuthority) {
		t.Fatalf("expected authority match: %+v", c.Matches)
	}
	if !hasField(c, FieldNeed) {
		t.Fatalf("expected need match: %+v", c.Matches)
	}
}

func TestClassify_ShortReplyUsesLastQuestion(t *testing.T) {
	c := Classify("yes", MatchContext{LastQuestion: FieldAuthority})
	if !c.IsAnswer {
		t.Fatalf("expected short reply to resolve against pending question")
	}
	m := matchFor(t, c, FieldAuthority)
	if m.Confidence < ConfidenceFloor {
		t.Fatalf("short reply confidence %v below floor", m.Confidence)
	}
}

func TestClassify_ShortReplyNeverFillsContact(t *testing.T) {
	c := Classify("yes", MatchContext{LastQuestion: FieldContact})
	if c.IsAnswer {
		t.Fatalf("bare affirmation must not stand in for contact details: %+v", c.Matches)
	}
}

func TestClassify_ShortReplyWithoutContext(t *testing.T) {
	c := Classify("yes", MatchContext{})
	if c.IsAnswer {
		t.Fatalf("bare yes with no pending question must not match: %+v", c.Matches)
	}
}

func TestClassify_GreetingIsNotAnAnswer(t *testing.T) {
	if !IsGreeting("Hello!") {
		t.Fatalf("expected greeting detection")
	}
	c := Classify("Hello!", MatchContext{LastQuestion: FieldBudget})
	if c.IsAnswer {
		t.Fatalf("greeting must not fill a slot: %+v", c.Matches)
	}
}

func TestClassify_QuestionDigitsDoNotFillBudget(t *testing.T) {
	c := Classify("How much is a 3 bedroom unit?", MatchContext{LastQuestion: FieldBudget})
	if hasField(c, FieldBudget) {
		t.Fatalf("digits inside a buyer question must not become the budget: %+v", c.Matches)
	}
}

func TestClassify_PhoneIsContactNotBudget(t *testing.T) {
	c := Classify("John Doe, 09171234567", MatchContext{LastQuestion: FieldContact})
	if !hasField(c, FieldContact) {
		t.Fatalf("expected contact match: %+v", c.Matches)
	}
	if hasField(c, FieldBudget) {
		t.Fatalf("phone number must not be re-read as a budget figure: %+v", c.Matches)
	}
}

func TestClassify_EmailContact(t *testing.T) {
	c := Classify("you can reach me at maria@example.com", MatchContext{})
	if !hasField(c, FieldContact) {
		t.Fatalf("expected contact match from email: %+v", c.Matches)
	}
}

func TestClassify_NameAloneNeedsContactContext(t *testing.T) {
	if hasField(Classify("I'm Maria Santos", MatchContext{}), FieldContact) {
		t.Fatalf("bare name without pending contact question must not match")
	}
	if !hasField(Classify("I'm Maria Santos", MatchContext{LastQuestion: FieldContact}), FieldContact) {
		t.Fatalf("name must match when contact was just asked")
	}
}

func TestClassify_TimelinePhrases(t *testing.T) {
	for _, text := range []string{"Within 3 months", "asap", "sometime next year"} {
		if !hasField(Classify(text, MatchContext{}), FieldTimeline) {
			t.Fatalf("expected timeline match for %q", text)
		}
	}
}

func TestClassify_AuthorityPhrases(t *testing.T) {
	if !hasField(Classify("Yes, I am the sole decision maker", MatchContext{}), FieldAuthority) {
		t.Fatalf("expected sole authority match")
	}
	if !hasField(Classify("My wife and I will decide together", MatchContext{}), FieldAuthority) {
		t.Fatalf("expected joint authority match")
	}
}
