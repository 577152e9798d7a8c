package bant

// Field identifies one qualification slot.
type Field string

const (
	FieldBudget    Field = "budget"
	FieldAuthority Field = "authority"
	FieldNeed      Field = "need"
	FieldTimeline  Field = "timeline"
	FieldContact   Field = "contact"
)

// CanonicalOrder is the asking order. Extraction may fill slots out of this
// order; questions are always picked from the first unfilled slot in it.
var CanonicalOrder = []Field{FieldBudget, FieldAuthority, FieldNeed, FieldTimeline, FieldContact}

var questions = map[Field]string{
	FieldBudget:    "What budget range do you have in mind for the property?",
	FieldAuthority: "Will you be the sole decision maker for this purchase, or will others be involved?",
	FieldNeed:      "Is this property for your own residence, an investment, or resale?",
	FieldTimeline:  "When are you planning to make the purchase?",
	FieldContact:   "Lastly, may I have your name and contact number so our agent can reach you?",
}

// Question returns the prompt used to ask for a given slot.
func Question(f Field) string {
	return questions[f]
}

const CompletionMessage = "Thank you! You're all set. One of our agents will be in touch with you shortly."
