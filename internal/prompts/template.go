package prompts

import "strings"

// Input carries everything a reading prompt can reference about the buyer.
type Input struct {
	Name     string
	Age      string
	Question string
	Raw      string
}

// Stored templates keep the placeholder syntax of the original prompt files,
// so templates edited by hand stay portable.
const (
	placeholderName     = "${input.name ?? 'not provided'}"
	placeholderAge      = "${input.age ?? 'not provided'}"
	placeholderQuestion = "${input.question ?? 'not clearly stated'}"
	placeholderRaw      = "${input.rawPersonalization ?? ''}"
)

// RenderTemplate substitutes buyer details into a stored template. Empty
// fields fall back to the same defaults the placeholders spell out.
func RenderTemplate(template string, in Input) string {
	name := in.Name
	if name == "" {
		name = "not provided"
	}
	age := in.Age
	if age == "" {
		age = "not provided"
	}
	question := in.Question
	if question == "" {
		question = "not clearly stated"
	}

	replacer := strings.NewReplacer(
		placeholderName, name,
		placeholderAge, age,
		placeholderQuestion, question,
		placeholderRaw, in.Raw,
	)
	return replacer.Replace(template)
}
