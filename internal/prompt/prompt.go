package prompt

import (
	"fmt"
	"strings"
)

const diseaseTemplate = `You are an expert agricultural assistant.
Answer only if the question is related to agriculture. Ignore other topics.

Provide detailed information about the following crop disease in proper markdown format:

**Disease Name:** %s

Please structure your response with clear markdown formatting:

## Cause
[Explain what causes this disease]

## Symptoms
- [List key symptoms with bullet points]
- [Include visual indicators]
- [Mention progression stages]

## Control Methods
### Cultural Control
- [List cultural practices]
- [Sanitation methods]

### Chemical Control
- [Recommended pesticides/fungicides]
- [Application methods]
- [Safety precautions]

## Prevention Advice
- [Preventive measures]
- [Best practices]
- [Resistant varieties if available]

## Treatment Recommendations
1. [Step-by-step treatment process]
2. [Timing considerations]
3. [Follow-up actions]

Please provide practical, actionable advice that farmers can implement immediately.`

const chatTemplate = `You are an expert agricultural assistant.
Only answer agricultural questions.

Question: %s

Respond in %s.`

// DefaultLanguage is used when the caller does not pick one.
const DefaultLanguage = "English"

// languages that get an explicit directive; anything else is left to the
// model's default.
var languages = map[string]string{
	"tamil":     "Tamil",
	"telugu":    "Telugu",
	"kannada":   "Kannada",
	"malayalam": "Malayalam",
}

// DisplayName turns a catalog label such as "Tomato___Late_blight" into
// "Tomato - Late blight".
func DisplayName(label string) string {
	return strings.ReplaceAll(strings.ReplaceAll(label, "___", " - "), "_", " ")
}

// LanguageDirective returns the "respond only in" clause for a recognized
// language, or "" for everything else including English.
func LanguageDirective(language string) string {
	name, ok := languages[strings.ToLower(strings.TrimSpace(language))]
	if !ok {
		return ""
	}
	return fmt.Sprintf("**Important:** Respond only in %s language.", name)
}

// DiseasePrompt builds the markdown report request for a predicted label.
func DiseasePrompt(label, language, followup string) string {
	var b strings.Builder
	fmt.Fprintf(&b, diseaseTemplate, DisplayName(label))

	if followup != "" {
		fmt.Fprintf(&b, "\n\n**Additional Question:** %s\n\nPlease also address this specific concern in your response.", followup)
	}
	if d := LanguageDirective(language); d != "" {
		b.WriteString("\n\n")
		b.WriteString(d)
	}

	return b.String()
}

// ChatPrompt builds the prompt for a free-form agricultural question.
func ChatPrompt(query, language string) string {
	if strings.TrimSpace(language) == "" {
		language = DefaultLanguage
	}
	return fmt.Sprintf(chatTemplate, query, language)
}
