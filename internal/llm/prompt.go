package llm

import "strings"

// ContextTurn is one prior exchange included in a prompt.
type ContextTurn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// Disclaimer is prepended to generated medical content unless the caller
// suppresses it.
const Disclaimer = "**IMPORTANT MEDICAL DISCLAIMER:** This response is for informational purposes only " +
	"and should not be considered as professional medical advice, diagnosis, or treatment. " +
	"Always consult with a qualified healthcare provider for medical concerns.\n\n"

// FallbackMessage is the degraded response when the inference service fails.
const FallbackMessage = "I'm currently unable to process your request. " +
	"For medical concerns, please consult with a healthcare professional. " +
	"You can also try again later when the AI service is available."

const safeRedirect = "I understand you're seeking medical information. " +
	"For your safety, I recommend discussing your specific concerns with a " +
	"qualified healthcare provider who can provide personalized medical advice."

const medicalSystemPrompt = `You are a medical AI assistant designed to provide helpful, accurate, and safe medical information. Always follow these guidelines:

1. Provide informational content only, never diagnose or prescribe
2. Always encourage users to consult healthcare professionals for serious concerns
3. Be conservative and err on the side of caution
4. Acknowledge limitations and uncertainties
5. Focus on general health education and guidance
6. Flag emergency situations and direct to immediate medical care

Remember: You are providing educational information, not medical diagnosis or treatment.`

const generalSystemPrompt = `You are a helpful AI assistant. Provide accurate, helpful, and informative responses. If the question relates to medical topics, remind the user that you provide general information only and they should consult healthcare professionals for medical advice.`

const maxContextTurns = 3

// BuildMedicalPrompt wraps the user prompt with the safety preamble and up to
// the last three turns of conversation context.
func BuildMedicalPrompt(prompt string, history []ContextTurn) string {
	var b strings.Builder
	b.WriteString(medicalSystemPrompt)
	writeContext(&b, history)
	b.WriteString("\n\nUser question: ")
	b.WriteString(prompt)
	b.WriteString("\n\nResponse:")
	return b.String()
}

// BuildGeneralPrompt uses the lighter preamble for non-medical generation.
func BuildGeneralPrompt(prompt string, history []ContextTurn) string {
	var b strings.Builder
	b.WriteString(generalSystemPrompt)
	writeContext(&b, history)
	b.WriteString("\n\nUser: ")
	b.WriteString(prompt)
	b.WriteString("\n\nAssistant:")
	return b.String()
}

func writeContext(b *strings.Builder, history []ContextTurn) {
	if len(history) == 0 {
		return
	}
	if len(history) > maxContextTurns {
		history = history[len(history)-maxContextTurns:]
	}

	b.WriteString("\n\nPrevious conversation:\n")
	for _, turn := range history {
		b.WriteString("User: ")
		b.WriteString(turn.User)
		b.WriteString("\nAssistant: ")
		b.WriteString(turn.Assistant)
		b.WriteString("\n")
	}
}
