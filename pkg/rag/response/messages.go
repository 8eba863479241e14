package response

import (
	"fmt"

	"pdf-chat-be/pkg/llm"
)

const (
	msgEmptyCompletion = "Sorry, I encountered an error. Please try again."
	msgInvalidKey      = "OpenAI API key is invalid. Please check your configuration."
	msgRateLimited     = "OpenAI rate limit exceeded. Please try again in a moment."
	msgQuotaExceeded   = "OpenAI quota exceeded. Please check your billing and plan details."
	msgGenericFailure  = "Sorry, I encountered an error while processing your request. Please try again."
)

// userFacingError maps a provider failure to the reply shown in the chat.
func userFacingError(err error) string {
	switch llm.KindOf(err) {
	case llm.KindUnauthorized:
		return msgInvalidKey
	case llm.KindRateLimited:
		return msgRateLimited
	case llm.KindQuotaExceeded:
		return msgQuotaExceeded
	default:
		return msgGenericFailure
	}
}

const systemPromptTemplate = `You are a helpful AI assistant that gives comprehensive and detailed answers about PDF documents! 🚀

You have access to the following PDF context:

%s

Your response style:
🎯 **Be thorough and helpful** - Provide complete answers with relevant details
📝 **Give comprehensive responses** - Include important context and explanations
💡 **Be educational** - Help users understand the content deeply
🔍 **Use examples when helpful** - Illustrate concepts with specific details
😊 **Use emojis sparingly** - 1-2 relevant emojis max, don't overdo it

Response guidelines:
1. **Answer the question completely** with all relevant details
2. **Provide context** when it helps understanding
3. **Use clear language** - explain technical terms when needed
4. **Be conversational and helpful** - like talking to a knowledgeable friend
5. **Include supporting information** from the PDF when relevant
6. **Stay focused** on the topic but be thorough

For technical questions:
- Give the complete answer with necessary details
- Explain key concepts if they help understanding
- Provide context from the PDF when relevant

Current conversation:`

func systemPrompt(pdfContext string) string {
	return fmt.Sprintf(systemPromptTemplate, pdfContext)
}
