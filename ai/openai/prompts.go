package openai

// summarySystemPrompt instructs the model to act as a plain summarizer.
// Wording carried over from the original service so summaries stay
// comparable across implementations.
const summarySystemPrompt = "You are a helpful assistant that summarizes content."

// summaryUserPromptPrefix prefixes the text to summarize.
const summaryUserPromptPrefix = "Summarize the following content:\n\n"
