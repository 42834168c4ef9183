package models

const (
	SourcePDF      = "PDF"
	SourceOCRPDF   = "OCR-PDF"
	SourceOCRImage = "OCR-IMAGE"
	SourceWord     = "WORD"
	SourceExcel    = "EXCEL"
	SourceText     = "TEXT"

	NoDocumentContext = "No document uploaded."
	ContextSeparator  = "\n\n"
	ErrorAnswerPrefix = "Sorry, an error occurred: "
)

// SupportedExtensions is the set of upload extensions accepted at the boundary
var SupportedExtensions = []string{".pdf", ".txt", ".docx", ".xlsx", ".jpg", ".jpeg", ".png"}

// IsSupportedExtension reports whether ext (lower case, with dot) can be uploaded
func IsSupportedExtension(ext string) bool {
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

var (
	QAPromptTemplate = `You are an intelligent assistant that helps users with their documents and with general knowledge.

CORE INSTRUCTIONS:
- If the user's question is related to the provided document context, answer using that context.
- If the question is NOT related to the document, answer using your general knowledge.
- If both apply, combine them.
- Do NOT say "I don't know" unless the question is truly unanswerable.
- Never invent facts or data. If unsure, state the uncertainty briefly.

ANSWER STYLE:
- Keep answers concise. Give detailed explanations only when asked or when the question requires it.
- Use short paragraphs and bullet points when listing items.
- Keep a formal, confident tone.

DOCUMENT CONTEXT:
{{.context}}

USER QUESTION:
{{.question}}

FINAL ANSWER:`
)

// ThinkTag matches reasoning blocks some models emit before the answer
const ThinkTag = `(?s)<think>.*?</think>`
