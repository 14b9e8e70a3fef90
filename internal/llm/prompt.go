package llm

import "strings"

// BuildSystemPrompt composes the system message for financial-table
// extraction. Kept deliberately close to the instruction the schema was
// tuned against.
func BuildSystemPrompt() string {
	parts := []string{
		"You are a helpful financial analyst that follows the users instructions exactly.",
		"Your job is to extract financials from financial documents.",
		"Return ONLY JSON that matches the provided JSON Schema.",
		"Every table has a name and an ordered list of columns; every column has a name and an ordered list of cell values.",
		"Within one table, every column MUST have the same number of values.",
		"Cell values are strings or numbers; use null for an empty cell. Never invent values.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the extraction instruction with the filename hint.
func BuildUserPrompt(filename string) string {
	var b strings.Builder
	b.WriteString("Output all of the financial tables included in this CIM. Do not output anything else.")
	if f := strings.TrimSpace(filename); f != "" {
		b.WriteString("\nFilename: ")
		b.WriteString(f)
	}
	return b.String()
}
