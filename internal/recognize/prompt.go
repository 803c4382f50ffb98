package recognize

// DefaultPrompt asks for a faithful markdown transcription of one page.
const DefaultPrompt = `Extract the text in this image exactly.

Requirements:
- Preserve the structure: layout, tables, bullet lists and headings
- Output markdown only
- No explanations or commentary, only the extracted text
- Keep the language of the source: Japanese stays Japanese, English stays English`
