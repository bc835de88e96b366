// Package document reads source documents as ordered paragraphs and
// disposes of them once processed.
//
// Supported formats are Word .docx files, HTML pages and plain text. Each
// format has its own Source; AutoSource picks one by sniffing the file
// content and falls back to the file extension.
//
// Paragraph boundaries follow the format: a <w:p> element in .docx, a block
// element in HTML, a line in plain text. Blank paragraphs are kept for .docx
// and plain text so the masked output has the same shape as the input.
package document
