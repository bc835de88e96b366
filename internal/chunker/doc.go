// Package chunker splits document paragraphs into word-bounded chunks for
// the masking service.
//
// The chunker is a pure function: no I/O, no logging, no shared state. Its
// output carries everything the assembler needs to rebuild the document
// shape (source paragraph, position within the paragraph and the
// paragraph-break marker), so the masked text can be put back in order no
// matter in which order the service finishes the chunks.
package chunker
