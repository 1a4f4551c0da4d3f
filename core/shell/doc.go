// Package shell turns shell input into a syntax tree.
//
// The language is a subset of the POSIX shell command language defined by
// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html
//
//  1. The shell breaks the input into tokens: words and operators; see
//     Token Recognition. (Lexer)
//
//  2. The shell parses the input into simple commands and compound
//     commands. (Parser)
//
// Expansion and execution happen later, in package interp; words in the tree
// are kept exactly as they were written.
package shell
