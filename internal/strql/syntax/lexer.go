// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STRQL Contributors

package syntax

import "github.com/alecthomas/participle/v2/lexer"

// strqlLexer defines the token types for STRQL source. Order matters:
// longer patterns must come before shorter ones that share a prefix
// (e.g. the ".." range operator before a lone "."), mirroring the
// ordering discipline of the access-policy DSL lexer this is adapted
// from.
var strqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\.|[^"\\\n])*"`},
	{Name: "Arrow", Pattern: `->`},
	{Name: "DotDot", Pattern: `\.\.`},
	{Name: "Number", Pattern: `[0-9]+`},
	{Name: "Keyword", Pattern: `(?:OR|SPLITBY|GREEDY|LAZY|UPPER|LOWER|ANYCASE|ADD|TO)\b`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Assign", Pattern: `=`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "LBracket", Pattern: `\[`},
	{Name: "RBracket", Pattern: `\]`},
	{Name: "LBrace", Pattern: `\{`},
	{Name: "RBrace", Pattern: `\}`},
	{Name: "Dot", Pattern: `\.`},
	{Name: "Semi", Pattern: `;`},
	{Name: "whitespace", Pattern: `\s+`},
})
