package lexical

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// factQuery extracts exactly the facts the scanner cares about. The
// same query text works for the TypeScript, TSX, and JavaScript
// grammars because the relevant node shapes are shared.
const factQuery = `
    (comment) @span.comment
    (string) @span.string
    (template_string) @span.string
    (import_specifier) @import.spec
    (import_clause (identifier) @import.name)
    (namespace_import (identifier) @import.name)
    (program (lexical_declaration) @decl.toplevel)
    (program (export_statement declaration: (lexical_declaration) @decl.toplevel))
`

// languageFor returns the parser and query for an extension,
// initializing them on first use. Caller holds s.mu.
func (s *Scanner) languageFor(ext string) (*tree_sitter.Parser, *tree_sitter.Query) {
	if p, ok := s.parsers[ext]; ok {
		return p, s.queries[ext]
	}

	var language *tree_sitter.Language
	switch ext {
	case ".ts":
		language = tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	case ".tsx":
		language = tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	case ".js", ".jsx", ".mjs", ".cjs":
		language = tree_sitter.NewLanguage(tree_sitter_javascript.Language())
	default:
		return nil, nil
	}

	parser := tree_sitter.NewParser()
	if err := parser.SetLanguage(language); err != nil {
		return nil, nil
	}

	query, _ := tree_sitter.NewQuery(language, factQuery)
	// Check if query was actually created (tree-sitter Go binding bug)
	if query == nil {
		return nil, nil
	}

	s.parsers[ext] = parser
	s.queries[ext] = query
	return parser, query
}
