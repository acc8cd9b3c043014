package parse

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type CodeBlock struct {
	Code     string
	Language string
}

// ExtractCodeBlocks returns all fenced code blocks from a markdown document,
// in document order. Chat models routinely wrap structured replies in fences
// even when told not to, so this is the first thing we look at when a raw
// reply is not directly parseable.
func ExtractCodeBlocks(markdownText string) ([]CodeBlock, error) {
	var blocks []CodeBlock
	source := []byte(markdownText)

	document := goldmark.DefaultParser().Parse(
		text.NewReader(source),
	)

	err := ast.Walk(document, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if v, ok := n.(*ast.FencedCodeBlock); ok {
				if v.Lines().Len() == 0 {
					return ast.WalkContinue, nil
				}
				blocks = append(blocks, CodeBlock{
					Code:     string(source[v.Lines().At(0).Start:v.Lines().At(v.Lines().Len()-1).Stop]),
					Language: string(v.Language(source)),
				})
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	return blocks, nil
}
