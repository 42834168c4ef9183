package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"document-qa/internal/models"
)

func parseDOCX(data []byte) ([]models.TextSegment, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: docx: %v", models.ErrMalformedFile, err)
	}
	defer r.Close()

	paragraphs, err := paragraphsFromXML(r.Editable().GetContent())
	if err != nil {
		return nil, fmt.Errorf("%w: docx: %v", models.ErrMalformedFile, err)
	}

	var kept []string
	for _, p := range paragraphs {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w in Word document", models.ErrNoReadableText)
	}

	return []models.TextSegment{{
		Content: strings.Join(kept, "\n"),
		Source:  models.SourceWord,
	}}, nil
}

// paragraphsFromXML walks WordprocessingML and returns the text of every
// <w:p>, in document order of their closing tags. Runs are concatenated,
// <w:tab/> becomes a tab and <w:br/> a newline. Tab stops declared in
// paragraph properties are not content.
func paragraphsFromXML(content string) ([]string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))

	var (
		paragraphs []string
		open       []*strings.Builder
		inText     bool
		propsDepth int
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				open = append(open, &strings.Builder{})
			case "t":
				inText = true
			case "pPr":
				propsDepth++
			case "tab":
				if propsDepth == 0 && len(open) > 0 {
					open[len(open)-1].WriteString("\t")
				}
			case "br", "cr":
				if len(open) > 0 {
					open[len(open)-1].WriteString("\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if len(open) > 0 {
					paragraphs = append(paragraphs, open[len(open)-1].String())
					open = open[:len(open)-1]
				}
			case "t":
				inText = false
			case "pPr":
				propsDepth--
			}
		case xml.CharData:
			if inText && len(open) > 0 {
				open[len(open)-1].Write(t)
			}
		}
	}
	return paragraphs, nil
}
