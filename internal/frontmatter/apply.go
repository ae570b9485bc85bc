package frontmatter

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/scribe/internal/vars"
)

// Apply writes props into the front matter of text as typed YAML values and
// returns the new text. Existing keys are overwritten in place, new keys
// are appended, and other keys keep their order. A block is created when
// text has none. The delimiter lines of an existing block are kept as they
// are, and text is returned unchanged when every key already holds its
// value.
func Apply(text string, props []vars.Property) (string, error) {
	if len(props) == 0 {
		return text, nil
	}

	span, ok := Range(text)
	block, body := "", text
	open, closing := "---\n", "---\n"
	if ok {
		block = text[span.InnerStart:span.InnerEnd]
		body = text[span.BodyStart:]
		open = text[:span.InnerStart]
		closing = text[span.InnerEnd:span.BodyStart]
	}

	mapping, err := decodeMapping(block)
	if err != nil {
		return "", err
	}
	changed := false
	for _, p := range props {
		c, err := setKey(mapping, p.Key, p.Value)
		if err != nil {
			return "", err
		}
		changed = changed || c
	}
	if !changed {
		return text, nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(mapping); err != nil {
		return "", fmt.Errorf("frontmatter: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("frontmatter: encode: %w", err)
	}

	var out strings.Builder
	out.WriteString(open)
	out.Write(buf.Bytes())
	out.WriteString(closing)
	out.WriteString(body)
	return out.String(), nil
}

func decodeMapping(block string) (*yaml.Node, error) {
	var doc yaml.Node
	if strings.TrimSpace(block) != "" {
		if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
			return nil, fmt.Errorf("frontmatter: decode: %w", err)
		}
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 {
		if m := doc.Content[0]; m.Kind == yaml.MappingNode {
			return m, nil
		}
		return nil, fmt.Errorf("frontmatter: top level is not a mapping")
	}
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, nil
}

// setKey stores v under key and reports whether the mapping changed.
func setKey(mapping *yaml.Node, key string, v vars.Value) (bool, error) {
	var valueNode yaml.Node
	if err := valueNode.Encode(v.Interface()); err != nil {
		return false, fmt.Errorf("frontmatter: encode %s: %w", key, err)
	}
	if valueNode.Kind == yaml.SequenceNode {
		valueNode.Style = 0
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			if sameNode(mapping.Content[i+1], &valueNode) {
				return false, nil
			}
			mapping.Content[i+1] = &valueNode
			return true, nil
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&valueNode,
	)
	return true, nil
}

// sameNode compares two values by their encoded form.
func sameNode(a, b *yaml.Node) bool {
	ea, err := yaml.Marshal(a)
	if err != nil {
		return false
	}
	eb, err := yaml.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ea, eb)
}
