package index

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalYAML renders the report as a mapping in entry order. yaml.v3 would
// re-sort map keys on its own terms; building the node tree directly keeps
// the serialized order under this package's control.
func (r *Report) MarshalYAML() (interface{}, error) {
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, entry := range r.Entries {
		record := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if len(entry.Queries) > 0 {
			record.Content = append(record.Content, strNode("queries"), seqNode(entry.Queries))
		}
		if len(entry.Code) > 0 {
			record.Content = append(record.Content, strNode("code"), seqNode(entry.Code))
		}
		root.Content = append(root.Content, strNode(entry.Table), record)
	}
	return root, nil
}

// UnmarshalYAML parses a previously written report, preserving file order.
func (r *Report) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("report root must be a mapping, got kind %d", value.Kind)
	}

	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i]
		var record struct {
			Queries []string `yaml:"queries"`
			Code    []string `yaml:"code"`
		}
		if err := value.Content[i+1].Decode(&record); err != nil {
			return fmt.Errorf("failed to decode entry %q: %w", key.Value, err)
		}
		r.Entries = append(r.Entries, Entry{
			Table:   key.Value,
			Queries: record.Queries,
			Code:    record.Code,
		})
	}
	return nil
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func seqNode(items []string) *yaml.Node {
	node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, item := range items {
		node.Content = append(node.Content, strNode(item))
	}
	return node
}
