// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package repository

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/vtes-biased/rulings-website/internal/rulings"
)

// # YAML Loading

// loadReferences reads references.yaml: a flat map of reference uid to URL.
func loadReferences(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("repository_read_failed: %w", err)
	}
	references := map[string]string{}
	if err := yaml.Unmarshal(data, &references); err != nil {
		return nil, fmt.Errorf("repository_yaml_failed: %s: %w", path, err)
	}
	return references, nil
}

// loadGroups reads groups.yaml: group "uid|name" labels mapping card
// "uid|name" labels to their symbol prefix.
func loadGroups(path string) (map[string]map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("repository_read_failed: %w", err)
	}
	groups := map[string]map[string]string{}
	if err := yaml.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("repository_yaml_failed: %s: %w", path, err)
	}
	return groups, nil
}

// loadRulings reads rulings.yaml: target "uid|name" labels mapping to the
// raw ruling texts.
func loadRulings(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("repository_read_failed: %w", err)
	}
	rulingTexts := map[string][]string{}
	if err := yaml.Unmarshal(data, &rulingTexts); err != nil {
		return nil, fmt.Errorf("repository_yaml_failed: %s: %w", path, err)
	}
	return rulingTexts, nil
}

// # YAML Serialization

// The file headers document the format for whoever opens the files without
// the service: the YAML store is meant to outlive any particular tooling.

const referencesHeader = `# Rulings always have a reference, they come from somewhere.
# Each reference should be a valid URL, with a key indicating the source and date.
# The only valid sources are the successive Rules Directors, the Rules Team and the rulebook:
#
# - TOM: Thomas R Wylie
# - SFC: Shawn F. Carnes
# - JON: Jon Wilkie
# - LSJ: L. Scott Johnson
# - PIB: Pascal Bertrand
# - ANK: Vincent "Ankha" Ripoll
# - RTR: Rules Team Ruling
# - RBK: Rulebook
#
# The date must follow ISO order YYYYMMDD, with a facultative suffix after a dash to avoid collisions
`

const rulingsHeader = `# The rulings reference is a single self-sufficient YAML file,
# usable with a text editor, without processing.
#
# 1. Rulings can contain disciplines and card types symbols in brackets (eg. [pot])
# 2. Rulings can contain card names in braces (eg. {Abbot})
# 3. Each ruling ends with one or more reference ids in brackets.
#    Reference URLs are listed in the references.yaml file
# 4. Rulings are attached to a card, the key format is <card_id>|<card_name>,
#    using the VEKN cards ids, or to a group of cards listed in the groups.yaml
#    file, using the <id>|<name> format with an id beginning with G.
`

// writeIndexFiles serializes the index to the three YAML files, keys sorted
// so consecutive commits produce minimal diffs.
func writeIndexFiles(dir string, index *rulings.Index) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("repository_mkdir_failed: %w", err)
	}

	references := mappingNode()
	for _, uid := range sortedKeys(index.References) {
		appendPair(references, uid, scalarNode(index.References[uid].URL))
	}
	if err := writeYAML(dir, referencesFile, referencesHeader, references); err != nil {
		return err
	}

	groupUIDs := sortedKeys(index.Groups)
	groups := mappingNode()
	for _, uid := range groupUIDs {
		group := index.Groups[uid]
		members := mappingNode()
		for i := range group.Cards {
			card := &group.Cards[i]
			appendPair(members, card.NID.String(), scalarNode(card.Prefix))
		}
		appendPair(groups, rulings.NID{UID: group.UID, Name: group.Name}.String(), members)
	}
	if err := writeYAML(dir, groupsFile, "", groups); err != nil {
		return err
	}

	// Card targets first, sorted by id, then group targets in group order.
	rulingsNode := mappingNode()
	var cardTargets, groupTargets []string
	for target := range index.Rulings {
		if rulings.IsGroupUID(target) {
			groupTargets = append(groupTargets, target)
		} else {
			cardTargets = append(cardTargets, target)
		}
	}
	sort.Strings(cardTargets)
	sort.Strings(groupTargets)
	for _, target := range append(cardTargets, groupTargets...) {
		perTarget := index.Rulings[target]
		texts := &yaml.Node{Kind: yaml.SequenceNode}
		var label string
		for _, uid := range sortedKeys(perTarget) {
			ruling := perTarget[uid]
			label = ruling.Target.String()
			texts.Content = append(texts.Content, scalarNode(ruling.Text))
		}
		if label == "" {
			continue
		}
		appendPair(rulingsNode, label, texts)
	}
	return writeYAML(dir, rulingsFile, rulingsHeader, rulingsNode)
}

// writeYAML renders a header comment and a yaml document to a file.
func writeYAML(dir, name, header string, root *yaml.Node) error {
	var buffer bytes.Buffer
	buffer.WriteString(header)
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(2)
	if err := encoder.Encode(root); err != nil {
		return fmt.Errorf("repository_yaml_encode_failed: %s: %w", name, err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("repository_yaml_encode_failed: %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), buffer.Bytes(), 0o644); err != nil {
		return fmt.Errorf("repository_write_failed: %w", err)
	}
	return nil
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode}
}

func scalarNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func appendPair(mapping *yaml.Node, key string, value *yaml.Node) {
	mapping.Content = append(mapping.Content, scalarNode(key), value)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
