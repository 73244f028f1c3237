package llm

import (
	"context"
	"fmt"
	"strings"
)

const classifySystemPrompt = `You map financial statement line-item labels onto a fixed canonical vocabulary.
Respond with a single JSON object: each key is one of the input labels, each value the chosen canonical name.
Use only canonical names from the provided list. If no canonical name fits a label, use "UNMAPPED" as its value.
Output JSON only, no commentary.`

// LabelClassifier resolves line-item labels that alias and fuzzy matching
// left unmapped. It satisfies the normalize.Classifier contract; callers
// fall back to leaving labels unmapped when the model call fails.
type LabelClassifier struct {
	Provider Provider
}

// ClassifyLabels maps each label to a canonical name from the allowed set,
// in a single batched request. The response is decoded with SmartParse so
// near-JSON output still lands; labels the model marks UNMAPPED or answers
// with an unknown canonical are simply absent from the result.
func (c *LabelClassifier) ClassifyLabels(ctx context.Context, labels, canonicals []string) (map[string]string, error) {
	if len(labels) == 0 {
		return map[string]string{}, nil
	}

	var b strings.Builder
	b.WriteString("Canonical names:\n")
	for _, name := range canonicals {
		b.WriteString("- " + name + "\n")
	}
	b.WriteString("\nLabels to classify:\n")
	for _, label := range labels {
		b.WriteString(label + "\n")
	}

	options := map[string]interface{}{
		"response_format": map[string]interface{}{"type": "json_object"},
	}
	resp, err := c.Provider.GenerateResponse(ctx, b.String(), classifySystemPrompt, options)
	if err != nil {
		return nil, fmt.Errorf("label classification: %w", err)
	}

	var raw map[string]string
	if _, err := SmartParse(resp, &raw); err != nil {
		return nil, fmt.Errorf("label classification: unparseable response: %w", err)
	}
	return filterClassification(raw, labels, canonicals), nil
}

// filterClassification keeps only answers for labels that were actually
// asked, with canonicals that actually exist, spelled the way the allowed
// list spells them.
func filterClassification(raw map[string]string, labels, canonicals []string) map[string]string {
	asked := map[string]string{}
	for _, l := range labels {
		asked[strings.ToLower(strings.TrimSpace(l))] = strings.TrimSpace(l)
	}
	allowed := map[string]string{}
	for _, c := range canonicals {
		allowed[strings.ToLower(c)] = c
	}

	out := map[string]string{}
	for label, answer := range raw {
		askedLabel, ok := asked[strings.ToLower(strings.TrimSpace(label))]
		if !ok || strings.EqualFold(strings.TrimSpace(answer), "UNMAPPED") {
			continue
		}
		if canonical, ok := allowed[strings.ToLower(strings.TrimSpace(answer))]; ok {
			out[askedLabel] = canonical
		}
	}
	return out
}
