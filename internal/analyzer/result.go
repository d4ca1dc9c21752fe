// Package analyzer asks a language model for a summary, insights, topics
// and entities of extracted document text.
package analyzer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"doc-analyzer/internal/domain"
)

const analysisPrompt = "Analyze the following document and provide: " +
	"1. A concise summary\n" +
	"2. Key insights\n" +
	"3. Main topics\n" +
	"4. Important entities\n" +
	"Respond in JSON format with the keys \"summary\", \"key_insights\", " +
	"\"main_topics\" and \"important_entities\"."

const keyPointsPrompt = "Extract the key points from the following text. " +
	"Provide them in a clear, bulleted format in JSON under the key \"key_points\"."

var (
	insightKeys = []string{"key_insights", "insights", "key_points"}
	topicKeys   = []string{"main_topics", "topics"}
	entityKeys  = []string{"important_entities", "entities"}
	pointKeys   = []string{"key_points", "points", "bullets"}
)

// parseAnalysis decodes a model answer. Models drift from the requested shape
// so alternate key names and non-string list items are accepted.
func parseAnalysis(raw string) (*domain.AnalysisResult, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	result := &domain.AnalysisResult{
		Summary:           firstString(fields, "summary", "concise_summary"),
		KeyInsights:       firstList(fields, insightKeys...),
		MainTopics:        firstList(fields, topicKeys...),
		ImportantEntities: firstList(fields, entityKeys...),
		Raw:               json.RawMessage(strings.TrimSpace(raw)),
	}
	if result.Summary == "" && len(result.KeyInsights) == 0 &&
		len(result.MainTopics) == 0 && len(result.ImportantEntities) == 0 {
		return nil, domain.ErrEmptyAnalysis
	}
	return result, nil
}

func parseKeyPoints(raw string) ([]string, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}
	points := firstList(fields, pointKeys...)
	if len(points) == 0 {
		// single unnamed list
		for _, v := range fields {
			if list := toStrings(v); len(list) > 0 {
				points = list
				break
			}
		}
	}
	if len(points) == 0 {
		return nil, domain.ErrEmptyAnalysis
	}
	return points, nil
}

func decodeObject(raw string) (map[string]json.RawMessage, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	if strings.TrimSpace(raw) == "" {
		return nil, domain.ErrEmptyAnalysis
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}
	return fields, nil
}

func firstString(fields map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return strings.TrimSpace(s)
		}
		if list := toStrings(v); len(list) > 0 {
			return strings.Join(list, " ")
		}
	}
	return ""
}

func firstList(fields map[string]json.RawMessage, keys ...string) []string {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			if list := toStrings(v); len(list) > 0 {
				return list
			}
		}
	}
	return nil
}

// toStrings flattens a JSON value into display strings. Objects inside a
// list become "k: v" pairs in key order.
func toStrings(v json.RawMessage) []string {
	var items []interface{}
	if err := json.Unmarshal(v, &items); err != nil {
		var single string
		if err := json.Unmarshal(v, &single); err == nil && strings.TrimSpace(single) != "" {
			return []string{strings.TrimSpace(single)}
		}
		return nil
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := stringify(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stringify(item interface{}) string {
	switch val := item.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case map[string]interface{}:
		if len(val) == 1 {
			for _, inner := range val {
				return stringify(inner)
			}
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := stringify(val[k]); s != "" {
				parts = append(parts, k+": "+s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}
