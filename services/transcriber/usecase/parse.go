package usecase

import (
	"encoding/json"
	"strings"

	"github.com/xilidan/lingua/services/transcriber/consts"
	"github.com/xilidan/lingua/services/transcriber/entity"
)

// ParseTranscript decodes a model payload and validates its shape. Every
// failure is an entity.ErrFormat.
func ParseTranscript(raw string) (entity.Transcript, error) {
	raw = stripFence(raw)

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		return nil, entity.FormatError("expected a JSON array: %v", err)
	}
	if elems == nil {
		return nil, entity.FormatError("expected a JSON array, got null")
	}

	items := make(entity.Transcript, 0, len(elems))
	for i, elem := range elems {
		var item entity.TranscriptItem
		if err := json.Unmarshal(elem, &item); err != nil {
			return nil, entity.FormatError("item %d: %v", i, err)
		}
		if strings.TrimSpace(item.Timestamp) == "" {
			return nil, entity.FormatError("item %d has no %s", i, consts.FieldTimestamp)
		}
		if strings.TrimSpace(item.Text) == "" {
			return nil, entity.FormatError("item %d has no %s", i, consts.FieldText)
		}
		items = append(items, item)
	}

	return items, nil
}

// stripFence drops a markdown code fence some models wrap JSON in.
func stripFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimPrefix(raw, "json")
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}
