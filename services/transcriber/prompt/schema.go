package prompt

import "github.com/xilidan/lingua/services/transcriber/consts"

type SchemaType string

const (
	TypeArray  SchemaType = "array"
	TypeObject SchemaType = "object"
	TypeString SchemaType = "string"
)

// Schema is a provider-neutral declaration of the expected model output.
// Providers translate it into their own schema dialect.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]Schema
	// Order keeps property order stable for providers that honour it.
	Order    []string
	Required []string
	Items    *Schema
}

// TranscriptSchema is the fixed output contract of both operations:
// an array of {timestamp: string, text: string}, both required.
func TranscriptSchema() Schema {
	return Schema{
		Type:        TypeArray,
		Description: "Ordered transcript segments",
		Items: &Schema{
			Type: TypeObject,
			Properties: map[string]Schema{
				consts.FieldTimestamp: {Type: TypeString, Description: "Time range or point of the segment"},
				consts.FieldText:      {Type: TypeString, Description: "Spoken or translated content of the segment"},
			},
			Order:    []string{consts.FieldTimestamp, consts.FieldText},
			Required: []string{consts.FieldTimestamp, consts.FieldText},
		},
	}
}
