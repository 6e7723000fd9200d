package transcriber

import (
	"encoding/base64"
	"fmt"

	"github.com/xilidan/lingua/services/transcriber/consts"
	"github.com/xilidan/lingua/services/transcriber/entity"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	fieldAudioName      = "audio_name"
	fieldAudioMediaType = "audio_media_type"
	fieldAudioData      = "audio_data"
	fieldText           = "text"
	fieldItems          = "items"
	fieldLanguage       = "language"
	fieldStatus         = "status"
)

func NewTranscribeRequest(input entity.Input) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldText: structpb.NewStringValue(input.Text),
	}
	if input.Audio != nil {
		fields[fieldAudioName] = structpb.NewStringValue(input.Audio.Name)
		fields[fieldAudioMediaType] = structpb.NewStringValue(input.Audio.MediaType)
		fields[fieldAudioData] = structpb.NewStringValue(base64.StdEncoding.EncodeToString(input.Audio.Data))
	}
	return &structpb.Struct{Fields: fields}
}

func ParseTranscribeRequest(s *structpb.Struct) (entity.Input, error) {
	fields := s.GetFields()
	input := entity.Input{Text: fields[fieldText].GetStringValue()}

	encoded, ok := fields[fieldAudioData]
	if !ok {
		return input, nil
	}

	data, err := base64.StdEncoding.DecodeString(encoded.GetStringValue())
	if err != nil {
		return entity.Input{}, fmt.Errorf("%w: audio_data is not base64: %v", entity.ErrInvalidInput, err)
	}
	input.Audio = &entity.Audio{
		Name:      fields[fieldAudioName].GetStringValue(),
		MediaType: fields[fieldAudioMediaType].GetStringValue(),
		Data:      data,
	}
	return input, nil
}

func NewTranslateRequest(items entity.Transcript, lang entity.Language) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldItems:    itemsValue(items),
		fieldLanguage: structpb.NewStringValue(lang.ID),
	}}
}

func ParseTranslateRequest(s *structpb.Struct) (entity.Transcript, entity.Language, error) {
	items, err := parseItems(s)
	if err != nil {
		return nil, entity.Language{}, err
	}

	key := s.GetFields()[fieldLanguage].GetStringValue()
	lang, ok := entity.LookupLanguage(key)
	if !ok {
		return nil, entity.Language{}, fmt.Errorf("%w: unknown language %q", entity.ErrInvalidInput, key)
	}
	return items, lang, nil
}

func NewItemsResponse(items entity.Transcript) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldItems: itemsValue(items),
	}}
}

func ParseItemsResponse(s *structpb.Struct) (entity.Transcript, error) {
	return parseItems(s)
}

func NewHealthResponse(ok bool) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldStatus: structpb.NewBoolValue(ok),
	}}
}

func ParseHealthResponse(s *structpb.Struct) bool {
	return s.GetFields()[fieldStatus].GetBoolValue()
}

func itemsValue(items entity.Transcript) *structpb.Value {
	values := make([]*structpb.Value, len(items))
	for i, item := range items {
		values[i] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			consts.FieldTimestamp: structpb.NewStringValue(item.Timestamp),
			consts.FieldText:      structpb.NewStringValue(item.Text),
		}})
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

func parseItems(s *structpb.Struct) (entity.Transcript, error) {
	list := s.GetFields()[fieldItems].GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: items field is missing", entity.ErrInvalidInput)
	}

	items := make(entity.Transcript, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		obj := v.GetStructValue()
		if obj == nil {
			return nil, fmt.Errorf("%w: item %d is not an object", entity.ErrInvalidInput, i)
		}
		items = append(items, entity.TranscriptItem{
			Timestamp: obj.GetFields()[consts.FieldTimestamp].GetStringValue(),
			Text:      obj.GetFields()[consts.FieldText].GetStringValue(),
		})
	}
	return items, nil
}
