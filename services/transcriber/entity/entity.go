package entity

import (
	"strings"
)

type (
	TranscriptItem struct {
		Timestamp string `json:"timestamp"`
		Text      string `json:"text"`
	}

	// Transcript is ordered by ascending start time. Transforms must keep the order.
	Transcript []TranscriptItem

	Audio struct {
		Name      string
		MediaType string
		Data      []byte
	}

	// Input is either an uploaded audio clip or a block of pasted text.
	Input struct {
		Audio *Audio
		Text  string
	}
)

type InputMode string

const (
	ModeAudio InputMode = "audio"
	ModeText  InputMode = "text"
)

func (i Input) Mode() InputMode {
	if i.Audio == nil && strings.TrimSpace(i.Text) != "" {
		return ModeText
	}
	return ModeAudio
}

func (i Input) Empty() bool {
	if i.Audio != nil {
		return len(i.Audio.Data) == 0
	}
	return strings.TrimSpace(i.Text) == ""
}

// Timestamps returns the timestamp of every item in order.
func (t Transcript) Timestamps() []string {
	out := make([]string, len(t))
	for i, item := range t {
		out[i] = item.Timestamp
	}
	return out
}

func (t Transcript) Clone() Transcript {
	if t == nil {
		return nil
	}
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

// Lines renders the transcript as "[timestamp] text" lines.
func (t Transcript) Lines() []string {
	out := make([]string, len(t))
	for i, item := range t {
		out[i] = "[" + item.Timestamp + "] " + item.Text
	}
	return out
}
