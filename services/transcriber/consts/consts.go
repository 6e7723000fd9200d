package consts

const (
	// Timestamp layouts requested from the model
	AudioTimestampFormat = "MM:SS-MM:SS"
	TextTimestampFormat  = "MM:SS.mmm"

	// Schema fields
	FieldTimestamp = "timestamp"
	FieldText      = "text"

	// Default settings
	MaxAudioSize    = 25 * 1024 * 1024 // 25MB
	SpeakingPaceWPM = 150
)

// AudioMediaTypes lists the upload types accepted without further sniffing.
var AudioMediaTypes = map[string]string{
	"audio/wav":    "wav",
	"audio/x-wav":  "wav",
	"audio/wave":   "wav",
	"audio/mpeg":   "mp3",
	"audio/mp3":    "mp3",
	"audio/mp4":    "m4a",
	"audio/x-m4a":  "m4a",
	"audio/aac":    "aac",
	"audio/ogg":    "ogg",
	"audio/webm":   "webm",
	"audio/flac":   "flac",
	"audio/x-flac": "flac",
}

// AudioExtensions resolves uploads sent as application/octet-stream.
var AudioExtensions = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".webm": "audio/webm",
	".flac": "audio/flac",
}
