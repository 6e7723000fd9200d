package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/xilidan/lingua/pkg/metrics"
	"github.com/xilidan/lingua/services/transcriber/entity"
	"github.com/xilidan/lingua/services/transcriber/prompt"
	. "github.com/xilidan/lingua/services/transcriber/usecase"
)

type reply struct {
	raw string
	err error
}

type mockProvider struct {
	replies []reply
	specs   []prompt.Spec
	block   bool
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Generate(ctx context.Context, spec prompt.Spec) (string, error) {
	m.specs = append(m.specs, spec)
	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	return r.raw, r.err
}

var _ = Describe("Model gateway", func() {
	var (
		provider *mockProvider
		uc       Usecase
		reg      *prometheus.Registry
		log      *slog.Logger
	)

	spanish, _ := entity.LookupLanguage("spanish")

	BeforeEach(func() {
		provider = &mockProvider{}
		reg = prometheus.NewRegistry()
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
		uc = New(provider, time.Second, metrics.New(reg), log)
	})

	Context("audio clip to Spanish", func() {
		It("transcribes and translates with unchanged timestamps", func() {
			provider.replies = []reply{
				{raw: `[{"timestamp":"00:00-00:05","text":"Hello"},{"timestamp":"00:05-00:10","text":"World"}]`},
				{raw: `[{"timestamp":"00:00-00:05","text":"Hola"},{"timestamp":"00:05-00:10","text":"Mundo"}]`},
			}

			audio := &entity.Audio{Name: "clip.wav", MediaType: "audio/wav", Data: []byte("RIFF....WAVE")}
			source, err := uc.Transcribe(context.Background(), entity.Input{Audio: audio})
			Expect(err).ToNot(HaveOccurred())
			Expect(source).To(Equal(entity.Transcript{
				{Timestamp: "00:00-00:05", Text: "Hello"},
				{Timestamp: "00:05-00:10", Text: "World"},
			}))
			Expect(provider.specs[0].Audio).To(Equal(audio))

			translation, err := uc.Translate(context.Background(), source, spanish)
			Expect(err).ToNot(HaveOccurred())
			Expect(translation).To(Equal(entity.Transcript{
				{Timestamp: "00:00-00:05", Text: "Hola"},
				{Timestamp: "00:05-00:10", Text: "Mundo"},
			}))
			Expect(translation.Timestamps()).To(Equal(source.Timestamps()))
			Expect(provider.specs[1].Audio).To(BeNil())
			Expect(provider.specs[1].Instruction).To(ContainSubstring("[00:05-00:10] World"))

			count, err := testutil.GatherAndCount(reg, "lingua_model_call_seconds")
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(2))
		})
	})

	Context("pasted text", func() {
		It("returns synthesized points that strictly increase", func() {
			provider.replies = []reply{{raw: "```json\n" + `[
				{"timestamp":"00:00.000","text":"The sun rose."},
				{"timestamp":"00:01.200","text":"Birds began to sing."},
				{"timestamp":"00:02.800","text":"The day had started."}
			]` + "\n```"}}

			text := "The sun rose. Birds began to sing. The day had started."
			items, err := uc.Transcribe(context.Background(), entity.Input{Text: text})
			Expect(err).ToNot(HaveOccurred())
			Expect(items).To(HaveLen(3))
			Expect(items.Ascending()).To(BeTrue())

			var prev time.Duration = -1
			for _, item := range items {
				start, err := entity.ParseStart(item.Timestamp)
				Expect(err).ToNot(HaveOccurred())
				Expect(start).To(BeNumerically(">", prev))
				prev = start
			}

			Expect(provider.specs[0].Audio).To(BeNil())
			Expect(provider.specs[0].Instruction).To(ContainSubstring(text))
		})
	})

	Context("failures", func() {
		It("maps transport errors to a transcription error", func() {
			provider.replies = []reply{{err: errors.New("connection reset")}}

			_, err := uc.Transcribe(context.Background(), entity.Input{Text: "hi"})
			var transcriptionErr *entity.TranscriptionError
			Expect(errors.As(err, &transcriptionErr)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("connection reset"))
			Expect(entity.UserMessage(err)).To(Equal("Transcription failed: connection reset. Please try again."))
		})

		DescribeTable("rejects malformed payloads as format errors",
			func(raw string) {
				provider.replies = []reply{{raw: raw}}

				_, err := uc.Transcribe(context.Background(), entity.Input{Text: "hi"})
				Expect(err).To(MatchError(entity.ErrFormat))
				var transcriptionErr *entity.TranscriptionError
				Expect(errors.As(err, &transcriptionErr)).To(BeTrue())
			},
			Entry("not json", "I could not hear anything"),
			Entry("object instead of array", `{"timestamp":"00:00","text":"x"}`),
			Entry("null", `null`),
			Entry("missing text", `[{"timestamp":"00:00-00:05"}]`),
			Entry("blank timestamp", `[{"timestamp":" ","text":"x"}]`),
			Entry("numeric timestamp", `[{"timestamp":5,"text":"x"}]`),
			Entry("empty array", `[]`),
			Entry("fenced empty array", "```json\n[]\n```"),
		)

		It("maps translation failures to a translation error", func() {
			provider.replies = []reply{{raw: `[{"timestamp":"00:00-00:05"}]`}}

			_, err := uc.Translate(context.Background(), entity.Transcript{{Timestamp: "00:00-00:05", Text: "Hi"}}, spanish)
			var translationErr *entity.TranslationError
			Expect(errors.As(err, &translationErr)).To(BeTrue())
			Expect(err).To(MatchError(entity.ErrFormat))
		})

		It("refuses to translate an empty transcript without calling the model", func() {
			_, err := uc.Translate(context.Background(), nil, spanish)
			Expect(err).To(MatchError(entity.ErrInvalidInput))
			Expect(provider.specs).To(BeEmpty())
		})

		It("bounds each call by the configured timeout", func() {
			provider.block = true
			uc = New(provider, 20*time.Millisecond, nil, log)

			_, err := uc.Transcribe(context.Background(), entity.Input{Text: "hi"})
			Expect(err).To(MatchError(context.DeadlineExceeded))
		})
	})

	Context("translation alignment", func() {
		source := entity.Transcript{
			{Timestamp: "00:00-00:05", Text: "Hello"},
			{Timestamp: "00:05-00:10", Text: "World"},
		}

		It("restores source timestamps when the model rewrites them", func() {
			provider.replies = []reply{{raw: `[{"timestamp":"0:00","text":"Hola"},{"timestamp":"0:05","text":"Mundo"}]`}}

			out, err := uc.Translate(context.Background(), source, spanish)
			Expect(err).ToNot(HaveOccurred())
			Expect(out.Timestamps()).To(Equal(source.Timestamps()))
			Expect(out[1].Text).To(Equal("Mundo"))
		})

		It("trusts the model when it merges segments", func() {
			provider.replies = []reply{{raw: `[{"timestamp":"00:00-00:10","text":"Hola Mundo"}]`}}

			out, err := uc.Translate(context.Background(), source, spanish)
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal(entity.Transcript{{Timestamp: "00:00-00:10", Text: "Hola Mundo"}}))
			Expect(source).To(HaveLen(2))
		})
	})
})
