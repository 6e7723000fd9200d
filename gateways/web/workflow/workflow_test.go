package workflow_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/xilidan/lingua/gateways/web/workflow"
	"github.com/xilidan/lingua/pkg/gen"
	"github.com/xilidan/lingua/services/transcriber/entity"
)

type mockGateway struct {
	mu    sync.Mutex
	calls []string

	transcribe func(ctx context.Context, input entity.Input) (entity.Transcript, error)
	translate  func(ctx context.Context, items entity.Transcript, lang entity.Language) (entity.Transcript, error)
}

func (g *mockGateway) Transcribe(ctx context.Context, input entity.Input) (entity.Transcript, error) {
	g.record("transcribe")
	return g.transcribe(ctx, input)
}

func (g *mockGateway) Translate(ctx context.Context, items entity.Transcript, lang entity.Language) (entity.Transcript, error) {
	g.record("translate")
	return g.translate(ctx, items, lang)
}

func (g *mockGateway) record(call string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, call)
}

func (g *mockGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

var (
	helloWorld = entity.Transcript{
		{Timestamp: "00:00-00:05", Text: "Hello"},
		{Timestamp: "00:05-00:10", Text: "World"},
	}
	holaMundo = entity.Transcript{
		{Timestamp: "00:00-00:05", Text: "Hola"},
		{Timestamp: "00:05-00:10", Text: "Mundo"},
	}
)

var _ = Describe("Session", func() {
	var (
		gateway *mockGateway
		session *Session
		spanish entity.Language
		clip    entity.Input
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		spanish, _ = entity.LookupLanguage("Spanish")
		clip = entity.Input{Audio: &entity.Audio{Name: "clip.wav", MediaType: "audio/wav", Data: []byte("RIFF")}}

		gateway = &mockGateway{
			transcribe: func(context.Context, entity.Input) (entity.Transcript, error) {
				return helloWorld.Clone(), nil
			},
			translate: func(context.Context, entity.Transcript, entity.Language) (entity.Transcript, error) {
				return holaMundo.Clone(), nil
			},
		}
		session = NewSession("s1", gateway, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	It("starts idle with nothing to export", func() {
		snap := session.Snapshot()
		Expect(snap.State).To(Equal(StateIdle))
		Expect(snap.Exportable()).To(BeFalse())
		Expect(session.Wait(ctx)).To(Succeed())
	})

	It("produces source and translation with unchanged timestamps", func() {
		Expect(session.Run(ctx, Request{Input: clip, Language: spanish})).To(Succeed())

		snap := session.Snapshot()
		Expect(snap.State).To(Equal(StateDone))
		Expect(snap.Mode).To(Equal(entity.ModeAudio))
		Expect(snap.AudioName).To(Equal("clip.wav"))
		Expect(snap.Source).To(Equal(helloWorld))
		Expect(snap.Translation).To(Equal(holaMundo))
		Expect(snap.Translation.Timestamps()).To(Equal(snap.Source.Timestamps()))
		Expect(snap.Exportable()).To(BeTrue())
		Expect(snap.Message()).To(BeEmpty())
		Expect(gateway.Calls()).To(Equal([]string{"transcribe", "translate"}))
	})

	It("passes the transcription result to translation", func() {
		var got entity.Transcript
		gateway.translate = func(_ context.Context, items entity.Transcript, lang entity.Language) (entity.Transcript, error) {
			got = items
			Expect(lang.ID).To(Equal("spanish"))
			return holaMundo.Clone(), nil
		}

		Expect(session.Run(ctx, Request{Input: clip, Language: spanish})).To(Succeed())
		Expect(got).To(Equal(helloWorld))
	})

	DescribeTable("rejects incomplete requests without calling the model",
		func(req Request, message string) {
			err := session.Run(ctx, req)

			var validationErr *entity.ValidationError
			Expect(errors.As(err, &validationErr)).To(BeTrue())
			Expect(validationErr.Message).To(Equal(message))
			Expect(gateway.Calls()).To(BeEmpty())
			Expect(session.Snapshot().State).To(Equal(StateIdle))
		},
		Entry("no file selected", Request{Mode: entity.ModeAudio, Language: entity.Language{ID: "spanish", Name: "Spanish"}}, "Please select an audio file"),
		Entry("empty file", Request{Input: entity.Input{Audio: &entity.Audio{Name: "a.wav"}}, Language: entity.Language{ID: "spanish", Name: "Spanish"}}, "Please select an audio file"),
		Entry("blank text", Request{Mode: entity.ModeText, Input: entity.Input{Text: "  "}, Language: entity.Language{ID: "spanish", Name: "Spanish"}}, "Please enter some text"),
		Entry("no language", Request{Mode: entity.ModeText, Input: entity.Input{Text: "hi"}}, "Please select a target language"),
	)

	It("keeps only the input matching the selected mode", func() {
		var got entity.Input
		gateway.transcribe = func(_ context.Context, input entity.Input) (entity.Transcript, error) {
			got = input
			return helloWorld.Clone(), nil
		}

		Expect(session.Run(ctx, Request{
			Mode:     entity.ModeText,
			Input:    entity.Input{Audio: clip.Audio, Text: "Hello world."},
			Language: spanish,
		})).To(Succeed())
		Expect(got.Audio).To(BeNil())
		Expect(got.Text).To(Equal("Hello world."))
		Expect(session.Snapshot().AudioName).To(BeEmpty())
	})

	It("never translates after a failed transcription", func() {
		gateway.transcribe = func(context.Context, entity.Input) (entity.Transcript, error) {
			return nil, errors.New("network unreachable")
		}

		err := session.Run(ctx, Request{Input: clip, Language: spanish})
		var transcriptionErr *entity.TranscriptionError
		Expect(errors.As(err, &transcriptionErr)).To(BeTrue())

		snap := session.Snapshot()
		Expect(snap.State).To(Equal(StateErrored))
		Expect(snap.Source).To(BeNil())
		Expect(snap.Message()).To(Equal("Transcription failed: network unreachable. Please try again."))
		Expect(gateway.Calls()).To(Equal([]string{"transcribe"}))
	})

	It("keeps the source when translation fails", func() {
		gateway.translate = func(context.Context, entity.Transcript, entity.Language) (entity.Transcript, error) {
			return nil, &entity.TranslationError{Cause: errors.New("quota exceeded")}
		}

		Expect(session.Run(ctx, Request{Input: clip, Language: spanish})).ToNot(Succeed())

		snap := session.Snapshot()
		Expect(snap.State).To(Equal(StateErrored))
		Expect(snap.Source).To(Equal(helloWorld))
		Expect(snap.Translation).To(BeNil())
		Expect(snap.Exportable()).To(BeFalse())
		Expect(snap.Message()).To(Equal("Translation failed: quota exceeded. Please try again."))
	})

	It("clears previous results before the next remote call", func() {
		gateway.translate = func(context.Context, entity.Transcript, entity.Language) (entity.Transcript, error) {
			return nil, errors.New("boom")
		}
		Expect(session.Run(ctx, Request{Input: clip, Language: spanish})).ToNot(Succeed())
		Expect(session.Snapshot().Err).To(HaveOccurred())

		var seen Snapshot
		gateway.transcribe = func(context.Context, entity.Input) (entity.Transcript, error) {
			seen = session.Snapshot()
			return helloWorld.Clone(), nil
		}
		gateway.translate = func(context.Context, entity.Transcript, entity.Language) (entity.Transcript, error) {
			return holaMundo.Clone(), nil
		}

		Expect(session.Run(ctx, Request{Mode: entity.ModeText, Input: entity.Input{Text: "Hello. World."}, Language: spanish})).To(Succeed())
		Expect(seen.State).To(Equal(StateTranscribing))
		Expect(seen.Source).To(BeNil())
		Expect(seen.Translation).To(BeNil())
		Expect(seen.Err).ToNot(HaveOccurred())
		Expect(seen.Mode).To(Equal(entity.ModeText))
	})

	It("shows the source while translation is still running", func() {
		release := make(chan struct{})
		gateway.translate = func(context.Context, entity.Transcript, entity.Language) (entity.Transcript, error) {
			<-release
			return holaMundo.Clone(), nil
		}

		Expect(session.Start(ctx, Request{Input: clip, Language: spanish})).To(Succeed())
		Eventually(func() State { return session.Snapshot().State }).Should(Equal(StateTranslating))

		snap := session.Snapshot()
		Expect(snap.Source).To(Equal(helloWorld))
		Expect(snap.Translation).To(BeNil())
		Expect(snap.Exportable()).To(BeFalse())

		close(release)
		Expect(session.Wait(ctx)).To(Succeed())
		Expect(session.Snapshot().State).To(Equal(StateDone))
	})

	It("rejects a second request while busy", func() {
		release := make(chan struct{})
		gateway.transcribe = func(context.Context, entity.Input) (entity.Transcript, error) {
			<-release
			return helloWorld.Clone(), nil
		}

		Expect(session.Start(ctx, Request{Input: clip, Language: spanish})).To(Succeed())
		Expect(session.Snapshot().State).To(Equal(StateTranscribing))
		Expect(session.Start(ctx, Request{Input: clip, Language: spanish})).To(MatchError(ErrBusy))
		Expect(session.Run(ctx, Request{})).To(MatchError(ErrBusy))

		close(release)
		Expect(session.Wait(ctx)).To(Succeed())
		Expect(gateway.Calls()).To(Equal([]string{"transcribe", "translate"}))
		Expect(session.Snapshot().State).To(Equal(StateDone))
	})

	It("stops the pipeline when closed", func() {
		gateway.transcribe = func(ctx context.Context, _ entity.Input) (entity.Transcript, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}

		Expect(session.Start(ctx, Request{Input: clip, Language: spanish})).To(Succeed())
		session.Close()

		waitCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		Expect(session.Wait(waitCtx)).To(Succeed())

		snap := session.Snapshot()
		Expect(snap.State).To(Equal(StateErrored))
		Expect(snap.Err).To(MatchError(context.Canceled))
		Expect(gateway.Calls()).To(Equal([]string{"transcribe"}))
	})
})

var _ = Describe("Manager", func() {
	var (
		gateway *mockGateway
		manager *Manager
		ids     []uuid.UUID
	)

	BeforeEach(func() {
		gateway = &mockGateway{
			transcribe: func(context.Context, entity.Input) (entity.Transcript, error) {
				return helloWorld.Clone(), nil
			},
			translate: func(context.Context, entity.Transcript, entity.Language) (entity.Transcript, error) {
				return holaMundo.Clone(), nil
			},
		}
		ids = []uuid.UUID{uuid.New(), uuid.New()}
		manager = NewManager(context.Background(), gateway, gen.Sequence(ids...), nil,
			slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	It("keeps sessions independent", func() {
		a := manager.Create()
		b := manager.Create()
		Expect(a.ID()).To(Equal(ids[0].String()))
		Expect(b.ID()).To(Equal(ids[1].String()))
		Expect(manager.Len()).To(Equal(2))

		spanish, _ := entity.LookupLanguage("spanish")
		Expect(a.Run(context.Background(), Request{Mode: entity.ModeText, Input: entity.Input{Text: "Hello"}, Language: spanish})).To(Succeed())
		Expect(a.Snapshot().State).To(Equal(StateDone))
		Expect(b.Snapshot().State).To(Equal(StateIdle))

		got, ok := manager.Get(a.ID())
		Expect(ok).To(BeTrue())
		Expect(got).To(BeIdenticalTo(a))

		Expect(manager.Delete(a.ID())).To(BeTrue())
		Expect(manager.Delete(a.ID())).To(BeFalse())
		_, ok = manager.Get(a.ID())
		Expect(ok).To(BeFalse())
	})

	It("reports finished pipelines to hooks", func() {
		type result struct {
			snap  Snapshot
			input entity.Input
		}
		results := make(chan result, 1)
		manager.OnDone(func(_ context.Context, snap Snapshot, input entity.Input) {
			results <- result{snap, input}
		})

		s := manager.Create()
		tamil, _ := entity.LookupLanguage("tamil")
		Expect(manager.Start(s, Request{Mode: entity.ModeText, Input: entity.Input{Text: "Hello"}, Language: tamil})).To(Succeed())

		var r result
		Eventually(results).Should(Receive(&r))
		Expect(r.snap.ID).To(Equal(s.ID()))
		Expect(r.snap.State).To(Equal(StateDone))
		Expect(r.snap.Language.ID).To(Equal("tamil"))
		Expect(r.input.Text).To(Equal("Hello"))
	})

	It("prunes idle sessions only", func() {
		s := manager.Create()
		Expect(manager.Prune(time.Hour)).To(Equal(0))
		Expect(manager.Prune(0)).To(Equal(1))
		_, ok := manager.Get(s.ID())
		Expect(ok).To(BeFalse())
	})
})
