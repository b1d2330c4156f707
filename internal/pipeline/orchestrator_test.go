package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"subflow/internal/checkpoint"
	"subflow/internal/faults"
	"subflow/internal/logging"
	"subflow/internal/media"
	"subflow/internal/stage"
	"subflow/internal/testsupport"
	"subflow/internal/timedtext"
)

type fakeDownloader struct {
	path      string
	captions  *timedtext.Transcript
	failures  []error
	calls     int
	formats   []string
	fractions []float64
}

func (d *fakeDownloader) Download(ctx context.Context, video media.VideoDescriptor, format string, progress ProgressFunc) (string, error) {
	d.calls++
	d.formats = append(d.formats, format)
	for _, f := range d.fractions {
		progress(f, "")
	}
	if len(d.failures) > 0 {
		err := d.failures[0]
		d.failures = d.failures[1:]
		if err != nil {
			return "", err
		}
	}
	return d.path, nil
}

func (d *fakeDownloader) ExtractCaptions(ctx context.Context, video media.VideoDescriptor, language string) (*timedtext.Transcript, error) {
	return d.captions, nil
}

type fakeTranscriber struct {
	transcript *timedtext.Transcript
	failures   []error
	calls      int
	models     []string
}

func (t *fakeTranscriber) Transcribe(ctx context.Context, audioPath, language, model string, progress ProgressFunc) (*timedtext.Transcript, error) {
	t.calls++
	t.models = append(t.models, model)
	if len(t.failures) > 0 {
		err := t.failures[0]
		t.failures = t.failures[1:]
		if err != nil {
			return nil, err
		}
	}
	progress(0.5, "transcribing")
	return t.transcript, nil
}

type fakeTranslator struct {
	failures []error
	calls    int
}

func (t *fakeTranslator) Translate(ctx context.Context, transcript *timedtext.Transcript, targetLanguage string, progress ProgressFunc) (*timedtext.Transcript, error) {
	t.calls++
	if len(t.failures) > 0 {
		err := t.failures[0]
		t.failures = t.failures[1:]
		if err != nil {
			return nil, err
		}
	}
	translated := &timedtext.Transcript{Language: targetLanguage}
	for _, span := range transcript.Spans {
		span.Text = "[" + targetLanguage + "] " + span.Text
		translated.Spans = append(translated.Spans, span)
	}
	return translated, nil
}

type fakeRenderer struct {
	failures []error
	calls    int
	encoders []string
	lines    []string
	blocked  chan struct{}
}

func (r *fakeRenderer) Render(ctx context.Context, videoPath, subtitles string, opts media.OutputOptions, lines LineFunc) (media.RenderResult, error) {
	r.calls++
	r.encoders = append(r.encoders, opts.Encoder)
	if r.blocked != nil {
		close(r.blocked)
		r.blocked = nil
		<-ctx.Done()
		return media.RenderResult{}, ctx.Err()
	}
	if len(r.failures) > 0 {
		err := r.failures[0]
		r.failures = r.failures[1:]
		if err != nil {
			return media.RenderResult{}, err
		}
	}
	for _, line := range r.lines {
		lines(line)
	}
	return media.RenderResult{
		VideoFile:  filepath.Join(opts.Directory, "out.mp4"),
		DurationMs: 10000,
	}, nil
}

func sourceTranscript() *timedtext.Transcript {
	return &timedtext.Transcript{
		Language: "en",
		Spans: []timedtext.Span{
			{Index: 1, StartMs: 0, EndMs: 2000, Text: "hello world"},
			{Index: 2, StartMs: 2000, EndMs: 4000, Text: "second line"},
		},
	}
}

type fixture struct {
	orch        *Orchestrator
	store       *checkpoint.Store
	job         Job
	downloader  *fakeDownloader
	transcriber *fakeTranscriber
	translator  *fakeTranslator
	renderer    *fakeRenderer
	sleeps      []time.Duration
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	f := &fixture{
		store:       store,
		downloader:  &fakeDownloader{path: "/tmp/video.mp4"},
		transcriber: &fakeTranscriber{transcript: sourceTranscript()},
		translator:  &fakeTranslator{},
		renderer:    &fakeRenderer{},
	}
	f.orch = New(cfg, store, Collaborators{
		Downloader:  f.downloader,
		Transcriber: f.transcriber,
		Translator:  f.translator,
		Renderer:    f.renderer,
	}, logging.NewNop())
	f.orch.sleep = func(ctx context.Context, d time.Duration) error {
		f.sleeps = append(f.sleeps, d)
		return ctx.Err()
	}
	f.job = NewJob(cfg, media.VideoDescriptor{URL: "https://example.com/v", ID: "v", DurationMs: 10000})
	return f
}

func collect(ch <-chan Event) []Event {
	var events []Event
	for event := range ch {
		events = append(events, event)
	}
	return events
}

func stageStarts(events []Event) []stage.Name {
	var starts []stage.Name
	for _, event := range events {
		if started, ok := event.(StageStarted); ok {
			starts = append(starts, started.Stage)
		}
	}
	return starts
}

func TestExecuteRunsAllStagesWhenNoCaptions(t *testing.T) {
	f := newFixture(t)

	events := collect(f.orch.Execute(context.Background(), f.job, nil))
	if len(events) == 0 {
		t.Fatal("no events emitted")
	}

	want := []stage.Name{stage.Download, stage.CaptionCheck, stage.Transcription, stage.Translation, stage.Rendering}
	starts := stageStarts(events)
	if len(starts) != len(want) {
		t.Fatalf("stage starts = %v, want %v", starts, want)
	}
	for i := range want {
		if starts[i] != want[i] {
			t.Fatalf("stage starts = %v, want %v", starts, want)
		}
	}

	last := events[len(events)-1]
	completed, ok := last.(Completed)
	if !ok {
		t.Fatalf("last event = %T, want Completed", last)
	}
	if completed.Result.VideoFile == "" {
		t.Error("Completed carries no video file")
	}
	for _, event := range events[:len(events)-1] {
		if event.Terminal() {
			t.Fatalf("terminal event %T before end of stream", event)
		}
	}

	if f.transcriber.calls != 1 {
		t.Errorf("transcriber calls = %d, want 1", f.transcriber.calls)
	}

	cp, err := f.store.Load(context.Background(), f.job.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cp == nil || cp.LastCompletedStage != stage.Rendering {
		t.Fatalf("checkpoint = %+v, want last stage rendering", cp)
	}
}

func TestStageStartedPrecedesOtherStageEvents(t *testing.T) {
	f := newFixture(t)
	f.downloader.fractions = []float64{0.5}

	events := collect(f.orch.Execute(context.Background(), f.job, nil))

	started := map[stage.Name]bool{}
	for _, event := range events {
		switch e := event.(type) {
		case StageStarted:
			if started[e.Stage] {
				t.Fatalf("duplicate StageStarted for %s", e.Stage)
			}
			started[e.Stage] = true
		case StageProgress:
			if !started[e.Stage] {
				t.Fatalf("progress for %s before StageStarted", e.Stage)
			}
		case StageCompleted:
			if !started[e.Stage] {
				t.Fatalf("completion for %s before StageStarted", e.Stage)
			}
		}
	}
	if len(started) != len(stage.All) {
		t.Fatalf("StageStarted emitted for %d stages, want %d", len(started), len(stage.All))
	}
}

func TestExecuteSkipsTranscriptionWhenCaptionsExist(t *testing.T) {
	f := newFixture(t)
	f.downloader.captions = sourceTranscript()

	events := collect(f.orch.Execute(context.Background(), f.job, nil))

	var skips []StageSkipped
	for _, event := range events {
		if skip, ok := event.(StageSkipped); ok {
			skips = append(skips, skip)
		}
	}
	if len(skips) != 1 || skips[0].Stage != stage.Transcription {
		t.Fatalf("skips = %+v, want exactly one for transcription", skips)
	}
	if f.transcriber.calls != 0 {
		t.Errorf("transcriber invoked %d times despite captions", f.transcriber.calls)
	}
	if _, ok := events[len(events)-1].(Completed); !ok {
		t.Fatalf("last event = %T, want Completed", events[len(events)-1])
	}
}

func TestExecuteRetriesTransientFailures(t *testing.T) {
	f := newFixture(t)
	f.translator.failures = []error{
		errors.New("request timed out"),
		errors.New("request timed out"),
		nil,
	}

	events := collect(f.orch.Execute(context.Background(), f.job, nil))

	var attempts []RecoveryAttempted
	for _, event := range events {
		if attempt, ok := event.(RecoveryAttempted); ok {
			attempts = append(attempts, attempt)
		}
	}
	if len(attempts) != 2 {
		t.Fatalf("recovery attempts = %d, want 2", len(attempts))
	}
	if attempts[0].Err.Code != faults.CodeNetworkTimeout {
		t.Errorf("attempt code = %s, want network_timeout", attempts[0].Err.Code)
	}
	if len(f.sleeps) != 2 || f.sleeps[0] != 5*time.Second || f.sleeps[1] != 10*time.Second {
		t.Errorf("backoff delays = %v, want [5s 10s]", f.sleeps)
	}
	if _, ok := events[len(events)-1].(Completed); !ok {
		t.Fatalf("last event = %T, want Completed", events[len(events)-1])
	}
	if f.translator.calls != 3 {
		t.Errorf("translator calls = %d, want 3", f.translator.calls)
	}
}

func TestExecuteFallsBackToSoftwareEncoding(t *testing.T) {
	f := newFixture(t)
	f.renderer.failures = []error{errors.New("ffmpeg exited with status 1"), nil}

	events := collect(f.orch.Execute(context.Background(), f.job, nil))

	var fallback *RecoveryAttempted
	for _, event := range events {
		if attempt, ok := event.(RecoveryAttempted); ok && attempt.Fallback != "" {
			attempt := attempt
			fallback = &attempt
		}
	}
	if fallback == nil || fallback.Fallback != "software" {
		t.Fatalf("fallback attempt = %+v, want software encoder", fallback)
	}
	if len(f.renderer.encoders) != 2 || f.renderer.encoders[1] != "software" {
		t.Fatalf("renderer encoders = %v, want second call with software", f.renderer.encoders)
	}
	if _, ok := events[len(events)-1].(Completed); !ok {
		t.Fatalf("last event = %T, want Completed", events[len(events)-1])
	}
}

func TestExecuteExhaustsDownloadFormatFallbacks(t *testing.T) {
	f := newFixture(t)
	f.downloader.failures = []error{
		errors.New("ffmpeg error while downloading"),
		errors.New("ffmpeg error while downloading"),
		errors.New("ffmpeg error while downloading"),
		errors.New("ffmpeg error while downloading"),
	}

	events := collect(f.orch.Execute(context.Background(), f.job, nil))

	last := events[len(events)-1]
	failed, ok := last.(Failed)
	if !ok {
		t.Fatalf("last event = %T, want Failed", last)
	}
	if failed.Err.Code != faults.CodeEncodingFailed {
		t.Errorf("failure code = %s", failed.Err.Code)
	}
	// Default format is first on the ladder, so the three remaining
	// options are tried before giving up.
	if len(f.downloader.formats) != 4 {
		t.Fatalf("download formats = %v, want 4 attempts", f.downloader.formats)
	}
	wantFormats := []string{"best", "720p", "480p", "audio-only"}
	for i, format := range wantFormats {
		if f.downloader.formats[i] != format {
			t.Fatalf("download formats = %v, want %v", f.downloader.formats, wantFormats)
		}
	}
}

func TestExecuteAbortsOnPrivateVideo(t *testing.T) {
	f := newFixture(t)
	f.downloader.failures = []error{errors.New("ERROR: Private video. Sign in if you've been granted access")}

	events := collect(f.orch.Execute(context.Background(), f.job, nil))

	last := events[len(events)-1]
	failed, ok := last.(Failed)
	if !ok {
		t.Fatalf("last event = %T, want Failed", last)
	}
	if failed.Err.Code != faults.CodeVideoPrivate {
		t.Errorf("failure code = %s, want video_private", failed.Err.Code)
	}
	if f.transcriber.calls != 0 || f.translator.calls != 0 || f.renderer.calls != 0 {
		t.Error("later stages ran after terminal download failure")
	}

	cp, err := f.store.Load(context.Background(), f.job.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cp != nil {
		t.Fatalf("checkpoint written for failed download: %+v", cp)
	}
}

func TestExecuteProgressIsMonotonic(t *testing.T) {
	f := newFixture(t)
	f.downloader.fractions = []float64{0.5, 0.3, 0.8}

	events := collect(f.orch.Execute(context.Background(), f.job, nil))

	last := map[stage.Name]float64{}
	for _, event := range events {
		progress, ok := event.(StageProgress)
		if !ok {
			continue
		}
		if progress.Fraction < last[progress.Stage] {
			t.Fatalf("fraction regressed in %s: %f after %f", progress.Stage, progress.Fraction, last[progress.Stage])
		}
		last[progress.Stage] = progress.Fraction
	}
	for _, st := range []stage.Name{stage.Download, stage.Rendering} {
		if last[st] != 1 {
			t.Errorf("stage %s never reached terminal progress, last = %f", st, last[st])
		}
	}
}

func TestExecuteParsesRendererProgressLines(t *testing.T) {
	f := newFixture(t)
	f.renderer.lines = []string{
		"out_time_us=1500000",
		"speed=2.0x",
		"progress=end",
	}

	events := collect(f.orch.Execute(context.Background(), f.job, nil))

	var snapshots []StageProgress
	for _, event := range events {
		if progress, ok := event.(StageProgress); ok && progress.Snapshot != nil {
			snapshots = append(snapshots, progress)
		}
	}
	if len(snapshots) < 2 {
		t.Fatalf("snapshots = %d, want at least 2", len(snapshots))
	}
	first := snapshots[0].Snapshot
	if first.CurrentMs != 1500 {
		t.Errorf("CurrentMs = %d, want 1500", first.CurrentMs)
	}
	final := snapshots[len(snapshots)-1].Snapshot
	if final.Fraction != 1 {
		t.Errorf("final fraction = %f, want 1", final.Fraction)
	}
}

func TestExecuteResumesFromCheckpoint(t *testing.T) {
	f := newFixture(t)

	videoPath := filepath.Join(t.TempDir(), "video.mp4")
	testsupport.WriteFile(t, videoPath, 32)

	translated := &timedtext.Transcript{
		Language: "es",
		Spans:    []timedtext.Span{{Index: 1, StartMs: 0, EndMs: 2000, Text: "hola"}},
	}
	cp := &checkpoint.Checkpoint{
		JobID:                f.job.ID,
		CreatedAt:            time.Now().UTC(),
		LastCompletedStage:   stage.Translation,
		DownloadedVideoPath:  videoPath,
		Transcript:           sourceTranscript(),
		TranslatedTranscript: translated,
		Video:                f.job.Video,
		TargetLanguage:       f.job.TargetLanguage,
		Output:               f.job.Output,
	}

	events := collect(f.orch.Execute(context.Background(), f.job, cp))

	starts := stageStarts(events)
	if len(starts) != 1 || starts[0] != stage.Rendering {
		t.Fatalf("stage starts = %v, want only rendering", starts)
	}
	if f.downloader.calls != 0 || f.transcriber.calls != 0 || f.translator.calls != 0 {
		t.Error("completed stages re-ran on resume")
	}
	if _, ok := events[len(events)-1].(Completed); !ok {
		t.Fatalf("last event = %T, want Completed", events[len(events)-1])
	}
}

func TestExecuteRestartsWhenCheckpointArtifactMissing(t *testing.T) {
	f := newFixture(t)

	cp := &checkpoint.Checkpoint{
		JobID:               f.job.ID,
		CreatedAt:           time.Now().UTC(),
		LastCompletedStage:  stage.Download,
		DownloadedVideoPath: filepath.Join(t.TempDir(), "gone.mp4"),
		Video:               f.job.Video,
	}

	events := collect(f.orch.Execute(context.Background(), f.job, cp))

	starts := stageStarts(events)
	if len(starts) == 0 || starts[0] != stage.Download {
		t.Fatalf("stage starts = %v, want restart from download", starts)
	}
	if f.downloader.calls != 1 {
		t.Errorf("downloader calls = %d, want 1", f.downloader.calls)
	}
}

func TestCancelMidRenderingKeepsTranslationCheckpoint(t *testing.T) {
	f := newFixture(t)
	started := make(chan struct{})
	f.renderer.blocked = started

	ctx, cancel := context.WithCancel(context.Background())
	stream := f.orch.Execute(ctx, f.job, nil)

	done := make(chan []Event, 1)
	go func() { done <- collect(stream) }()

	<-started
	cancel()
	events := <-done

	for _, event := range events {
		if _, ok := event.(Completed); ok {
			t.Fatal("Completed emitted for cancelled job")
		}
	}

	cp, err := f.store.Load(context.Background(), f.job.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cp == nil || cp.LastCompletedStage != stage.Translation {
		t.Fatalf("checkpoint = %+v, want last stage translation", cp)
	}
}

func TestCheckpointSavedAfterEachCompletedStage(t *testing.T) {
	f := newFixture(t)
	f.downloader.captions = sourceTranscript()

	events := collect(f.orch.Execute(context.Background(), f.job, nil))

	var saved []stage.Name
	for _, event := range events {
		if save, ok := event.(CheckpointSaved); ok {
			saved = append(saved, save.Stage)
		}
	}
	want := []stage.Name{stage.Download, stage.CaptionCheck, stage.Translation, stage.Rendering}
	if len(saved) != len(want) {
		t.Fatalf("checkpoint saves = %v, want %v", saved, want)
	}
	for i := range want {
		if saved[i] != want[i] {
			t.Fatalf("checkpoint saves = %v, want %v", saved, want)
		}
	}
}
