package pipeline

import (
	"context"
	"log/slog"
	"math"
	"time"

	"subflow/internal/checkpoint"
	"subflow/internal/config"
	"subflow/internal/faults"
	"subflow/internal/ffprogress"
	"subflow/internal/logging"
	"subflow/internal/media"
	"subflow/internal/stage"
	"subflow/internal/subtitles"
	"subflow/internal/timedtext"
)

// Orchestrator runs jobs through the five stages in order. One
// orchestrator may serve many jobs; instances share no per-job state.
type Orchestrator struct {
	cfg    *config.Config
	store  *checkpoint.Store
	collab Collaborators
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// New constructs an orchestrator. The store may be nil, in which case
// no checkpoints are persisted.
func New(cfg *config.Config, store *checkpoint.Store, collab Collaborators, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		cfg:    cfg,
		store:  store,
		collab: collab,
		logger: logger,
		sleep:  sleepContext,
	}
}

// Execute runs the job and returns its event stream. The channel is
// closed after a terminal Failed or Completed event; a stream is not
// restartable. Cancelling ctx cancels the active stage operation and
// leaves the last saved checkpoint untouched.
func (o *Orchestrator) Execute(ctx context.Context, job Job, cp *checkpoint.Checkpoint) <-chan Event {
	buffer := o.cfg.Workflow.EventBufferSize
	if buffer <= 0 {
		buffer = 1
	}
	events := make(chan Event, buffer)
	go func() {
		defer close(events)
		o.run(ctx, job, cp, events)
	}()
	return events
}

type emitFunc func(Event) bool

type jobState struct {
	videoPath  string
	transcript *timedtext.Transcript
	translated *timedtext.Transcript
	result     media.RenderResult
	format     string
	model      string
	encoder    string
}

func (o *Orchestrator) run(ctx context.Context, job Job, cp *checkpoint.Checkpoint, events chan<- Event) {
	ctx = logging.WithJobID(ctx, job.ID)
	logger := logging.WithContext(ctx, o.logger)
	start := time.Now()

	emit := func(event Event) bool {
		select {
		case events <- event:
			return true
		case <-ctx.Done():
			return false
		}
	}

	state := &jobState{
		format:  job.DownloadFormat,
		model:   job.TranscriptionModel,
		encoder: job.Output.Encoder,
	}

	first := stage.Download
	if cp != nil {
		if err := cp.Validate(time.Now()); err != nil {
			logger.Warn("checkpoint rejected, restarting from download", logging.Error(err))
		} else if next, ok := cp.NextStage(); ok {
			first = next
			state.videoPath = cp.DownloadedVideoPath
			state.transcript = cp.Transcript
			state.translated = cp.TranslatedTranscript
			logger.Info("resuming from checkpoint",
				logging.String(logging.FieldStage, first.String()),
				logging.String("last_completed", cp.LastCompletedStage.String()),
			)
		} else {
			logger.Warn("checkpoint already terminal, restarting from download")
		}
	}

	for _, st := range stage.All {
		if st.Order() < first.Order() {
			continue
		}
		if ctx.Err() != nil {
			o.emitCancelled(events, st)
			return
		}
		stageCtx := logging.WithStage(ctx, st.String())
		stageLogger := logging.WithContext(stageCtx, o.logger)

		if st == stage.Transcription && state.transcript != nil && len(state.transcript.Spans) > 0 {
			stageLogger.Info("stage skipped",
				logging.String(logging.FieldEventType, "stage_skip"),
				logging.String("reason", "captions available"),
			)
			if !emit(StageSkipped{Stage: st, Reason: "captions available"}) {
				o.emitCancelled(events, st)
				return
			}
			continue
		}

		stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
		if !emit(StageStarted{Stage: st}) {
			o.emitCancelled(events, st)
			return
		}

		outcome := o.executeStage(stageCtx, st, job, state, emit, stageLogger)
		switch outcome.Kind {
		case OutcomeFailure:
			ferr := outcome.Err
			if ferr.Code == faults.CodeCancelled {
				o.emitCancelled(events, st)
				return
			}
			// Only the caption probe may fail without aborting; a failed
			// transcription leaves nothing to translate.
			if st == stage.CaptionCheck {
				stageLogger.Warn("caption check failed, continuing without captions",
					logging.String(logging.FieldErrorCode, string(ferr.Code)),
					logging.Error(ferr),
				)
				if !emit(StageSkipped{Stage: st, Reason: ferr.Message}) {
					o.emitCancelled(events, st)
					return
				}
				continue
			}
			stageLogger.Error("stage failed",
				logging.String(logging.FieldEventType, "stage_failed"),
				logging.String(logging.FieldErrorCode, string(ferr.Code)),
				logging.Int(logging.FieldAttempt, outcome.Attempt),
				logging.Error(ferr),
			)
			emit(Failed{Err: ferr})
			return

		case OutcomeSkipped:
			if !emit(StageSkipped{Stage: st, Reason: outcome.Reason}) {
				o.emitCancelled(events, st)
				return
			}
			continue

		default:
			stageLogger.Info("stage completed",
				logging.String(logging.FieldEventType, "stage_complete"),
				logging.Duration("elapsed", outcome.Duration),
			)
			if !emit(StageCompleted{Stage: st, Duration: outcome.Duration}) {
				o.emitCancelled(events, st)
				return
			}
			o.saveCheckpoint(stageCtx, job, st, state, emit, stageLogger)
		}
	}

	emit(Completed{Result: state.result, Duration: time.Since(start)})
	logger.Info("pipeline completed", logging.Duration("elapsed", time.Since(start)))
}

// executeStage runs one stage to its terminal outcome, recovery
// included.
func (o *Orchestrator) executeStage(ctx context.Context, st stage.Name, job Job, state *jobState, emit emitFunc, logger *slog.Logger) Outcome[*jobState] {
	start := time.Now()
	skipReason, attempts, ferr := o.runStage(ctx, st, job, state, emit, logger)
	switch {
	case ferr != nil:
		return Failure[*jobState](ferr, attempts)
	case skipReason != "":
		return Skipped[*jobState](skipReason)
	}
	return Success(state, time.Since(start))
}

func (o *Orchestrator) runStage(ctx context.Context, st stage.Name, job Job, state *jobState, emit emitFunc, logger *slog.Logger) (string, int, *faults.Error) {
	// One progress wrapper per stage so fractions stay non-decreasing
	// across retries and fallback attempts.
	progress := stageProgress(st, emit)

	switch st {
	case stage.Download:
		return o.withRecovery(ctx, st, emit, logger, &state.format, func(ctx context.Context, format string) error {
			path, err := o.collab.Downloader.Download(ctx, job.Video, format, progress)
			if err != nil {
				return err
			}
			state.videoPath = path
			progress(1, "")
			return nil
		})

	case stage.CaptionCheck:
		return o.withRecovery(ctx, st, emit, logger, nil, func(ctx context.Context, _ string) error {
			transcript, err := o.collab.Downloader.ExtractCaptions(ctx, job.Video, job.CaptionLanguage)
			if err != nil {
				return err
			}
			if transcript != nil && len(transcript.Spans) > 0 {
				state.transcript = o.cleanTranscript(transcript, job, logger)
			}
			progress(1, "")
			return nil
		})

	case stage.Transcription:
		return o.withRecovery(ctx, st, emit, logger, &state.model, func(ctx context.Context, model string) error {
			transcript, err := o.collab.Transcriber.Transcribe(ctx, state.videoPath, job.CaptionLanguage, model, progress)
			if err != nil {
				return err
			}
			state.transcript = o.cleanTranscript(transcript, job, logger)
			progress(1, "")
			return nil
		})

	case stage.Translation:
		return o.withRecovery(ctx, st, emit, logger, nil, func(ctx context.Context, _ string) error {
			translated, err := o.collab.Translator.Translate(ctx, state.transcript, job.TargetLanguage, progress)
			if err != nil {
				return err
			}
			state.translated = translated
			progress(1, "")
			return nil
		})

	case stage.Rendering:
		var lastFraction float64
		return o.withRecovery(ctx, st, emit, logger, &state.encoder, func(ctx context.Context, encoder string) error {
			return o.renderOnce(ctx, st, job, state, encoder, emit, &lastFraction)
		})
	}
	return "", 0, nil
}

func (o *Orchestrator) renderOnce(ctx context.Context, st stage.Name, job Job, state *jobState, encoder string, emit emitFunc, lastFraction *float64) error {
	markup := subtitles.FormatASS(state.translated.Spans, job.Style)
	parser := ffprogress.NewParser(job.Video.DurationMs)

	lines := func(line string) {
		if duration, ok := ffprogress.ExtractDuration(line); ok {
			parser.SetTotal(duration)
			return
		}
		snapshot, ok := parser.Apply(line)
		if !ok {
			return
		}
		if snapshot.Fraction < *lastFraction {
			snapshot.Fraction = *lastFraction
		}
		*lastFraction = snapshot.Fraction
		emit(StageProgress{Stage: st, Fraction: snapshot.Fraction, Snapshot: &snapshot})
	}

	opts := job.Output
	opts.Encoder = encoder
	result, err := o.collab.Renderer.Render(ctx, state.videoPath, markup, opts, lines)
	if err != nil {
		return err
	}
	state.result = result
	if *lastFraction < 1 {
		snapshot, _ := parser.Apply("progress=end")
		*lastFraction = 1
		emit(StageProgress{Stage: st, Fraction: 1, Snapshot: &snapshot})
	}
	return nil
}

// withRecovery invokes op and executes the recovery policy on failure.
// param, when non-nil, is the fallback-substitutable parameter for the
// stage; fallback substitutions persist across attempts.
func (o *Orchestrator) withRecovery(ctx context.Context, st stage.Name, emit emitFunc, logger *slog.Logger, param *string, op func(ctx context.Context, param string) error) (string, int, *faults.Error) {
	current := ""
	if param != nil {
		current = *param
	}
	attempt := 1
	var fallback *faults.RetryWithFallback

	for {
		err := op(ctx, current)
		if err == nil {
			return "", attempt, nil
		}
		ferr := faults.ClassifyErr(err, st)
		if ferr.Code == faults.CodeCancelled {
			return "", attempt, ferr
		}

		switch strategy := faults.Decide(ferr).(type) {
		case faults.Retry:
			if attempt >= strategy.MaxAttempts {
				return "", attempt, ferr
			}
			delay := backoffDelay(strategy, attempt)
			logger.Warn("retrying stage",
				logging.Int(logging.FieldAttempt, attempt),
				logging.Duration("delay", delay),
				logging.String(logging.FieldErrorCode, string(ferr.Code)),
			)
			if !emit(RecoveryAttempted{Stage: st, Attempt: attempt, Delay: delay, Err: ferr}) {
				return "", attempt, faults.ClassifyErr(context.Canceled, st)
			}
			if serr := o.sleep(ctx, delay); serr != nil {
				return "", attempt, faults.ClassifyErr(serr, st)
			}
			attempt++

		case faults.RetryWithFallback:
			if fallback == nil {
				next := strategy
				if next.Current() == current {
					if !next.HasMore() {
						return "", attempt, ferr
					}
					next.Index++
				}
				fallback = &next
			} else {
				if !fallback.HasMore() {
					return "", attempt, ferr
				}
				fallback.Index++
			}
			current = fallback.Current()
			if param != nil {
				*param = current
			}
			attempt++
			logger.Warn("retrying stage with fallback",
				logging.Int(logging.FieldAttempt, attempt),
				logging.String("fallback", current),
				logging.String(logging.FieldErrorCode, string(ferr.Code)),
			)
			if !emit(RecoveryAttempted{Stage: st, Attempt: attempt, Fallback: current, Err: ferr}) {
				return "", attempt, faults.ClassifyErr(context.Canceled, st)
			}

		case faults.Skip:
			if st.Essential() {
				return "", attempt, ferr
			}
			return strategy.Reason, attempt, nil

		case faults.Resume:
			return "", attempt, ferr

		case faults.Abort:
			return "", attempt, ferr

		default:
			return "", attempt, ferr
		}
	}
}

func (o *Orchestrator) cleanTranscript(transcript *timedtext.Transcript, job Job, logger *slog.Logger) *timedtext.Transcript {
	spans := timedtext.FilterLowConfidence(transcript.Spans, job.MaxNoSpeechProb)
	result := timedtext.Dedupe(spans)
	if result.RemovedCount > 0 {
		logger.Debug("deduplicated transcript",
			logging.Int("original", result.OriginalCount),
			logging.Int("removed", result.RemovedCount),
		)
	}
	return &timedtext.Transcript{Language: transcript.Language, Spans: result.Spans}
}

func (o *Orchestrator) saveCheckpoint(ctx context.Context, job Job, st stage.Name, state *jobState, emit emitFunc, logger *slog.Logger) {
	if o.store == nil {
		return
	}
	cp := &checkpoint.Checkpoint{
		JobID:                job.ID,
		CreatedAt:            time.Now().UTC(),
		LastCompletedStage:   st,
		DownloadedVideoPath:  state.videoPath,
		Transcript:           state.transcript,
		TranslatedTranscript: state.translated,
		Video:                job.Video,
		TargetLanguage:       job.TargetLanguage,
		Output:               job.Output,
	}
	if err := o.store.Save(ctx, cp); err != nil {
		logger.Warn("checkpoint save failed", logging.Error(err))
		return
	}
	emit(CheckpointSaved{JobID: job.ID, Stage: st})
}

// emitCancelled makes a best-effort attempt to deliver the terminal
// cancellation event; a departed consumer is not waited on.
func (o *Orchestrator) emitCancelled(events chan<- Event, st stage.Name) {
	ferr := faults.ClassifyErr(context.Canceled, st)
	select {
	case events <- Failed{Err: ferr}:
	default:
	}
}

func stageProgress(st stage.Name, emit emitFunc) ProgressFunc {
	var last float64
	return func(fraction float64, message string) {
		if fraction > 1 {
			fraction = 1
		}
		if fraction < last {
			fraction = last
		}
		last = fraction
		emit(StageProgress{Stage: st, Fraction: fraction, Message: message})
	}
}

func backoffDelay(strategy faults.Retry, attempt int) time.Duration {
	return time.Duration(float64(strategy.Delay) * math.Pow(strategy.BackoffMultiplier, float64(attempt-1)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
