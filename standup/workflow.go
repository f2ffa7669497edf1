package standup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"standupbot/db"
)

// Workflow steps. A fresh workflow starts collecting, suspends at
// waiting_for_responses, and terminates at completed or error. Summarizing
// is the transient claim marker held while a resume is executing, so a
// duplicate resume cannot run summarization twice.
const (
	StepCollecting  = "collecting"
	StepWaiting     = "waiting_for_responses"
	StepSummarizing = "summarizing"
	StepCompleted   = "completed"
	StepError       = "error"
)

// ActionResume is the delayed-action name bound to a thread id when a round
// starts.
const ActionResume = "resume_standup"

var (
	ErrUnknownThread    = errors.New("no workflow checkpoint for thread id")
	ErrResumeInProgress = errors.New("workflow resume already in progress")
)

// Coordinator drives a round's workflow as a durable state machine. Between
// suspension and resume it holds no goroutine: all state lives in the
// checkpoint, addressed by thread id, so a different process may resume.
type Coordinator struct {
	store      Store
	rounds     *Lifecycle
	summarizer *Summarizer
	delay      DelayScheduler
	log        *logrus.Logger
}

func NewCoordinator(store Store, rounds *Lifecycle, summarizer *Summarizer, delay DelayScheduler, log *logrus.Logger) *Coordinator {
	return &Coordinator{store: store, rounds: rounds, summarizer: summarizer, delay: delay, log: log}
}

// Start runs the collecting step for a tenant: create the round, fan out
// prompts, persist a suspended checkpoint under a fresh thread id, and
// schedule the delayed resume after window. The thread id is derived from
// tenant and start time, so same-day reruns stay unique.
func (c *Coordinator) Start(ctx context.Context, tenantID, channelID string, window time.Duration) (string, error) {
	if channelID == "" {
		pref, err := c.store.SchedulePreferenceFor(ctx, tenantID)
		if err == nil && pref.ChannelID != "" {
			channelID = pref.ChannelID
		} else {
			c.log.WithField("tenant", tenantID).Warn("no delivery channel configured; summary will not be posted")
		}
	}

	// Nanosecond resolution keeps same-day (even same-second) reruns on
	// distinct threads.
	threadID := fmt.Sprintf("standup_%s_%d", tenantID, time.Now().UnixNano())

	roundID, outcomes, err := c.rounds.StartRound(ctx, tenantID)
	if err != nil {
		return "", err
	}

	failed := 0
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
		}
	}

	cp := &db.WorkflowCheckpoint{
		ThreadID:  threadID,
		TenantID:  tenantID,
		RoundID:   roundID,
		ChannelID: channelID,
		Step:      StepWaiting,
		Suspended: true,
	}
	appendLog(cp, fmt.Sprintf("Standup collection initiated. Round ID: %s. Prompted %d members (%d failed). Workflow suspended.",
		roundID, len(outcomes), failed))

	if err := c.store.SaveCheckpoint(ctx, cp); err != nil {
		return "", err
	}

	if err := c.delay.Schedule(ctx, ActionResume, threadID, window); err != nil {
		return "", fmt.Errorf("failed to schedule resume for thread %s: %w", threadID, err)
	}

	c.log.WithFields(logrus.Fields{
		"tenant": tenantID,
		"thread": threadID,
		"round":  roundID,
	}).Infof("standup workflow suspended, resume in %s", window)
	return threadID, nil
}

// Resume wakes a suspended workflow by thread id, runs the summarization
// step, and records the terminal state. Resuming an already-terminal thread
// is a safe no-op: completed threads return the stored result, errored
// threads return the recorded error, and neither re-runs summarization.
func (c *Coordinator) Resume(ctx context.Context, threadID string) (string, error) {
	cp, err := c.store.Checkpoint(ctx, threadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUnknownThread
		}
		return "", fmt.Errorf("failed to load checkpoint %s: %w", threadID, err)
	}

	switch cp.Step {
	case StepCompleted:
		return cp.Result, nil
	case StepError:
		return "", fmt.Errorf("workflow previously failed: %s", cp.Result)
	case StepSummarizing:
		return "", ErrResumeInProgress
	}

	claimed, err := c.store.ClaimCheckpointStep(ctx, threadID, StepWaiting, StepSummarizing)
	if err != nil {
		return "", err
	}
	if !claimed {
		// A concurrent resume won the claim; report the state it left,
		// terminal or still in flight.
		latest, err := c.store.Checkpoint(ctx, threadID)
		if err != nil {
			return "", fmt.Errorf("failed to reload checkpoint %s: %w", threadID, err)
		}
		switch latest.Step {
		case StepCompleted:
			return latest.Result, nil
		case StepError:
			return "", fmt.Errorf("workflow previously failed: %s", latest.Result)
		}
		return "", ErrResumeInProgress
	}

	summary, sumErr := c.summarizer.Run(ctx, cp.TenantID, cp.RoundID, cp.ChannelID)
	if sumErr != nil {
		// Terminate with error rather than leaving the workflow stuck.
		// The round must still end up closed.
		if closeErr := c.store.CloseRound(ctx, cp.RoundID); closeErr != nil {
			c.log.Warnf("failed to close round %s after workflow error: %v", cp.RoundID, closeErr)
		}
		cp.Step = StepError
		cp.Suspended = false
		cp.Result = sumErr.Error()
		appendLog(cp, "Error summarizing standups: "+sumErr.Error())
		if err := c.store.SaveCheckpoint(ctx, cp); err != nil {
			c.log.Warnf("failed to persist error state for thread %s: %v", threadID, err)
		}
		return "", sumErr
	}

	cp.Step = StepCompleted
	cp.Suspended = false
	cp.Result = summary
	appendLog(cp, "Standup summary completed and posted to channel.")
	if err := c.store.SaveCheckpoint(ctx, cp); err != nil {
		return summary, fmt.Errorf("summary produced but checkpoint not persisted: %w", err)
	}

	c.log.WithField("thread", threadID).Info("standup workflow completed")
	return summary, nil
}

// Status returns the checkpoint for audit queries.
func (c *Coordinator) Status(ctx context.Context, threadID string) (*db.WorkflowCheckpoint, error) {
	cp, err := c.store.Checkpoint(ctx, threadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownThread
		}
		return nil, err
	}
	return cp, nil
}

// CheckpointLog decodes the step message log from a checkpoint.
func CheckpointLog(cp *db.WorkflowCheckpoint) []string {
	if cp.Log == "" {
		return nil
	}
	var messages []string
	if err := json.Unmarshal([]byte(cp.Log), &messages); err != nil {
		return nil
	}
	return messages
}

func appendLog(cp *db.WorkflowCheckpoint, message string) {
	messages := CheckpointLog(cp)
	messages = append(messages, message)
	data, _ := json.Marshal(messages)
	cp.Log = string(data)
}
