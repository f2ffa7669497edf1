package standup

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// NoResponsesNotice is the summary text for a round nobody replied to.
const NoResponsesNotice = "No responses collected."

const summarizeInstruction = "Summarize these standup updates grouped by person and extract blockers:\n\n%s\n\nReturn a short summary and then a Blockers section."

var blockerKeywords = []string{"block", "blocked", "stuck", "waiting"}

// Summarizer aggregates a round's responses into a delivered summary. The
// generator is pluggable; any generator failure falls back to the
// deterministic summary rather than surfacing.
type Summarizer struct {
	store     Store
	gateway   Gateway
	generator Generator
	log       *logrus.Logger
}

func NewSummarizer(store Store, gateway Gateway, generator Generator, log *logrus.Logger) *Summarizer {
	return &Summarizer{store: store, gateway: gateway, generator: generator, log: log}
}

// Run summarizes the round, closes it, and posts the summary to channelID
// when one is set. The round is closed regardless of how the summary was
// produced; posting failures are logged, not retried, and do not change the
// returned text.
func (s *Summarizer) Run(ctx context.Context, tenantID, roundID, channelID string) (string, error) {
	responses, err := s.store.ResponsesForRound(ctx, tenantID, roundID)
	if err != nil {
		return "", err
	}

	var summary string
	if len(responses) == 0 {
		summary = NoResponsesNotice
	} else {
		lines := make([]string, 0, len(responses))
		for _, r := range responses {
			lines = append(lines, fmt.Sprintf("- <@%s>: %s", r.MemberID, r.Text))
		}
		summary = s.generate(ctx, strings.Join(lines, "\n"))
	}

	if err := s.store.CloseRound(ctx, roundID); err != nil {
		return "", err
	}

	if channelID != "" {
		s.post(ctx, tenantID, channelID, summary)
	}
	return summary, nil
}

func (s *Summarizer) generate(ctx context.Context, assembled string) string {
	if s.generator == nil {
		return FallbackSummary(assembled)
	}
	summary, err := s.generator.Generate(ctx, fmt.Sprintf(summarizeInstruction, assembled))
	if err != nil {
		s.log.Warnf("summary generator failed, using fallback: %v", err)
		return FallbackSummary(assembled)
	}
	return summary
}

func (s *Summarizer) post(ctx context.Context, tenantID, channelID, summary string) {
	tenant, err := s.store.Tenant(ctx, tenantID)
	if err != nil {
		s.log.WithField("tenant", tenantID).Warnf("cannot post summary, failed to load tenant: %v", err)
		return
	}
	if err := s.gateway.Post(ctx, tenant, channelID, summary); err != nil {
		s.log.WithFields(logrus.Fields{
			"tenant":  tenantID,
			"channel": channelID,
		}).Warnf("failed to post summary (not retried): %v", err)
	}
}

// FallbackSummary is the deterministic summarizer used when no generator is
// configured or the generator fails. It parses "- <@id>: text" lines, groups
// fragments by member in first-seen order, and flags any fragment containing
// a blocker keyword into a trailing Blockers section.
func FallbackSummary(assembled string) string {
	var order []string
	fragments := make(map[string][]string)
	var blockers []string

	for _, line := range strings.Split(assembled, "\n") {
		if !strings.HasPrefix(line, "- <@") {
			continue
		}
		rest := line[3:]
		idx := strings.Index(rest, ">: ")
		if idx < 0 {
			continue
		}
		member := rest[:idx]
		text := rest[idx+3:]

		if _, seen := fragments[member]; !seen {
			order = append(order, member)
		}
		fragments[member] = append(fragments[member], text)

		lower := strings.ToLower(text)
		for _, keyword := range blockerKeywords {
			if strings.Contains(lower, keyword) {
				blockers = append(blockers, fmt.Sprintf("%s: %s", member, text))
				break
			}
		}
	}

	lines := []string{"**Standup Summary**"}
	for _, member := range order {
		lines = append(lines, fmt.Sprintf("<%s> — %s", member, strings.Join(fragments[member], " | ")))
	}
	if len(blockers) > 0 {
		lines = append(lines, "\n**Blockers**")
		for _, blocker := range blockers {
			lines = append(lines, "- "+blocker)
		}
	}
	return strings.Join(lines, "\n")
}
