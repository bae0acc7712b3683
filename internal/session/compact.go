package session

import (
	"context"

	"github.com/roelfdiedericks/switchboard/internal/llm"
	. "github.com/roelfdiedericks/switchboard/internal/logging"
	"github.com/roelfdiedericks/switchboard/internal/tokens"
)

// CompressFunc shrinks a snapshot to fit a token budget. The
// coordinator treats compression as an injected collaborator; it may
// return the snapshot unchanged when nothing needs to go.
type CompressFunc func(ctx context.Context, snap *Snapshot, limitTokens int) (*Snapshot, error)

// TailCompressorConfig tunes the default compressor.
type TailCompressorConfig struct {
	KeepPercent int // share of the context window usable by history (default: 80)
	MinMessages int // newest messages always kept, budget or not (default: 4)
}

// NewTailCompressor returns a CompressFunc that drops the oldest
// messages until the remainder fits within KeepPercent of the limit.
// No summarization: the trade is recall for simplicity.
func NewTailCompressor(cfg TailCompressorConfig) CompressFunc {
	if cfg.KeepPercent <= 0 || cfg.KeepPercent > 100 {
		cfg.KeepPercent = 80
	}
	if cfg.MinMessages <= 0 {
		cfg.MinMessages = 4
	}

	return func(_ context.Context, snap *Snapshot, limitTokens int) (*Snapshot, error) {
		if snap == nil || len(snap.Messages) == 0 {
			return snap, nil
		}

		budget := limitTokens * cfg.KeepPercent / 100
		if snap.TokenEstimate() <= budget {
			return snap, nil
		}

		// Walk backwards from the newest message, keeping turns until
		// the budget runs out.
		kept := 0
		used := 0
		for i := len(snap.Messages) - 1; i >= 0; i-- {
			cost := estimateMessage(snap.Messages[i])
			if used+cost > budget && kept >= cfg.MinMessages {
				break
			}
			used += cost
			kept++
		}

		if kept >= len(snap.Messages) {
			return snap, nil
		}

		out := *snap
		out.Messages = make([]llm.Message, kept)
		copy(out.Messages, snap.Messages[len(snap.Messages)-kept:])

		L_info("session: history compressed",
			"before", len(snap.Messages), "after", kept,
			"limit", limitTokens, "budget", budget)
		return &out, nil
	}
}

// NoCompression returns snapshots untouched.
func NoCompression(_ context.Context, snap *Snapshot, _ int) (*Snapshot, error) {
	return snap, nil
}

func estimateMessage(m llm.Message) int {
	return tokens.Get().CountWithOverhead(m.Content, tokens.MessageOverhead)
}
