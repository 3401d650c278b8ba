package chatbot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/ziadkadry99/kompas/internal/chunker"
	"github.com/ziadkadry99/kompas/internal/conversation"
	"github.com/ziadkadry99/kompas/internal/llm"
	"github.com/ziadkadry99/kompas/internal/rag"
)

// Chat answers message. When the index holds chunks that pass the relevance
// gate the answer is synthesized from them; otherwise the whole conversation
// is sent to the language model. Both paths record the user message and the
// reply in the conversation.
func (c *Chatbot) Chat(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	c.chatMu.Lock()
	defer c.chatMu.Unlock()

	chunks, err := c.relevantChunks(ctx, message)
	if err != nil {
		return "", err
	}
	if len(chunks) > 0 {
		return c.answerFromCorpus(ctx, message, chunks)
	}
	return c.answerDirect(ctx, message)
}

// relevantChunks returns the gated chunks for message, or nil when the
// fallback path should be taken: the directory is missing or empty, nothing
// has been indexed yet, or no chunk scores above the cutoff.
func (c *Chatbot) relevantChunks(ctx context.Context, message string) ([]chunker.Chunk, error) {
	listing, err := c.store.ListFiles(c.cfg.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		c.logger.Debug("watched directory missing, answering directly", "dir", c.cfg.Dir)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(listing) == 0 {
		return nil, nil
	}

	snap := c.snap.Load()
	if snap == nil {
		return nil, nil
	}

	scored, err := snap.index.Retrieve(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieval: %w", rag.ErrUpstreamGeneration, err)
	}
	chunks := rag.Filter(scored, c.cfg.Cutoff)
	c.logger.Debug("retrieved", "candidates", len(scored), "relevant", len(chunks))
	return chunks, nil
}

func (c *Chatbot) answerFromCorpus(ctx context.Context, message string, chunks []chunker.Chunk) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	base := c.conv.Current()
	ans, err := c.synth.Synthesize(ctx, message, chunks)
	if err != nil {
		c.logger.Error("synthesis failed", "error", err)
		return "", err
	}

	added, err := c.conv.AppendAfter(base,
		conversation.Turn{Role: conversation.RoleUser, Content: message},
		conversation.Turn{
			Role:     conversation.RoleAssistant,
			Content:  ans.Text,
			Metadata: map[string]any{"sources": ans.Sources},
		},
	)
	if err != nil {
		return "", err
	}
	if !added {
		c.logger.Warn("history replaced during synthesis, reply not recorded")
		return ans.Text, nil
	}
	c.notify()

	c.logger.Info("answered from corpus", "chunks", len(chunks), "sources", ans.Sources)
	return ans.Text, nil
}

func (c *Chatbot) answerDirect(ctx context.Context, message string) (string, error) {
	mark, err := c.conv.Append(conversation.RoleUser, message)
	if err != nil {
		return "", err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{Messages: c.conv.Messages()})
	var reply string
	if err == nil {
		reply = strings.TrimSpace(resp.Content)
		if reply == "" {
			err = errors.New("empty reply")
		}
	}
	if err != nil {
		// Drop the unanswered user turn unless the history was replaced meanwhile.
		c.conv.Rollback(mark)
		c.logger.Error("direct chat failed", "error", err)
		return "", fmt.Errorf("%w: %w", rag.ErrUpstreamGeneration, err)
	}

	added, err := c.conv.AppendAfter(mark, conversation.Turn{Role: conversation.RoleAssistant, Content: reply})
	if err != nil {
		return "", err
	}
	if !added {
		c.logger.Warn("history replaced during direct chat, reply not recorded")
		return reply, nil
	}
	c.notify()

	c.logger.Info("answered directly", "turns", c.conv.Len())
	return reply, nil
}

func (c *Chatbot) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, c.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}
