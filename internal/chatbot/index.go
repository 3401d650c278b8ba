package chatbot

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/ziadkadry99/kompas/internal/chunker"
)

// IndexResult summarises one IndexCorpus call.
type IndexResult struct {
	NewFiles     int  `json:"new_files"`
	NewDocuments int  `json:"new_documents"`
	NewChunks    int  `json:"new_chunks"`
	TotalChunks  int  `json:"total_chunks"`
	Rebuilt      bool `json:"rebuilt"`
}

// IndexCorpus loads the files that appeared in the watched directory since
// the last call, chunks them and rebuilds the index over all chunks. It does
// nothing when there are no new files. On error the corpus state and the
// current index are left unchanged.
func (c *Chatbot) IndexCorpus(ctx context.Context) (IndexResult, error) {
	c.indexMu.Lock()
	defer c.indexMu.Unlock()

	listing, err := c.store.ListFiles(c.cfg.Dir)
	if err != nil {
		return IndexResult{}, err
	}

	var newFiles []string
	for name := range listing {
		if _, ok := c.state.indexed[name]; !ok {
			newFiles = append(newFiles, name)
		}
	}
	slices.Sort(newFiles)

	res := IndexResult{NewFiles: len(newFiles), TotalChunks: len(c.state.chunks)}
	if len(newFiles) == 0 {
		c.logger.Debug("no new files to index", "dir", c.cfg.Dir)
		return res, nil
	}

	c.progress.Start(3)
	defer c.progress.Finish()

	c.progress.Update(1, fmt.Sprintf("loading %d new files", len(newFiles)))
	docs, err := c.store.LoadDocuments(ctx, c.cfg.Dir, newFiles, c.cfg.Extensions)
	if err != nil {
		return IndexResult{}, fmt.Errorf("loading documents: %w", err)
	}
	c.progress.Update(2, fmt.Sprintf("chunking %d documents", len(docs)))
	newChunks := c.chunker.Split(docs)

	all := make([]chunker.Chunk, 0, len(c.state.chunks)+len(newChunks))
	all = append(all, c.state.chunks...)
	all = append(all, newChunks...)

	var snap *snapshot
	if len(newChunks) > 0 {
		c.progress.Update(3, fmt.Sprintf("building index over %d chunks", len(all)))
		idx, err := c.builder.Build(ctx, all, c.cfg.TopK)
		if err != nil {
			return IndexResult{}, fmt.Errorf("building index: %w", err)
		}
		snap = &snapshot{index: idx, builtAt: time.Now()}
	}

	// Commit only after loading, chunking and building all succeeded.
	for _, name := range newFiles {
		c.state.indexed[name] = struct{}{}
	}
	c.state.docs = append(c.state.docs, docs...)
	c.state.chunks = all
	if snap != nil {
		c.snap.Store(snap)
	}

	res.NewDocuments = len(docs)
	res.NewChunks = len(newChunks)
	res.TotalChunks = len(all)
	res.Rebuilt = snap != nil

	c.logger.Info("corpus indexed",
		"new_files", res.NewFiles,
		"new_documents", res.NewDocuments,
		"new_chunks", res.NewChunks,
		"total_chunks", res.TotalChunks,
	)
	return res, nil
}
