package embedding

import (
	"context"
	"sync"

	"github.com/kbvault/kbvault/internal/types/interfaces"
	"github.com/panjf2000/ants/v2"
)

const batchSize = 5

type textEmbedding struct {
	text   string
	result []float32
}

// BatchEmbedWithPool fans batches of texts out across a bounded ants.Pool,
// generalized from the teacher's embedding/batch.go to work against any
// knowledge base's configured Embedder rather than a single global model.
// The first error encountered wins; a batch already calling the model
// runs to completion, batches that start after the error return without
// calling it, and no results are returned.
func BatchEmbedWithPool(ctx context.Context, pool *ants.Pool, model interfaces.Embedder, texts []string) ([][]float32, error) {
	items := make([]*textEmbedding, len(texts))
	for i, t := range texts {
		items[i] = &textEmbedding{text: t}
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	processBatch := func(batch []*textEmbedding) func() {
		return func() {
			defer wg.Done()

			mu.Lock()
			failed := firstErr != nil
			mu.Unlock()
			if failed {
				return
			}

			texts := make([]string, len(batch))
			for i, item := range batch {
				texts[i] = item.text
			}
			vectors, err := model.BatchEmbed(ctx, texts)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			for i, item := range batch {
				item.result = vectors[i]
			}
		}
	}

	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		wg.Add(1)
		if err := pool.Submit(processBatch(items[start:end])); err != nil {
			wg.Done()
			return nil, err
		}
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	results := make([][]float32, len(items))
	for i, item := range items {
		results[i] = item.result
	}
	return results, nil
}
