package render

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"billgen/internal/archive"
	"billgen/internal/logger"
	"billgen/pkg/models"
)

// DefaultWorkers is used when Batch.Workers is not positive.
const DefaultWorkers = 4

// BatchResult is the outcome for one bill, at the bill's input position.
type BatchResult struct {
	Index      int
	BillNumber string
	FileName   string
	Location   string
	Size       int
	Err        error
}

// Batch renders many bills through a worker pool and stores them in a sink.
type Batch struct {
	Generator *Generator
	Sink      archive.Sink
	Workers   int

	// OnResult, when set, is called after each bill with the running count.
	// Calls are serialized.
	OnResult func(done, total int, result BatchResult)

	Log zerolog.Logger
}

// NewBatch creates a batch with the package logger.
func NewBatch(g *Generator, sink archive.Sink, workers int) *Batch {
	return &Batch{
		Generator: g,
		Sink:      sink,
		Workers:   workers,
		Log:       logger.WithComponent("render-batch"),
	}
}

type batchJob struct {
	index int
	bill  models.Bill
}

// Run renders every bill. A failing bill does not stop the others; results keep
// the input order.
func (b *Batch) Run(ctx context.Context, bills []models.Bill) []BatchResult {
	workers := b.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(bills) {
		workers = len(bills)
	}

	jobs := make(chan batchJob, len(bills))
	results := make([]BatchResult, len(bills))

	var processed int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for job := range jobs {
				b.Log.Debug().
					Int("worker", workerID).
					Str("bill_number", job.bill.BillNumber).
					Int("index", job.index+1).
					Msg("Worker rendering invoice")

				result := b.renderOne(ctx, job.bill)
				result.Index = job.index
				results[job.index] = result

				mu.Lock()
				processed++
				if b.OnResult != nil {
					b.OnResult(processed, len(bills), result)
				}
				mu.Unlock()
			}
		}(w)
	}

	for i, bill := range bills {
		jobs <- batchJob{index: i, bill: bill}
	}
	close(jobs)

	wg.Wait()
	return results
}

func (b *Batch) renderOne(ctx context.Context, bill models.Bill) BatchResult {
	result := BatchResult{
		BillNumber: bill.BillNumber,
		FileName:   FileName(bill.BillNumber),
	}

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	data, err := b.Generator.Render(bill)
	if err != nil {
		result.Err = err
		return result
	}
	result.Size = len(data)

	location, err := b.Sink.Put(ctx, result.FileName, data)
	if err != nil {
		result.Err = err
		return result
	}
	result.Location = location
	return result
}

// Failed counts results with an error.
func Failed(results []BatchResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
