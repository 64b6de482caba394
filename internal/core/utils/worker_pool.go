package utils

import "sync"

type Task[T any] struct {
	Index int
	Input T
}

type CompletedTask[T any] struct {
	Index  int
	Result T
	Error  error
}

func RunInPool[In any, Out any](worker func(In) (Out, error), queue chan Task[In], completed chan CompletedTask[Out], maxWorkers int) {
	workers := min(len(queue), max(maxWorkers, 1))

	go func() {
		wg := sync.WaitGroup{}
		wg.Add(workers)

		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()

				for {
					next, ok := <-queue
					if !ok {
						return
					}

					res, err := worker(next.Input)
					if err != nil {
						completed <- CompletedTask[Out]{Index: next.Index, Error: err}
					} else {
						completed <- CompletedTask[Out]{Index: next.Index, Result: res, Error: nil}
					}
				}
			}()
		}

		wg.Wait()

		close(completed)
	}()
}

// RunOrdered runs worker over every input with at most maxWorkers goroutines and returns
// the outcomes in input order. A failing input does not affect the others.
func RunOrdered[In any, Out any](inputs []In, worker func(In) (Out, error), maxWorkers int) []CompletedTask[Out] {
	queue := make(chan Task[In], len(inputs))
	for i, input := range inputs {
		queue <- Task[In]{Index: i, Input: input}
	}
	close(queue)

	completed := make(chan CompletedTask[Out], len(inputs))
	RunInPool(worker, queue, completed, maxWorkers)

	results := make([]CompletedTask[Out], len(inputs))
	for task := range completed {
		results[task.Index] = task
	}
	return results
}
