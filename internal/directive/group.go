package directive

import "golang.org/x/sync/errgroup"

// runAll runs fn(0..n-1) concurrently and waits for every call to return.
//
// The result is the first non-nil error in index order, independent of
// completion order. A failing call does not stop its siblings. limit caps
// in-flight calls; 0 means unlimited.
func runAll(n, limit int, fn func(i int) error) error {
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	errs := make([]error, n)
	for i := range n {
		g.Go(func() error {
			errs[i] = fn(i)
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
