// Package batch validates many export files concurrently.
//
// Each file is an independent validation pass; results come back in input
// order regardless of completion order.
//
//	paths, err := batch.Expand(args, batch.ExpandOptions{Extensions: cfg.Validation.Extensions, SkipHidden: true})
//	runner := batch.NewRunner(service, batch.WithConcurrency(8))
//	results, err := runner.Run(ctx, paths)
package batch
