// Package runner provides the measurement loop of codecbench.
//
// A Runner takes an ordered corpus and a list of implementations sharing one
// signature, and measures every implementation over every file, one
// implementation at a time:
//
//	r := runner.New(runner.Options[[]byte, []byte]{
//		Files:           corpus.Files,
//		Implementations: selected,
//		Prepare:         prepare,
//		Reporter:        reporter,
//	})
//	result, err := r.Run(ctx)
//
// # Timing
//
// Only the implementation call itself is timed. Reading the file, preparing
// its input, measuring output length, checking correctness and updating the
// progress indicator all happen outside the timed window.
//
// # Collaborator hooks
//
//   - [PrepareFunc]: converts raw bytes into the implementation input and may
//     decline a file; declined files are not counted
//   - [CheckFunc]: verifies an output when Options.Verify is set; a failing
//     check aborts the run
//   - Options.OutputLen: natural output length, enabling compression ratios
//
// # Interruption
//
// Cancellation of the context passed to Run is observed once per file. The
// implementation in flight is reported with the samples recorded so far and no
// later implementation is started. File order is identical across passes, so
// a partially measured implementation saw a prefix of what the others saw.
package runner
