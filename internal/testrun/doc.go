// Package testrun executes test plans.
//
// An Engine walks the sessions of a plan in order. For each session the
// Provisioner sets up one node per constellation role, the engine runs the
// session's tests against those nodes and the nodes are torn down again.
// Every test ends up in the Transcript as passed, failed, errored or
// skipped.
//
// Reporters are told about the progress as it happens:
//
//	engine := testrun.NewEngine(tests, drivers,
//		testrun.WithReporters(testrun.NewTAPReporter(os.Stdout)))
//	transcript, err := engine.Run(ctx, plan)
//
// The finished transcript can be written as JSON, YAML or a summary table.
package testrun
