// Package logging provides the structured, subsystem-tagged logger used
// throughout feditest.
//
// It is a thin layer over the standard slog package. Every entry carries
// a subsystem attribute so output of the run engine, the test plan
// loader and the individual node drivers can be told apart:
//
//	logging.Init(logging.FormatText, logging.LevelInfo, os.Stderr)
//
//	logging.Info("TestRun", "Running test plan %s (id: %s)", plan, runID)
//	logging.Debug("Imp", "Performing HTTP GET on %s", uri)
//	logging.Warn("TestPlan", "Plan was written for feditest %s", planVersion)
//	logging.Error("Provisioner", err, "Failed to unprovision node for role %s", role)
//
// # Subsystems
//
//   - **TestPlan**: loading, templating and validation of test plans
//   - **Registry**: test registration and plugin loading
//   - **TestRun**: session and test sequencing
//   - **Provisioner**: node provisioning and teardown
//   - **NodeDriver** and one subsystem per driver (Sandbox, Imp, SaaS)
//
// The CLI writes log output to stderr, as text or as JSON (--log-format).
// Before Init is called, warnings and errors go to stderr and everything
// else is dropped.
//
// The logger is safe for concurrent use.
package logging
