// Package cleaner chains the cleanup operations into a logo-cleaning
// pipeline.
//
// Stages always run in this order, each one optional:
//
//	stray-pixels → colors → edges → smoothing → outline
//
// A Preset supplies options for some or all stages. An explicit stage
// option in Options replaces the preset's option for that stage only; the
// other stages keep their preset defaults. Without a preset only the stages
// given explicitly run.
//
// The first failing stage aborts the pipeline with a *StageError naming
// it; no partial result is returned.
//
// Stages run through a worker.Executor, so a Cleaner can hand large
// buffers to a worker pool and fall back to running in-process. Registry
// exposes every cleanup operation, including the ones the pipeline does
// not use, under the names executors expect.
//
// Example:
//
//	out, err := cleaner.CleanLogo(buf, cleaner.Options{Preset: cleaner.LogoStandard})
//	if err != nil {
//	    log.Fatal(err)
//	}
package cleaner
