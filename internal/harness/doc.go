// Package harness runs YAML-defined conformance scenarios against the
// mutation engine.
//
// A scenario declares a base record source, a sequence of transaction
// steps (create, delete, field writes, payload commits), and expectations
// on the resulting sink and backup. Results serialize to canonical JSON
// for golden-file comparison.
package harness
