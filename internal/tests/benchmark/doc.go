// Package benchmark provides performance benchmarks for catdesk.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Run the catalog benchmarks with larger lists:
//
//	go test -bench=BenchmarkCatalog -benchmem -benchtime=10s ./internal/tests/benchmark/...
//
// Compare results:
//
//	benchstat old.txt new.txt
package benchmark
