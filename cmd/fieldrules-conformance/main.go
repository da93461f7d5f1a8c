// Command fieldrules-conformance reads one conformance Request as JSON on
// stdin and writes one Response as JSON on stdout, per spec.md §6.3's
// single-request/single-response wire contract. It takes no command-line
// flags and compiles against an empty ruleschema.StaticSource, so no rule
// annotations are attached to the request's types (see internal/rlog for
// the accompanying structured log output).
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/fieldrules/fieldrules"
	"github.com/fieldrules/fieldrules/conformance"
	"github.com/fieldrules/fieldrules/internal/rlog"
	"github.com/fieldrules/fieldrules/ruleschema"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fieldrules-conformance:", err)
		os.Exit(1)
	}
}

func run() error {
	logger, err := rlog.New("info", "console")
	if err != nil {
		return err
	}
	defer logger.Sync()

	var req conformance.Request
	dec := json.NewDecoder(os.Stdin)
	if err := dec.Decode(&req); err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}
	logger.Info("decoded conformance request", zap.Int("cases", len(req.Cases)))

	source := ruleschema.NewStaticSource()
	factory, err := fieldrules.NewFactory(source)
	if err != nil {
		return fmt.Errorf("building factory: %w", err)
	}

	runner := conformance.NewRunner(factory)
	resp := runner.Run(&req)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	logger.Info("wrote conformance response", zap.Int("results", len(resp.Results)))
	return nil
}
