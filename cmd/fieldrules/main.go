// Command fieldrules is the standalone CLI for compiling and running
// rule annotations outside of an embedding Go program, following huma's
// cobra+viper root-command wiring in cli.go: every flag is registered
// once via a small helper that binds a cobra pflag to a viper default,
// so flags, environment variables (FIELDRULES_*), and defaults all
// resolve through the same viper.Get call.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fieldrules/fieldrules"
	"github.com/fieldrules/fieldrules/conformance"
	"github.com/fieldrules/fieldrules/internal/rlog"
	"github.com/fieldrules/fieldrules/ruleschema"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// globalFlag registers a persistent flag on root, binding it through
// viper the way huma's GlobalFlag does, minus the Router coupling.
func globalFlag(root *cobra.Command, name, short, description string, defaultValue any) {
	viper.SetDefault(name, defaultValue)
	flags := root.PersistentFlags()
	switch v := defaultValue.(type) {
	case bool:
		flags.BoolP(name, short, viper.GetBool(name), description)
	default:
		flags.StringP(name, short, fmt.Sprintf("%v", v), description)
	}
	viper.BindPFlag(name, flags.Lookup(name))
}

func main() {
	if err := newRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fieldrules:", err)
		os.Exit(1)
	}
}

func newRoot() *cobra.Command {
	viper.SetEnvPrefix("FIELDRULES")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	root := &cobra.Command{
		Use:           "fieldrules",
		Short:         "Compile and evaluate field rule annotations against protobuf messages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	globalFlag(root, "log-level", "", "Log level (debug, info, warn, error)", "info")
	globalFlag(root, "log-format", "", "Log format (console, json)", "console")
	globalFlag(root, "rules", "r", "Path to a JSON rule set file (see ruleschema.RuleSet)", "")
	globalFlag(root, "allow-unknown-fields", "", "Passed to Factory.AllowUnknownFields (no effect on compilation)", false)
	globalFlag(root, "fail-fast", "", "Stop at the first violation (not read by validate or lint)", false)
	globalFlag(root, "lazy", "", "Compile descriptors lazily on first use instead of eagerly", true)

	root.AddCommand(newValidateCmd())
	root.AddCommand(newLintCmd())
	return root
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Run a conformance request (JSON on stdin) and print its response (JSON on stdout)",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := rlog.New(viper.GetString("log-level"), viper.GetString("log-format"))
			if err != nil {
				return err
			}
			defer log.Sync()

			source, err := loadSource()
			if err != nil {
				return err
			}

			factory, err := fieldrules.NewFactory(source)
			if err != nil {
				return fmt.Errorf("building factory: %w", err)
			}
			factory.AllowUnknownFields(viper.GetBool("allow-unknown-fields"))
			if !viper.GetBool("lazy") {
				factory.DisableLazyLoading()
			}

			var req conformance.Request
			if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
				return fmt.Errorf("decoding request: %w", err)
			}

			runner := conformance.NewRunner(factory)
			resp := runner.Run(&req)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
}

func newLintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint DESCRIPTOR_SET",
		Short: "Compile every message type in a binary FileDescriptorSet, reporting compilation errors without evaluating any message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := rlog.New(viper.GetString("log-level"), viper.GetString("log-format"))
			if err != nil {
				return err
			}
			defer log.Sync()

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading descriptor set: %w", err)
			}
			var set descriptorpb.FileDescriptorSet
			if err := proto.Unmarshal(raw, &set); err != nil {
				return fmt.Errorf("unmarshaling descriptor set: %w", err)
			}

			source, err := loadSource()
			if err != nil {
				return err
			}
			factory, err := fieldrules.NewFactory(source)
			if err != nil {
				return fmt.Errorf("building factory: %w", err)
			}
			factory.AllowUnknownFields(viper.GetBool("allow-unknown-fields"))

			files := &protoregistry.Files{}
			failures := 0
			for _, fdProto := range set.File {
				fd, err := protodesc.NewFile(fdProto, files)
				if err != nil {
					return fmt.Errorf("building file descriptor for %s: %w", fdProto.GetName(), err)
				}
				if err := files.RegisterFile(fd); err != nil {
					return fmt.Errorf("registering file descriptor for %s: %w", fdProto.GetName(), err)
				}
				msgs := fd.Messages()
				for i := 0; i < msgs.Len(); i++ {
					lintMessage(factory, msgs.Get(i), &failures)
				}
			}

			if failures > 0 {
				return fmt.Errorf("%d message type(s) failed to compile", failures)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "all message types compiled cleanly")
			return nil
		},
	}
}

func lintMessage(factory *fieldrules.Factory, desc protoreflect.MessageDescriptor, failures *int) {
	if err := factory.Add(desc); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", desc.FullName(), err)
		*failures++
	}
	nested := desc.Messages()
	for i := 0; i < nested.Len(); i++ {
		lintMessage(factory, nested.Get(i), failures)
	}
}

func loadSource() (ruleschema.Source, error) {
	path := viper.GetString("rules")
	if path == "" {
		return ruleschema.NewStaticSource(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rule set: %w", err)
	}
	defer f.Close()
	source, err := ruleschema.LoadStaticSource(f)
	if err != nil {
		return nil, err
	}
	return source, nil
}
