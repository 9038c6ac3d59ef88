package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/clarete/witch"
)

func main() {
	// A missing .env is not an error: it's an optional source of
	// vm.trace/stack-capacity overrides (grounded on termfx-morfx's own
	// best-effort godotenv.Load() at startup).
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "witch",
		Short: "witch is the compiler and VM for the witch language",
	}

	rootCmd.AddCommand(
		newTokensCmd(),
		newParseCmd(),
		newRunCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens PATH",
		Short: "Print the token stream for a witch source file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			src := readSourceOrDie(args[0])
			tokens, err := witch.Tokenize(src)
			if err != nil {
				log.Fatalf("Can't tokenize %s: %s", args[0], err)
			}
			for _, tok := range tokens {
				fmt.Printf("%-14s %-20q @ %s\n", tok.Kind, witch.NewCursor(src, tokens).Text(tok), tok.Span)
			}
		},
	}
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse PATH",
		Short: "Print the AST for a witch source file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			src := readSourceOrDie(args[0])
			ast, err := witch.Parse(src)
			if err != nil {
				log.Fatalf("Can't parse %s: %s", args[0], err)
			}
			fmt.Println(ast)
		},
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run PATH",
		Short: "Compile and execute a witch source file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			src := readSourceOrDie(args[0])

			ast, err := witch.Parse(src)
			if err != nil {
				log.Fatalf("Can't parse %s: %s", args[0], err)
			}

			program, err := witch.Compile(ast)
			if err != nil {
				log.Fatalf("Can't compile %s: %s", args[0], err)
			}

			cfg := witch.NewConfig()
			applyEnvOverrides(cfg)
			if trace, _ := cmd.Flags().GetBool("trace"); trace {
				cfg.VMTrace = true
			}

			vm := witch.NewVm(cfg.VMStackInitialCapacity)
			vm.SetTrace(cfg.VMTrace)

			result, err := vm.Run(program)
			if err != nil {
				log.Fatalf("Runtime error in %s: %s", args[0], err)
			}
			fmt.Println(result)
		},
	}
	cmd.Flags().Bool("trace", false, "Print each executed instruction to stdout")
	return cmd
}

// applyEnvOverrides lets WITCH_VM_TRACE/WITCH_VM_STACK_CAPACITY (set directly
// or loaded from .env by godotenv) override the compiled-in Config defaults,
// the same environment-driven knob termfx-morfx exposes for its own runtime
// settings.
func applyEnvOverrides(cfg *witch.Config) {
	if v, ok := os.LookupEnv("WITCH_VM_TRACE"); ok {
		cfg.VMTrace = v == "1" || v == "true"
	}
	if v, ok := os.LookupEnv("WITCH_VM_STACK_CAPACITY"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.VMStackInitialCapacity = n
		}
	}
}

func readSourceOrDie(path string) []byte {
	src, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Can't read %s: %s", path, err)
	}
	return src
}
