package main

import (
	"fmt"
	"os"

	"fjacquet/txmerge/cmd/mapping"
	"fjacquet/txmerge/cmd/merge"
	"fjacquet/txmerge/cmd/pdf"
	"fjacquet/txmerge/cmd/root"
	"fjacquet/txmerge/cmd/train"
	"fjacquet/txmerge/internal/config"
	"fjacquet/txmerge/internal/mergeerror"
)

func init() {
	// 1. Load .env before viper reads the environment. Nothing is logged yet.
	if file, err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", file, err)
	}

	// 2. Initialize the root command and its persistent flags
	root.Init()

	// 3. Add all subcommands
	root.Cmd.AddCommand(merge.Cmd)
	root.Cmd.AddCommand(mapping.Cmd)
	root.Cmd.AddCommand(train.Cmd)
	root.Cmd.AddCommand(pdf.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(mergeerror.ExitCode(err))
	}
}
