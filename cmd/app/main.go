package main

import (
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "app",
		Short:        "Crypto persona quiz server and tools",
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newServeCommand(),
		newQuizCommand(),
		newGenImagesCommand(),
	)
	return cmd
}

func printStartUpBanner() {
	myFigure := figure.NewFigure("PERSONA", "", true)
	myFigure.Print()

	fmt.Println("======================================================")
	fmt.Printf("CRYPTO PERSONA API (v%s)\n\n", version)
}
