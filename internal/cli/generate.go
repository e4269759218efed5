package cli

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pku-software/docman-homework-judge-action/internal/corpus"
)

var (
	genSeed    uint64
	genCount   int
	genBuiltin bool
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate <dir>",
	Short: "Write a fixture corpus to a directory",
	Long: `Generate writes random fixtures to <dir>/inputs and <dir>/citations.
Each base fixture is followed by seven mutants that a conforming docman
must reject. The same seed always produces the same corpus.

Example:
  docjudge generate ./corpus --seed 42 --count 5
  docjudge generate ./corpus --builtin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		inputDir := filepath.Join(dir, "inputs")
		citationDir := filepath.Join(dir, "citations")

		if genBuiltin {
			if _, _, err := corpus.Materialize(dir); err != nil {
				return fmt.Errorf("materialize builtin fixtures: %w", err)
			}
		}

		seed := genSeed
		if seed == 0 {
			seed = rand.Uint64()
		}
		fixtures := corpus.NewGenerator(corpus.SeedOf(seed)).Generate(genCount)
		if err := corpus.WriteFixtures(inputDir, citationDir, fixtures); err != nil {
			return err
		}

		files, err := corpus.LoadFixtures(inputDir, citationDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d fixtures to %s (seed %d)\n", len(files), dir, seed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().Uint64Var(&genSeed, "seed", 0, "corpus seed (0 draws a fresh one)")
	generateCmd.Flags().IntVar(&genCount, "count", 3, "random base fixtures")
	generateCmd.Flags().BoolVar(&genBuiltin, "builtin", false, "also write the builtin fixtures")
}
