package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pku-software/docman-homework-judge-action/internal/oracle"
)

// errRejected is returned when the reference transformer rejects its input
var errRejected = errors.New("input rejected")

// onceFlag is a string flag that may be given at most once
type onceFlag struct {
	value string
	set   bool
}

func (f *onceFlag) String() string { return f.value }
func (f *onceFlag) Type() string   { return "string" }

func (f *onceFlag) Set(s string) error {
	if f.set {
		return errors.New("flag given more than once")
	}
	f.value, f.set = s, true
	return nil
}

var (
	oracleCitation onceFlag
	oracleOutput   onceFlag
	oracleTimeout  time.Duration
)

// oracleCmd represents the oracle command
var oracleCmd = &cobra.Command{
	Use:   "oracle -c <citations> [-o <output>] (<input>|-)",
	Short: "Run the reference transformer",
	Long: `Oracle behaves like a conforming docman: it checks the [id] markers of the
article against the citation document and appends the reference list. On
any error it writes nothing and exits with status 1.

Example:
  docjudge oracle -c citations.json article.txt
  cat article.txt | docjudge oracle -c citations.json -o out.txt -`,
	Args: cobra.ExactArgs(1),
	RunE: runOracle,
}

func init() {
	rootCmd.AddCommand(oracleCmd)

	oracleCmd.Flags().VarP(&oracleCitation, "citation", "c", "citation document")
	oracleCmd.Flags().VarP(&oracleOutput, "output", "o", "output file (default: stdout)")
	oracleCmd.Flags().DurationVar(&oracleTimeout, "timeout", 2*time.Minute, "overall timeout for metadata lookups")
}

func runOracle(cmd *cobra.Command, args []string) error {
	if !oracleCitation.set {
		return errors.New("missing -c <citations>")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), oracleTimeout)
	defer cancel()

	var article []byte
	if args[0] == "-" {
		article, err = io.ReadAll(cmd.InOrStdin())
	} else {
		article, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	doc, err := os.ReadFile(oracleCitation.value)
	if err != nil {
		return fmt.Errorf("read citations: %w", err)
	}

	resolver, err := newResolver(cfg)
	if err != nil {
		return err
	}
	expect, err := oracle.New(resolver).Transform(ctx, string(article), doc)
	if err != nil {
		return err
	}
	if !expect.Success {
		return errRejected
	}

	if oracleOutput.set {
		if err := os.WriteFile(oracleOutput.value, []byte(expect.Text), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	}
	_, err = io.WriteString(cmd.OutOrStdout(), expect.Text)
	return err
}
