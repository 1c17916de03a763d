package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"idcheck/internal/bootstrap"
	"idcheck/internal/verification"
	"idcheck/internal/verification/handler"
)

// errNotAuthentic makes a failed match visible in the exit status.
var errNotAuthentic = errors.New("claim not authentic")

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "verify <id> <full name>",
		Short: "Check a typed ID number and full name against the roll",
		Long: `Check a claimed ID number and full name against the electoral roll.
The name is everything after the ID; the last two words are the surnames.

Examples:
  idcheck verify 100200300 MARIA JOSE GARCIA LOPEZ
  idcheck verify --json 100200300 "MARIA JOSE GARCIA LOPEZ"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			cfg.OCR.Disabled = true
			log := ctx.logger(cmd, cfg)

			roll, err := bootstrap.LoadRoll(cmd.Context(), cfg, log, nil)
			if err != nil {
				return err
			}
			svc, err := bootstrap.NewService(cfg, roll, log, nil)
			if err != nil {
				return err
			}

			res, err := svc.VerifyClaim(cmd.Context(), verification.ClaimedIdentity{
				ClaimedID:       args[0],
				ClaimedFullName: strings.Join(args[1:], " "),
			})
			if err != nil {
				return err
			}
			return printResult(cmd, res, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	return cmd
}

func newDocumentCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "document <image>",
		Short: "Read the ID number and name from a scan and check them against the roll",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			log := ctx.logger(cmd, cfg)

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open image: %w", err)
			}
			defer f.Close()

			roll, err := bootstrap.LoadRoll(cmd.Context(), cfg, log, nil)
			if err != nil {
				return err
			}
			svc, err := bootstrap.NewService(cfg, roll, log, nil)
			if err != nil {
				return err
			}

			res, err := svc.VerifyDocument(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printResult(cmd, res, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	return cmd
}

func printResult(cmd *cobra.Command, res *verification.Result, jsonOutput bool) error {
	if jsonOutput {
		if err := writeJSON(cmd, handler.FromResult(res)); err != nil {
			return err
		}
	} else {
		out := cmd.OutOrStdout()
		verdict := "NOT AUTHENTIC"
		if res.Authentic {
			verdict = "AUTHENTIC"
		}
		fmt.Fprintf(out, "%s\n", verdict)
		fmt.Fprintf(out, "  id:             %s (found: %t)\n", res.ClaimedID, res.Fields.Found)
		fmt.Fprintf(out, "  name:           %s\n", res.ClaimedFullName)
		fmt.Fprintf(out, "  given names:    %s\n", mark(res.Fields.GivenNames))
		fmt.Fprintf(out, "  first surname:  %s\n", mark(res.Fields.FirstSurname))
		fmt.Fprintf(out, "  second surname: %s\n", mark(res.Fields.SecondSurname))
	}
	if !res.Authentic {
		return errNotAuthentic
	}
	return nil
}

func mark(ok bool) string {
	if ok {
		return "match"
	}
	return "mismatch"
}
