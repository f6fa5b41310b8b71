package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/issafronov/shortener-front/internal/app/alias"
	"github.com/spf13/cobra"
)

var (
	errInvalidAlias = errors.New("one or more aliases are invalid")
	errNoSuggestion = errors.New("no alias could be suggested")
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "aliascheck",
		Short:         "Checks custom short-link aliases.",
		Long:          "Validates custom aliases and suggests one for a long URL using the rules of the shortener form.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newValidateCommand(), newSuggestCommand())
	return root
}

func newValidateCommand() *cobra.Command {
	var optional bool
	cmd := &cobra.Command{
		Use:   "validate <alias>...",
		Short: "Prints the verdict for every alias.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateAliases(cmd.OutOrStdout(), args, !optional)
		},
	}
	cmd.Flags().BoolVar(&optional, "optional", false, "treat an empty alias as valid")
	return cmd
}

func newSuggestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <url>...",
		Short: "Suggests an alias for every URL.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return suggestAliases(cmd.OutOrStdout(), cmd.ErrOrStderr(), alias.Suggester{}, args)
		},
	}
}

func validateAliases(out io.Writer, aliases []string, required bool) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	failed := false
	for _, a := range aliases {
		v := alias.Validate(a, required)
		msg := v.Hint()
		if v != alias.Valid {
			failed = true
			msg = v.Message()
		}
		fmt.Fprintf(tw, "%q\t%s\t%s\n", a, v, msg)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed {
		return errInvalidAlias
	}
	return nil
}

func suggestAliases(out, errOut io.Writer, s alias.Suggester, urls []string) error {
	failed := false
	for _, u := range urls {
		suggestion, ok := s.Suggest(u)
		if !ok {
			failed = true
			fmt.Fprintf(errOut, "cannot suggest an alias for %q\n", u)
			continue
		}
		fmt.Fprintln(out, suggestion)
	}
	if failed {
		return errNoSuggestion
	}
	return nil
}

// run выполняет команду и возвращает код выхода
func run(args []string) int {
	root := newRootCommand()
	root.SetArgs(args)
	err := root.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errInvalidAlias), errors.Is(err, errNoSuggestion):
		return 1
	default:
		fmt.Fprintln(os.Stderr, "aliascheck:", err)
		return 2
	}
}
