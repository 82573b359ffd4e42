// Package authcmder provides the auth command for storing provider API keys.
package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/folio/pkg/cliui"
	"github.com/papercomputeco/folio/pkg/credentials"
)

const authLongDesc string = `Store API keys for embedding, rewrite and vector store providers.

Keys are stored in credentials.toml in the .folio/ directory. A provider's
environment variable, when set, takes precedence over the stored key.

Supported providers: openai, qdrant

Examples:
  folio auth openai              Prompt for an OpenAI API key
  folio auth --list              List stored credentials
  folio auth --remove openai     Remove stored OpenAI credentials
  echo $KEY | folio auth qdrant  Pipe an API key from stdin`

const authShortDesc string = "Store provider API keys"

func NewAuthCmd() *cobra.Command {
	var listFlag bool
	var removeFlag string

	cmd := &cobra.Command{
		Use:   "auth [provider]",
		Short: authShortDesc,
		Long:  authLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			out := cmd.OutOrStdout()

			mgr, err := credentials.NewManager(configDir)
			if err != nil {
				return fmt.Errorf("loading credentials: %w", err)
			}

			switch {
			case listFlag:
				return runList(mgr, out)
			case removeFlag != "":
				return runRemove(mgr, out, removeFlag)
			default:
				if len(args) == 0 {
					return fmt.Errorf("provider argument required\n\nSupported providers: %s",
						strings.Join(credentials.SupportedProviders(), ", "))
				}
				return runAuth(mgr, cmd.InOrStdin(), out, args[0])
			}
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return credentials.SupportedProviders(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	cmd.Flags().BoolVar(&listFlag, "list", false, "List stored credentials")
	cmd.Flags().StringVar(&removeFlag, "remove", "", "Remove stored credentials for a provider")

	return cmd
}

func runAuth(mgr *credentials.Manager, in io.Reader, out io.Writer, provider string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))

	if !credentials.IsSupportedProvider(provider) {
		return fmt.Errorf("unsupported provider: %q\n\nSupported providers: %s",
			provider, strings.Join(credentials.SupportedProviders(), ", "))
	}

	apiKey, err := readAPIKey(in, out, provider)
	if err != nil {
		return err
	}

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return errors.New("API key cannot be empty")
	}

	if err := mgr.SetKey(provider, apiKey); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Stored %s credentials %s\n\n",
		cliui.SuccessMark,
		cliui.TitleStyle.Render(provider),
		cliui.DimStyle.Render("(overridden by "+credentials.EnvVarForProvider(provider)+")"),
	)
	return nil
}

func runList(mgr *credentials.Manager, out io.Writer) error {
	providers, err := mgr.ListProviders()
	if err != nil {
		return err
	}

	if len(providers) == 0 {
		fmt.Fprintf(out, "\n  %s No stored credentials.\n", cliui.DimStyle.Render("●"))
		fmt.Fprintf(out, "  Use 'folio auth <provider>' to store credentials.\n\n")
		return nil
	}

	fmt.Fprintf(out, "\n  %s\n\n", cliui.HeaderStyle.Render("Stored credentials"))
	for _, p := range providers {
		fmt.Fprintf(out, "  %s  %s  %s\n",
			cliui.SuccessMark,
			cliui.TitleStyle.Render(p),
			cliui.DimStyle.Render(credentials.EnvVarForProvider(p)),
		)
	}
	fmt.Fprintln(out)

	return nil
}

func runRemove(mgr *credentials.Manager, out io.Writer, provider string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))

	if err := mgr.RemoveKey(provider); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Removed %s credentials.\n\n", cliui.SuccessMark, cliui.TitleStyle.Render(provider))
	return nil
}

// readAPIKey reads the first line of in, prompting with hidden input when in
// is an interactive terminal.
func readAPIKey(in io.Reader, out io.Writer, provider string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(out, "Enter API key for %s (%s): ", provider, credentials.EnvVarForProvider(provider))

		keyBytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("reading API key: %w", err)
		}
		return string(keyBytes), nil
	}

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return "", errors.New("no input received on stdin")
}
