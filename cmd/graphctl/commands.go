package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"coursegraph/application/documents"
	"coursegraph/application/queries"
	queries_handlers "coursegraph/application/queries/handlers"
	"coursegraph/infrastructure/config"
	"coursegraph/infrastructure/identity/cognito"
	"coursegraph/infrastructure/logging"
	"coursegraph/infrastructure/messaging/eventbridge"
	"coursegraph/infrastructure/pdfapi"
	"coursegraph/infrastructure/persistence/helix"
)

// env carries the configuration and logger shared by subcommands
type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}
	var verbose bool

	root := &cobra.Command{
		Use:           "graphctl",
		Short:         "Inspect and manage course graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			level := "warn"
			if verbose {
				level = "debug"
			}
			logger, _, err := logging.New(logging.Options{Level: level})
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.logger = logger
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")

	root.AddCommand(
		newGraphCmd(e),
		newUploadCmd(e),
		newDeleteCmd(e),
		newSecretHashCmd(e),
	)
	return root
}

func newGraphCmd(e *env) *cobra.Command {
	var summary bool
	cmd := &cobra.Command{
		Use:   "graph [user-id]",
		Short: "Print the assembled graph of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handler := queries_handlers.NewGetGraphDataHandler(helixStore(e), e.cfg.RelatedFetchConcurrency, nil, e.logger)

			out, err := handler.Handle(cmd.Context(), queries.GetGraphDataQuery{UserID: args[0]})
			if err != nil {
				return err
			}
			result := out.(*queries.GetGraphDataResult)

			if summary {
				fmt.Fprintf(cmd.OutOrStdout(), "nodes: %d\nlinks: %d\nplaceholder: %t\n",
					len(result.Snapshot.Nodes), len(result.Snapshot.Links), result.Placeholder)
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), result.Snapshot)
		},
	}
	cmd.Flags().BoolVar(&summary, "summary", false, "print counts only")
	return cmd
}

func newUploadCmd(e *env) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "upload [file...]",
		Short: "Upload and process PDFs for a user",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := documentService(e)

			files := make([]documents.File, 0, len(args))
			for _, path := range args {
				files = append(files, localFile(path))
			}

			result := svc.UploadBatch(cmd.Context(), userID, files)
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if result.ErrorCount > 0 {
				return fmt.Errorf("%d of %d uploads failed", result.ErrorCount, len(result.Results))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "owner of the documents")
	cmd.MarkFlagRequired("user")
	return cmd
}

func newDeleteCmd(e *env) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "delete [pdf-id]",
		Short: "Delete a processed PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pdfID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid pdf id %q", args[0])
			}
			if err := documentService(e).Delete(cmd.Context(), userID, pdfID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted pdf %d\n", pdfID)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "owner of the document")
	cmd.MarkFlagRequired("user")
	return cmd
}

func newSecretHashCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "secret-hash [username]",
		Short: "Print the Cognito SECRET_HASH for a username",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if e.cfg.CognitoClientSecret == "" {
				return fmt.Errorf("COGNITO_CLIENT_SECRET is not set")
			}
			fmt.Fprintln(cmd.OutOrStdout(), cognito.SecretHash(e.cfg.CognitoClientSecret, args[0], e.cfg.CognitoClientID))
			return nil
		},
	}
}

func helixStore(e *env) *helix.Client {
	helixCfg := helix.DefaultConfig(e.cfg.HelixURL)
	helixCfg.Timeout = e.cfg.HelixTimeout
	return helix.NewClient(helixCfg, nil, nil, e.logger)
}

// documentService runs without sessions or a graph cache to keep in step
func documentService(e *env) *documents.Service {
	backend := pdfapi.NewClient(e.cfg.PDFAPIURL, e.cfg.PDFAPITimeout, e.logger)
	return documents.NewService(backend, helixStore(e), nil, nil, eventbridge.NewLogPublisher(e.logger), nil, e.cfg.UploadDelay, e.logger)
}

func localFile(path string) documents.File {
	return documents.File{
		Filename: filepath.Base(path),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
