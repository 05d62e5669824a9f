package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/pagegen-backend/internal/pagegen/config"
	"github.com/yungbote/pagegen-backend/internal/pagegen/generr"
	"github.com/yungbote/pagegen-backend/internal/pagegen/pipeline"
	"github.com/yungbote/pagegen-backend/internal/pagegen/provider/router"
	"github.com/yungbote/pagegen-backend/internal/pagegen/service"
	"github.com/yungbote/pagegen-backend/internal/platform/logger"
)

var (
	generatePrompt  string
	generateTimeout time.Duration
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run a single generation and print the repaired JSON",
}

var generateLandingCmd = &cobra.Command{
	Use:   "landing",
	Short: "Generate a landing-page document",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, pipeline.KindLanding)
	},
}

var generateBioCmd = &cobra.Command{
	Use:   "bio",
	Short: "Generate bio-page elements",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, pipeline.KindBio)
	},
}

func init() {
	generateCmd.PersistentFlags().StringVarP(&generatePrompt, "prompt", "p", "", "Free-text description of the page")
	generateCmd.PersistentFlags().DurationVar(&generateTimeout, "timeout", 3*time.Minute, "Overall generation timeout")
	generateCmd.AddCommand(generateLandingCmd)
	generateCmd.AddCommand(generateBioCmd)
}

func runGenerate(cmd *cobra.Command, kind string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), generateTimeout)
	defer cancel()

	chain, err := router.New(ctx, cfg, logger.Nop())
	if err != nil {
		return err
	}
	svc := service.New(cfg, chain, logger.Nop(), service.Options{})

	req := pipeline.Request{Prompt: generatePrompt}
	var (
		doc      any
		provider string
	)
	switch kind {
	case pipeline.KindBio:
		res, gerr := svc.GenerateBio(ctx, req)
		doc, provider, err = res.Document, res.Provider, gerr
	default:
		res, gerr := svc.GenerateLanding(ctx, req)
		doc, provider, err = res.Document, res.Provider, gerr
	}
	if err != nil {
		writeFailure(cmd.ErrOrStderr(), err)
		return reportedError{err}
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "generated by %s\n", provider)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// reportedError marks an error whose details were already written to stderr.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func writeFailure(w io.Writer, err error) {
	fmt.Fprintf(w, "%s (%s)\n", generr.Message(err), generr.Code(err))
	var un *generr.UnavailableError
	if errors.As(err, &un) {
		for _, a := range un.Attempts {
			fmt.Fprintf(w, "  %s [%s] status=%d: %s\n", a.Provider, a.Role, a.StatusCode, a.Message)
		}
	}
	var mal *generr.MalformedError
	if errors.As(err, &mal) {
		fmt.Fprintf(w, "raw response:\n%s\n", mal.Preview)
	}
}
