package main

import (
	"github.com/spf13/cobra"

	"destinpq/internal/casestudy"
	"destinpq/internal/database"
	"destinpq/internal/domain"
	"destinpq/internal/services"
)

type fetchOutput struct {
	Source      string             `json:"source"`
	Count       int                `json:"count"`
	Failures    []string           `json:"failures,omitempty"`
	CaseStudies []domain.CaseStudy `json:"caseStudies"`
}

func newFetchCmd(a *app) *cobra.Command {
	var (
		site      string
		serverSet bool
		docsBase  string
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Run the case-study pipeline and print the result",
		Long: `Runs the ordered case-study strategies and prints the first successful
result as JSON. By default the full client pipeline runs against --site;
with --server only the direct spreadsheet strategies run. When every
strategy fails the hardcoded list is printed with source "fallback".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if site == "" {
				site = a.cfg.App.SiteURL
			}
			var opts []casestudy.SheetOption
			if docsBase != "" {
				opts = append(opts, casestudy.WithDocsBaseURL(docsBase))
			}
			sheet := casestudy.NewSheetSource(a.cfg.Sheets, nil, opts...)

			strategies := casestudy.ServerStrategies(sheet)
			if !serverSet {
				strategies = casestudy.ClientStrategies(sheet, casestudy.NewSiteClient(site, nil))
			}

			res, err := casestudy.NewPipeline(a.logger, strategies...).Resolve(cmd.Context())
			out := fetchOutput{Source: res.Source, CaseStudies: res.Studies}
			for _, f := range res.Failures {
				out.Failures = append(out.Failures, f.Strategy+": "+f.Err.Error())
			}
			if err != nil {
				out.Source = casestudy.SourceFallback
				out.CaseStudies = casestudy.Fallback()
			}
			out.Count = len(out.CaseStudies)
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&site, "site", "", "site base URL (default SITE_URL)")
	cmd.Flags().BoolVar(&serverSet, "server", false, "only run the server-side spreadsheet strategies")
	cmd.Flags().StringVar(&docsBase, "docs-base-url", "", "override the spreadsheet host")
	_ = cmd.Flags().MarkHidden("docs-base-url")
	return cmd
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh the case-study catalog from the spreadsheet",
		Long: `Runs the server-side spreadsheet strategies and replaces the catalog in
DATABASE_URL. The hardcoded fallback list is never written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.Init(a.logger); err != nil {
				return err
			}
			conn := database.GetDB()
			defer func() { _ = database.Close(conn) }()

			catalog := services.NewCatalogService(conn, a.logger)
			sheet := casestudy.NewSheetSource(a.cfg.Sheets, nil)
			res, err := services.NewCaseStudyService(catalog, sheet, a.logger).Sync(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}
