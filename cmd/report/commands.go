package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"shale-dashboard/internal/app"
	"shale-dashboard/internal/config"
	"shale-dashboard/internal/export"
	"shale-dashboard/internal/models"
	"shale-dashboard/internal/ranking"
	"shale-dashboard/internal/services"
	"shale-dashboard/pkg/logging"
	"shale-dashboard/pkg/metrics"
)

const version = "1.0.0"

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	source     string
	production string
	fracture   string
	logLevel   string
	jsonOutput bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "shale-report",
		Short:         "Vaca Muerta well production and completion report",
		Long:          `shale-report loads the Secretaría de Energía production and fracture tables, runs the well pipeline and prints the dashboard views.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "config file (default: $CONFIG_PATH or ./config.yaml)")
	f.StringVar(&opts.source, "source", "", "data source kind: http, file or postgres (overrides config)")
	f.StringVar(&opts.production, "production", "", "production table URL or path (overrides config)")
	f.StringVar(&opts.fracture, "fracture", "", "fracture table URL or path (overrides config)")
	f.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides config)")
	f.BoolVar(&opts.jsonOutput, "json", false, "print JSON instead of text tables")

	root.AddCommand(newViewsCmd(opts), newWellsCmd(opts), newWellCmd(opts))
	return root
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadConfigFrom(o.configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, err
	}

	if o.source != "" {
		cfg.Source.Kind = o.source
	}
	if o.production != "" {
		cfg.Source.ProductionURL = o.production
	}
	if o.fracture != "" {
		cfg.Source.FractureURL = o.fracture
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// open builds the app with logs on stderr, leaving stdout to the report.
func (o *rootOptions) open(cmd *cobra.Command) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	logger := logging.NewStructuredLogger("shale-report", version, logging.ParseLevel(cfg.Logging.Level))
	logger.SetOutput(cmd.ErrOrStderr())

	return app.New(ctx(cmd), cfg, logger, metrics.NewNopCollector())
}

func (o *rootOptions) print(w io.Writer, v interface{}, tables ...*ranking.Table) error {
	if o.jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return export.WriteAllText(w, tables)
}

func newViewsCmd(opts *rootOptions) *cobra.Command {
	var (
		year     int
		xlsxPath string
	)

	cmd := &cobra.Command{
		Use:   "views",
		Short: "Print every dashboard view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			tables, err := a.Dashboard.AllViews(ctx(cmd), year)
			if err != nil {
				return err
			}

			if xlsxPath != "" {
				if err := export.SaveWorkbook(xlsxPath, tables); err != nil {
					return fmt.Errorf("write workbook: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d sheets to %s\n", len(tables), xlsxPath)
				return nil
			}
			return opts.print(cmd.OutOrStdout(), tables, tables...)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "activity year for the per-operator counts (default: latest)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write the views to an Excel workbook instead of stdout")
	return cmd
}

func newWellsCmd(opts *rootOptions) *cobra.Command {
	var filter services.WellFilter

	cmd := &cobra.Command{
		Use:   "wells",
		Short: "List per-well summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			wells, total, err := a.Dashboard.ListWells(ctx(cmd), filter)
			if err != nil {
				return err
			}

			t := ranking.FluidSummaryTable(wells)
			t.Title = fmt.Sprintf("%s (%d de %d)", t.Title, len(wells), total)
			return opts.print(cmd.OutOrStdout(), wells, t)
		},
	}

	cmd.Flags().StringVar(&filter.Operator, "operator", "", "only wells of this canonical operator")
	cmd.Flags().IntVar(&filter.Year, "year", 0, "only wells that started in this year")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "maximum wells to print (0 for all)")
	return cmd
}

func newWellCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "well <sigla>",
		Short: "Print one well's summary, completions and monthly history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			detail, err := a.Dashboard.Well(ctx(cmd), args[0])
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), detail, summaryTable(detail.Summary), completionTable(detail.Completions), detail.History)
		},
	}
}

func ctx(cmd *cobra.Command) context.Context {
	if c := cmd.Context(); c != nil {
		return c
	}
	return context.Background()
}

func summaryTable(s *models.WellSummary) *ranking.Table {
	t := ranking.NewTable("Pozo "+s.Sigla, "Campo", "Valor")
	t.Append("Empresa", s.Operator)
	t.Append("Área", s.Block)
	t.Append("Tipo de Pozo", s.EffectiveType)
	t.Append("Fluido (McCain)", s.McCainFluid)
	t.Append("Campaña", s.StartYear)
	t.Append("Meses en producción", s.ProducingMonths)
	t.Append("Np (m³)", s.Np)
	t.Append("Gp (km³)", s.Gp)
	t.Append("Wp (m³)", s.Wp)
	t.Append("GOR", ratio(s.GOR))
	t.Append("WOR", ratio(s.WOR))
	t.Append("Qo pico (m³/d)", optional(s.QoPeak))
	t.Append("Qg pico (km³/d)", optional(s.QgPeak))
	t.Append("EUR 30", optional(s.EUR30))
	t.Append("EUR 90", optional(s.EUR90))
	t.Append("EUR 180", optional(s.EUR180))
	return t
}

func completionTable(completions []*models.CompletionRecord) *ranking.Table {
	t := ranking.NewTable("Fracturas", "ID", "Longitud de Rama (m)", "Etapas", "Arena Total (tn)", "Fracspacing (m)")
	for _, c := range completions {
		t.Append(c.FractureID, c.BranchLengthM, c.StageCount, c.ProppantTotal, c.FracSpacing)
	}
	return t
}

func ratio(v float64) any {
	if models.IsUndefinedRatio(v) {
		return "indefinido"
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
